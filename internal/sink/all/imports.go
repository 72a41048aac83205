// Package all wires all built-in sink backends into the sink factory.
//
// This package exists purely for side effects: importing it (even as a blank
// import) runs the init functions of each concrete backend, which register
// their open functions with the sink package.
//
// In other words, importing this package makes the following output kinds
// available at runtime:
//
//   - "csv"      (tabsynth/internal/sink/csv)
//   - "postgres" (tabsynth/internal/sink/postgres)
//   - "sqlite"   (tabsynth/internal/sink/sqlite)
//   - "mysql"    (tabsynth/internal/sink/mysql)
//   - "mssql"    (tabsynth/internal/sink/mssql)
//
// Typical usage (in cmd/tabsynth/main.go or a similar wiring layer):
//
//	import (
//	    _ "tabsynth/internal/sink/all" // enable all built-in sinks
//
//	    "tabsynth/internal/sink"
//	)
//
//	s, err := sink.Open(ctx, sink.Config{Kind: "csv", Path: "out.csv"})
//
// A binary that only ever writes files can import sink/csv alone instead and
// skip the database drivers entirely.
package all

import (
	_ "tabsynth/internal/sink/csv"
	_ "tabsynth/internal/sink/mssql"
	_ "tabsynth/internal/sink/mysql"
	_ "tabsynth/internal/sink/postgres"
	_ "tabsynth/internal/sink/sqlite"
)

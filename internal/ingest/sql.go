// SQL sources read through database/sql: sqlite, mysql, and mssql share one
// loader, with the drivers blank-imported here. Postgres has a native pgx
// path in postgres.go.

package ingest

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/microsoft/go-mssqldb"
	_ "modernc.org/sqlite"

	"tabsynth/internal/config"
	"tabsynth/internal/table"
)

// sqlDrivers maps source kinds to registered database/sql driver names.
var sqlDrivers = map[string]string{
	"sqlite": "sqlite",
	"mysql":  "mysql",
	"mssql":  "sqlserver",
}

// sourceQuery resolves the SELECT to run: an explicit query wins, otherwise
// the whole table is read.
func sourceQuery(src config.Source) (string, error) {
	if strings.TrimSpace(src.Query) != "" {
		return src.Query, nil
	}
	if strings.TrimSpace(src.Table) == "" {
		return "", fmt.Errorf("ingest: %s source requires a table or query", src.Kind)
	}
	return "SELECT * FROM " + src.Table, nil
}

// loadSQL reads a query result into a Table via database/sql.
func loadSQL(ctx context.Context, src config.Source) (*table.Table, error) {
	driver, ok := sqlDrivers[src.Kind]
	if !ok {
		return nil, &FormatError{Source: src.Kind, Reason: "unsupported SQL source kind"}
	}
	query, err := sourceQuery(src)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(driver, src.DSN)
	if err != nil {
		return nil, fmt.Errorf("ingest: open %s: %w", src.Kind, err)
	}
	defer db.Close()

	// Fail fast on invalid DSNs before running the query.
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		return nil, fmt.Errorf("ingest: ping %s: %w", src.Kind, err)
	}

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("ingest: query %s: %w", src.Kind, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("ingest: columns: %w", err)
	}
	tbl, err := table.New(cols)
	if err != nil {
		return nil, err
	}

	scan := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range scan {
		ptrs[i] = &scan[i]
	}
	row := make([]any, len(cols))
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("ingest: scan: %w", err)
		}
		for i, v := range scan {
			row[i] = fromSQLValue(v)
		}
		if err := tbl.AppendRow(row); err != nil {
			return nil, err
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ingest: rows: %w", err)
	}
	return tbl, nil
}

// fromSQLValue coerces a driver value into the table value domain: integers
// to int64, floats to float64, []byte to string, timestamps to RFC 3339,
// NULL to nil. Anything else is stringified.
func fromSQLValue(v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case int64:
		return x
	case int:
		return int64(x)
	case int32:
		return int64(x)
	case int16:
		return int64(x)
	case int8:
		return int64(x)
	case uint64:
		return int64(x)
	case uint32:
		return int64(x)
	case float64:
		return x
	case float32:
		return float64(x)
	case bool:
		return x
	case []byte:
		return string(x)
	case string:
		return x
	case time.Time:
		return x.UTC().Format(time.RFC3339)
	default:
		return fmt.Sprint(x)
	}
}

package sqlite

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"tabsynth/internal/schema"
	"tabsynth/internal/sink"
	"tabsynth/internal/table"
)

// writeInput builds a typed table and its schema with id as the primary key.
func writeInput(t *testing.T) (*table.Table, schema.Model) {
	t.Helper()
	tbl, err := table.New([]string{"id", "cat", "val", "flag", "note"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	rows := [][]any{
		{int64(1), "A", 1.5, true, "first"},
		{int64(2), "A", 2.5, false, nil},
		{int64(3), "B", 3.5, true, "third"},
		{int64(4), "B", 4.5, false, "fourth"},
		{int64(5), "A", 5.5, true, nil},
	}
	for _, r := range rows {
		if err := tbl.AppendRow(r); err != nil {
			t.Fatalf("AppendRow: %v", err)
		}
	}
	sm, err := schema.Infer(tbl, schema.InferOptions{}).SetPrimaryKey("id")
	if err != nil {
		t.Fatalf("SetPrimaryKey: %v", err)
	}
	return tbl, sm
}

/*
TestWriter_EndToEnd drives the full sink path against a real file-backed
database: EnsureTable creates the destination from the derived definition,
Write inserts in batches smaller than the table, and a direct query confirms
the cells arrived with the expected storage types (bools as 0/1, nulls as
NULL).
*/
func TestWriter_EndToEnd(t *testing.T) {
	t.Parallel()

	tbl, sm := writeInput(t)
	ctx := context.Background()
	dsn := filepath.Join(t.TempDir(), "synth.db")

	w, err := NewWriter(ctx, sink.Config{Kind: "sqlite", DSN: dsn, Table: "claims", BatchSize: 2})
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	defer w.Close()

	def, err := sink.BuildTableDef("claims", sm, tbl)
	if err != nil {
		t.Fatalf("BuildTableDef: %v", err)
	}
	if err := w.EnsureTable(ctx, def); err != nil {
		t.Fatalf("EnsureTable: %v", err)
	}

	n, err := w.Write(ctx, tbl)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if n != 5 {
		t.Fatalf("Write = %d rows, want 5", n)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM claims").Scan(&count); err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 5 {
		t.Fatalf("COUNT(*) = %d, want 5", count)
	}

	var (
		id   int64
		cat  string
		val  float64
		flag int64
		note any
	)
	row := db.QueryRow("SELECT id, cat, val, flag, note FROM claims WHERE id = 2")
	if err := row.Scan(&id, &cat, &val, &flag, &note); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if id != 2 || cat != "A" || val != 2.5 || flag != 0 {
		t.Fatalf("row 2 = (%d, %q, %v, %d), want (2, \"A\", 2.5, 0)", id, cat, val, flag)
	}
	if note != nil {
		t.Fatalf("note = %v, want NULL", note)
	}
}

// TestWriter_WriteWithoutTableFails verifies that writing into a missing
// table surfaces the driver error instead of silently creating anything.
func TestWriter_WriteWithoutTableFails(t *testing.T) {
	t.Parallel()

	tbl, _ := writeInput(t)
	ctx := context.Background()
	dsn := filepath.Join(t.TempDir(), "missing.db")

	w, err := NewWriter(ctx, sink.Config{DSN: dsn, Table: "nowhere"})
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	defer w.Close()

	if _, err := w.Write(ctx, tbl); err == nil {
		t.Fatalf("Write into missing table error = nil, want non-nil")
	}
}

// TestNewWriter_Validation verifies the DSN and table guards.
func TestNewWriter_Validation(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	if _, err := NewWriter(ctx, sink.Config{DSN: " ", Table: "t"}); err == nil {
		t.Fatalf("NewWriter(blank DSN) error = nil, want non-nil")
	}
	if _, err := NewWriter(ctx, sink.Config{DSN: "x.db", Table: " "}); err == nil {
		t.Fatalf("NewWriter(blank table) error = nil, want non-nil")
	}
}

// TestBuildCreateTableSQLBasic verifies the rendered statement for the
// canonical fixture: cell types map onto SQLite affinities and the key
// column carries NOT NULL plus the PRIMARY KEY clause.
func TestBuildCreateTableSQLBasic(t *testing.T) {
	t.Parallel()

	tbl, sm := writeInput(t)
	def, err := sink.BuildTableDef("claims", sm, tbl)
	if err != nil {
		t.Fatalf("BuildTableDef: %v", err)
	}

	got, err := BuildCreateTableSQL(def)
	if err != nil {
		t.Fatalf("BuildCreateTableSQL() error = %v", err)
	}

	want := "" +
		`CREATE TABLE IF NOT EXISTS "claims" (` + "\n" +
		`  "id" INTEGER NOT NULL,` + "\n" +
		`  "cat" TEXT,` + "\n" +
		`  "val" REAL,` + "\n" +
		`  "flag" INTEGER,` + "\n" +
		`  "note" TEXT,` + "\n" +
		`  PRIMARY KEY ("id")` + "\n" +
		`);`

	if got != want {
		t.Fatalf("BuildCreateTableSQL() =\n%s\nwant:\n%s", got, want)
	}
}

// TestBuildCreateTableSQLErrors validates basic input validation in
// BuildCreateTableSQL.
func TestBuildCreateTableSQLErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		def  sink.TableDef
	}{
		{
			name: "empty FQN",
			def: sink.TableDef{
				FQN:     "   ",
				Columns: []sink.ColumnDef{{Name: "id", Value: "int64"}},
			},
		},
		{
			name: "no columns",
			def: sink.TableDef{
				FQN:     "events",
				Columns: nil,
			},
		},
		{
			name: "column empty name",
			def: sink.TableDef{
				FQN: "events",
				Columns: []sink.ColumnDef{
					{Name: "id", Value: "int64"},
					{Name: "   ", Value: "string"},
				},
			},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			sql, err := BuildCreateTableSQL(tt.def)
			if err == nil {
				t.Fatalf("BuildCreateTableSQL(%+v) error = nil, want non-nil", tt.def)
			}
			if sql != "" {
				t.Fatalf("BuildCreateTableSQL(%+v) SQL = %q, want empty string on error", tt.def, sql)
			}
		})
	}
}

// TestQuoteFQN verifies that quoteFQN quotes each segment of a possibly
// qualified table name and ignores empty segments.
func TestQuoteFQN(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "simple table", in: "events", want: `"events"`},
		{name: "main schema", in: "main.events", want: `"main"."events"`},
		{name: "with quotes", in: `weird"name`, want: `"weird""name"`},
		{name: "empty segments", in: " .main..events. ", want: `"main"."events"`},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := quoteFQN(tt.in)
			if got != tt.want {
				t.Fatalf("quoteFQN(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

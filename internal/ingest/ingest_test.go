package ingest

import (
	"archive/zip"
	"bytes"
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"tabsynth/internal/config"
)

/*
writeFile drops content into a fresh temp dir and returns the full path.
*/
func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoadPath_File(t *testing.T) {
	path := writeFile(t, "people.csv", "id,name\n1,ana\n2,ben\n")

	tbl, err := LoadPath(context.Background(), path)
	if err != nil {
		t.Fatalf("LoadPath: %v", err)
	}
	if tbl.NumRows() != 2 {
		t.Fatalf("rows = %d, want 2", tbl.NumRows())
	}
	if v, _ := tbl.Value(1, "name"); v != "ben" {
		t.Fatalf("name[1] = %#v, want ben", v)
	}
}

func TestLoadPath_JSON(t *testing.T) {
	path := writeFile(t, "people.json", `[{"id": 1, "name": "ana"}]`)

	tbl, err := LoadPath(context.Background(), path)
	if err != nil {
		t.Fatalf("LoadPath: %v", err)
	}
	if v, _ := tbl.Value(0, "id"); v != int64(1) {
		t.Fatalf("id[0] = %#v, want int64(1)", v)
	}
}

func TestLoadPath_UnknownExtension(t *testing.T) {
	path := writeFile(t, "people.parquet", "not really")

	_, err := LoadPath(context.Background(), path)
	var fe *FormatError
	if !errors.As(err, &fe) {
		t.Fatalf("err = %v, want *FormatError", err)
	}
}

func TestLoad_ExplicitFormatOverridesExtension(t *testing.T) {
	path := writeFile(t, "export.txt", "id\n5\n")

	tbl, err := Load(context.Background(), config.Source{Kind: "file", Path: path, Format: "csv"})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if v, _ := tbl.Value(0, "id"); v != int64(5) {
		t.Fatalf("id[0] = %#v, want int64(5)", v)
	}
}

func TestLoad_UnknownKind(t *testing.T) {
	_, err := Load(context.Background(), config.Source{Kind: "carrier-pigeon"})
	var fe *FormatError
	if !errors.As(err, &fe) {
		t.Fatalf("err = %v, want *FormatError", err)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(context.Background(), config.Source{Kind: "file", Path: "nosuch/file.csv"})
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("err = %v, want wrapped os.ErrNotExist", err)
	}
}

func TestLoad_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Load(ctx, config.Source{Kind: "file", Path: "irrelevant.csv"})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestLoadPath_ZipSingleEntry(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("inner/data.csv")
	if err != nil {
		t.Fatalf("zip create: %v", err)
	}
	if _, err := w.Write([]byte("id,city\n7,Praha\n")); err != nil {
		t.Fatalf("zip write: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}
	path := writeFile(t, "bundle.zip", buf.String())

	tbl, err := LoadPath(context.Background(), path)
	if err != nil {
		t.Fatalf("LoadPath: %v", err)
	}
	if v, _ := tbl.Value(0, "city"); v != "Praha" {
		t.Fatalf("city[0] = %#v, want Praha", v)
	}
}

func TestLoadPath_EmptyZip(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	if err := zw.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}
	path := writeFile(t, "empty.zip", buf.String())

	_, err := LoadPath(context.Background(), path)
	var fe *FormatError
	if !errors.As(err, &fe) {
		t.Fatalf("err = %v, want *FormatError", err)
	}
}

/*
TestLoadSQL_SQLite seeds a real file-backed SQLite database through
database/sql, then reads it back through the source loader to verify the
column ordering and the driver-value coercion (INTEGER to int64, REAL to
float64, TEXT to string, NULL to nil).
*/
func TestLoadSQL_SQLite(t *testing.T) {
	ctx := context.Background()
	dsn := filepath.Join(t.TempDir(), "claims.db")

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()
	stmts := []string{
		`CREATE TABLE claims (id INTEGER PRIMARY KEY, holder TEXT, amount REAL, note TEXT)`,
		`INSERT INTO claims VALUES (1, 'ana', 120.5, 'ok')`,
		`INSERT INTO claims VALUES (2, 'ben', 80, NULL)`,
	}
	for _, s := range stmts {
		if _, err := db.ExecContext(ctx, s); err != nil {
			t.Fatalf("exec %q: %v", s, err)
		}
	}

	tbl, err := Load(ctx, config.Source{Kind: "sqlite", DSN: dsn, Table: "claims"})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if tbl.NumRows() != 2 {
		t.Fatalf("rows = %d, want 2", tbl.NumRows())
	}
	if v, _ := tbl.Value(0, "id"); v != int64(1) {
		t.Fatalf("id[0] = %#v, want int64(1)", v)
	}
	if v, _ := tbl.Value(0, "amount"); v != 120.5 {
		t.Fatalf("amount[0] = %#v, want 120.5", v)
	}
	if v, _ := tbl.Value(0, "holder"); v != "ana" {
		t.Fatalf("holder[0] = %#v, want ana", v)
	}
	if v, _ := tbl.Value(1, "note"); v != nil {
		t.Fatalf("note[1] = %#v, want nil", v)
	}
}

func TestLoadSQL_QueryWins(t *testing.T) {
	ctx := context.Background()
	dsn := filepath.Join(t.TempDir(), "q.db")

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()
	for _, s := range []string{
		`CREATE TABLE t (id INTEGER, v TEXT)`,
		`INSERT INTO t VALUES (1, 'keep'), (2, 'drop')`,
	} {
		if _, err := db.ExecContext(ctx, s); err != nil {
			t.Fatalf("exec: %v", err)
		}
	}

	tbl, err := Load(ctx, config.Source{
		Kind:  "sqlite",
		DSN:   dsn,
		Table: "t",
		Query: "SELECT v FROM t WHERE id = 1",
	})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if tbl.NumRows() != 1 || tbl.NumColumns() != 1 {
		t.Fatalf("table = %dx%d, want 1x1", tbl.NumRows(), tbl.NumColumns())
	}
	if v, _ := tbl.Value(0, "v"); v != "keep" {
		t.Fatalf("v[0] = %#v, want keep", v)
	}
}

func TestFromSQLValue(t *testing.T) {
	ts := time.Date(2024, 5, 17, 10, 30, 0, 0, time.UTC)
	tests := []struct {
		name string
		in   any
		want any
	}{
		{"nil", nil, nil},
		{"int64", int64(9), int64(9)},
		{"int32 widened", int32(7), int64(7)},
		{"uint32 widened", uint32(3), int64(3)},
		{"float32 widened", float32(1.5), float64(1.5)},
		{"bytes to string", []byte("xy"), "xy"},
		{"bool", true, true},
		{"time to rfc3339", ts, "2024-05-17T10:30:00Z"},
	}
	for _, tt := range tests {
		tt := tt // capture
		t.Run(tt.name, func(t *testing.T) {
			if got := fromSQLValue(tt.in); got != tt.want {
				t.Fatalf("fromSQLValue(%#v) = %#v, want %#v", tt.in, got, tt.want)
			}
		})
	}
}

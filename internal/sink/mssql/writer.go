// Package mssql writes a table into Microsoft SQL Server using the
// go-mssqldb bulk copy API. Rows stream through one CopyIn statement inside
// a transaction. Registration happens in init.
package mssql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	mssql "github.com/microsoft/go-mssqldb"
	"github.com/microsoft/go-mssqldb/msdsn"

	"tabsynth/internal/sink"
	"tabsynth/internal/table"
)

// Writer is an MSSQL-backed implementation of sink.Sink.
type Writer struct {
	db  *sql.DB
	cfg sink.Config
}

// NewWriter opens a SQL Server connection using the configured DSN. The DSN
// is parsed up front to fail fast on obvious mistakes.
func NewWriter(ctx context.Context, cfg sink.Config) (*Writer, error) {
	if strings.TrimSpace(cfg.Table) == "" {
		return nil, fmt.Errorf("mssql sink: table must not be empty")
	}
	if _, err := msdsn.Parse(cfg.DSN); err != nil {
		return nil, fmt.Errorf("mssql dsn: %w", err)
	}
	db, err := sql.Open("sqlserver", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("mssql sink: open: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("mssql sink: ping: %w", err)
	}
	return &Writer{db: db, cfg: cfg}, nil
}

// EnsureTable creates the destination table if it does not exist.
func (w *Writer) EnsureTable(ctx context.Context, def sink.TableDef) error {
	stmt, err := BuildCreateTableSQL(def)
	if err != nil {
		return err
	}
	if _, err := w.db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("mssql sink: create table: %w", err)
	}
	return nil
}

// Write bulk-copies tbl into the configured table. The final Exec with no
// arguments flushes the bulk operation and reports the row count.
func (w *Writer) Write(ctx context.Context, tbl *table.Table) (int64, error) {
	if tbl.NumRows() == 0 {
		return 0, nil
	}
	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("mssql sink: begin tx: %w", err)
	}
	rollback := func() { _ = tx.Rollback() }

	stmt, err := tx.PrepareContext(ctx, mssql.CopyIn(w.cfg.Table, mssql.BulkOptions{}, tbl.Columns()...))
	if err != nil {
		rollback()
		return 0, fmt.Errorf("mssql sink: prepare bulk: %w", err)
	}
	for i := 0; i < tbl.NumRows(); i++ {
		if _, err := stmt.ExecContext(ctx, tbl.Row(i)...); err != nil {
			_ = stmt.Close()
			rollback()
			return 0, fmt.Errorf("mssql sink: bulk row %d: %w", i, err)
		}
	}
	res, err := stmt.ExecContext(ctx)
	if cerr := stmt.Close(); cerr != nil && err == nil {
		err = cerr
	}
	if err != nil {
		rollback()
		return 0, fmt.Errorf("mssql sink: bulk finalize: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		rollback()
		return 0, fmt.Errorf("mssql sink: rows affected: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("mssql sink: commit: %w", err)
	}
	return n, nil
}

// Close closes the database handle.
func (w *Writer) Close() {
	_ = w.db.Close()
}

var _ sink.Sink = (*Writer)(nil)

func init() {
	sink.Register("mssql", func(ctx context.Context, cfg sink.Config) (sink.Sink, error) {
		return NewWriter(ctx, cfg)
	})
}

// Package mysql writes a table into MySQL using database/sql. Each batch
// goes in as one multi-row INSERT, the closest thing to a bulk load the
// text protocol offers. Registration happens in init.
package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"tabsynth/internal/sink"
	"tabsynth/internal/table"
)

// Writer is a MySQL-backed implementation of sink.Sink.
type Writer struct {
	db  *sql.DB
	cfg sink.Config
}

// NewWriter opens a MySQL connection using the configured DSN, for example
// "user:pass@tcp(localhost:3306)/synth".
func NewWriter(ctx context.Context, cfg sink.Config) (*Writer, error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, fmt.Errorf("mysql sink: DSN must not be empty")
	}
	if strings.TrimSpace(cfg.Table) == "" {
		return nil, fmt.Errorf("mysql sink: table must not be empty")
	}

	db, err := sql.Open("mysql", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("mysql sink: open: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("mysql sink: ping: %w", err)
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
		return fmt.Errorf("mysql sink: create table: %w", err)
	}
	return nil
}

// Write inserts tbl into the configured table, one multi-row INSERT per
// batch. A single INSERT is atomic on its own, so no explicit transaction
// wraps it.
func (w *Writer) Write(ctx context.Context, tbl *table.Table) (int64, error) {
	columns := tbl.Columns()
	colList := strings.Join(mapIdent(columns), ", ")

	group := make([]string, len(columns))
	for i := range group {
		group[i] = "?"
	}
	rowGroup := "(" + strings.Join(group, ", ") + ")"

	return sink.BatchRows(ctx, tbl, w.cfg.EffectiveBatchSize(), func(ctx context.Context, rows [][]any) (int64, error) {
		groups := make([]string, len(rows))
		args := make([]any, 0, len(rows)*len(columns))
		for i, row := range rows {
			groups[i] = rowGroup
			args = append(args, row...)
		}
		stmtSQL := fmt.Sprintf(
			"INSERT INTO %s (%s) VALUES %s",
			quoteFQN(w.cfg.Table), colList, strings.Join(groups, ", "),
		)
		res, err := w.db.ExecContext(ctx, stmtSQL, args...)
		if err != nil {
			return 0, fmt.Errorf("mysql sink: insert: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("mysql sink: rows affected: %w", err)
		}
		return n, nil
	})
}

// Close closes the database handle.
func (w *Writer) Close() {
	_ = w.db.Close()
}

var _ sink.Sink = (*Writer)(nil)

func init() {
	sink.Register("mysql", func(ctx context.Context, cfg sink.Config) (sink.Sink, error) {
		return NewWriter(ctx, cfg)
	})
}

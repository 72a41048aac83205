// Package sqlite writes a table into SQLite using database/sql. SQLite has
// no dedicated bulk-load API, so rows go in as prepared INSERTs inside one
// transaction per batch, which keeps performance acceptable for moderate
// volumes. Registration happens in init.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"tabsynth/internal/sink"
	"tabsynth/internal/table"
)

// Writer is a SQLite-backed implementation of sink.Sink.
type Writer struct {
	db  *sql.DB
	cfg sink.Config
}

// NewWriter opens a SQLite connection using the configured DSN. The DSN is
// passed directly to database/sql; for example:
//
//	"file:synthetic.db?cache=shared"
//	"synthetic.db"
func NewWriter(ctx context.Context, cfg sink.Config) (*Writer, error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, fmt.Errorf("sqlite sink: DSN must not be empty")
	}
	if strings.TrimSpace(cfg.Table) == "" {
		return nil, fmt.Errorf("sqlite sink: table must not be empty")
	}

	db, err := sql.Open("sqlite", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("sqlite sink: open: %w", err)
	}

	// Ping with a bounded context to fail fast on invalid DSNs.
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite sink: ping: %w", err)
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
		return fmt.Errorf("sqlite sink: create table: %w", err)
	}
	return nil
}

// Write inserts tbl into the configured table, one transaction per batch
// with a prepared single-row INSERT.
func (w *Writer) Write(ctx context.Context, tbl *table.Table) (int64, error) {
	columns := tbl.Columns()
	placeholders := make([]string, len(columns))
	for i := range placeholders {
		placeholders[i] = "?"
	}
	stmtSQL := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s)",
		quoteFQN(w.cfg.Table),
		strings.Join(mapIdent(columns), ", "),
		strings.Join(placeholders, ", "),
	)

	return sink.BatchRows(ctx, tbl, w.cfg.EffectiveBatchSize(), func(ctx context.Context, rows [][]any) (int64, error) {
		tx, err := w.db.BeginTx(ctx, nil)
		if err != nil {
			return 0, fmt.Errorf("sqlite sink: begin tx: %w", err)
		}
		stmt, err := tx.PrepareContext(ctx, stmtSQL)
		if err != nil {
			_ = tx.Rollback()
			return 0, fmt.Errorf("sqlite sink: prepare insert: %w", err)
		}
		defer stmt.Close()

		var inserted int64
		for _, row := range rows {
			if _, err := stmt.ExecContext(ctx, row...); err != nil {
				_ = tx.Rollback()
				return 0, fmt.Errorf("sqlite sink: insert: %w", err)
			}
			inserted++
		}
		if err := tx.Commit(); err != nil {
			return 0, fmt.Errorf("sqlite sink: commit: %w", err)
		}
		return inserted, nil
	})
}

// Close closes the database handle.
func (w *Writer) Close() {
	_ = w.db.Close()
}

var _ sink.Sink = (*Writer)(nil)

func init() {
	sink.Register("sqlite", func(ctx context.Context, cfg sink.Config) (sink.Sink, error) {
		return NewWriter(ctx, cfg)
	})
}

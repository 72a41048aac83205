// Package postgres writes a table into Postgres using pgx v5. Rows go in
// through a single COPY, the fastest bulk path the server offers.
// Registration happens in init.
package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"tabsynth/internal/sink"
	"tabsynth/internal/table"
)

// Writer is a Postgres-backed implementation of sink.Sink.
type Writer struct {
	pool *pgxpool.Pool
	cfg  sink.Config
}

// NewWriter opens a pgx pool for the configured DSN. The pool connects
// lazily; a bad DSN surfaces on the first write.
func NewWriter(ctx context.Context, cfg sink.Config) (*Writer, error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, fmt.Errorf("postgres sink: DSN must not be empty")
	}
	if strings.TrimSpace(cfg.Table) == "" {
		return nil, fmt.Errorf("postgres sink: table must not be empty")
	}
	pool, err := pgxpool.New(ctx, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("pgxpool: %w", err)
	}
	return &Writer{pool: pool, cfg: cfg}, nil
}

// EnsureTable creates the destination table if it does not exist. It is
// idempotent; the statement carries IF NOT EXISTS.
func (w *Writer) EnsureTable(ctx context.Context, def sink.TableDef) error {
	sql, err := BuildCreateTableSQL(def)
	if err != nil {
		return err
	}
	if _, err := w.pool.Exec(ctx, sql); err != nil {
		return fmt.Errorf("postgres sink: create table: %w", err)
	}
	return nil
}

// Write bulk-loads tbl into the configured table with COPY.
func (w *Writer) Write(ctx context.Context, tbl *table.Table) (int64, error) {
	rows := make([][]any, tbl.NumRows())
	for i := range rows {
		rows[i] = tbl.Row(i)
	}
	n, err := w.pool.CopyFrom(ctx, splitFQN(w.cfg.Table), tbl.Columns(), pgx.CopyFromRows(rows))
	if err != nil {
		return n, fmt.Errorf("postgres sink: copy: %w", err)
	}
	return n, nil
}

// Close releases the pool.
func (w *Writer) Close() {
	w.pool.Close()
}

var _ sink.Sink = (*Writer)(nil)

// splitFQN converts "schema.table" into a pgx.Identifier {"schema","table"}.
// If no dot is present, returns {"table"}.
func splitFQN(fqn string) pgx.Identifier {
	parts := strings.Split(fqn, ".")
	id := make(pgx.Identifier, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			id = append(id, p)
		}
	}
	return id
}

func init() {
	sink.Register("postgres", func(ctx context.Context, cfg sink.Config) (sink.Sink, error) {
		return NewWriter(ctx, cfg)
	})
}

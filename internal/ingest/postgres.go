// Postgres reads natively through pgx v5; it decodes numerics and timestamps
// to Go types without the database/sql indirection.

package ingest

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"tabsynth/internal/config"
	"tabsynth/internal/table"
)

// loadPostgres reads a query result into a Table using a pgx pool.
func loadPostgres(ctx context.Context, src config.Source) (*table.Table, error) {
	query, err := sourceQuery(src)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.New(ctx, src.DSN)
	if err != nil {
		return nil, fmt.Errorf("pgxpool: %w", err)
	}
	defer pool.Close()

	rows, err := pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("ingest: query postgres: %w", err)
	}
	defer rows.Close()

	fds := rows.FieldDescriptions()
	cols := make([]string, len(fds))
	for i, fd := range fds {
		cols[i] = fd.Name
	}
	tbl, err := table.New(cols)
	if err != nil {
		return nil, err
	}

	row := make([]any, len(cols))
	for rows.Next() {
		vals, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("ingest: row values: %w", err)
		}
		for i, v := range vals {
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

// Package csv writes a table to a local CSV file. Registration happens in
// init, so callers reach it through the sink factory rather than importing
// this package directly.
package csv

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"tabsynth/internal/sink"
	"tabsynth/internal/table"
)

// Writer is a CSV-file implementation of sink.Sink.
type Writer struct {
	path string
}

// NewWriter constructs a Writer for the given destination path. The file is
// created on Write, not here, so a run that fails before the write phase
// leaves nothing behind.
func NewWriter(cfg sink.Config) (*Writer, error) {
	if strings.TrimSpace(cfg.Path) == "" {
		return nil, fmt.Errorf("csv sink: path must not be empty")
	}
	return &Writer{path: cfg.Path}, nil
}

// EnsureTable implements sink.Sink. CSV files carry no schema, so there is
// nothing to create.
func (w *Writer) EnsureTable(ctx context.Context, def sink.TableDef) error {
	return nil
}

// Write renders tbl to the destination path, header first. Null cells become
// empty fields; every other value uses its canonical text label, so a file
// written here reads back with the same cell values.
func (w *Writer) Write(ctx context.Context, tbl *table.Table) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if dir := filepath.Dir(w.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return 0, fmt.Errorf("csv sink: %w", err)
		}
	}

	f, err := os.Create(w.path)
	if err != nil {
		return 0, fmt.Errorf("csv sink: %w", err)
	}

	cw := csv.NewWriter(f)
	if err := cw.Write(tbl.Columns()); err != nil {
		f.Close()
		return 0, fmt.Errorf("csv sink: write header: %w", err)
	}

	record := make([]string, tbl.NumColumns())
	var written int64
	for i := 0; i < tbl.NumRows(); i++ {
		if err := ctx.Err(); err != nil {
			f.Close()
			return written, err
		}
		row := tbl.Row(i)
		for j, v := range row {
			if v == nil {
				record[j] = ""
				continue
			}
			record[j] = table.Label(v)
		}
		if err := cw.Write(record); err != nil {
			f.Close()
			return written, fmt.Errorf("csv sink: write row %d: %w", i, err)
		}
		written++
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		f.Close()
		return written, fmt.Errorf("csv sink: flush: %w", err)
	}
	if err := f.Close(); err != nil {
		return written, fmt.Errorf("csv sink: close: %w", err)
	}
	return written, nil
}

// Close implements sink.Sink. The file handle lives only inside Write.
func (w *Writer) Close() {}

var _ sink.Sink = (*Writer)(nil)

func init() {
	sink.Register("csv", func(ctx context.Context, cfg sink.Config) (sink.Sink, error) {
		return NewWriter(cfg)
	})
}

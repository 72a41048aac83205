// Package sink contains destination-agnostic contracts for writing a
// synthetic table. Concrete backends (csv, postgres, sqlite, mysql, mssql)
// live in subpackages and register themselves with the factory in init();
// importing internal/sink/all enables all built-in kinds.
package sink

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"tabsynth/internal/table"
)

// DefaultBatchSize is the row batch size SQL sinks use when Config.BatchSize
// is zero.
const DefaultBatchSize = 500

// Config addresses one destination. Kind selects the backend; the remaining
// fields apply per kind (Path for csv, DSN and Table for the SQL kinds).
type Config struct {
	Kind       string
	Path       string
	DSN        string
	Table      string
	AutoCreate bool
	BatchSize  int
}

// Sink writes a table somewhere. Implementations are single-use: open, write
// once, close.
type Sink interface {
	// EnsureTable creates the destination table from def when the backend
	// supports DDL. File sinks ignore it.
	EnsureTable(ctx context.Context, def TableDef) error

	// Write persists tbl and returns the number of rows written.
	Write(ctx context.Context, tbl *table.Table) (int64, error)

	Close()
}

// OpenFunc constructs a Sink for one kind. Backend packages register their
// OpenFunc under their kind in init().
type OpenFunc func(ctx context.Context, cfg Config) (Sink, error)

var (
	regMu   sync.RWMutex
	openFns = map[string]OpenFunc{}
)

// Register registers (or replaces) the OpenFunc for kind. It is typically
// called from backend packages' init() functions.
func Register(kind string, fn OpenFunc) {
	regMu.Lock()
	defer regMu.Unlock()
	openFns[kind] = fn
}

// Open constructs a Sink for cfg.Kind. Unknown kinds fail with
// *UnknownKindError listing the registered kinds.
func Open(ctx context.Context, cfg Config) (Sink, error) {
	regMu.RLock()
	fn, ok := openFns[cfg.Kind]
	regMu.RUnlock()
	if !ok {
		return nil, &UnknownKindError{Kind: cfg.Kind, Known: Kinds()}
	}
	return fn(ctx, cfg)
}

// Kinds returns the registered sink kinds in sorted order.
func Kinds() []string {
	regMu.RLock()
	defer regMu.RUnlock()
	kinds := make([]string, 0, len(openFns))
	for k := range openFns {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

// UnknownKindError reports a kind with no registered sink backend.
type UnknownKindError struct {
	Kind  string
	Known []string
}

func (e *UnknownKindError) Error() string {
	if len(e.Known) == 0 {
		return fmt.Sprintf("sink: unknown kind %q, none registered", e.Kind)
	}
	return fmt.Sprintf("sink: unknown kind %q, known kinds: %s", e.Kind, strings.Join(e.Known, ", "))
}

// EffectiveBatchSize resolves the row batch size for SQL sinks: the
// configured value, or DefaultBatchSize when unset.
func (c Config) EffectiveBatchSize() int {
	if c.BatchSize > 0 {
		return c.BatchSize
	}
	return DefaultBatchSize
}

// BatchRows calls flush for every batch of up to size rows from tbl and
// returns the total row count reported by the flushes. SQL backends implement
// flush with their bulk-insert primitive; the batch slice is reused between
// calls and must not be retained.
func BatchRows(
	ctx context.Context,
	tbl *table.Table,
	size int,
	flush func(ctx context.Context, rows [][]any) (int64, error),
) (int64, error) {
	if size <= 0 {
		return 0, fmt.Errorf("sink: batch size must be > 0")
	}

	var total int64
	batch := make([][]any, 0, size)
	for i := 0; i < tbl.NumRows(); i++ {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		batch = append(batch, tbl.Row(i))
		if len(batch) >= size {
			n, err := flush(ctx, batch)
			total += n
			if err != nil {
				return total, err
			}
			batch = batch[:0]
		}
	}
	if len(batch) > 0 {
		n, err := flush(ctx, batch)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// Package table holds the in-memory tabular value model shared by the whole
// pipeline: ordered rows over one fixed, ordered column set.
//
// Cell values are restricted to a small dynamic domain:
//
//	nil, int64, float64, bool, string
//
// Ingestion is responsible for coercing raw inputs into this domain; every
// package downstream (schema inference, synthesis, evaluation, sinks) can
// rely on it and nothing else appearing in a cell.
package table

import (
	"fmt"
	"strconv"
)

// Table is an ordered sequence of rows sharing one fixed column set.
// The column set is fixed at construction; AppendRow never widens it.
type Table struct {
	cols  []string
	index map[string]int
	rows  [][]any
}

// New constructs an empty Table over the given column names. Column names
// must be non-empty and unique.
func New(columns []string) (*Table, error) {
	if len(columns) == 0 {
		return nil, fmt.Errorf("table: at least one column required")
	}
	idx := make(map[string]int, len(columns))
	cols := make([]string, len(columns))
	for i, c := range columns {
		if c == "" {
			return nil, fmt.Errorf("table: column %d has empty name", i)
		}
		if _, dup := idx[c]; dup {
			return nil, fmt.Errorf("table: duplicate column %q", c)
		}
		idx[c] = i
		cols[i] = c
	}
	return &Table{cols: cols, index: idx}, nil
}

// AppendRow appends one row. The row must have exactly one value per column;
// the slice is copied, so callers may reuse it.
func (t *Table) AppendRow(row []any) error {
	if len(row) != len(t.cols) {
		return fmt.Errorf("table: row has %d values, want %d", len(row), len(t.cols))
	}
	cp := make([]any, len(row))
	copy(cp, row)
	t.rows = append(t.rows, cp)
	return nil
}

// NumRows returns the number of rows.
func (t *Table) NumRows() int { return len(t.rows) }

// NumColumns returns the number of columns.
func (t *Table) NumColumns() int { return len(t.cols) }

// Columns returns a copy of the column names in table order.
func (t *Table) Columns() []string {
	out := make([]string, len(t.cols))
	copy(out, t.cols)
	return out
}

// ColumnIndex returns the position of the named column.
func (t *Table) ColumnIndex(name string) (int, bool) {
	i, ok := t.index[name]
	return i, ok
}

// Row returns the i-th row. The returned slice aliases internal storage and
// must be treated as read-only.
func (t *Table) Row(i int) []any { return t.rows[i] }

// At returns the cell at row i, column j, without bounds adjustment.
func (t *Table) At(i, j int) any { return t.rows[i][j] }

// Value returns the cell at row i in the named column.
func (t *Table) Value(i int, column string) (any, bool) {
	j, ok := t.index[column]
	if !ok {
		return nil, false
	}
	return t.rows[i][j], true
}

// Column returns a copy of the named column's values in row order. The copy
// is safe for callers to modify.
func (t *Table) Column(name string) ([]any, bool) {
	j, ok := t.index[name]
	if !ok {
		return nil, false
	}
	out := make([]any, len(t.rows))
	for i, r := range t.rows {
		out[i] = r[j]
	}
	return out, true
}

// FloatColumn returns the non-null values of the named column widened to
// float64, plus the count of nulls that were skipped. ok is false when the
// column does not exist or contains a non-null, non-numeric value.
func (t *Table) FloatColumn(name string) (vals []float64, nulls int, ok bool) {
	j, exists := t.index[name]
	if !exists {
		return nil, 0, false
	}
	vals = make([]float64, 0, len(t.rows))
	for _, r := range t.rows {
		switch v := r[j].(type) {
		case nil:
			nulls++
		case int64:
			vals = append(vals, float64(v))
		case float64:
			vals = append(vals, v)
		default:
			return nil, 0, false
		}
	}
	return vals, nulls, true
}

// StringColumn returns the canonical labels (see Label) of the non-null
// values of the named column, plus the count of nulls that were skipped.
func (t *Table) StringColumn(name string) (labels []string, nulls int, ok bool) {
	j, exists := t.index[name]
	if !exists {
		return nil, 0, false
	}
	labels = make([]string, 0, len(t.rows))
	for _, r := range t.rows {
		if r[j] == nil {
			nulls++
			continue
		}
		labels = append(labels, Label(r[j]))
	}
	return labels, nulls, true
}

// Clone returns a deep copy of the table.
func (t *Table) Clone() *Table {
	cp, _ := New(t.cols)
	cp.rows = make([][]any, len(t.rows))
	for i, r := range t.rows {
		row := make([]any, len(r))
		copy(row, r)
		cp.rows[i] = row
	}
	return cp
}

// Equal reports whether two tables have identical column sets, order, and
// cell values.
func (t *Table) Equal(o *Table) bool {
	if o == nil || len(t.cols) != len(o.cols) || len(t.rows) != len(o.rows) {
		return false
	}
	for i, c := range t.cols {
		if o.cols[i] != c {
			return false
		}
	}
	for i, r := range t.rows {
		for j, v := range r {
			if o.rows[i][j] != v {
				return false
			}
		}
	}
	return true
}

// IsNumeric reports whether v is a numeric cell value (int64 or float64).
func IsNumeric(v any) bool {
	switch v.(type) {
	case int64, float64:
		return true
	}
	return false
}

// Label returns the canonical text label for a non-null cell value. Distinct
// packages compare categories by this label, so it must stay stable:
// strings as-is, bools as "true"/"false", integers in base 10, floats in
// shortest round-trip form.
func Label(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case bool:
		if x {
			return "true"
		}
		return "false"
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	default:
		return fmt.Sprint(x)
	}
}

// Package schema assigns a semantic type to every column of a table and
// carries the optional primary-key designation the synthesizer must honor.
//
// Model is an immutable value: Override and SetPrimaryKey return a new Model
// and never touch the receiver, so schemas can be shared across concurrent
// pipeline runs without coordination.
package schema

import (
	"fmt"
	"sort"

	"tabsynth/internal/table"
)

// Kind is the semantic type of one column.
type Kind string

const (
	KindContinuous  Kind = "continuous"
	KindCategorical Kind = "categorical"
	KindBoolean     Kind = "boolean"
	KindIdentifier  Kind = "identifier"
)

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindContinuous, KindCategorical, KindBoolean, KindIdentifier:
		return true
	}
	return false
}

// colStats captures, per column, what Infer saw in the inference table.
// SetPrimaryKey decides from these counts without rescanning the table.
type colStats struct {
	rows     int
	nulls    int
	distinct int // distinct non-null values
}

// Model maps each column of the inference table to a Kind. The zero value is
// an empty schema that validates nothing.
type Model struct {
	cols  []string
	kinds map[string]Kind
	stats map[string]colStats
	pk    string
}

// Columns returns the schema's column names in inference-table order.
func (m Model) Columns() []string {
	out := make([]string, len(m.cols))
	copy(out, m.cols)
	return out
}

// Kind returns the semantic type of the named column.
func (m Model) Kind(column string) (Kind, bool) {
	k, ok := m.kinds[column]
	return k, ok
}

// PrimaryKey returns the designated key column, or "" when none is set.
func (m Model) PrimaryKey() string { return m.pk }

// NumColumns returns the number of columns in the schema.
func (m Model) NumColumns() int { return len(m.cols) }

// DistinctCount returns the number of distinct non-null values Infer saw in
// the named column.
func (m Model) DistinctCount(column string) (int, bool) {
	st, ok := m.stats[column]
	return st.distinct, ok
}

// clone copies the model so updates can be applied without sharing state.
func (m Model) clone() Model {
	cp := Model{
		cols:  append([]string(nil), m.cols...),
		kinds: make(map[string]Kind, len(m.kinds)),
		stats: make(map[string]colStats, len(m.stats)),
		pk:    m.pk,
	}
	for c, k := range m.kinds {
		cp.kinds[c] = k
	}
	for c, s := range m.stats {
		cp.stats[c] = s
	}
	return cp
}

// Override returns a new Model with one column's kind replaced. The receiver
// is unchanged. Overriding the primary-key column to a non-identifier kind
// is rejected; the key invariant would break.
func (m Model) Override(column string, kind Kind) (Model, error) {
	if !kind.Valid() {
		return Model{}, fmt.Errorf("schema: unknown kind %q", kind)
	}
	if _, ok := m.kinds[column]; !ok {
		return Model{}, fmt.Errorf("schema: unknown column %q", column)
	}
	if column == m.pk && kind != KindIdentifier {
		return Model{}, fmt.Errorf("schema: column %q is the primary key; its kind must stay %q", column, KindIdentifier)
	}
	cp := m.clone()
	cp.kinds[column] = kind
	return cp, nil
}

// SetPrimaryKey returns a new Model with column marked as the identifier
// primary key. It fails with *UniquenessError when the inference-time table
// held duplicate or null values in that column, so infeasible requests die
// before any fitting work starts.
func (m Model) SetPrimaryKey(column string) (Model, error) {
	st, ok := m.stats[column]
	if !ok {
		return Model{}, fmt.Errorf("schema: unknown column %q", column)
	}
	nonNull := st.rows - st.nulls
	if st.nulls > 0 || st.distinct < nonNull {
		return Model{}, &UniquenessError{
			Column:     column,
			Duplicates: nonNull - st.distinct,
			Nulls:      st.nulls,
		}
	}
	cp := m.clone()
	cp.kinds[column] = KindIdentifier
	cp.pk = column
	return cp, nil
}

// Validate checks tbl against the schema: the column sets must match
// exactly (*MismatchError otherwise), and a declared primary-key column
// must be unique and non-null in tbl (*UniquenessError otherwise).
func (m Model) Validate(tbl *table.Table) error {
	var missing, extra []string
	tcols := make(map[string]bool, tbl.NumColumns())
	for _, c := range tbl.Columns() {
		tcols[c] = true
		if _, ok := m.kinds[c]; !ok {
			extra = append(extra, c)
		}
	}
	for _, c := range m.cols {
		if !tcols[c] {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 || len(extra) > 0 {
		sort.Strings(missing)
		sort.Strings(extra)
		return &MismatchError{Missing: missing, Extra: extra}
	}

	if m.pk != "" {
		vals, _ := tbl.Column(m.pk)
		seen := make(map[any]struct{}, len(vals))
		var dups, nulls int
		for _, v := range vals {
			if v == nil {
				nulls++
				continue
			}
			if _, dup := seen[v]; dup {
				dups++
				continue
			}
			seen[v] = struct{}{}
		}
		if dups > 0 || nulls > 0 {
			return &UniquenessError{Column: m.pk, Duplicates: dups, Nulls: nulls}
		}
	}
	return nil
}

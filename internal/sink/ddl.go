package sink

import (
	"fmt"
	"strings"

	"tabsynth/internal/schema"
	"tabsynth/internal/table"
)

// ColumnDef describes one column of a destination table. Kind carries the
// semantic type from the schema and Value the Go cell type observed in the
// table; each SQL backend maps the pair onto its own column type.
type ColumnDef struct {
	Name       string
	Kind       schema.Kind
	Value      string // int64, float64, bool or string
	Nullable   bool
	PrimaryKey bool
}

// TableDef holds the destination table name in dotted form (e.g.
// "public.claims") and an ordered list of columns. Backends quote and escape
// the name segments when rendering DDL.
type TableDef struct {
	FQN     string
	Columns []ColumnDef
}

// BuildTableDef derives a table definition for tbl addressed as fqn. Column
// order follows the table; the schema contributes the semantic kind and the
// primary-key designation. The key column is NOT NULL, everything else stays
// nullable.
func BuildTableDef(fqn string, m schema.Model, tbl *table.Table) (TableDef, error) {
	if strings.TrimSpace(fqn) == "" {
		return TableDef{}, fmt.Errorf("sink: missing destination table name")
	}
	if tbl.NumColumns() == 0 {
		return TableDef{}, fmt.Errorf("sink: table has no columns")
	}

	defs := make([]ColumnDef, 0, tbl.NumColumns())
	for _, name := range tbl.Columns() {
		kind, ok := m.Kind(name)
		if !ok {
			return TableDef{}, fmt.Errorf("sink: column %q is not in the schema", name)
		}
		pk := name == m.PrimaryKey()
		defs = append(defs, ColumnDef{
			Name:       name,
			Kind:       kind,
			Value:      columnValueType(tbl, name),
			Nullable:   !pk,
			PrimaryKey: pk,
		})
	}
	return TableDef{FQN: fqn, Columns: defs}, nil
}

// columnValueType reports the Go cell type of the named column. Columns are
// type-stable, so the first non-null value decides; an all-null column falls
// back to string.
func columnValueType(tbl *table.Table, name string) string {
	vals, _ := tbl.Column(name)
	for _, v := range vals {
		switch v.(type) {
		case nil:
			continue
		case int64:
			return "int64"
		case float64:
			return "float64"
		case bool:
			return "bool"
		default:
			return "string"
		}
	}
	return "string"
}

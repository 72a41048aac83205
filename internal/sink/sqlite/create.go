// SQLite CREATE TABLE rendering. SQLite types are affinities, so the
// mapping prefers canonical ones; bools are stored as 0/1 integers, which is
// how the driver binds them.
package sqlite

import (
	"fmt"
	"strings"

	"tabsynth/internal/sink"
)

// BuildCreateTableSQL returns a SQLite CREATE TABLE statement for the given
// table definition:
//
//	CREATE TABLE IF NOT EXISTS "table" (
//	  "col1" INTEGER NOT NULL,
//	  "col2" TEXT,
//	  PRIMARY KEY ("col1")
//	);
//
// TableDef.FQN is interpreted as a table name; if it contains dots (e.g.,
// "main.events"), each segment is individually quoted.
func BuildCreateTableSQL(t sink.TableDef) (string, error) {
	fqn := strings.TrimSpace(t.FQN)
	if fqn == "" {
		return "", fmt.Errorf("sqlite ddl: table FQN must not be empty")
	}
	if len(t.Columns) == 0 {
		return "", fmt.Errorf("sqlite ddl: at least one column is required")
	}

	cols := make([]string, 0, len(t.Columns)+1)
	pks := make([]string, 0, 1)

	for _, c := range t.Columns {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			return "", fmt.Errorf("sqlite ddl: column with empty name in table %s", fqn)
		}

		var sb strings.Builder
		sb.WriteString(quoteIdent(name))
		sb.WriteByte(' ')
		sb.WriteString(columnType(c))
		if !c.Nullable {
			sb.WriteString(" NOT NULL")
		}
		cols = append(cols, sb.String())

		if c.PrimaryKey {
			pks = append(pks, quoteIdent(name))
		}
	}

	if len(pks) > 0 {
		cols = append(cols, fmt.Sprintf("PRIMARY KEY (%s)", strings.Join(pks, ", ")))
	}

	stmt := fmt.Sprintf(
		"CREATE TABLE IF NOT EXISTS %s (\n  %s\n);",
		quoteFQN(fqn),
		strings.Join(cols, ",\n  "),
	)
	return stmt, nil
}

// columnType maps a column's cell type onto a SQLite affinity.
func columnType(c sink.ColumnDef) string {
	switch c.Value {
	case "int64":
		return "INTEGER"
	case "float64":
		return "REAL"
	case "bool":
		return "INTEGER" // 0/1
	default:
		return "TEXT"
	}
}

func quoteIdent(id string) string {
	return `"` + strings.ReplaceAll(id, `"`, `""`) + `"`
}

func quoteFQN(fqn string) string {
	parts := strings.Split(fqn, ".")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, quoteIdent(p))
	}
	return strings.Join(out, ".")
}

// mapIdent maps a list of column names to their quoted forms.
func mapIdent(cols []string) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = quoteIdent(c)
	}
	return out
}

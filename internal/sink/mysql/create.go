// MySQL CREATE TABLE rendering. TEXT columns cannot carry an index without
// a prefix length, so a string primary key becomes VARCHAR(255) instead.
package mysql

import (
	"fmt"
	"strings"

	"tabsynth/internal/sink"
)

// BuildCreateTableSQL returns a MySQL CREATE TABLE statement for the given
// table definition:
//
//	CREATE TABLE IF NOT EXISTS `table` (
//	  `col1` BIGINT NOT NULL,
//	  `col2` TEXT,
//	  PRIMARY KEY (`col1`)
//	);
func BuildCreateTableSQL(t sink.TableDef) (string, error) {
	fqn := strings.TrimSpace(t.FQN)
	if fqn == "" {
		return "", fmt.Errorf("mysql ddl: table FQN must not be empty")
	}
	if len(t.Columns) == 0 {
		return "", fmt.Errorf("mysql ddl: at least one column is required")
	}

	cols := make([]string, 0, len(t.Columns)+1)
	pks := make([]string, 0, 1)

	for _, c := range t.Columns {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			return "", fmt.Errorf("mysql ddl: column with empty name in table %s", fqn)
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

// columnType maps a column's cell type onto a MySQL type.
func columnType(c sink.ColumnDef) string {
	switch c.Value {
	case "int64":
		return "BIGINT"
	case "float64":
		return "DOUBLE"
	case "bool":
		return "TINYINT(1)"
	default:
		if c.PrimaryKey {
			return "VARCHAR(255)"
		}
		return "TEXT"
	}
}

// quoteIdent safely quotes a MySQL identifier using backticks, escaping `.
func quoteIdent(id string) string { return "`" + strings.ReplaceAll(id, "`", "``") + "`" }

// quoteFQN quotes a possibly database-qualified name like "synth.claims" to
// `synth`.`claims`. If no dot is present, returns a single quoted ident.
func quoteFQN(name string) string {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = quoteIdent(p)
	}
	return strings.Join(parts, ".")
}

// mapIdent maps a list of column names to their quoted forms.
func mapIdent(cols []string) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = quoteIdent(c)
	}
	return out
}

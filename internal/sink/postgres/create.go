// Postgres CREATE TABLE rendering. COPY ships cells in their Go types, so
// the column type follows the cell type the table actually holds; the schema
// kind only contributes the primary-key constraint.
package postgres

import (
	"fmt"
	"strings"

	"tabsynth/internal/sink"
)

// BuildCreateTableSQL returns a Postgres CREATE TABLE statement for the
// given table definition:
//
//	CREATE TABLE IF NOT EXISTS "schema"."table" (
//	  "col1" BIGINT NOT NULL,
//	  "col2" TEXT,
//	  PRIMARY KEY ("col1")
//	);
func BuildCreateTableSQL(t sink.TableDef) (string, error) {
	fqn := strings.TrimSpace(t.FQN)
	if fqn == "" {
		return "", fmt.Errorf("postgres ddl: table FQN must not be empty")
	}
	if len(t.Columns) == 0 {
		return "", fmt.Errorf("postgres ddl: at least one column is required")
	}

	cols := make([]string, 0, len(t.Columns)+1)
	pks := make([]string, 0, 1)

	for _, c := range t.Columns {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			return "", fmt.Errorf("postgres ddl: column with empty name in table %s", fqn)
		}

		var sb strings.Builder
		sb.WriteString(pgIdent(name))
		sb.WriteByte(' ')
		sb.WriteString(columnType(c))
		if !c.Nullable {
			sb.WriteString(" NOT NULL")
		}
		cols = append(cols, sb.String())

		if c.PrimaryKey {
			pks = append(pks, pgIdent(name))
		}
	}

	if len(pks) > 0 {
		cols = append(cols, fmt.Sprintf("PRIMARY KEY (%s)", strings.Join(pks, ", ")))
	}

	stmt := fmt.Sprintf(
		"CREATE TABLE IF NOT EXISTS %s (\n  %s\n);",
		pgFQN(fqn),
		strings.Join(cols, ",\n  "),
	)
	return stmt, nil
}

// columnType maps a column's cell type onto a Postgres type. COPY uses the
// binary protocol, so the mapping must accept exactly what pgx encodes.
func columnType(c sink.ColumnDef) string {
	switch c.Value {
	case "int64":
		return "BIGINT"
	case "float64":
		return "DOUBLE PRECISION"
	case "bool":
		return "BOOLEAN"
	default:
		return "TEXT"
	}
}

// pgIdent safely quotes a single identifier segment for Postgres.
func pgIdent(id string) string { return `"` + strings.ReplaceAll(id, `"`, `""`) + `"` }

// pgFQN quotes a possibly schema-qualified name like "public.claims" to
// "public"."claims". If no dot is present, returns a single quoted ident.
func pgFQN(name string) string {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = pgIdent(p)
	}
	return strings.Join(parts, ".")
}

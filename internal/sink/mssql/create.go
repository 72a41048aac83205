// SQL Server CREATE TABLE rendering. NVARCHAR(MAX) cannot carry a primary
// key, so a string key column becomes NVARCHAR(255). SQL Server has no
// CREATE TABLE IF NOT EXISTS; the statement guards with an object check.
package mssql

import (
	"fmt"
	"strings"

	"tabsynth/internal/sink"
)

// BuildCreateTableSQL returns a SQL Server CREATE TABLE statement for the
// given table definition:
//
//	IF OBJECT_ID(N'dbo.claims', N'U') IS NULL
//	CREATE TABLE [dbo].[claims] (
//	  [col1] BIGINT NOT NULL,
//	  [col2] NVARCHAR(MAX),
//	  PRIMARY KEY ([col1])
//	);
func BuildCreateTableSQL(t sink.TableDef) (string, error) {
	fqn := strings.TrimSpace(t.FQN)
	if fqn == "" {
		return "", fmt.Errorf("mssql ddl: table FQN must not be empty")
	}
	if len(t.Columns) == 0 {
		return "", fmt.Errorf("mssql ddl: at least one column is required")
	}

	cols := make([]string, 0, len(t.Columns)+1)
	pks := make([]string, 0, 1)

	for _, c := range t.Columns {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			return "", fmt.Errorf("mssql ddl: column with empty name in table %s", fqn)
		}

		var sb strings.Builder
		sb.WriteString(msIdent(name))
		sb.WriteByte(' ')
		sb.WriteString(columnType(c))
		if !c.Nullable {
			sb.WriteString(" NOT NULL")
		}
		cols = append(cols, sb.String())

		if c.PrimaryKey {
			pks = append(pks, msIdent(name))
		}
	}

	if len(pks) > 0 {
		cols = append(cols, fmt.Sprintf("PRIMARY KEY (%s)", strings.Join(pks, ", ")))
	}

	stmt := fmt.Sprintf(
		"IF OBJECT_ID(N'%s', N'U') IS NULL\nCREATE TABLE %s (\n  %s\n);",
		strings.ReplaceAll(fqn, "'", "''"),
		msFQN(fqn),
		strings.Join(cols, ",\n  "),
	)
	return stmt, nil
}

// columnType maps a column's cell type onto a SQL Server type.
func columnType(c sink.ColumnDef) string {
	switch c.Value {
	case "int64":
		return "BIGINT"
	case "float64":
		return "FLOAT"
	case "bool":
		return "BIT"
	default:
		if c.PrimaryKey {
			return "NVARCHAR(255)"
		}
		return "NVARCHAR(MAX)"
	}
}

// msIdent safely quotes a SQL Server identifier using [brackets], escaping ].
func msIdent(id string) string { return `[` + strings.ReplaceAll(id, `]`, `]]`) + `]` }

// msFQN quotes a possibly schema-qualified name like "dbo.claims" to
// "[dbo].[claims]". If no dot is present, returns a single quoted ident.
func msFQN(name string) string {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = msIdent(p)
	}
	return strings.Join(parts, ".")
}

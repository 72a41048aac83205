package schema

import (
	"fmt"
	"strings"
)

// UniquenessError reports duplicate or null values in a column that must
// hold unique keys.
type UniquenessError struct {
	Column     string
	Duplicates int
	Nulls      int
}

func (e *UniquenessError) Error() string {
	parts := make([]string, 0, 2)
	if e.Duplicates > 0 {
		parts = append(parts, fmt.Sprintf("%d duplicate values", e.Duplicates))
	}
	if e.Nulls > 0 {
		parts = append(parts, fmt.Sprintf("%d null values", e.Nulls))
	}
	if len(parts) == 0 {
		parts = append(parts, "duplicate values")
	}
	return fmt.Sprintf("schema: column %q cannot be a key: %s", e.Column, strings.Join(parts, ", "))
}

// MismatchError reports a table whose column set differs from the schema's.
type MismatchError struct {
	Missing []string // columns in the schema but absent from the table
	Extra   []string // columns in the table but absent from the schema
}

func (e *MismatchError) Error() string {
	parts := make([]string, 0, 2)
	if len(e.Missing) > 0 {
		parts = append(parts, fmt.Sprintf("missing columns %v", e.Missing))
	}
	if len(e.Extra) > 0 {
		parts = append(parts, fmt.Sprintf("unexpected columns %v", e.Extra))
	}
	return "schema: table does not match schema: " + strings.Join(parts, "; ")
}

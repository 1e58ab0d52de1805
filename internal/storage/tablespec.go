package storage

import "strings"

// TableSpec describes one catalog table for EnsureSchema.
//
// Column types are written in a small portable vocabulary that each
// backend maps to its native DDL:
//
//	"serial" -> INTEGER PRIMARY KEY AUTOINCREMENT / SERIAL / INT IDENTITY
//	"text"   -> TEXT / TEXT / NVARCHAR(MAX)
//	"real"   -> REAL / DOUBLE PRECISION / FLOAT
//	"int"    -> INTEGER / INTEGER / INT
//	"date"   -> TEXT (ISO-8601) on sqlite, DATE elsewhere
type TableSpec struct {
	Name       string
	PrimaryKey *PrimaryKeySpec
	Columns    []ColumnSpec
}

type PrimaryKeySpec struct {
	Name string
	// Type is "serial" or "text".
	Type string
}

type ColumnSpec struct {
	Name string
	Type string
	// Nullable defaults to true; nil means nullable.
	Nullable *bool
}

// SQLIdent quotes an identifier with double quotes (understood by all
// three backends; QUOTED_IDENTIFIER is on by default for mssql).
func SQLIdent(id string) string {
	return `"` + strings.ReplaceAll(id, `"`, `""`) + `"`
}

// ColumnNames returns the non-key column names in declaration order.
func (t TableSpec) ColumnNames() []string {
	out := make([]string, 0, len(t.Columns))
	for _, c := range t.Columns {
		out = append(out, c.Name)
	}
	return out
}

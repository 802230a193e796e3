// Package ddl contains the SQL Server dialect: bracket-quoted identifiers and
// the type mapping below.
//
//	String -> NVARCHAR(MAX)
//	BigInt -> BIGINT
//	Double -> FLOAT
//
// NVARCHAR(MAX) is used because VARCHAR(8000) caps bytes, not characters, and
// is not Unicode.
package ddl

import (
	"strings"

	gddl "sqlonjson/internal/ddl"
	"sqlonjson/internal/schema"
)

// MapType maps an inferred column type to a SQL Server type.
func MapType(t schema.ColumnType) string {
	switch t {
	case schema.BigInt:
		return "BIGINT"
	case schema.Double:
		return "FLOAT"
	default:
		return "NVARCHAR(MAX)"
	}
}

// QuoteIdent quotes id with brackets.
func QuoteIdent(id string) string {
	return "[" + strings.ReplaceAll(id, "]", "]]") + "]"
}

// BuildCreateTableSQL renders a SQL Server CREATE TABLE statement.
func BuildCreateTableSQL(t gddl.TableDef) (string, error) {
	return gddl.BuildCreateTableSQL(t, QuoteIdent)
}

// Dialect adapts the package functions to storage.Dialect.
type Dialect struct{}

func (Dialect) MapType(t schema.ColumnType) string             { return MapType(t) }
func (Dialect) QuoteIdent(id string) string                    { return QuoteIdent(id) }
func (Dialect) CreateTableSQL(t gddl.TableDef) (string, error) { return BuildCreateTableSQL(t) }

// Package ddl holds the SQLite dialect: type mapping and CREATE TABLE
// rendering with double-quoted identifiers.
//
// Declared types are chosen so SQLite's affinity rules land on the intended
// storage class: VARCHAR(8000) -> TEXT, BIGINT -> INTEGER, DOUBLE -> REAL.
package ddl

import (
	gddl "sqlonjson/internal/ddl"
	"sqlonjson/internal/schema"
)

// MapType maps an inferred column type to a SQLite declared type.
func MapType(t schema.ColumnType) string {
	switch t {
	case schema.BigInt:
		return "BIGINT"
	case schema.Double:
		return "DOUBLE"
	default:
		return "VARCHAR(8000)"
	}
}

// QuoteIdent quotes id with double quotes.
func QuoteIdent(id string) string { return gddl.DoubleQuote(id) }

// BuildCreateTableSQL renders a SQLite CREATE TABLE statement.
func BuildCreateTableSQL(t gddl.TableDef) (string, error) {
	return gddl.BuildCreateTableSQL(t, QuoteIdent)
}

// Dialect adapts the package functions to storage.Dialect.
type Dialect struct{}

func (Dialect) MapType(t schema.ColumnType) string             { return MapType(t) }
func (Dialect) QuoteIdent(id string) string                    { return QuoteIdent(id) }
func (Dialect) CreateTableSQL(t gddl.TableDef) (string, error) { return BuildCreateTableSQL(t) }

// Package ddl contains the Postgres dialect.
//
// Identifiers are lower-cased before quoting. Postgres folds unquoted names
// to lower case, so a table created from "iAmO_Nit" is reachable as iamo_nit
// in hand-written queries.
package ddl

import (
	"strings"

	gddl "sqlonjson/internal/ddl"
	"sqlonjson/internal/schema"
)

// MapType maps an inferred column type to a Postgres type.
//
//	String -> VARCHAR(8000)
//	BigInt -> BIGINT
//	Double -> DOUBLE PRECISION
func MapType(t schema.ColumnType) string {
	switch t {
	case schema.BigInt:
		return "BIGINT"
	case schema.Double:
		return "DOUBLE PRECISION"
	default:
		return "VARCHAR(8000)"
	}
}

// Fold returns the name Postgres stores for an unquoted identifier.
func Fold(id string) string { return strings.ToLower(id) }

// QuoteIdent folds and double-quotes id.
func QuoteIdent(id string) string { return gddl.DoubleQuote(Fold(id)) }

// BuildCreateTableSQL renders a Postgres CREATE TABLE statement.
func BuildCreateTableSQL(t gddl.TableDef) (string, error) {
	return gddl.BuildCreateTableSQL(t, QuoteIdent)
}

// Dialect adapts the package functions to storage.Dialect.
type Dialect struct{}

func (Dialect) MapType(t schema.ColumnType) string             { return MapType(t) }
func (Dialect) QuoteIdent(id string) string                    { return QuoteIdent(id) }
func (Dialect) CreateTableSQL(t gddl.TableDef) (string, error) { return BuildCreateTableSQL(t) }

// Package ddl contains the MySQL dialect: backtick-quoted, lower-cased
// identifiers and TEXT / BIGINT / DOUBLE columns.
//
// Table names are case-sensitive on servers with lower_case_table_names=0, so
// names are folded to lower case to keep hand-written queries working.
//
// TEXT is used for strings because several VARCHAR(8000) utf8mb4 columns would
// exceed MySQL's 65535-byte row limit.
package ddl

import (
	"strings"

	gddl "sqlonjson/internal/ddl"
	"sqlonjson/internal/schema"
)

// MapType maps an inferred column type to a MySQL type.
func MapType(t schema.ColumnType) string {
	switch t {
	case schema.BigInt:
		return "BIGINT"
	case schema.Double:
		return "DOUBLE"
	default:
		return "TEXT"
	}
}

// QuoteIdent folds id to lower case and quotes it with backticks.
func QuoteIdent(id string) string {
	return "`" + strings.ReplaceAll(strings.ToLower(id), "`", "``") + "`"
}

// BuildCreateTableSQL renders a MySQL CREATE TABLE statement.
func BuildCreateTableSQL(t gddl.TableDef) (string, error) {
	return gddl.BuildCreateTableSQL(t, QuoteIdent)
}

// Dialect adapts the package functions to storage.Dialect.
type Dialect struct{}

func (Dialect) MapType(t schema.ColumnType) string             { return MapType(t) }
func (Dialect) QuoteIdent(id string) string                    { return QuoteIdent(id) }
func (Dialect) CreateTableSQL(t gddl.TableDef) (string, error) { return BuildCreateTableSQL(t) }

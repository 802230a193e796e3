package ddl

import "sqlonjson/internal/schema"

// ColumnDef describes a single column in a table definition. Names are kept
// unquoted; quoting happens at render time.
type ColumnDef struct {
	Name     string
	SQLType  string
	Nullable bool
}

// TableDef holds the table name and its ordered columns. FQN may be dotted
// ("schema.table"); renderers quote each segment.
type TableDef struct {
	FQN     string
	Columns []ColumnDef
}

// TypeMapper maps an inferred column type to a backend SQL type.
type TypeMapper func(schema.ColumnType) string

// FromSchema converts an inferred TableSchema into a TableDef using mapType.
// Every column is nullable: a property missing from a row binds NULL.
func FromSchema(ts schema.TableSchema, mapType TypeMapper) TableDef {
	td := TableDef{
		FQN:     ts.SQLName,
		Columns: make([]ColumnDef, 0, len(ts.Columns)),
	}
	for _, c := range ts.Columns {
		td.Columns = append(td.Columns, ColumnDef{
			Name:     c.SQLName,
			SQLType:  mapType(c.Type),
			Nullable: true,
		})
	}
	return td
}

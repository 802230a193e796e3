package schema

import (
	"errors"
	"fmt"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"sqlonjson/internal/ident"
	"sqlonjson/pkg/records"
)

var (
	// ErrEmptyRowSet is returned by Build for a source without rows. Callers
	// skip such tables.
	ErrEmptyRowSet = errors.New("schema: row set has no rows")

	// ErrEmptyIdentifier is returned when a table or property name is empty.
	ErrEmptyIdentifier = errors.New("schema: empty identifier")

	// ErrIdentifierCollision is returned when two distinct raw names sanitize
	// to the same SQL identifier.
	ErrIdentifierCollision = errors.New("schema: identifier collision")
)

// CollisionError names the raw identifiers that map to the same SQL name.
type CollisionError struct {
	Table   string // SQL table name, empty for table-level collisions
	SQLName string
	First   string
	Second  string
}

func (e *CollisionError) Error() string {
	if e.Table == "" {
		return fmt.Sprintf("schema: tables %q and %q both map to %q", e.First, e.Second, e.SQLName)
	}
	return fmt.Sprintf("schema: table %s: properties %q and %q both map to %q", e.Table, e.First, e.Second, e.SQLName)
}

func (e *CollisionError) Is(target error) bool { return target == ErrIdentifierCollision }

// ColumnSpec describes one inferred column.
type ColumnSpec struct {
	SourceName string
	SQLName    string
	Type       ColumnType
	Ordinal    int
}

// TableSchema is the inferred schema of one table.
type TableSchema struct {
	SourceName string
	SQLName    string
	Columns    []ColumnSpec
}

// ColumnNames returns the SQL column names in ordinal order.
func (t TableSchema) ColumnNames() []string {
	out := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		out[i] = c.SQLName
	}
	return out
}

// SanitizeFunc maps a raw name to a SQL identifier.
type SanitizeFunc func(raw string) string

// Build scans every row of src and returns its table schema. Columns appear in
// first-seen order across rows; each column's type is inferred over its values
// in row order. A nil sanitize uses ident.Sanitize.
//
// Sanitized column names are compared case-insensitively; two different raw
// names mapping to the same identifier fail with ErrIdentifierCollision.
func Build(src records.RowSetSource, sanitize SanitizeFunc) (TableSchema, error) {
	if sanitize == nil {
		sanitize = ident.Sanitize
	}
	if len(src.Rows) == 0 {
		return TableSchema{}, fmt.Errorf("%w: %q", ErrEmptyRowSet, src.Name)
	}
	table, err := sqlName(src.Name, sanitize)
	if err != nil {
		return TableSchema{}, fmt.Errorf("schema: table %q: %w", src.Name, err)
	}

	cols := orderedmap.New[string, *Inference]()
	for _, row := range src.Rows {
		row.Each(func(key string, v records.Value) {
			in, ok := cols.Get(key)
			if !ok {
				in = &Inference{}
				cols.Set(key, in)
			}
			in.Observe(v)
		})
	}

	ts := TableSchema{
		SourceName: src.Name,
		SQLName:    table,
		Columns:    make([]ColumnSpec, 0, cols.Len()),
	}
	seen := make(map[string]string, cols.Len())
	for p := cols.Oldest(); p != nil; p = p.Next() {
		name, err := sqlName(p.Key, sanitize)
		if err != nil {
			return TableSchema{}, fmt.Errorf("schema: table %s: property %q: %w", table, p.Key, err)
		}
		fold := strings.ToLower(name)
		if prev, dup := seen[fold]; dup {
			return TableSchema{}, &CollisionError{Table: table, SQLName: name, First: prev, Second: p.Key}
		}
		seen[fold] = p.Key

		ts.Columns = append(ts.Columns, ColumnSpec{
			SourceName: p.Key,
			SQLName:    name,
			Type:       p.Value.Type(),
			Ordinal:    len(ts.Columns),
		})
	}
	return ts, nil
}

func sqlName(raw string, sanitize SanitizeFunc) (string, error) {
	name := sanitize(raw)
	if name == "" {
		return "", ErrEmptyIdentifier
	}
	if !ident.Valid(name) {
		return "", fmt.Errorf("schema: %q is not a valid identifier", name)
	}
	return name, nil
}

// TableNames tracks the SQL table names claimed within one database.
type TableNames map[string]string

// Claim records ts.SQLName, failing with ErrIdentifierCollision when another
// source already claimed the same name (compared case-insensitively).
func (n TableNames) Claim(ts TableSchema) error {
	fold := strings.ToLower(ts.SQLName)
	if prev, dup := n[fold]; dup {
		return &CollisionError{SQLName: ts.SQLName, First: prev, Second: ts.SourceName}
	}
	n[fold] = ts.SourceName
	return nil
}

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"sqlonjson/internal/convert"
)

type columnLine struct {
	Name    string `json:"name"`
	Source  string `json:"source"`
	Type    string `json:"type"`
	SQLType string `json:"sql_type"`
}

type tableLine struct {
	File     string       `json:"file"`
	Instance string       `json:"instance"`
	Table    string       `json:"table"`
	Source   string       `json:"source"`
	Rows     int64        `json:"rows"`
	Columns  []columnLine `json:"columns"`
}

type rowLine struct {
	File string                              `json:"file"`
	Row  *orderedmap.OrderedMap[string, any] `json:"row"`
}

// writeSchema writes one line per created table.
func writeSchema(w io.Writer, file string, db *convert.Database) error {
	enc := json.NewEncoder(w)
	d := db.Dialect()
	for _, t := range db.Tables {
		line := tableLine{
			File:     file,
			Instance: db.Name(),
			Table:    t.Schema.SQLName,
			Source:   t.Schema.SourceName,
			Rows:     t.Rows,
			Columns:  make([]columnLine, 0, len(t.Schema.Columns)),
		}
		for _, c := range t.Schema.Columns {
			line.Columns = append(line.Columns, columnLine{
				Name:    c.SQLName,
				Source:  c.SourceName,
				Type:    c.Type.String(),
				SQLType: d.MapType(c.Type),
			})
		}
		if err := enc.Encode(line); err != nil {
			return err
		}
	}
	return nil
}

// writeQuery runs q on db and writes one line per result row with columns in
// select order.
func writeQuery(ctx context.Context, w io.Writer, file string, db *convert.Database, q string) error {
	rows, err := db.DB().QueryContext(ctx, q)
	if err != nil {
		return fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return fmt.Errorf("query: %w", err)
	}
	enc := json.NewEncoder(w)
	vals := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range vals {
		ptrs[i] = &vals[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return fmt.Errorf("query: scan: %w", err)
		}
		row := orderedmap.New[string, any]()
		for i, c := range cols {
			v := vals[i]
			if b, ok := v.([]byte); ok {
				v = string(b)
			}
			row.Set(c, v)
		}
		if err := enc.Encode(rowLine{File: file, Row: row}); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("query: %w", err)
	}
	return nil
}

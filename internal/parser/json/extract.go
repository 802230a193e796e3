// Package json extracts table row sets from a JSON document.
//
// The accepted shape is a single JSON object whose direct properties holding
// arrays of objects become tables:
//
//	{"people": [{"id": 1, "name": "a"}, {"id": 2}], "meta": {"x": 1}}
//
// yields one RowSetSource named "people" with two records; "meta" is ignored
// because its value is not an array. Nested arrays are never promoted to
// tables; they stay as values of the enclosing record.
//
// Traversal uses github.com/buger/jsonparser so property order is the order
// in the input text.
package json

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/buger/jsonparser"
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"sqlonjson/pkg/records"
)

// ErrMalformedInput reports input that is not a JSON object of the accepted
// shape.
var ErrMalformedInput = errors.New("malformed JSON input")

type rawValue struct {
	data []byte
	typ  jsonparser.ValueType
}

// Extract returns one RowSetSource per root property whose value is an
// array, in document order. Empty or whitespace-only input yields no sources.
func Extract(data []byte) ([]records.RowSetSource, error) {
	doc := bytes.TrimSpace(data)
	if len(doc) == 0 {
		return nil, nil
	}
	if !json.Valid(doc) {
		return nil, fmt.Errorf("%w: invalid JSON", ErrMalformedInput)
	}
	if doc[0] != '{' {
		return nil, fmt.Errorf("%w: root must be an object", ErrMalformedInput)
	}

	// Duplicate root keys: the later value replaces the earlier one in place.
	props := orderedmap.New[string, rawValue]()
	err := jsonparser.ObjectEach(doc, func(key, value []byte, typ jsonparser.ValueType, _ int) error {
		name, err := jsonparser.ParseString(key)
		if err != nil {
			return err
		}
		props.Set(name, rawValue{data: value, typ: typ})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedInput, err)
	}

	var out []records.RowSetSource
	for p := props.Oldest(); p != nil; p = p.Next() {
		if p.Value.typ != jsonparser.Array {
			continue
		}
		rows, err := extractRows(p.Key, p.Value.data)
		if err != nil {
			return nil, err
		}
		out = append(out, records.RowSetSource{Name: p.Key, Rows: rows})
	}
	return out, nil
}

// ExtractReader reads r fully and calls Extract.
func ExtractReader(r io.Reader) ([]records.RowSetSource, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("json: read input: %w", err)
	}
	return Extract(data)
}

func extractRows(table string, arr []byte) ([]records.Record, error) {
	var (
		rows   []records.Record
		rowErr error
		index  int
	)
	_, err := jsonparser.ArrayEach(arr, func(value []byte, typ jsonparser.ValueType, _ int, err error) {
		defer func() { index++ }()
		if rowErr != nil {
			return
		}
		if err != nil {
			rowErr = fmt.Errorf("%w: %s[%d]: %v", ErrMalformedInput, table, index, err)
			return
		}
		if typ != jsonparser.Object {
			rowErr = fmt.Errorf("%w: %s[%d]: element is %s, want object", ErrMalformedInput, table, index, typ)
			return
		}
		rec, err := parseRecord(value)
		if err != nil {
			rowErr = fmt.Errorf("%w: %s[%d]: %v", ErrMalformedInput, table, index, err)
			return
		}
		rows = append(rows, rec)
	})
	if rowErr != nil {
		return nil, rowErr
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedInput, table, err)
	}
	return rows, nil
}

func parseRecord(obj []byte) (records.Record, error) {
	var rec records.Record
	err := jsonparser.ObjectEach(obj, func(key, value []byte, typ jsonparser.ValueType, _ int) error {
		name, err := jsonparser.ParseString(key)
		if err != nil {
			return err
		}
		v, err := toValue(value, typ)
		if err != nil {
			return fmt.Errorf("property %q: %w", name, err)
		}
		rec.Set(name, v)
		return nil
	})
	return rec, err
}

func toValue(raw []byte, typ jsonparser.ValueType) (records.Value, error) {
	switch typ {
	case jsonparser.String:
		s, err := jsonparser.ParseString(raw)
		if err != nil {
			return records.Value{}, err
		}
		return records.String(s), nil
	case jsonparser.Number:
		return records.Number(string(raw)), nil
	case jsonparser.Boolean:
		b, err := jsonparser.ParseBoolean(raw)
		if err != nil {
			return records.Value{}, err
		}
		return records.Bool(b), nil
	case jsonparser.Null:
		return records.Null(), nil
	case jsonparser.Object, jsonparser.Array:
		var buf bytes.Buffer
		if err := json.Compact(&buf, raw); err != nil {
			return records.Value{}, err
		}
		if typ == jsonparser.Object {
			return records.Object(buf.String()), nil
		}
		return records.Array(buf.String()), nil
	default:
		return records.Value{}, fmt.Errorf("unsupported value type %s", typ)
	}
}

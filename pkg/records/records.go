// Package records holds the in-memory shape of extracted JSON rows.
//
// A Record keeps its fields in first-seen order, which the schema builder
// relies on to derive column order. Values keep their JSON kind plus a
// textual form; nested objects and arrays are kept as compact JSON text.
package records

import (
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Kind is the JSON kind of a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindString
	KindNumber
	KindBool
	KindObject
	KindArray
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	case KindObject:
		return "object"
	case KindArray:
		return "array"
	default:
		return "null"
	}
}

// Value is a single JSON value.
//
// Text holds the unescaped string content for strings, the literal as
// written for numbers and booleans, and compact JSON for objects and arrays.
// It is empty for null.
type Value struct {
	Kind Kind
	Text string
}

func String(s string) Value   { return Value{Kind: KindString, Text: s} }
func Number(lit string) Value { return Value{Kind: KindNumber, Text: lit} }
func Object(js string) Value  { return Value{Kind: KindObject, Text: js} }
func Array(js string) Value   { return Value{Kind: KindArray, Text: js} }
func Null() Value             { return Value{Kind: KindNull} }
func Bool(b bool) Value {
	if b {
		return Value{Kind: KindBool, Text: "true"}
	}
	return Value{Kind: KindBool, Text: "false"}
}

// IsNull reports whether v is JSON null.
func (v Value) IsNull() bool { return v.Kind == KindNull }

// IsPrimitive reports whether v is a string, number or boolean.
func (v Value) IsPrimitive() bool {
	return v.Kind == KindString || v.Kind == KindNumber || v.Kind == KindBool
}

// Field is a key/value pair, used to build records literally.
type Field struct {
	Key   string
	Value Value
}

// Record is an ordered map of property name to Value. The zero value is an
// empty record ready to use.
//
// Setting an existing key replaces its value and keeps its original position,
// which gives "last duplicate wins" semantics for repeated JSON keys.
type Record struct {
	m *orderedmap.OrderedMap[string, Value]
}

// Of builds a Record from fields in order.
func Of(fields ...Field) Record {
	var r Record
	for _, f := range fields {
		r.Set(f.Key, f.Value)
	}
	return r
}

// Set stores v under key.
func (r *Record) Set(key string, v Value) {
	if r.m == nil {
		r.m = orderedmap.New[string, Value]()
	}
	r.m.Set(key, v)
}

// Get returns the value stored under key.
func (r Record) Get(key string) (Value, bool) {
	if r.m == nil {
		return Value{}, false
	}
	return r.m.Get(key)
}

// Len returns the number of fields.
func (r Record) Len() int {
	if r.m == nil {
		return 0
	}
	return r.m.Len()
}

// Keys returns the field names in order.
func (r Record) Keys() []string {
	out := make([]string, 0, r.Len())
	r.Each(func(k string, _ Value) { out = append(out, k) })
	return out
}

// Each calls fn for every field in order.
func (r Record) Each(fn func(key string, v Value)) {
	if r.m == nil {
		return
	}
	for p := r.m.Oldest(); p != nil; p = p.Next() {
		fn(p.Key, p.Value)
	}
}

// RowSetSource is a named sequence of records destined for one table.
type RowSetSource struct {
	Name string
	Rows []Record
}

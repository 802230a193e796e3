// Package schema infers relational table schemas from extracted JSON rows.
//
// Types are inferred per column from the textual form of each value:
//
//   - text matching ^[-0-9]+$   -> BigInt
//   - text matching ^[-0-9.]+$  -> Double
//   - anything else             -> String (objects, arrays, booleans, words)
//
// JSON null counts as absent and does not take part in inference.
package schema

import "sqlonjson/pkg/records"

// ColumnType is the logical type of an inferred column.
type ColumnType uint8

const (
	String ColumnType = iota
	BigInt
	Double
)

func (t ColumnType) String() string {
	switch t {
	case BigInt:
		return "BIGINT"
	case Double:
		return "DOUBLE"
	default:
		return "STRING"
	}
}

// Classify returns the type suggested by a single value. ok is false for
// JSON null, which is treated as an absent value.
func Classify(v records.Value) (t ColumnType, ok bool) {
	if v.IsNull() {
		return String, false
	}
	if !v.IsPrimitive() {
		return String, true
	}
	switch {
	case isIntegral(v.Text):
		return BigInt, true
	case isDecimal(v.Text):
		return Double, true
	default:
		return String, true
	}
}

// Inference folds classifications of a column's values in row order.
//
// Each observed value replaces the current type, except that a String
// classification never replaces BigInt or Double. The result is therefore the
// last non-String classification seen, or String when there was none. The
// rule is order-dependent: [1, 1.5] gives Double while [1.5, 1] gives BigInt.
type Inference struct {
	typ  ColumnType
	seen bool
}

// Observe folds v into the inference.
func (in *Inference) Observe(v records.Value) {
	c, ok := Classify(v)
	if !ok {
		return
	}
	if in.seen && in.typ != String && c == String {
		return
	}
	in.typ = c
	in.seen = true
}

// Type returns the inferred type; String when no value was observed.
func (in Inference) Type() ColumnType {
	if !in.seen {
		return String
	}
	return in.typ
}

// InferColumnType runs an Inference over values.
func InferColumnType(values []records.Value) ColumnType {
	var in Inference
	for _, v := range values {
		in.Observe(v)
	}
	return in.Type()
}

func isIntegral(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '-' && (c < '0' || c > '9') {
			return false
		}
	}
	return true
}

func isDecimal(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '-' && c != '.' && (c < '0' || c > '9') {
			return false
		}
	}
	return true
}

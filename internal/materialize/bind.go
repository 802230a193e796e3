package materialize

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"sqlonjson/internal/schema"
	"sqlonjson/pkg/records"
)

// Bind coerces v into the Go value bound for a column of type t.
//
// Absent values and JSON null bind as NULL (nil). String columns take the
// value's text, which is compact JSON for objects and arrays. BigInt and
// Double columns parse the text; a blank string binds NULL and anything
// unparseable is an error. A JSON number in a BigInt column that is not an
// integer literal (1.5, 1e3) is truncated toward zero.
func Bind(t schema.ColumnType, v records.Value, present bool) (any, error) {
	if !present || v.IsNull() {
		return nil, nil
	}
	switch t {
	case schema.BigInt:
		return bindBigInt(v)
	case schema.Double:
		return bindDouble(v)
	default:
		return v.Text, nil
	}
}

func bindBigInt(v records.Value) (any, error) {
	text := strings.TrimSpace(v.Text)
	if text == "" && v.Kind == records.KindString {
		return nil, nil
	}
	if n, err := strconv.ParseInt(text, 10, 64); err == nil {
		return n, nil
	}
	if v.Kind == records.KindNumber {
		f, _, err := big.ParseFloat(text, 10, 256, big.ToZero)
		if err == nil {
			if bi, _ := f.Int(nil); bi.IsInt64() {
				return bi.Int64(), nil
			}
			return nil, fmt.Errorf("value %s overflows BIGINT", text)
		}
	}
	return nil, fmt.Errorf("cannot bind %s %q as BIGINT", v.Kind, v.Text)
}

func bindDouble(v records.Value) (any, error) {
	text := strings.TrimSpace(v.Text)
	if text == "" && v.Kind == records.KindString {
		return nil, nil
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return nil, fmt.Errorf("cannot bind %s %q as DOUBLE", v.Kind, v.Text)
	}
	return f, nil
}

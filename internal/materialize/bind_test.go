package materialize

import (
	"math"
	"testing"

	"sqlonjson/internal/schema"
	"sqlonjson/pkg/records"
)

func TestBind(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		typ     schema.ColumnType
		v       records.Value
		present bool
		want    any
	}{
		{"absent", schema.BigInt, records.Value{}, false, nil},
		{"null", schema.String, records.Null(), true, nil},
		{"string", schema.String, records.String("ho"), true, "ho"},
		{"number as string", schema.String, records.Number("12"), true, "12"},
		{"bool as string", schema.String, records.Bool(true), true, "true"},
		{"object as string", schema.String, records.Object(`{"a":12}`), true, `{"a":12}`},
		{"array as string", schema.String, records.Array(`[{"a":-7}]`), true, `[{"a":-7}]`},
		{"bigint", schema.BigInt, records.Number("-12"), true, int64(-12)},
		{"bigint max", schema.BigInt, records.Number("9223372036854775807"), true, int64(math.MaxInt64)},
		{"bigint min", schema.BigInt, records.Number("-9223372036854775808"), true, int64(math.MinInt64)},
		{"bigint from string", schema.BigInt, records.String("0012"), true, int64(12)},
		{"bigint truncates number", schema.BigInt, records.Number("1.9"), true, int64(1)},
		{"bigint truncates negative", schema.BigInt, records.Number("-1.9"), true, int64(-1)},
		{"bigint exponent", schema.BigInt, records.Number("1e3"), true, int64(1000)},
		{"bigint blank string", schema.BigInt, records.String("  "), true, nil},
		{"double", schema.Double, records.Number("1.5"), true, 1.5},
		{"double from int", schema.Double, records.Number("3"), true, 3.0},
		{"double from string", schema.Double, records.String("-0.25"), true, -0.25},
		{"double blank string", schema.Double, records.String(""), true, nil},
	}
	for _, c := range cases {
		got, err := Bind(c.typ, c.v, c.present)
		if err != nil {
			t.Fatalf("%s: Bind error: %v", c.name, err)
		}
		if got != c.want {
			t.Fatalf("%s: Bind = %#v; want %#v", c.name, got, c.want)
		}
	}
}

func TestBind_Errors(t *testing.T) {
	t.Parallel()

	cases := []struct {
		typ schema.ColumnType
		v   records.Value
	}{
		{schema.BigInt, records.String("x")},
		{schema.BigInt, records.String("1.5")},
		{schema.BigInt, records.String("-")},
		{schema.BigInt, records.Bool(true)},
		{schema.BigInt, records.Object(`{}`)},
		{schema.BigInt, records.Number("99999999999999999999")},
		{schema.Double, records.String("1.2.3")},
		{schema.Double, records.Array(`[1]`)},
	}
	for _, c := range cases {
		if got, err := Bind(c.typ, c.v, true); err == nil {
			t.Fatalf("Bind(%v, %v %q) = %#v; want error", c.typ, c.v.Kind, c.v.Text, got)
		}
	}
}

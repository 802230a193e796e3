package json

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"sqlonjson/pkg/records"
)

func mustExtract(tb testing.TB, in string) []records.RowSetSource {
	tb.Helper()
	out, err := Extract([]byte(in))
	if err != nil {
		tb.Fatalf("Extract(%q) error: %v", in, err)
	}
	return out
}

func names(srcs []records.RowSetSource) []string {
	out := make([]string, 0, len(srcs))
	for _, s := range srcs {
		out = append(out, s.Name)
	}
	return out
}

// TestExtract_EmptyInputs covers empty text, an empty object and an empty
// array property.
func TestExtract_EmptyInputs(t *testing.T) {
	t.Parallel()

	for _, in := range []string{"", "   \n\t", "{}"} {
		if got := mustExtract(t, in); len(got) != 0 {
			t.Fatalf("Extract(%q) = %d sources; want 0", in, len(got))
		}
	}

	got := mustExtract(t, `{"a":[]}`)
	if len(got) != 1 || got[0].Name != "a" || len(got[0].Rows) != 0 {
		t.Fatalf(`Extract({"a":[]}) = %+v; want one empty source "a"`, got)
	}
}

// TestExtract_OnlyArrayProperties verifies non-array root properties are
// ignored and order follows the document.
func TestExtract_OnlyArrayProperties(t *testing.T) {
	t.Parallel()

	in := `{"z":[{"a":1}],"meta":{"em":[{"a":1}]},"n":5,"s":"x","a":[{"b":2}]}`
	got := names(mustExtract(t, in))
	if want := []string{"z", "a"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("names = %v; want %v", got, want)
	}
}

// TestExtract_Values checks the kind and text of each extracted value,
// including compact nested JSON and unescaped strings.
func TestExtract_Values(t *testing.T) {
	t.Parallel()

	in := `{"t":[{"s":"a\"bé","i":-12,"d":1.5,"b":true,"n":null,"o":{ "a" : 12 },"arr":[ {"a": -7} ]}]}`
	srcs := mustExtract(t, in)
	if len(srcs) != 1 || len(srcs[0].Rows) != 1 {
		t.Fatalf("unexpected sources: %+v", srcs)
	}
	rec := srcs[0].Rows[0]

	want := []records.Field{
		{Key: "s", Value: records.String(`a"bé`)},
		{Key: "i", Value: records.Number("-12")},
		{Key: "d", Value: records.Number("1.5")},
		{Key: "b", Value: records.Bool(true)},
		{Key: "n", Value: records.Null()},
		{Key: "o", Value: records.Object(`{"a":12}`)},
		{Key: "arr", Value: records.Array(`[{"a":-7}]`)},
	}
	if got := rec.Keys(); len(got) != len(want) {
		t.Fatalf("keys = %v; want %d keys", got, len(want))
	}
	for i, f := range want {
		if k := rec.Keys()[i]; k != f.Key {
			t.Fatalf("key[%d] = %q; want %q", i, k, f.Key)
		}
		v, _ := rec.Get(f.Key)
		if v != f.Value {
			t.Fatalf("%s = %+v; want %+v", f.Key, v, f.Value)
		}
	}
}

// TestExtract_DuplicateKeys verifies last-value-wins with first position kept
// both for root properties and record fields.
func TestExtract_DuplicateKeys(t *testing.T) {
	t.Parallel()

	srcs := mustExtract(t, `{"a":[{"x":1}],"b":[{"y":1}],"a":[{"x":2,"z":1,"x":3}]}`)
	if got := names(srcs); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Fatalf("names = %v; want [a b]", got)
	}
	rec := srcs[0].Rows[0]
	if got := rec.Keys(); !reflect.DeepEqual(got, []string{"x", "z"}) {
		t.Fatalf("keys = %v; want [x z]", got)
	}
	if v, _ := rec.Get("x"); v.Text != "3" {
		t.Fatalf("x = %q; want 3", v.Text)
	}
}

func TestExtract_Malformed(t *testing.T) {
	t.Parallel()

	cases := []string{
		`{`,
		`{"a":[1,}`,
		`[{"a":1}]`,
		`"text"`,
		`42`,
		`{"a":[1,2]}`,
		`{"a":[{"x":1}, "y"]}`,
		`{"a":[{"x":1}, null]}`,
		`{a:[{"x":1}]}`,
	}
	for _, in := range cases {
		_, err := Extract([]byte(in))
		if !errors.Is(err, ErrMalformedInput) {
			t.Fatalf("Extract(%q) err = %v; want ErrMalformedInput", in, err)
		}
	}
}

func TestExtractReader(t *testing.T) {
	t.Parallel()

	srcs, err := ExtractReader(strings.NewReader(`{"orders":[{"id":1},{"id":2,"note":"x"}]}`))
	if err != nil {
		t.Fatalf("ExtractReader: %v", err)
	}
	if len(srcs) != 1 || len(srcs[0].Rows) != 2 {
		t.Fatalf("got %+v; want one source with two rows", srcs)
	}
	if got := srcs[0].Rows[1].Keys(); !reflect.DeepEqual(got, []string{"id", "note"}) {
		t.Fatalf("row[1] keys = %v", got)
	}
}

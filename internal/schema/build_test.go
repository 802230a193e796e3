package schema

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"sqlonjson/internal/ident"
	"sqlonjson/pkg/records"
)

func field(k string, v records.Value) records.Field { return records.Field{Key: k, Value: v} }

// TestBuild_OrderAndTypes verifies first-seen column order across rows and
// per-column type inference.
func TestBuild_OrderAndTypes(t *testing.T) {
	t.Parallel()

	src := records.RowSetSource{
		Name: "_AmO_(Nit)",
		Rows: []records.Record{
			records.Of(field("id", records.Number("1")), field("name", records.String("a"))),
			records.Of(field("score", records.Number("2.5")), field("id", records.Number("2"))),
			records.Of(field("name", records.Null()), field("_12", records.Object(`{"a":1}`))),
		},
	}
	ts, err := Build(src, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if ts.SQLName != "iAmO_Nit" || ts.SourceName != "_AmO_(Nit)" {
		t.Fatalf("table = %q (%q); want iAmO_Nit", ts.SQLName, ts.SourceName)
	}

	want := []ColumnSpec{
		{SourceName: "id", SQLName: "id", Type: BigInt, Ordinal: 0},
		{SourceName: "name", SQLName: "name", Type: String, Ordinal: 1},
		{SourceName: "score", SQLName: "score", Type: Double, Ordinal: 2},
		{SourceName: "_12", SQLName: "i12", Type: String, Ordinal: 3},
	}
	if !reflect.DeepEqual(ts.Columns, want) {
		t.Fatalf("Columns = %+v; want %+v", ts.Columns, want)
	}
	if got := ts.ColumnNames(); !reflect.DeepEqual(got, []string{"id", "name", "score", "i12"}) {
		t.Fatalf("ColumnNames = %v", got)
	}
}

func TestBuild_EmptyRowSet(t *testing.T) {
	t.Parallel()

	_, err := Build(records.RowSetSource{Name: "a"}, nil)
	if !errors.Is(err, ErrEmptyRowSet) {
		t.Fatalf("err = %v; want ErrEmptyRowSet", err)
	}
}

func TestBuild_EmptyIdentifier(t *testing.T) {
	t.Parallel()

	_, err := Build(records.RowSetSource{Name: "", Rows: []records.Record{records.Of(field("a", records.Number("1")))}}, nil)
	if !errors.Is(err, ErrEmptyIdentifier) {
		t.Fatalf("empty table name: err = %v; want ErrEmptyIdentifier", err)
	}

	_, err = Build(records.RowSetSource{Name: "t", Rows: []records.Record{records.Of(field("", records.Number("1")))}}, nil)
	if !errors.Is(err, ErrEmptyIdentifier) {
		t.Fatalf("empty property name: err = %v; want ErrEmptyIdentifier", err)
	}
}

// TestBuild_Collision checks that distinct raw names with the same sanitized
// form (ignoring case) are rejected.
func TestBuild_Collision(t *testing.T) {
	t.Parallel()

	cases := [][2]string{
		{"a-b", "ab"},
		{"Name", "name"},
		{"_x", "ix"},
	}
	for _, c := range cases {
		src := records.RowSetSource{
			Name: "t",
			Rows: []records.Record{records.Of(field(c[0], records.Number("1")), field(c[1], records.Number("2")))},
		}
		_, err := Build(src, nil)
		if !errors.Is(err, ErrIdentifierCollision) {
			t.Fatalf("%q vs %q: err = %v; want ErrIdentifierCollision", c[0], c[1], err)
		}
		var ce *CollisionError
		if !errors.As(err, &ce) || ce.First != c[0] || ce.Second != c[1] {
			t.Fatalf("CollisionError = %+v", ce)
		}
	}
}

func TestBuild_CustomSanitizer(t *testing.T) {
	t.Parallel()

	s := ident.Sanitizer{FoldDiacritics: true}
	src := records.RowSetSource{
		Name: "výrobky",
		Rows: []records.Record{records.Of(field("číslo", records.Number("7")))},
	}
	ts, err := Build(src, s.Sanitize)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if ts.SQLName != "vyrobky" || ts.Columns[0].SQLName != "cislo" {
		t.Fatalf("names = %s.%s; want vyrobky.cislo", ts.SQLName, ts.Columns[0].SQLName)
	}
}

func TestTableNames_Claim(t *testing.T) {
	t.Parallel()

	names := TableNames{}
	if err := names.Claim(TableSchema{SourceName: "a-b", SQLName: "ab"}); err != nil {
		t.Fatalf("first claim: %v", err)
	}
	err := names.Claim(TableSchema{SourceName: "AB", SQLName: "AB"})
	if !errors.Is(err, ErrIdentifierCollision) {
		t.Fatalf("err = %v; want ErrIdentifierCollision", err)
	}
	if !strings.Contains(err.Error(), `"a-b"`) {
		t.Fatalf("error %q should name the first source", err)
	}
}

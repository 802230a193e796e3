package ddl

import (
	"testing"

	gddl "sqlonjson/internal/ddl"
	"sqlonjson/internal/schema"
)

func TestMapType(t *testing.T) {
	t.Parallel()

	cases := map[schema.ColumnType]string{
		schema.String: "VARCHAR(8000)",
		schema.BigInt: "BIGINT",
		schema.Double: "DOUBLE",
	}
	for in, want := range cases {
		if got := MapType(in); got != want {
			t.Fatalf("MapType(%v) = %q; want %q", in, got, want)
		}
	}
}

func TestBuildCreateTableSQL(t *testing.T) {
	t.Parallel()

	got, err := Dialect{}.CreateTableSQL(gddl.TableDef{
		FQN: "iAmO_Nit",
		Columns: []gddl.ColumnDef{
			{Name: "id", SQLType: MapType(schema.BigInt), Nullable: true},
			{Name: "ho", SQLType: MapType(schema.String), Nullable: true},
		},
	})
	if err != nil {
		t.Fatalf("CreateTableSQL: %v", err)
	}
	want := "CREATE TABLE \"iAmO_Nit\" (\n  \"id\" BIGINT,\n  \"ho\" VARCHAR(8000)\n)"
	if got != want {
		t.Fatalf("got:\n%s\nwant:\n%s", got, want)
	}
}

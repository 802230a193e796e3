package ddl

import (
	"testing"

	gddl "sqlonjson/internal/ddl"
	"sqlonjson/internal/schema"
)

func TestMapType(t *testing.T) {
	t.Parallel()

	cases := map[schema.ColumnType]string{
		schema.String: "TEXT",
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

	got, err := BuildCreateTableSQL(gddl.TableDef{
		FQN:     "iAmO_Nit",
		Columns: []gddl.ColumnDef{{Name: "Id", SQLType: "BIGINT", Nullable: true}},
	})
	if err != nil {
		t.Fatalf("BuildCreateTableSQL: %v", err)
	}
	want := "CREATE TABLE `iamo_nit` (\n  `id` BIGINT\n)"
	if got != want {
		t.Fatalf("got:\n%s\nwant:\n%s", got, want)
	}
}

package mysql

import (
	"reflect"
	"testing"
)

func TestInsertSQL(t *testing.T) {
	t.Parallel()

	stmt, args, err := insertSQL("iAmO_Nit", []string{"a", "b"}, [][]any{{int64(1), "x"}, {nil, "y"}})
	if err != nil {
		t.Fatalf("insertSQL: %v", err)
	}
	want := "INSERT INTO `iamo_nit` (`a`, `b`) VALUES (?, ?), (?, ?)"
	if stmt != want {
		t.Fatalf("stmt = %q; want %q", stmt, want)
	}
	if !reflect.DeepEqual(args, []any{int64(1), "x", nil, "y"}) {
		t.Fatalf("args = %v", args)
	}

	if _, _, err := insertSQL("t", []string{"a", "b"}, [][]any{{1}}); err == nil {
		t.Fatal("expected error for short row")
	}
}

package sqlite

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"sqlonjson/internal/storage"
	"sqlonjson/internal/storage/storagetest"
)

func newInstance(tb testing.TB, name string) *Instance {
	tb.Helper()
	inst, err := Open(context.Background(), "sqlite", "sqlite", storage.Config{Name: name})
	if err != nil {
		tb.Fatalf("Open(%s): %v", name, err)
	}
	tb.Cleanup(func() { _ = inst.Close() })
	return inst
}

func mustExec(tb testing.TB, inst *Instance, stmt string) {
	tb.Helper()
	if err := inst.Exec(context.Background(), stmt); err != nil {
		tb.Fatalf("exec %q: %v", stmt, err)
	}
}

func countRows(tb testing.TB, inst *Instance, table string) int {
	tb.Helper()
	var n int
	if err := inst.DB().QueryRow(`SELECT COUNT(*) FROM "` + table + `"`).Scan(&n); err != nil {
		tb.Fatalf("count %s: %v", table, err)
	}
	return n
}

// TestCopyFrom inserts a batch including NULLs and reads it back.
func TestCopyFrom(t *testing.T) {
	t.Parallel()

	inst := newInstance(t, strings.ReplaceAll(t.Name(), "/", "_"))
	mustExec(t, inst, `CREATE TABLE "people" ("id" BIGINT, "name" VARCHAR(8000), "score" DOUBLE)`)

	rows := [][]any{
		{int64(1), "a", 1.5},
		{int64(2), nil, nil},
		{nil, "c", -2.25},
	}
	n, err := inst.CopyFrom(context.Background(), "people", []string{"id", "name", "score"}, rows)
	if err != nil {
		t.Fatalf("CopyFrom: %v", err)
	}
	if n != 3 {
		t.Fatalf("inserted = %d; want 3", n)
	}
	if got := countRows(t, inst, "people"); got != 3 {
		t.Fatalf("count = %d; want 3", got)
	}

	var nullNames int
	if err := inst.DB().QueryRow(`SELECT COUNT(*) FROM people WHERE name IS NULL`).Scan(&nullNames); err != nil {
		t.Fatalf("query: %v", err)
	}
	if nullNames != 1 {
		t.Fatalf("null names = %d; want 1", nullNames)
	}
}

func TestCopyFrom_RowLengthMismatch(t *testing.T) {
	t.Parallel()

	inst := newInstance(t, "mismatch")
	mustExec(t, inst, `CREATE TABLE "t" ("a" BIGINT, "b" BIGINT)`)

	_, err := inst.CopyFrom(context.Background(), "t", []string{"a", "b"}, [][]any{{int64(1), int64(2)}, {int64(3)}})
	if err == nil {
		t.Fatal("expected error for short row")
	}
	if got := countRows(t, inst, "t"); got != 0 {
		t.Fatalf("count = %d; want 0 after rollback", got)
	}
}

// TestInstancesAreIsolated checks that two names give two databases and that
// a closed in-memory database is gone.
func TestInstancesAreIsolated(t *testing.T) {
	t.Parallel()

	a := newInstance(t, "iso_a")
	b := newInstance(t, "iso_b")
	mustExec(t, a, `CREATE TABLE "x" ("v" BIGINT)`)

	if err := b.Exec(context.Background(), `SELECT * FROM "x"`); err == nil {
		t.Fatal("table x leaked into instance iso_b")
	}

	if err := a.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := a.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}

	again := newInstance(t, "iso_a")
	if err := again.Exec(context.Background(), `SELECT * FROM "x"`); err == nil {
		t.Fatal("table x survived Close of in-memory instance")
	}
}

func TestFileInstanceRemovedOnClose(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	dsn := "file:" + filepath.Join(dir, "{id}.db")
	inst, err := Open(context.Background(), "sqlite", "sqlite", storage.Config{Name: "on_disk", DSN: dsn})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	mustExec(t, inst, `CREATE TABLE "t" ("a" BIGINT)`)

	path := filepath.Join(dir, "on_disk.db")
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("stat %s: %v", path, err)
	}
	if err := inst.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("database file still present: %v", err)
	}
}

func TestFilePath(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"":                                   "",
		":memory:":                           "",
		"file::memory:?cache=shared":         "",
		"file:db_1?mode=memory&cache=shared": "",
		"file:/tmp/x.db?cache=shared":        "/tmp/x.db",
		"/tmp/y.db":                          "/tmp/y.db",
	}
	for dsn, want := range cases {
		if got := filePath(dsn); got != want {
			t.Fatalf("filePath(%q) = %q; want %q", dsn, got, want)
		}
	}
}

func TestRegistered(t *testing.T) {
	t.Parallel()

	inst, err := storage.New(context.Background(), storage.Config{Kind: "sqlite", Name: "registered"})
	if err != nil {
		t.Fatalf("storage.New: %v", err)
	}
	defer inst.Close()
	if inst.Kind() != "sqlite" || inst.Name() != "registered" {
		t.Fatalf("instance = %s/%s", inst.Kind(), inst.Name())
	}
}

func TestConformance(t *testing.T) {
	t.Parallel()

	storagetest.Run(t, func(tb testing.TB, name string) storage.Instance {
		return newInstance(tb, name)
	}, "conformance")
}

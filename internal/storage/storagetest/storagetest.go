// Package storagetest provides a conformance check shared by the storage
// backends' tests.
package storagetest

import (
	"context"
	"math"
	"strings"
	"testing"

	"gotest.tools/v3/assert"

	"sqlonjson/internal/schema"
	"sqlonjson/internal/storage"
)

// OpenFunc opens a fresh instance under name.
type OpenFunc func(tb testing.TB, name string) storage.Instance

// Run creates a typed table on a fresh instance, loads rows covering NULLs,
// int64 extremes and an 8000-character string, reads them back with an
// unquoted query and closes the instance twice.
func Run(t *testing.T, open OpenFunc, name string) {
	t.Helper()
	ctx := context.Background()

	inst := open(t, name)
	ts := schema.TableSchema{
		SourceName: "People",
		SQLName:    "People",
		Columns: []schema.ColumnSpec{
			{SourceName: "id", SQLName: "id", Type: schema.BigInt},
			{SourceName: "name", SQLName: "name", Type: schema.String, Ordinal: 1},
			{SourceName: "score", SQLName: "score", Type: schema.Double, Ordinal: 2},
		},
	}
	_, err := storage.CreateTable(ctx, inst, ts)
	assert.NilError(t, err)

	long := strings.Repeat("x", 8000)
	rows := [][]any{
		{int64(1), "a", 1.5},
		{int64(2), nil, nil},
		{int64(math.MaxInt64), long, -0.25},
		{int64(math.MinInt64), "", 0.0},
	}
	n, err := inst.CopyFrom(ctx, ts.SQLName, ts.ColumnNames(), rows)
	assert.NilError(t, err)
	assert.Equal(t, n, int64(len(rows)))

	var count int
	assert.NilError(t, inst.DB().QueryRowContext(ctx, "SELECT COUNT(*) FROM people").Scan(&count))
	assert.Equal(t, count, len(rows))

	var gotLong string
	assert.NilError(t, inst.DB().QueryRowContext(ctx, "SELECT name FROM people WHERE id = 9223372036854775807").Scan(&gotLong))
	assert.Equal(t, len(gotLong), 8000)

	var minID int64
	assert.NilError(t, inst.DB().QueryRowContext(ctx, "SELECT MIN(id) FROM people").Scan(&minID))
	assert.Equal(t, minID, int64(math.MinInt64))

	var nulls int
	assert.NilError(t, inst.DB().QueryRowContext(ctx, "SELECT COUNT(*) FROM people WHERE name IS NULL AND score IS NULL").Scan(&nulls))
	assert.Equal(t, nulls, 1)

	var score float64
	assert.NilError(t, inst.DB().QueryRowContext(ctx, "SELECT score FROM people WHERE id = 1").Scan(&score))
	assert.Assert(t, math.Abs(score-1.5) < 1e-9, "score = %v", score)

	assert.NilError(t, inst.Close())
	assert.NilError(t, inst.Close())
}

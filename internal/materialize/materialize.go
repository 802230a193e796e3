// Package materialize creates a table for an inferred schema on a storage
// instance and loads the source rows into it.
//
// Rows are coerced on a producer goroutine and streamed through
// storage.LoadBatches, which flushes fixed-size batches through the
// instance's CopyFrom. Producer and loader share one errgroup; the first
// failure cancels the other side.
package materialize

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"sqlonjson/internal/schema"
	"sqlonjson/internal/storage"
	"sqlonjson/pkg/records"
)

// DefaultBatchSize is used when Materializer.BatchSize is not positive.
const DefaultBatchSize = 500

// ErrStorageFailure matches every error returned by Materialize.
var ErrStorageFailure = errors.New("storage failure")

// StorageError describes a failed DDL, coercion or insert.
type StorageError struct {
	Table  string
	Op     string // "create", "bind" or "insert"
	Row    int    // source row index, -1 when not tied to a row
	Column string
	Err    error
}

func (e *StorageError) Error() string {
	switch {
	case e.Row >= 0 && e.Column != "":
		return fmt.Sprintf("%s %s: row %d column %s: %v", e.Op, e.Table, e.Row, e.Column, e.Err)
	case e.Row >= 0:
		return fmt.Sprintf("%s %s: row %d: %v", e.Op, e.Table, e.Row, e.Err)
	default:
		return fmt.Sprintf("%s %s: %v", e.Op, e.Table, e.Err)
	}
}

func (e *StorageError) Unwrap() error { return e.Err }

func (e *StorageError) Is(target error) bool { return target == ErrStorageFailure }

// Materializer writes row sets into storage instances. The zero value is
// ready to use.
type Materializer struct {
	BatchSize int
	Logger    *slog.Logger
}

// Materialize creates ts on inst and inserts rows, returning the number of
// rows written. Every error is a *StorageError.
func (m Materializer) Materialize(ctx context.Context, inst storage.Instance, ts schema.TableSchema, rows []records.Record) (int64, error) {
	log := m.Logger
	if log == nil {
		log = slog.Default()
	}
	batchSize := m.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	start := time.Now()

	if _, err := storage.CreateTable(ctx, inst, ts); err != nil {
		return 0, &StorageError{Table: ts.SQLName, Op: "create", Row: -1, Err: err}
	}

	columns := ts.ColumnNames()
	ch := make(chan []any, batchSize)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(ch)
		for idx, rec := range rows {
			row := make([]any, len(ts.Columns))
			for k, col := range ts.Columns {
				v, ok := rec.Get(col.SourceName)
				b, err := Bind(col.Type, v, ok)
				if err != nil {
					return &StorageError{Table: ts.SQLName, Op: "bind", Row: idx, Column: col.SQLName, Err: err}
				}
				row[k] = b
			}
			select {
			case ch <- row:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})

	var inserted int64
	g.Go(func() error {
		n, err := storage.LoadBatches(gctx, columns, ch, batchSize, func(ctx context.Context, cols []string, batch [][]any) (int64, error) {
			return inst.CopyFrom(ctx, ts.SQLName, cols, batch)
		})
		inserted = n
		if err != nil {
			return &StorageError{Table: ts.SQLName, Op: "insert", Row: -1, Err: err}
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		var se *StorageError
		if !errors.As(err, &se) {
			err = &StorageError{Table: ts.SQLName, Op: "insert", Row: -1, Err: err}
		}
		return inserted, err
	}

	log.DebugContext(ctx, "materialize: table loaded",
		"table", ts.SQLName,
		"columns", len(columns),
		"rows", inserted,
		"elapsed", time.Since(start).Truncate(time.Millisecond),
	)
	return inserted, nil
}

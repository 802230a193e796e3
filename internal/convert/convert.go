// Package convert turns a JSON document into a queryable, ephemeral SQL
// database.
//
// Every root property whose value is an array of objects becomes a table;
// each distinct property of those objects becomes a column typed as BIGINT,
// DOUBLE or STRING. Every call opens its own uniquely named storage instance,
// so independent conversions may run concurrently.
package convert

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/zeebo/xxh3"

	"sqlonjson/internal/ident"
	"sqlonjson/internal/materialize"
	"sqlonjson/internal/metrics"
	pjson "sqlonjson/internal/parser/json"
	"sqlonjson/internal/schema"
	"sqlonjson/internal/storage"
	"sqlonjson/pkg/records"
)

// DefaultPrefix starts instance names when Converter.Prefix is empty.
const DefaultPrefix = "sqlonjson"

var (
	// ErrMalformedInput is returned for text that is not a JSON object, or
	// whose arrays hold something other than objects.
	ErrMalformedInput = pjson.ErrMalformedInput
	// ErrIdentifierCollision is returned when two tables, or two columns of
	// one table, sanitize to the same SQL name.
	ErrIdentifierCollision = schema.ErrIdentifierCollision
	// ErrEmptyIdentifier is returned when a name sanitizes to nothing.
	ErrEmptyIdentifier = schema.ErrEmptyIdentifier
	// ErrStorageFailure matches every *StorageError.
	ErrStorageFailure = materialize.ErrStorageFailure
)

// StorageError describes a failed open, DDL, coercion or insert.
type StorageError = materialize.StorageError

// Converter converts JSON documents into storage instances. The zero value
// converts into in-memory SQLite using a process-wide counter for names.
type Converter struct {
	// Storage selects the backend. Name is ignored; each call sets it to
	// <Prefix>_<Names.Next()>. An empty Kind means "sqlite".
	Storage storage.Config
	// Prefix starts every instance name.
	Prefix string
	// Names supplies unique instance-name suffixes.
	Names     Sequence
	Sanitizer ident.Sanitizer
	// BatchSize is the number of rows per insert batch.
	BatchSize int
	Logger    *slog.Logger
	// Job labels logs and metrics.
	Job string
}

// Database is a converted document. The caller owns it and must Close it,
// which destroys the ephemeral storage.
type Database struct {
	storage.Instance
	// Tables lists the created tables in document order.
	Tables  []TableStats
	Elapsed time.Duration
}

// TableStats describes one created table.
type TableStats struct {
	Schema schema.TableSchema
	Rows   int64
}

// Rows returns the total number of rows inserted.
func (d *Database) Rows() int64 {
	var n int64
	for _, t := range d.Tables {
		n += t.Rows
	}
	return n
}

var defaultNames = &Counter{}

// Convert parses data and materializes every array-of-objects property.
// Empty or whitespace-only input yields a database with no tables.
func (c *Converter) Convert(ctx context.Context, data []byte) (*Database, error) {
	start := time.Now()
	srcs, err := pjson.Extract(data)
	metrics.RecordStep(c.job(), "extract", err, time.Since(start))
	if err != nil {
		c.logger().ErrorContext(ctx, "convert: extract failed", "error", err)
		return nil, fmt.Errorf("sqlonjson: %w", err)
	}
	return c.convert(ctx, srcs, start,
		slog.Int("chars", utf8.RuneCount(data)),
		slog.String("fingerprint", fmt.Sprintf("%016x", xxh3.Hash(data))),
	)
}

// ConvertReader reads r fully and calls Convert.
func (c *Converter) ConvertReader(ctx context.Context, r io.Reader) (*Database, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("sqlonjson: read input: %w", err)
	}
	return c.Convert(ctx, data)
}

// ConvertTables materializes already extracted row sets.
func (c *Converter) ConvertTables(ctx context.Context, srcs []records.RowSetSource) (*Database, error) {
	return c.convert(ctx, srcs, time.Now())
}

func (c *Converter) convert(ctx context.Context, srcs []records.RowSetSource, start time.Time, summary ...slog.Attr) (db *Database, err error) {
	log := c.logger()
	defer func() {
		metrics.RecordStep(c.job(), "convert", err, time.Since(start))
	}()

	cfg := c.Storage
	if cfg.Kind == "" {
		cfg.Kind = "sqlite"
	}
	cfg.Name = c.prefix() + "_" + c.names().Next()

	inst, err := storage.New(ctx, cfg)
	if err != nil {
		return nil, &StorageError{Table: cfg.Name, Op: "open", Row: -1, Err: err}
	}
	defer func() {
		if err == nil {
			return
		}
		if cerr := inst.Close(); cerr != nil {
			log.WarnContext(ctx, "convert: close after failure", "instance", inst.Name(), "error", cerr)
		}
	}()

	db = &Database{Instance: inst}
	mat := materialize.Materializer{BatchSize: c.BatchSize, Logger: log}
	names := schema.TableNames{}
	var skipped int64

	for _, src := range srcs {
		t0 := time.Now()
		ts, err := schema.Build(src, c.Sanitizer.Sanitize)
		metrics.RecordStep(c.job(), "schema", err, time.Since(t0))
		if errors.Is(err, schema.ErrEmptyRowSet) {
			skipped++
			log.DebugContext(ctx, "convert: skipping empty row set", "source", src.Name)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("sqlonjson: %w", err)
		}
		if err := names.Claim(ts); err != nil {
			return nil, fmt.Errorf("sqlonjson: %w", err)
		}
		metrics.RecordRows(c.job(), "extracted", int64(len(src.Rows)))

		t0 = time.Now()
		n, err := mat.Materialize(ctx, inst, ts, src.Rows)
		metrics.RecordStep(c.job(), "materialize", err, time.Since(t0))
		metrics.RecordRows(c.job(), "inserted", n)
		if err != nil {
			return nil, fmt.Errorf("sqlonjson: %w", err)
		}
		db.Tables = append(db.Tables, TableStats{Schema: ts, Rows: n})
	}

	db.Elapsed = time.Since(start)
	metrics.RecordTables(c.job(), "created", int64(len(db.Tables)))
	metrics.RecordTables(c.job(), "skipped", skipped)

	attrs := append([]slog.Attr{
		slog.String("instance", inst.Name()),
		slog.String("kind", inst.Kind()),
		slog.Int("tables", len(db.Tables)),
		slog.Int64("skipped", skipped),
		slog.Int64("rows", db.Rows()),
		slog.Duration("elapsed", db.Elapsed.Truncate(time.Millisecond)),
	}, summary...)
	log.LogAttrs(ctx, slog.LevelInfo, "convert: done", attrs...)
	return db, nil
}

func (c *Converter) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}

func (c *Converter) names() Sequence {
	if c.Names != nil {
		return c.Names
	}
	return defaultNames
}

func (c *Converter) prefix() string {
	if c.Prefix != "" {
		return c.Prefix
	}
	return DefaultPrefix
}

func (c *Converter) job() string {
	if c.Job != "" {
		return c.Job
	}
	return DefaultPrefix
}

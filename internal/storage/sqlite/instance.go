// Package sqlite implements storage.Instance on SQLite.
//
// Each instance is a named, shared-cache in-memory database by default
// ("file:<name>?mode=memory&cache=shared"). The pool is pinned to a single
// connection: the database disappears with its last connection, and SQLite
// serializes writers anyway. A DSN pointing at a file is also accepted; the
// file is removed on Close.
//
// Rows are inserted with a prepared INSERT inside one transaction per batch;
// SQLite has no dedicated bulk-load API.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"sqlonjson/internal/storage"
	sqliteddl "sqlonjson/internal/storage/sqlite/ddl"
)

// DefaultDSN is used when storage.Config.DSN is empty.
const DefaultDSN = "file:{id}?mode=memory&cache=shared"

// Instance is a SQLite-backed storage.Instance.
type Instance struct {
	db     *sql.DB
	name   string
	kind   string
	path   string // on-disk file to remove on Close; empty for memory
	once   sync.Once
	closed error
}

var _ storage.Instance = (*Instance)(nil)

// Open opens an instance with the given database/sql driver name ("sqlite"
// for modernc.org/sqlite, "sqlite3" for github.com/mattn/go-sqlite3).
func Open(ctx context.Context, kind, driver string, cfg storage.Config) (*Instance, error) {
	if cfg.DSN == "" {
		cfg.DSN = DefaultDSN
	}
	dsn := cfg.ExpandDSN()

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("%s: open: %w", kind, err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: ping: %w", kind, err)
	}

	inst := &Instance{db: db, name: cfg.Name, kind: kind, path: filePath(dsn)}
	slog.DebugContext(ctx, "sqlite: instance opened", "kind", kind, "name", cfg.Name, "file", inst.path)
	return inst, nil
}

func (i *Instance) Name() string             { return i.name }
func (i *Instance) Kind() string             { return i.kind }
func (i *Instance) DB() *sql.DB              { return i.db }
func (i *Instance) Dialect() storage.Dialect { return sqliteddl.Dialect{} }

// Exec executes a single statement.
func (i *Instance) Exec(ctx context.Context, stmt string) error {
	if strings.TrimSpace(stmt) == "" {
		return nil
	}
	if _, err := i.db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("%s: exec: %w", i.kind, err)
	}
	return nil
}

// CopyFrom inserts rows into table using one transaction and a prepared
// INSERT. len(row) must equal len(columns) for every row.
func (i *Instance) CopyFrom(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	if len(columns) == 0 {
		return 0, fmt.Errorf("%s: CopyFrom: columns must not be empty", i.kind)
	}
	if len(rows) == 0 {
		return 0, nil
	}

	cols := make([]string, len(columns))
	marks := make([]string, len(columns))
	for k, c := range columns {
		cols[k] = sqliteddl.QuoteIdent(c)
		marks[k] = "?"
	}
	stmtSQL := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s)",
		sqliteddl.QuoteIdent(table),
		strings.Join(cols, ", "),
		strings.Join(marks, ", "),
	)

	tx, err := i.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("%s: begin tx: %w", i.kind, err)
	}
	stmt, err := tx.PrepareContext(ctx, stmtSQL)
	if err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("%s: prepare insert: %w", i.kind, err)
	}
	defer stmt.Close()

	var inserted int64
	for _, row := range rows {
		if len(row) != len(columns) {
			_ = tx.Rollback()
			return 0, fmt.Errorf("%s: CopyFrom: row length %d != columns length %d", i.kind, len(row), len(columns))
		}
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			_ = tx.Rollback()
			return 0, fmt.Errorf("%s: insert: %w", i.kind, err)
		}
		inserted++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("%s: commit: %w", i.kind, err)
	}
	return inserted, nil
}

// Close closes the pool, which drops an in-memory database, and removes the
// database file for file-backed instances.
func (i *Instance) Close() error {
	i.once.Do(func() {
		err := i.db.Close()
		if i.path != "" {
			for _, p := range []string{i.path, i.path + "-journal", i.path + "-wal", i.path + "-shm"} {
				if rmErr := os.Remove(p); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) && err == nil {
					err = rmErr
				}
			}
		}
		if err != nil {
			err = fmt.Errorf("%s: close: %w", i.kind, err)
		}
		i.closed = err
	})
	return i.closed
}

// filePath returns the on-disk path named by dsn, or "" for in-memory
// databases.
func filePath(dsn string) string {
	if dsn == ":memory:" || dsn == "" {
		return ""
	}
	path, query, _ := strings.Cut(strings.TrimPrefix(dsn, "file:"), "?")
	if path == "" || path == ":memory:" {
		return ""
	}
	if q, err := url.ParseQuery(query); err == nil && q.Get("mode") == "memory" {
		return ""
	}
	return path
}

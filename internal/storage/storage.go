// Package storage contains the backend-agnostic contract for the ephemeral
// databases that converted JSON is materialized into, plus a registry of
// backend factories and a generic batched loader.
//
// Every Instance is a freshly created, isolated database (or schema) named
// after Config.Name. It lives until Close, which tears it down.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"sync"

	"sqlonjson/internal/ddl"
	"sqlonjson/internal/ident"
	"sqlonjson/internal/schema"
)

// Dialect captures what differs in DDL between backends.
type Dialect interface {
	// MapType maps an inferred column type to the backend's SQL type.
	MapType(schema.ColumnType) string
	// QuoteIdent quotes a single identifier the way CREATE TABLE renders it.
	QuoteIdent(string) string
	// CreateTableSQL renders a CREATE TABLE statement.
	CreateTableSQL(ddl.TableDef) (string, error)
}

// Instance is one isolated, ephemeral database.
type Instance interface {
	// Name is the unique name the instance was opened under.
	Name() string
	// Kind is the registered backend kind, e.g. "sqlite".
	Kind() string
	// DB exposes the instance for querying.
	DB() *sql.DB
	Dialect() Dialect
	// Exec runs a single statement, typically DDL.
	Exec(ctx context.Context, stmt string) error
	// CopyFrom inserts rows (aligned to columns) into table and returns the
	// number of rows written.
	CopyFrom(ctx context.Context, table string, columns []string, rows [][]any) (int64, error)
	// Close tears the instance down and releases its connections. It is safe
	// to call more than once.
	Close() error
}

// Config selects a backend and describes how to reach it.
type Config struct {
	// Kind is a registered backend kind.
	Kind string
	// DSN is the backend connection string. A literal "{id}" is replaced with
	// Name, which lets embedded backends derive a per-instance database.
	DSN string
	// Name is the unique instance name; it must be a valid identifier.
	Name string
	// Username and Password, when set, override credentials in DSN.
	Username string
	Password string
}

// ExpandDSN returns DSN with "{id}" replaced by Name.
func (c Config) ExpandDSN() string {
	return strings.ReplaceAll(c.DSN, "{id}", c.Name)
}

// Factory opens a new Instance for cfg.
type Factory func(ctx context.Context, cfg Config) (Instance, error)

var (
	regMu     sync.RWMutex
	factories = map[string]Factory{}
)

// Register registers (or replaces) the factory for kind. Backends call it
// from init.
func Register(kind string, f Factory) {
	regMu.Lock()
	defer regMu.Unlock()
	factories[kind] = f
}

// ListKinds returns the registered kinds in sorted order.
func ListKinds() []string {
	regMu.RLock()
	defer regMu.RUnlock()
	out := make([]string, 0, len(factories))
	for k := range factories {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// New opens an Instance using the factory registered for cfg.Kind.
func New(ctx context.Context, cfg Config) (Instance, error) {
	if !ident.Valid(cfg.Name) {
		return nil, fmt.Errorf("storage: invalid instance name %q", cfg.Name)
	}
	regMu.RLock()
	f, ok := factories[cfg.Kind]
	regMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("storage: unknown kind %q (registered: %s)", cfg.Kind, strings.Join(ListKinds(), ", "))
	}
	return f(ctx, cfg)
}

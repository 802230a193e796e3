// Package postgres implements storage.Instance on Postgres using pgx v5.
//
// Isolation is per schema: each instance creates a schema named after the
// instance on a shared server, pins search_path to it for every pooled
// connection, and drops it with CASCADE on Close. Rows are loaded with COPY.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"

	"sqlonjson/internal/storage"
	pgddl "sqlonjson/internal/storage/postgres/ddl"
)

// Instance is a Postgres-backed storage.Instance.
type Instance struct {
	pool   *pgxpool.Pool
	db     *sql.DB
	schema string
	name   string
	once   sync.Once
	closed error
}

var _ storage.Instance = (*Instance)(nil)

// Open creates the instance schema and returns a pool bound to it.
func Open(ctx context.Context, cfg storage.Config) (*Instance, error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, fmt.Errorf("postgres: DSN must not be empty")
	}
	pcfg, err := pgxpool.ParseConfig(cfg.ExpandDSN())
	if err != nil {
		return nil, fmt.Errorf("postgres: parse dsn: %w", err)
	}
	if cfg.Username != "" {
		pcfg.ConnConfig.User = cfg.Username
	}
	if cfg.Password != "" {
		pcfg.ConnConfig.Password = cfg.Password
	}

	schemaName := pgddl.Fold(cfg.Name)
	if pcfg.ConnConfig.RuntimeParams == nil {
		pcfg.ConnConfig.RuntimeParams = map[string]string{}
	}
	pcfg.ConnConfig.RuntimeParams["search_path"] = schemaName

	pool, err := pgxpool.NewWithConfig(ctx, pcfg)
	if err != nil {
		return nil, fmt.Errorf("pgxpool: %w", err)
	}
	if _, err := pool.Exec(ctx, "CREATE SCHEMA "+pgddl.QuoteIdent(schemaName)); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: create schema %s: %w", schemaName, pgDetail(err))
	}

	slog.DebugContext(ctx, "postgres: instance opened", "schema", schemaName)
	return &Instance{
		pool:   pool,
		db:     stdlib.OpenDBFromPool(pool),
		schema: schemaName,
		name:   cfg.Name,
	}, nil
}

func (i *Instance) Name() string             { return i.name }
func (i *Instance) Kind() string             { return "postgres" }
func (i *Instance) DB() *sql.DB              { return i.db }
func (i *Instance) Dialect() storage.Dialect { return pgddl.Dialect{} }

// Schema returns the Postgres schema backing the instance.
func (i *Instance) Schema() string { return i.schema }

// Exec executes a statement on the pool.
func (i *Instance) Exec(ctx context.Context, stmt string) error {
	if strings.TrimSpace(stmt) == "" {
		return nil
	}
	if _, err := i.pool.Exec(ctx, stmt); err != nil {
		return fmt.Errorf("postgres: exec: %w", pgDetail(err))
	}
	return nil
}

// CopyFrom streams rows into table using COPY FROM STDIN.
func (i *Instance) CopyFrom(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	cols := make([]string, len(columns))
	for k, c := range columns {
		cols[k] = pgddl.Fold(c)
	}
	n, err := i.pool.CopyFrom(ctx, pgx.Identifier{i.schema, pgddl.Fold(table)}, cols, pgx.CopyFromRows(rows))
	if err != nil {
		return n, fmt.Errorf("postgres: copy into %s: %w", table, pgDetail(err))
	}
	return n, nil
}

// Close drops the instance schema and closes the pool.
func (i *Instance) Close() error {
	i.once.Do(func() {
		ctx := context.Background()
		_, err := i.pool.Exec(ctx, "DROP SCHEMA IF EXISTS "+pgddl.QuoteIdent(i.schema)+" CASCADE")
		if err != nil {
			err = fmt.Errorf("postgres: drop schema %s: %w", i.schema, pgDetail(err))
		}
		if cerr := i.db.Close(); cerr != nil && err == nil {
			err = cerr
		}
		i.pool.Close()
		i.closed = err
	})
	return i.closed
}

// pgDetail folds the server-side detail of a PgError into the message.
func pgDetail(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Detail != "" {
		return fmt.Errorf("%w (%s: %s)", err, pgErr.SQLState(), pgErr.Detail)
	}
	return err
}

func init() {
	storage.Register("postgres", func(ctx context.Context, cfg storage.Config) (storage.Instance, error) {
		return Open(ctx, cfg)
	})
}

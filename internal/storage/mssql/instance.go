// Package mssql implements storage.Instance on SQL Server using
// github.com/microsoft/go-mssqldb.
//
// Isolation is per database: the configured login creates a database named
// after the instance, rows are loaded through the driver's bulk copy, and the
// database is dropped on Close. The DSN must use the sqlserver:// URL form so
// the database parameter can be rewritten.
package mssql

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	mssql "github.com/microsoft/go-mssqldb"
	"github.com/microsoft/go-mssqldb/msdsn"

	"sqlonjson/internal/storage"
	msddl "sqlonjson/internal/storage/mssql/ddl"
)

// Instance is a SQL Server-backed storage.Instance.
type Instance struct {
	admin  *sql.DB // connected to the server's default database
	db     *sql.DB // connected to the instance database
	name   string
	once   sync.Once
	closed error
}

var _ storage.Instance = (*Instance)(nil)

// Open creates the instance database and connects to it.
func Open(ctx context.Context, cfg storage.Config) (*Instance, error) {
	dsn := cfg.ExpandDSN()
	if _, err := msdsn.Parse(dsn); err != nil {
		return nil, fmt.Errorf("mssql: parse dsn: %w", err)
	}
	adminDSN, err := rewriteDSN(dsn, cfg.Username, cfg.Password, "")
	if err != nil {
		return nil, err
	}
	instDSN, err := rewriteDSN(dsn, cfg.Username, cfg.Password, cfg.Name)
	if err != nil {
		return nil, err
	}

	admin, err := openDB(ctx, adminDSN)
	if err != nil {
		return nil, err
	}
	if _, err := admin.ExecContext(ctx, "CREATE DATABASE "+msddl.QuoteIdent(cfg.Name)); err != nil {
		_ = admin.Close()
		return nil, fmt.Errorf("mssql: create database %s: %w", cfg.Name, err)
	}

	db, err := openDB(ctx, instDSN)
	if err != nil {
		_ = dropDatabase(context.Background(), admin, cfg.Name)
		_ = admin.Close()
		return nil, err
	}

	slog.DebugContext(ctx, "mssql: instance opened", "database", cfg.Name)
	return &Instance{admin: admin, db: db, name: cfg.Name}, nil
}

func (i *Instance) Name() string             { return i.name }
func (i *Instance) Kind() string             { return "mssql" }
func (i *Instance) DB() *sql.DB              { return i.db }
func (i *Instance) Dialect() storage.Dialect { return msddl.Dialect{} }

// Exec executes a statement against the instance database.
func (i *Instance) Exec(ctx context.Context, stmt string) error {
	if strings.TrimSpace(stmt) == "" {
		return nil
	}
	if _, err := i.db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("mssql: exec: %w", err)
	}
	return nil
}

// CopyFrom bulk-inserts rows into table inside one transaction.
func (i *Instance) CopyFrom(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	tx, err := i.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("mssql: begin tx: %w", err)
	}
	rollback := func() { _ = tx.Rollback() }

	stmt, err := tx.PrepareContext(ctx, mssql.CopyIn(msddl.QuoteIdent(table), mssql.BulkOptions{}, columns...))
	if err != nil {
		rollback()
		return 0, fmt.Errorf("mssql: prepare bulk: %w", err)
	}
	for k := range rows {
		if _, err := stmt.ExecContext(ctx, rows[k]...); err != nil {
			_ = stmt.Close()
			rollback()
			return 0, fmt.Errorf("mssql: bulk row %d: %w", k, err)
		}
	}
	res, err := stmt.ExecContext(ctx)
	if cerr := stmt.Close(); cerr != nil && err == nil {
		err = cerr
	}
	if err != nil {
		rollback()
		return 0, fmt.Errorf("mssql: bulk finalize: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		rollback()
		return 0, fmt.Errorf("mssql: rows affected: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("mssql: commit: %w", err)
	}
	return n, nil
}

// Close disconnects from the instance database and drops it.
func (i *Instance) Close() error {
	i.once.Do(func() {
		err := i.db.Close()
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if derr := dropDatabase(ctx, i.admin, i.name); derr != nil && err == nil {
			err = derr
		}
		if cerr := i.admin.Close(); cerr != nil && err == nil {
			err = cerr
		}
		i.closed = err
	})
	return i.closed
}

func openDB(ctx context.Context, dsn string) (*sql.DB, error) {
	conn, err := mssql.NewConnector(dsn)
	if err != nil {
		return nil, fmt.Errorf("mssql: connector: %w", err)
	}
	db := sql.OpenDB(conn)
	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("mssql: ping: %w", err)
	}
	return db, nil
}

func dropDatabase(ctx context.Context, admin *sql.DB, name string) error {
	q := msddl.QuoteIdent(name)
	stmt := fmt.Sprintf(
		"IF DB_ID(N'%s') IS NOT NULL BEGIN ALTER DATABASE %s SET SINGLE_USER WITH ROLLBACK IMMEDIATE; DROP DATABASE %s; END",
		name, q, q,
	)
	if _, err := admin.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("mssql: drop database %s: %w", name, err)
	}
	return nil
}

// rewriteDSN applies credentials and the database parameter to a
// sqlserver:// DSN. An empty database removes the parameter.
func rewriteDSN(dsn, user, password, database string) (string, error) {
	u, err := url.Parse(dsn)
	if err != nil || u.Scheme != "sqlserver" {
		return "", fmt.Errorf("mssql: DSN must use the sqlserver:// URL form")
	}
	if user != "" {
		u.User = url.UserPassword(user, password)
	}
	q := u.Query()
	if database == "" {
		q.Del("database")
	} else {
		q.Set("database", database)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func init() {
	storage.Register("mssql", func(ctx context.Context, cfg storage.Config) (storage.Instance, error) {
		return Open(ctx, cfg)
	})
}

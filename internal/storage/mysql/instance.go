// Package mysql implements storage.Instance on MySQL using
// github.com/go-sql-driver/mysql.
//
// Isolation is per database, created on Open and dropped on Close. Rows are
// written with multi-row INSERT statements, one transaction per batch.
package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/go-sql-driver/mysql"

	"sqlonjson/internal/storage"
	myddl "sqlonjson/internal/storage/mysql/ddl"
)

// maxPlaceholders is the server limit on parameters per prepared statement.
const maxPlaceholders = 65535

// Instance is a MySQL-backed storage.Instance.
type Instance struct {
	admin  *sql.DB
	db     *sql.DB
	name   string
	dbName string
	once   sync.Once
	closed error
}

var _ storage.Instance = (*Instance)(nil)

// Open creates the instance database and connects to it.
func Open(ctx context.Context, cfg storage.Config) (*Instance, error) {
	mc, err := mysql.ParseDSN(cfg.ExpandDSN())
	if err != nil {
		return nil, fmt.Errorf("mysql: parse dsn: %w", err)
	}
	if cfg.Username != "" {
		mc.User = cfg.Username
	}
	if cfg.Password != "" {
		mc.Passwd = cfg.Password
	}

	dbName := strings.ToLower(cfg.Name)
	adminCfg := mc.Clone()
	adminCfg.DBName = ""
	admin, err := openDB(ctx, adminCfg)
	if err != nil {
		return nil, err
	}
	if _, err := admin.ExecContext(ctx, "CREATE DATABASE "+myddl.QuoteIdent(dbName)+" CHARACTER SET utf8mb4"); err != nil {
		_ = admin.Close()
		return nil, fmt.Errorf("mysql: create database %s: %w", dbName, err)
	}

	instCfg := mc.Clone()
	instCfg.DBName = dbName
	db, err := openDB(ctx, instCfg)
	if err != nil {
		_, _ = admin.ExecContext(context.Background(), "DROP DATABASE IF EXISTS "+myddl.QuoteIdent(dbName))
		_ = admin.Close()
		return nil, err
	}

	slog.DebugContext(ctx, "mysql: instance opened", "database", dbName)
	return &Instance{admin: admin, db: db, name: cfg.Name, dbName: dbName}, nil
}

func (i *Instance) Name() string             { return i.name }
func (i *Instance) Kind() string             { return "mysql" }
func (i *Instance) DB() *sql.DB              { return i.db }
func (i *Instance) Dialect() storage.Dialect { return myddl.Dialect{} }

// Exec executes a statement against the instance database.
func (i *Instance) Exec(ctx context.Context, stmt string) error {
	if strings.TrimSpace(stmt) == "" {
		return nil
	}
	if _, err := i.db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("mysql: exec: %w", err)
	}
	return nil
}

// CopyFrom inserts rows with multi-row INSERT statements inside one
// transaction, splitting so no statement exceeds the placeholder limit.
func (i *Instance) CopyFrom(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	if len(columns) == 0 {
		return 0, fmt.Errorf("mysql: CopyFrom: columns must not be empty")
	}
	if len(rows) == 0 {
		return 0, nil
	}
	perStmt := maxPlaceholders / len(columns)

	tx, err := i.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("mysql: begin tx: %w", err)
	}

	var inserted int64
	for start := 0; start < len(rows); start += perStmt {
		end := min(start+perStmt, len(rows))
		stmt, args, err := insertSQL(table, columns, rows[start:end])
		if err != nil {
			_ = tx.Rollback()
			return 0, err
		}
		res, err := tx.ExecContext(ctx, stmt, args...)
		if err != nil {
			_ = tx.Rollback()
			return 0, fmt.Errorf("mysql: insert: %w", err)
		}
		n, _ := res.RowsAffected()
		inserted += n
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("mysql: commit: %w", err)
	}
	return inserted, nil
}

// Close disconnects from the instance database and drops it.
func (i *Instance) Close() error {
	i.once.Do(func() {
		err := i.db.Close()
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if _, derr := i.admin.ExecContext(ctx, "DROP DATABASE IF EXISTS "+myddl.QuoteIdent(i.dbName)); derr != nil && err == nil {
			err = fmt.Errorf("mysql: drop database %s: %w", i.dbName, derr)
		}
		if cerr := i.admin.Close(); cerr != nil && err == nil {
			err = cerr
		}
		i.closed = err
	})
	return i.closed
}

// insertSQL builds INSERT INTO t (c1, c2) VALUES (?, ?), (?, ?) and the
// flattened arguments.
func insertSQL(table string, columns []string, rows [][]any) (string, []any, error) {
	cols := make([]string, len(columns))
	for k, c := range columns {
		cols[k] = myddl.QuoteIdent(c)
	}
	tuple := "(" + strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ") + ")"

	var sb strings.Builder
	fmt.Fprintf(&sb, "INSERT INTO %s (%s) VALUES ", myddl.QuoteIdent(table), strings.Join(cols, ", "))
	args := make([]any, 0, len(rows)*len(columns))
	for k, row := range rows {
		if len(row) != len(columns) {
			return "", nil, fmt.Errorf("mysql: CopyFrom: row length %d != columns length %d", len(row), len(columns))
		}
		if k > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(tuple)
		args = append(args, row...)
	}
	return sb.String(), args, nil
}

func openDB(ctx context.Context, cfg *mysql.Config) (*sql.DB, error) {
	conn, err := mysql.NewConnector(cfg)
	if err != nil {
		return nil, fmt.Errorf("mysql: connector: %w", err)
	}
	db := sql.OpenDB(conn)
	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("mysql: ping: %w", err)
	}
	return db, nil
}

func init() {
	storage.Register("mysql", func(ctx context.Context, cfg storage.Config) (storage.Instance, error) {
		return Open(ctx, cfg)
	})
}

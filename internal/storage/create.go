package storage

import (
	"context"
	"fmt"

	"sqlonjson/internal/ddl"
	"sqlonjson/internal/schema"
)

// CreateTable renders ts through the instance dialect and executes the
// resulting CREATE TABLE. It returns the table definition that was applied.
func CreateTable(ctx context.Context, inst Instance, ts schema.TableSchema) (ddl.TableDef, error) {
	d := inst.Dialect()
	td := ddl.FromSchema(ts, d.MapType)
	stmt, err := d.CreateTableSQL(td)
	if err != nil {
		return td, fmt.Errorf("storage: render ddl for %s: %w", ts.SQLName, err)
	}
	if err := inst.Exec(ctx, stmt); err != nil {
		return td, fmt.Errorf("storage: create table %s: %w", ts.SQLName, err)
	}
	return td, nil
}

//go:build cgo

package sqlite

import (
	"context"

	"sqlonjson/internal/storage"

	_ "github.com/mattn/go-sqlite3"
)

// The cgo driver registers as "sqlite3"; it is only available in cgo builds.
func init() {
	storage.Register("sqlite3", func(ctx context.Context, cfg storage.Config) (storage.Instance, error) {
		return Open(ctx, "sqlite3", "sqlite3", cfg)
	})
}

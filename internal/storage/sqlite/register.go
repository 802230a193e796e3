package sqlite

import (
	"context"

	"sqlonjson/internal/storage"

	_ "modernc.org/sqlite"
)

func init() {
	storage.Register("sqlite", func(ctx context.Context, cfg storage.Config) (storage.Instance, error) {
		return Open(ctx, "sqlite", "sqlite", cfg)
	})
}

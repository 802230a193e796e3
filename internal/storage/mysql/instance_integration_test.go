//go:build integration

package mysql

import (
	"context"
	"os"
	"testing"
	"time"

	"sqlonjson/internal/storage"
	"sqlonjson/internal/storage/storagetest"
)

// getTestDSN reads MYSQL_TEST_DSN; tests skip when it is empty.
func getTestDSN(tb testing.TB) string {
	tb.Helper()
	dsn := os.Getenv("MYSQL_TEST_DSN")
	if dsn == "" {
		tb.Skip("MYSQL_TEST_DSN not set; skipping MySQL integration tests")
	}
	return dsn
}

func TestConformanceIntegration(t *testing.T) {
	dsn := getTestDSN(t)
	storagetest.Run(t, func(tb testing.TB, name string) storage.Instance {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		inst, err := Open(ctx, storage.Config{DSN: dsn, Name: name})
		if err != nil {
			tb.Fatalf("Open: %v", err)
		}
		tb.Cleanup(func() { _ = inst.Close() })
		return inst
	}, "sqlonjson_it_my_"+time.Now().Format("150405"))
}

// Command sqlonjson converts JSON documents into ephemeral SQL databases and
// queries them.
//
//	sqlonjson [-config file] [-kind sqlite] [-dsn DSN] [-q SQL] [-schema] [-validate] [-workers N] [-v] [file.json ...]
//
// Each file (stdin when none is given, or for "-") gets its own database,
// which is dropped once its output has been written. Results are printed as
// JSON lines on stdout.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	// register all backends with the storage factory.
	_ "sqlonjson/internal/storage/all"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr, os.Getenv)
	stop()
	os.Exit(code)
}

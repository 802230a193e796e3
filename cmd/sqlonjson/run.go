package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/sync/errgroup"

	"sqlonjson/internal/config"
	"sqlonjson/internal/convert"
	"sqlonjson/internal/ident"
	"sqlonjson/internal/logging"
	"sqlonjson/internal/metrics"
	"sqlonjson/internal/metrics/datadog"
	"sqlonjson/internal/metrics/prompush"
	"sqlonjson/internal/storage"
)

type options struct {
	configPath     string
	kind           string
	dsn            string
	query          string
	schema         bool
	validate       bool
	workers        int
	metricsBackend string
	verbose        bool
}

// run is main without the process globals. It returns the exit code.
func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer, getenv func(string) string) int {
	fs := flag.NewFlagSet("sqlonjson", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var o options
	fs.StringVar(&o.configPath, "config", "", "config file (.json, .yaml or .yml)")
	fs.StringVar(&o.kind, "kind", "", "storage kind (overrides config and SQLONJSON_STORAGE_KIND)")
	fs.StringVar(&o.dsn, "dsn", "", "storage DSN; {id} is replaced by the instance name")
	fs.StringVar(&o.query, "q", "", "SQL query to run against each converted document")
	fs.BoolVar(&o.schema, "schema", false, "print the inferred schema (default when -q is not set)")
	fs.BoolVar(&o.validate, "validate", false, "validate the configuration and exit")
	fs.IntVar(&o.workers, "workers", 0, "documents converted concurrently (default from config)")
	fs.StringVar(&o.metricsBackend, "metrics-backend", "", "metrics backend: none, pushgateway or datadog")
	fs.BoolVar(&o.verbose, "v", false, "enable debug logs")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	cfg, err := loadConfig(o, getenv)
	if err != nil {
		fmt.Fprintf(stderr, "%v\n", err)
		return 1
	}

	issues := config.Validate(cfg, storage.ListKinds())
	for _, iss := range issues {
		fmt.Fprintln(stderr, iss.Error())
	}
	if config.HasErrors(issues) {
		fmt.Fprintln(stderr, "configuration is invalid")
		return 1
	}
	if o.validate {
		fmt.Fprintln(stderr, "configuration is valid")
		return 0
	}

	logger, closeLog, err := logging.Setup(stderr, logging.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		SeqURL: cfg.Logging.SeqURL,
	})
	if err != nil {
		fmt.Fprintf(stderr, "%v\n", err)
		return 1
	}
	defer closeLog()

	if flush := setupMetrics(cfg, logger); flush != nil {
		defer flush()
	}

	names, err := convert.NewSequence(cfg.Naming.Kind)
	if err != nil {
		logger.Error("sqlonjson: naming", "error", err)
		return 1
	}
	conv := &convert.Converter{
		Storage: storage.Config{
			Kind:     cfg.Storage.Kind,
			DSN:      cfg.Storage.DSN,
			Username: cfg.Storage.Username,
			Password: cfg.Storage.Password,
		},
		Prefix:    cfg.Storage.Prefix,
		Names:     names,
		Sanitizer: ident.Sanitizer{FoldDiacritics: cfg.Identifiers.FoldDiacritics},
		BatchSize: cfg.Runtime.BatchSize,
		Logger:    logger,
		Job:       cfg.Job,
	}

	inputs := fs.Args()
	if len(inputs) == 0 {
		inputs = []string{"-"}
	}

	// Output is buffered per input so lines of concurrent documents never
	// interleave and appear in argument order.
	outs := make([]bytes.Buffer, len(inputs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Runtime.Workers)
	for i, path := range inputs {
		g.Go(func() error {
			return process(gctx, conv, path, stdin, o, &outs[i])
		})
	}
	werr := g.Wait()
	for i := range outs {
		if _, err := stdout.Write(outs[i].Bytes()); err != nil {
			logger.Error("sqlonjson: write output", "error", err)
			return 1
		}
	}
	if werr != nil {
		logger.Error("sqlonjson: conversion failed", "error", werr)
		return 1
	}
	return 0
}

// loadConfig layers defaults, the config file, the environment and flags.
func loadConfig(o options, getenv func(string) string) (config.Config, error) {
	cfg := config.Default()
	if o.configPath != "" {
		var err error
		if cfg, err = config.Load(o.configPath); err != nil {
			return config.Config{}, err
		}
	}
	cfg.ApplyEnv(getenv)
	if o.kind != "" {
		cfg.Storage.Kind = o.kind
	}
	if o.dsn != "" {
		cfg.Storage.DSN = o.dsn
	}
	// The default DSN only makes sense for sqlite; other kinds must name a server.
	if !strings.HasPrefix(cfg.Storage.Kind, "sqlite") && cfg.Storage.DSN == config.Default().Storage.DSN {
		cfg.Storage.DSN = ""
	}
	if o.workers > 0 {
		cfg.Runtime.Workers = o.workers
	}
	if o.metricsBackend != "" {
		cfg.Metrics.Backend = o.metricsBackend
	}
	if o.verbose {
		cfg.Logging.Level = "debug"
	}
	return cfg, nil
}

// setupMetrics installs the configured backend and returns its flush
// function, or nil when metrics are disabled.
func setupMetrics(cfg config.Config, logger *slog.Logger) func() {
	var (
		b   metrics.Backend
		err error
	)
	switch cfg.Metrics.Backend {
	case "pushgateway":
		b, err = prompush.NewBackend(cfg.Job, cfg.Metrics.PushgatewayURL)
	case "datadog":
		b, err = datadog.NewBackend(datadog.Config{
			Addr:       cfg.Metrics.DatadogAddr,
			Namespace:  cfg.Metrics.Namespace,
			GlobalTags: cfg.Metrics.Tags,
		})
	default:
		logger.Debug("metrics: disabled", "backend", cfg.Metrics.Backend)
		return nil
	}
	if err != nil {
		logger.Warn("metrics: init failed; using nop", "backend", cfg.Metrics.Backend, "error", err)
		return nil
	}
	logger.Info("metrics: enabled", "backend", cfg.Metrics.Backend, "job", cfg.Job)
	metrics.SetBackend(b)
	return func() {
		if err := metrics.Flush(); err != nil {
			logger.Warn("metrics: flush", "error", err)
		}
	}
}

// process converts one input and writes its output lines to w.
func process(ctx context.Context, conv *convert.Converter, path string, stdin io.Reader, o options, w io.Writer) error {
	r, closeIn, err := openInput(path, stdin)
	if err != nil {
		return err
	}
	defer closeIn()

	db, err := conv.ConvertReader(ctx, r)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	defer db.Close()

	if o.schema || o.query == "" {
		if err := writeSchema(w, path, db); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
	}
	if o.query != "" {
		if err := writeQuery(ctx, w, path, db, o.query); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
	}
	return nil
}

func openInput(path string, stdin io.Reader) (io.Reader, func(), error) {
	if path == "-" {
		return stdin, func() {}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	adviseSequential(f)
	return f, func() { _ = f.Close() }, nil
}

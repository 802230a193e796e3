// Package config defines the configuration model for sqlonjson and loads it
// from JSON or YAML files.
//
// Example (YAML):
//
//	job: orders-adhoc
//	storage:
//	  kind: sqlite
//	  dsn: "file:{id}?mode=memory&cache=shared"
//	  prefix: sqlonjson
//	naming:      { kind: counter }
//	identifiers: { fold_diacritics: false }
//	runtime:     { batch_size: 500, workers: 4 }
//	logging:     { level: info, format: text }
//	metrics:     { backend: none }
//
// Fields left out of a file keep their Default values.
package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration.
type Config struct {
	// Job labels logs and metrics.
	Job         string      `json:"job" yaml:"job"`
	Storage     Storage     `json:"storage" yaml:"storage"`
	Naming      Naming      `json:"naming" yaml:"naming"`
	Identifiers Identifiers `json:"identifiers" yaml:"identifiers"`
	Runtime     Runtime     `json:"runtime" yaml:"runtime"`
	Logging     Logging     `json:"logging" yaml:"logging"`
	Metrics     Metrics     `json:"metrics" yaml:"metrics"`
}

// Storage selects the backend that ephemeral databases are created on.
type Storage struct {
	// Kind is a registered storage kind: sqlite, sqlite3, postgres, mssql, mysql.
	Kind string `json:"kind" yaml:"kind"`
	// DSN is the connection string; "{id}" is replaced by the instance name.
	DSN string `json:"dsn" yaml:"dsn"`
	// Prefix starts every instance name: <prefix>_<sequence>.
	Prefix   string `json:"prefix" yaml:"prefix"`
	Username string `json:"username" yaml:"username"`
	Password string `json:"password" yaml:"password"`
}

// Naming selects the instance name sequence: "counter" or "uuid".
type Naming struct {
	Kind string `json:"kind" yaml:"kind"`
}

// Identifiers tunes identifier sanitization.
type Identifiers struct {
	FoldDiacritics bool `json:"fold_diacritics" yaml:"fold_diacritics"`
}

// Runtime controls batching and CLI concurrency.
type Runtime struct {
	BatchSize int `json:"batch_size" yaml:"batch_size"`
	Workers   int `json:"workers" yaml:"workers"`
}

// Logging configures the process logger.
type Logging struct {
	Level  string `json:"level" yaml:"level"`
	Format string `json:"format" yaml:"format"`
	SeqURL string `json:"seq_url" yaml:"seq_url"`
}

// Metrics selects a metrics backend: "none", "pushgateway" or "datadog".
type Metrics struct {
	Backend        string   `json:"backend" yaml:"backend"`
	PushgatewayURL string   `json:"pushgateway_url" yaml:"pushgateway_url"`
	DatadogAddr    string   `json:"datadog_addr" yaml:"datadog_addr"`
	Namespace      string   `json:"namespace" yaml:"namespace"`
	Tags           []string `json:"tags" yaml:"tags"`
}

// Default returns a configuration that converts into in-memory SQLite.
func Default() Config {
	return Config{
		Job: "sqlonjson",
		Storage: Storage{
			Kind:   "sqlite",
			DSN:    "file:{id}?mode=memory&cache=shared",
			Prefix: "sqlonjson",
		},
		Naming:  Naming{Kind: "counter"},
		Runtime: Runtime{BatchSize: 500, Workers: 4},
		Logging: Logging{Level: "info", Format: "text"},
		Metrics: Metrics{Backend: "none"},
	}
}

// Load reads path over Default. Files ending in .yaml or .yml are decoded as
// YAML, everything else as JSON.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	format := "json"
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		format = "yaml"
	}
	cfg, err := Decode(bytes.NewReader(data), format)
	if err != nil {
		return Config{}, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// Decode reads a "json" or "yaml" document from r over Default. Unknown
// fields are rejected.
func Decode(r io.Reader, format string) (Config, error) {
	cfg := Default()
	switch format {
	case "json":
		dec := json.NewDecoder(r)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&cfg); err != nil && err != io.EOF {
			return Config{}, fmt.Errorf("decode json: %w", err)
		}
	case "yaml":
		dec := yaml.NewDecoder(r)
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil && err != io.EOF {
			return Config{}, fmt.Errorf("decode yaml: %w", err)
		}
	default:
		return Config{}, fmt.Errorf("unknown format %q", format)
	}
	return cfg, nil
}

// ApplyEnv overrides fields from environment variables:
//
//	SQLONJSON_STORAGE_KIND, SQLONJSON_DSN, SQLONJSON_USERNAME,
//	SQLONJSON_PASSWORD, METRICS_BACKEND, PUSHGATEWAY_URL, DD_DOGSTATSD_ADDR,
//	SEQ_URL
//
// getenv is usually os.Getenv.
func (c *Config) ApplyEnv(getenv func(string) string) {
	set := func(dst *string, key string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}
	set(&c.Storage.Kind, "SQLONJSON_STORAGE_KIND")
	set(&c.Storage.DSN, "SQLONJSON_DSN")
	set(&c.Storage.Username, "SQLONJSON_USERNAME")
	set(&c.Storage.Password, "SQLONJSON_PASSWORD")
	set(&c.Metrics.Backend, "METRICS_BACKEND")
	set(&c.Metrics.PushgatewayURL, "PUSHGATEWAY_URL")
	set(&c.Metrics.DatadogAddr, "DD_DOGSTATSD_ADDR")
	set(&c.Logging.SeqURL, "SEQ_URL")
}

package config

import (
	"fmt"
	"slices"
	"strings"

	"sqlonjson/internal/ident"
	"sqlonjson/internal/logging"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError blocks execution.
	SeverityError IssueSeverity = "error"
	// SeverityWarning is surfaced but does not block execution.
	SeverityWarning IssueSeverity = "warning"
)

// Issue is a single validation finding. Path is a dotted path into the
// config, e.g. "storage.dsn".
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// HasErrors reports whether any issue has error severity.
func HasErrors(issues []Issue) bool {
	for _, iss := range issues {
		if iss.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Validate checks c without mutating it. kinds lists the registered storage
// kinds; when nil the storage kind is not checked against it.
func Validate(c Config, kinds []string) []Issue {
	var issues []Issue
	add := func(sev IssueSeverity, path, format string, args ...any) {
		issues = append(issues, Issue{Severity: sev, Path: path, Message: fmt.Sprintf(format, args...)})
	}

	if strings.TrimSpace(c.Job) == "" {
		add(SeverityWarning, "job", "job name is empty; metrics and logs will be unlabeled")
	}

	// storage
	s := c.Storage
	switch {
	case strings.TrimSpace(s.Kind) == "":
		add(SeverityError, "storage.kind", "storage kind is required")
	case kinds != nil && !slices.Contains(kinds, s.Kind):
		add(SeverityError, "storage.kind", "unknown storage kind %q (registered: %s)", s.Kind, strings.Join(kinds, ", "))
	}
	switch s.Kind {
	case "sqlite", "sqlite3":
		if s.DSN != "" && !strings.Contains(s.DSN, "{id}") {
			add(SeverityError, "storage.dsn", "sqlite DSN must contain {id} so each conversion gets its own database")
		}
	case "postgres", "mssql", "mysql":
		if strings.TrimSpace(s.DSN) == "" {
			add(SeverityError, "storage.dsn", "%s requires a DSN", s.Kind)
		}
	}
	if !ident.Valid(s.Prefix) {
		add(SeverityError, "storage.prefix", "prefix %q must start with a letter and contain only [A-Za-z0-9_]", s.Prefix)
	}
	if s.Password != "" && s.Username == "" {
		add(SeverityWarning, "storage.password", "password set without username; it is ignored by some backends")
	}

	// naming
	switch c.Naming.Kind {
	case "counter", "uuid":
	default:
		add(SeverityError, "naming.kind", "naming kind must be counter or uuid, got %q", c.Naming.Kind)
	}

	// runtime
	if c.Runtime.BatchSize <= 0 {
		add(SeverityError, "runtime.batch_size", "batch_size must be > 0")
	}
	if c.Runtime.Workers <= 0 {
		add(SeverityError, "runtime.workers", "workers must be > 0")
	}

	// logging
	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		add(SeverityError, "logging.level", "%v", err)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "", "text", "json":
	default:
		add(SeverityError, "logging.format", "format must be text or json, got %q", c.Logging.Format)
	}

	// metrics
	m := c.Metrics
	switch m.Backend {
	case "", "none":
	case "pushgateway":
		if m.PushgatewayURL == "" {
			add(SeverityError, "metrics.pushgateway_url", "pushgateway backend requires pushgateway_url")
		}
	case "datadog":
		if m.DatadogAddr == "" {
			add(SeverityError, "metrics.datadog_addr", "datadog backend requires datadog_addr")
		}
	default:
		add(SeverityError, "metrics.backend", "unknown metrics backend %q", m.Backend)
	}

	return issues
}

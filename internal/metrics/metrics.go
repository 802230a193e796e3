// Package metrics provides a small, backend-agnostic abstraction for recording
// operational metrics from conversions.
//
// A global backend defaults to a no-op, so recording is always safe even when
// nothing is configured. Concrete systems live in subpackages (prompush,
// datadog) and are installed once at startup with SetBackend.
package metrics

import "time"

// Metric names.
const (
	StepTotal    = "sqlonjson_step_total"
	StepDuration = "sqlonjson_step_duration_seconds"
	RowsTotal    = "sqlonjson_rows_total"
	TablesTotal  = "sqlonjson_tables_total"
)

// Labels are string key/value pairs attached to a metric.
type Labels map[string]string

// Backend is the minimal interface for metrics backends.
type Backend interface {
	// IncCounter increments a counter by delta.
	IncCounter(name string, delta float64, labels Labels)
	// ObserveHistogram records a value in a duration style metric.
	ObserveHistogram(name string, value float64, labels Labels)
	// Flush pushes or flushes metrics, if the backend needs it.
	Flush() error
}

type nopBackend struct{}

func (nopBackend) IncCounter(name string, delta float64, labels Labels)       {}
func (nopBackend) ObserveHistogram(name string, value float64, labels Labels) {}
func (nopBackend) Flush() error                                               { return nil }

var backend Backend = nopBackend{}

// SetBackend installs a concrete backend. Passing nil keeps the existing one.
// It is not safe to call concurrently with recording.
func SetBackend(b Backend) {
	if b == nil {
		return
	}
	backend = b
}

// Flush delegates to the current backend.
func Flush() error {
	return backend.Flush()
}

// RecordStep counts one execution of a conversion step and records its
// duration. Steps are "extract", "schema", "materialize" and "convert".
func RecordStep(job, step string, err error, d time.Duration) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	lbls := Labels{
		"job":    job,
		"step":   step,
		"status": status,
	}
	backend.IncCounter(StepTotal, 1, lbls)
	backend.ObserveHistogram(StepDuration, d.Seconds(), lbls)
}

// RecordRows adds delta rows of the given kind ("extracted", "inserted").
func RecordRows(job, kind string, delta int64) {
	if delta <= 0 {
		return
	}
	backend.IncCounter(RowsTotal, float64(delta), Labels{
		"job":  job,
		"kind": kind,
	})
}

// RecordTables adds delta tables of the given kind ("created", "skipped").
func RecordTables(job, kind string, delta int64) {
	if delta <= 0 {
		return
	}
	backend.IncCounter(TablesTotal, float64(delta), Labels{
		"job":  job,
		"kind": kind,
	})
}

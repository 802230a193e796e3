package metrics

import (
	"errors"
	"sync"
	"testing"
	"time"
)

// fakeBackend is an in-memory Backend for tests.
type fakeBackend struct {
	mu sync.Mutex

	counters   []counterCall
	histograms []histCall
	flushes    int
}

type counterCall struct {
	name   string
	delta  float64
	labels Labels
}

type histCall struct {
	name   string
	value  float64
	labels Labels
}

func (f *fakeBackend) IncCounter(name string, delta float64, labels Labels) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.counters = append(f.counters, counterCall{name, delta, labels})
}

func (f *fakeBackend) ObserveHistogram(name string, value float64, labels Labels) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.histograms = append(f.histograms, histCall{name, value, labels})
}

func (f *fakeBackend) Flush() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.flushes++
	return nil
}

func install(t *testing.T) *fakeBackend {
	t.Helper()
	orig := backend
	t.Cleanup(func() { backend = orig })
	fb := &fakeBackend{}
	backend = fb
	return fb
}

func TestRecordStep_SuccessAndFailure(t *testing.T) {
	fb := install(t)

	RecordStep("jobA", "extract", nil, 2*time.Second)
	RecordStep("jobB", "materialize", errors.New("boom"), 1500*time.Millisecond)

	if len(fb.counters) != 2 || len(fb.histograms) != 2 {
		t.Fatalf("calls = %d counters, %d histograms; want 2, 2", len(fb.counters), len(fb.histograms))
	}
	c0, c1 := fb.counters[0], fb.counters[1]
	if c0.name != StepTotal || c0.delta != 1 || c0.labels["status"] != "success" || c0.labels["step"] != "extract" {
		t.Fatalf("counter[0] = %#v", c0)
	}
	if c1.labels["status"] != "failure" || c1.labels["job"] != "jobB" {
		t.Fatalf("counter[1] = %#v", c1)
	}
	if h := fb.histograms[1]; h.name != StepDuration || h.value != 1.5 {
		t.Fatalf("histogram[1] = %#v; want 1.5s", h)
	}
}

func TestRecordRowsAndTables(t *testing.T) {
	fb := install(t)

	RecordRows("j", "inserted", 0)
	RecordRows("j", "inserted", 7)
	RecordTables("j", "skipped", -1)
	RecordTables("j", "created", 2)

	if len(fb.counters) != 2 {
		t.Fatalf("counters = %#v; want 2 calls (non-positive deltas ignored)", fb.counters)
	}
	if c := fb.counters[0]; c.name != RowsTotal || c.delta != 7 || c.labels["kind"] != "inserted" {
		t.Fatalf("rows counter = %#v", c)
	}
	if c := fb.counters[1]; c.name != TablesTotal || c.delta != 2 || c.labels["kind"] != "created" {
		t.Fatalf("tables counter = %#v", c)
	}
}

func TestSetBackendAndFlush(t *testing.T) {
	orig := backend
	t.Cleanup(func() { backend = orig })

	SetBackend(nil)
	if backend != orig {
		t.Fatal("SetBackend(nil) replaced the backend")
	}
	fb := &fakeBackend{}
	SetBackend(fb)
	if err := Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if fb.flushes != 1 {
		t.Fatalf("flushes = %d; want 1", fb.flushes)
	}
}

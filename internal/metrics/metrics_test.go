package metrics

import (
	"errors"
	"testing"
	"time"
)

type recorded struct {
	name   string
	value  float64
	labels Labels
}

type captureBackend struct {
	counters   []recorded
	histograms []recorded
	flushed    int
}

func (c *captureBackend) IncCounter(name string, delta float64, labels Labels) {
	c.counters = append(c.counters, recorded{name, delta, labels})
}

func (c *captureBackend) ObserveHistogram(name string, value float64, labels Labels) {
	c.histograms = append(c.histograms, recorded{name, value, labels})
}

func (c *captureBackend) Flush() error {
	c.flushed++
	return nil
}

// The backend is process-global, so these tests install and restore it
// serially instead of running in parallel.

// TestNoBackendIsNoop: recording with no backend installed must not
// panic or block.
func TestNoBackendIsNoop(t *testing.T) {
	SetBackend(nil)

	IncCounter("x", 1, nil)
	ObserveHistogram("y", 1, nil)
	if err := Flush(); err != nil {
		t.Fatalf("Flush with no backend: %v", err)
	}
}

// TestRecordImport emits the file counter, split row counters and the
// duration histogram, with status derived from the error.
func TestRecordImport(t *testing.T) {
	b := &captureBackend{}
	SetBackend(b)
	defer SetBackend(nil)

	RecordImport("harvest", 10, 2, 1500*time.Millisecond, nil)

	if len(b.counters) != 3 {
		t.Fatalf("counters = %+v", b.counters)
	}
	if b.counters[0].name != "ingest_files_total" || b.counters[0].value != 1 ||
		b.counters[0].labels["status"] != "ok" || b.counters[0].labels["kind"] != "harvest" {
		t.Fatalf("files counter = %+v", b.counters[0])
	}
	if b.counters[1].name != "ingest_rows_total" || b.counters[1].value != 10 ||
		b.counters[1].labels["result"] != "inserted" {
		t.Fatalf("inserted counter = %+v", b.counters[1])
	}
	if b.counters[2].value != 2 || b.counters[2].labels["result"] != "malformed" {
		t.Fatalf("malformed counter = %+v", b.counters[2])
	}

	if len(b.histograms) != 1 || b.histograms[0].name != "ingest_duration_seconds" || b.histograms[0].value != 1.5 {
		t.Fatalf("histograms = %+v", b.histograms)
	}
}

// TestRecordImport_ErrorStatus: failures flip the status label and skip
// the zero-valued row counters.
func TestRecordImport_ErrorStatus(t *testing.T) {
	b := &captureBackend{}
	SetBackend(b)
	defer SetBackend(nil)

	RecordImport("price", 0, 0, time.Second, errors.New("boom"))

	if len(b.counters) != 1 {
		t.Fatalf("counters = %+v, want only the files counter", b.counters)
	}
	if b.counters[0].labels["status"] != "error" {
		t.Fatalf("status = %q, want error", b.counters[0].labels["status"])
	}
}

// TestRecordResolve skips the rows counter when nothing was updated.
func TestRecordResolve(t *testing.T) {
	b := &captureBackend{}
	SetBackend(b)
	defer SetBackend(nil)

	RecordResolve("municipality", 5, nil)
	RecordResolve("barangay", 0, nil)

	if len(b.counters) != 3 {
		t.Fatalf("counters = %+v", b.counters)
	}
	if b.counters[1].name != "resolve_rows_total" || b.counters[1].value != 5 ||
		b.counters[1].labels["pass"] != "municipality" {
		t.Fatalf("rows counter = %+v", b.counters[1])
	}
	if b.counters[2].name != "resolve_passes_total" || b.counters[2].labels["pass"] != "barangay" {
		t.Fatalf("second pass counter = %+v", b.counters[2])
	}
}

// TestRecordReport pairs the query counter with a duration histogram.
func TestRecordReport(t *testing.T) {
	b := &captureBackend{}
	SetBackend(b)
	defer SetBackend(nil)

	RecordReport("area-ranking", 250*time.Millisecond, nil)

	if len(b.counters) != 1 || b.counters[0].name != "report_queries_total" ||
		b.counters[0].labels["report"] != "area-ranking" {
		t.Fatalf("counters = %+v", b.counters)
	}
	if len(b.histograms) != 1 || b.histograms[0].value != 0.25 {
		t.Fatalf("histograms = %+v", b.histograms)
	}
}

// TestFlush forwards to buffering backends only.
func TestFlush(t *testing.T) {
	b := &captureBackend{}
	SetBackend(b)
	defer SetBackend(nil)

	if err := Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if b.flushed != 1 {
		t.Fatalf("flushed = %d, want 1", b.flushed)
	}
}

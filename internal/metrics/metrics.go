// Package metrics is a tiny metrics facade. Pipeline and report code
// record counters and durations through package-level helpers; a process
// wires a concrete Backend (or none) at startup.
package metrics

import (
	"sync"
	"time"
)

// Labels are free-form key/value tags attached to a metric sample.
type Labels map[string]string

// Backend receives metric samples. Implementations must be safe for
// concurrent use.
type Backend interface {
	IncCounter(name string, delta float64, labels Labels)
	ObserveHistogram(name string, value float64, labels Labels)
}

// Flusher is implemented by backends that buffer samples.
type Flusher interface {
	Flush() error
}

var (
	mu      sync.RWMutex
	backend Backend
)

// SetBackend installs the process-wide backend. Pass nil to disable
// metric recording.
func SetBackend(b Backend) {
	mu.Lock()
	backend = b
	mu.Unlock()
}

func current() Backend {
	mu.RLock()
	defer mu.RUnlock()
	return backend
}

// Flush forwards to the backend if it buffers; no-op otherwise.
func Flush() error {
	if f, ok := current().(Flusher); ok {
		return f.Flush()
	}
	return nil
}

// IncCounter adds delta to a counter. No-op when no backend is set.
func IncCounter(name string, delta float64, labels Labels) {
	if b := current(); b != nil {
		b.IncCounter(name, delta, labels)
	}
}

// ObserveHistogram records one histogram sample. No-op when no backend
// is set.
func ObserveHistogram(name string, value float64, labels Labels) {
	if b := current(); b != nil {
		b.ObserveHistogram(name, value, labels)
	}
}

// RecordImport records the outcome of one file import.
func RecordImport(kind string, inserted, malformed int64, d time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	IncCounter("ingest_files_total", 1, Labels{"kind": kind, "status": status})
	if inserted > 0 {
		IncCounter("ingest_rows_total", float64(inserted), Labels{"kind": kind, "result": "inserted"})
	}
	if malformed > 0 {
		IncCounter("ingest_rows_total", float64(malformed), Labels{"kind": kind, "result": "malformed"})
	}
	ObserveHistogram("ingest_duration_seconds", d.Seconds(), Labels{"kind": kind, "status": status})
}

// RecordResolve records one reference-resolution pass.
func RecordResolve(pass string, updated int64, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	IncCounter("resolve_passes_total", 1, Labels{"pass": pass, "status": status})
	if updated > 0 {
		IncCounter("resolve_rows_total", float64(updated), Labels{"pass": pass})
	}
}

// RecordReport records one aggregation query execution.
func RecordReport(name string, d time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	IncCounter("report_queries_total", 1, Labels{"report": name, "status": status})
	ObserveHistogram("report_duration_seconds", d.Seconds(), Labels{"report": name, "status": status})
}

// Package metrics records optional operational metrics for load runs.
//
// Callers depend only on the package-level helpers (RecordStep, RecordRow,
// RecordBatches). A concrete Backend from a subpackage (prompush, datadog) is
// installed once by the process entry point; until then every call goes to a
// no-op backend, so instrumentation is always safe.
package metrics

import "time"

// Labels are string key/value pairs attached to a metric.
type Labels map[string]string

// Backend is the minimal interface for metrics backends.
type Backend interface {
	// IncCounter increments a counter by delta.
	IncCounter(name string, delta float64, labels Labels)
	// ObserveHistogram records a value in a latency/duration style metric.
	ObserveHistogram(name string, value float64, labels Labels)
	// Flush pushes or flushes metrics, if the backend needs it (e.g. Pushgateway).
	Flush() error
}

// nopBackend is used by default so metrics are optional.
type nopBackend struct{}

func (nopBackend) IncCounter(name string, delta float64, labels Labels)       {}
func (nopBackend) ObserveHistogram(name string, value float64, labels Labels) {}
func (nopBackend) Flush() error                                               { return nil }

var backend Backend = nopBackend{}

// Metric names emitted by the helpers below.
const (
	StepTotal    = "graphetl_step_total"
	StepDuration = "graphetl_step_duration_seconds"
	RecordsTotal = "graphetl_records_total"
	BatchesTotal = "graphetl_batches_total"
)

// SetBackend installs a concrete backend and returns the previous one.
// Passing nil keeps the existing backend.
func SetBackend(b Backend) Backend {
	prev := backend
	if b != nil {
		backend = b
	}
	return prev
}

// Flush delegates to the current backend.
func Flush() error {
	return backend.Flush()
}

// RecordStep records one load phase (schema, lookups, company, ...) with its
// duration and outcome.
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

// Record kinds used by the loaders.
const (
	KindRead       = "read"        // source rows consumed by a pass
	KindWritten    = "written"     // parameter rows sent to the store
	KindSkipped    = "skipped"     // rows failing a loader's key check
	KindParseError = "parse_error" // malformed CSV rows
)

// RecordRow increments a record-level counter for the given job and kind.
func RecordRow(job, kind string, delta int64) {
	if delta <= 0 {
		return
	}
	backend.IncCounter(RecordsTotal, float64(delta), Labels{
		"job":  job,
		"kind": kind,
	})
}

// RecordBatches increments a batch-level counter for the given job.
func RecordBatches(job string, delta int64) {
	if delta <= 0 {
		return
	}
	backend.IncCounter(BatchesTotal, float64(delta), Labels{
		"job": job,
	})
}

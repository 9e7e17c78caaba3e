// Package prompush implements a Prometheus Pushgateway backend for the
// metrics package.
//
// A load is a batch job with no long-lived HTTP listener, so collectors live
// in a private registry that is pushed once to the gateway when the run
// finishes. Metrics are grouped by job and, when set, by run ID so repeated
// loads do not overwrite each other.
package prompush

import (
	"fmt"

	"graphetl/internal/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// DefaultJobName is the Pushgateway job used when none is given.
const DefaultJobName = "graphetl"

// Backend is a Prometheus Pushgateway metrics backend.
type Backend struct {
	gatewayURL string // e.g. http://pushgateway:9091
	jobName    string // Pushgateway "job" group
	runID      string // optional "run_id" grouping label
	reg        *prometheus.Registry

	stepCounter   *prometheus.CounterVec
	stepDuration  *prometheus.SummaryVec
	recordCounter *prometheus.CounterVec
	batchCounter  prometheus.Counter
}

// Option customizes a Backend.
type Option func(*Backend)

// WithRunID adds a run_id grouping key to every push.
func WithRunID(id string) Option {
	return func(b *Backend) { b.runID = id }
}

// NewBackend constructs a Prometheus Pushgateway backend.
func NewBackend(jobName, gatewayURL string, opts ...Option) (*Backend, error) {
	if gatewayURL == "" {
		return nil, fmt.Errorf("prompush: gateway URL is required")
	}
	if jobName == "" {
		jobName = DefaultJobName
	}

	reg := prometheus.NewRegistry()

	stepCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: metrics.StepTotal,
			Help: "Load phases executed, partitioned by phase and outcome.",
		},
		[]string{"step", "status"},
	)
	stepDuration := prometheus.NewSummaryVec(
		prometheus.SummaryOpts{
			Name:       metrics.StepDuration,
			Help:       "Wall time of load phases in seconds.",
			Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
		},
		[]string{"step", "status"},
	)
	recordCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: metrics.RecordsTotal,
			Help: "Source rows per kind (read, written, skipped, parse_error).",
		},
		[]string{"kind"},
	)
	batchCounter := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: metrics.BatchesTotal,
			Help: "Graph write batches committed.",
		},
	)

	for name, c := range map[string]prometheus.Collector{
		"step counter":   stepCounter,
		"step summary":   stepDuration,
		"record counter": recordCounter,
		"batch counter":  batchCounter,
	} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("prompush: register %s: %w", name, err)
		}
	}

	b := &Backend{
		gatewayURL:    gatewayURL,
		jobName:       jobName,
		reg:           reg,
		stepCounter:   stepCounter,
		stepDuration:  stepDuration,
		recordCounter: recordCounter,
		batchCounter:  batchCounter,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

func (b *Backend) IncCounter(name string, delta float64, labels metrics.Labels) {
	switch name {
	case metrics.StepTotal:
		if b.stepCounter == nil {
			return
		}
		b.stepCounter.WithLabelValues(labels["step"], labels["status"]).Add(delta)

	case metrics.RecordsTotal:
		if b.recordCounter == nil {
			return
		}
		b.recordCounter.WithLabelValues(labels["kind"]).Add(delta)

	case metrics.BatchesTotal:
		if b.batchCounter == nil {
			return
		}
		b.batchCounter.Add(delta)
	}
}

func (b *Backend) ObserveHistogram(name string, value float64, labels metrics.Labels) {
	if name != metrics.StepDuration || b.stepDuration == nil {
		return
	}
	b.stepDuration.WithLabelValues(labels["step"], labels["status"]).Observe(value)
}

// Flush pushes the current registry to the Pushgateway.
func (b *Backend) Flush() error {
	p := push.New(b.gatewayURL, b.jobName).Gatherer(b.reg)
	if b.runID != "" {
		p = p.Grouping("run_id", b.runID)
	}
	if err := p.Push(); err != nil {
		return fmt.Errorf("prompush: push to %s: %w", b.gatewayURL, err)
	}
	return nil
}

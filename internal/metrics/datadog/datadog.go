// Package datadog implements a DogStatsD backend for the metrics package.
//
// Labels become "key:value" tags. The client buffers datagrams; Flush closes
// it, so the backend is installed once per process and flushed on exit.
package datadog

import (
	"fmt"
	"sort"

	"graphetl/internal/metrics"

	"github.com/DataDog/datadog-go/v5/statsd"
)

// DefaultNamespace prefixes every metric name.
const DefaultNamespace = "graphetl."

// Config holds Datadog backend configuration.
type Config struct {
	// Addr is the DogStatsD address, e.g. "127.0.0.1:8125" or "unix:///path/to/socket".
	Addr string

	// Namespace is prepended to all metric names. Empty means DefaultNamespace.
	Namespace string

	// GlobalTags are applied to every metric, e.g. []string{"env:prod", "run_id:..."}.
	GlobalTags []string
}

// Backend is a Datadog implementation of metrics.Backend.
type Backend struct {
	client statsd.ClientInterface
}

// NewBackend constructs a Datadog metrics backend. Addr is required.
func NewBackend(cfg Config) (*Backend, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("datadog: Addr is required")
	}
	ns := cfg.Namespace
	if ns == "" {
		ns = DefaultNamespace
	}

	opts := []statsd.Option{statsd.WithNamespace(ns)}
	if len(cfg.GlobalTags) > 0 {
		opts = append(opts, statsd.WithTags(cfg.GlobalTags))
	}
	c, err := statsd.New(cfg.Addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("datadog: create client: %w", err)
	}
	return &Backend{client: c}, nil
}

// IncCounter sends a Count. DogStatsD counts are integers; fractions are truncated.
func (b *Backend) IncCounter(name string, delta float64, labels metrics.Labels) {
	if b.client == nil {
		return
	}
	_ = b.client.Count(name, int64(delta), labelsToTags(labels), 1)
}

// ObserveHistogram sends a Histogram sample.
func (b *Backend) ObserveHistogram(name string, value float64, labels metrics.Labels) {
	if b.client == nil {
		return
	}
	_ = b.client.Histogram(name, value, labelsToTags(labels), 1)
}

// Flush closes the client, sending anything still buffered.
func (b *Backend) Flush() error {
	if b.client == nil {
		return nil
	}
	return b.client.Close()
}

// labelsToTags renders labels as sorted "key:value" tags.
func labelsToTags(lbls metrics.Labels) []string {
	if len(lbls) == 0 {
		return nil
	}
	out := make([]string, 0, len(lbls))
	for k, v := range lbls {
		out = append(out, k+":"+v)
	}
	sort.Strings(out)
	return out
}

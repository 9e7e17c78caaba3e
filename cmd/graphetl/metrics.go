package main

import (
	"fmt"
	"net"
	"os"
	"strings"

	"graphetl/internal/config"
	"graphetl/internal/logging"
	"graphetl/internal/metrics"
	"graphetl/internal/metrics/datadog"
	"graphetl/internal/metrics/prompush"
)

const (
	defaultPushgatewayURL = "http://localhost:9091"
	defaultDatadogPort    = "8125"
)

// metricsFlags are the command line overrides for MetricsConfig.
type metricsFlags struct {
	backend        string
	pushgatewayURL string
	datadogAddr    string
}

// resolve picks each setting by flag, then environment, then pipeline file.
func (f metricsFlags) resolve(cfg config.MetricsConfig) config.MetricsConfig {
	out := config.MetricsConfig{
		Backend:        firstNonEmpty(f.backend, os.Getenv("METRICS_BACKEND"), cfg.Backend, "none"),
		PushgatewayURL: firstNonEmpty(f.pushgatewayURL, os.Getenv("PUSHGATEWAY_URL"), cfg.PushgatewayURL, defaultPushgatewayURL),
		DatadogAddr:    firstNonEmpty(f.datadogAddr, agentAddr(os.Getenv("DD_AGENT_HOST")), cfg.DatadogAddr),
	}
	if out.DatadogAddr == "" {
		out.DatadogAddr = net.JoinHostPort("127.0.0.1", defaultDatadogPort)
	}
	return out
}

// agentAddr adds the default dogstatsd port to a bare host.
func agentAddr(host string) string {
	if host == "" {
		return ""
	}
	if _, _, err := net.SplitHostPort(host); err == nil {
		return host
	}
	return net.JoinHostPort(host, defaultDatadogPort)
}

// newMetricsBackend builds the configured backend, or nil for "none".
func newMetricsBackend(cfg config.MetricsConfig, job, runID string) (metrics.Backend, error) {
	switch strings.ToLower(cfg.Backend) {
	case "", "none":
		return nil, nil
	case "pushgateway", "prom", "prometheus":
		return prompush.NewBackend(job, cfg.PushgatewayURL, prompush.WithRunID(runID))
	case "datadog", "dogstatsd":
		return datadog.NewBackend(datadog.Config{
			Addr:       cfg.DatadogAddr,
			GlobalTags: []string{"job:" + job, "run_id:" + runID},
		})
	default:
		return nil, fmt.Errorf("unknown metrics backend %q", cfg.Backend)
	}
}

// installMetrics sets the global backend and returns a func that flushes it
// and restores the previous one.
func installMetrics(cfg config.MetricsConfig, job, runID string, log logging.Logger) (func(), error) {
	b, err := newMetricsBackend(cfg, job, runID)
	if err != nil {
		return nil, err
	}
	if b == nil {
		log.Debugf("metrics disabled")
		return func() {}, nil
	}
	prev := metrics.SetBackend(b)
	log.Infof("Metrics backend: %s", cfg.Backend)
	return func() {
		if err := metrics.Flush(); err != nil {
			log.Warnf("metrics flush: %v", err)
		}
		metrics.SetBackend(prev)
	}, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

package config

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError indicates a configuration error that should block execution.
	SeverityError IssueSeverity = "error"
	// SeverityWarning indicates a configuration warning that should be surfaced
	// to users but may not necessarily block execution.
	SeverityWarning IssueSeverity = "warning"
)

// Issue describes a single validation/lint finding for a Pipeline.
//
// Path is a dotted path into the config (e.g. "source.file.path",
// "runtime.batch_size"). Message is human-readable.
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

// Error implements the error interface so an Issue can be treated as a single
// error in contexts that expect error.
func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// ValidatePipeline lints a decoded Pipeline without mutating it. Callers
// decide whether warnings are fatal; the load command only stops on errors.
func ValidatePipeline(p Pipeline) []Issue {
	var issues []Issue

	// Top-level pipeline checks.
	if strings.TrimSpace(p.Job) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "job",
			Message:  "job must not be empty; it labels logs and metrics for the run",
		})
	}
	issues = append(issues, validateSource(p.Source)...)
	issues = append(issues, validateParser(p.Parser)...)
	issues = append(issues, validateRuntime(p.Runtime)...)
	issues = append(issues, validateMetrics(p.Metrics)...)

	return issues
}

// validateSource validates Source configuration.
func validateSource(s Source) []Issue {
	var issues []Issue

	// Kind is required.
	if strings.TrimSpace(s.Kind) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "source.kind",
			Message:  "source.kind must not be empty",
		})
		return issues
	}

	if s.Kind != "file" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "source.kind",
			Message:  fmt.Sprintf("unsupported source kind %q; only file is implemented", s.Kind),
		})
		return issues
	}

	if strings.TrimSpace(s.File.Path) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "source.file.path",
			Message:  "file source requires a non-empty path",
		})
	}

	return issues
}

// validateParser validates parser configuration. Only CSV is implemented.
func validateParser(p Parser) []Issue {
	var issues []Issue

	switch strings.TrimSpace(p.Kind) {
	case "":
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "parser.kind",
			Message:  "parser.kind must not be empty",
		})
		return issues
	case "csv":
	default:
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "parser.kind",
			Message:  fmt.Sprintf("unsupported parser kind %q; only csv is implemented", p.Kind),
		})
		return issues
	}

	if v, ok := p.Options["comma"]; ok {
		s, isStr := v.(string)
		if !isStr || utf8.RuneCountInString(s) != 1 {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "parser.options.comma",
				Message:  fmt.Sprintf("comma must be a single character, got %v", v),
			})
		}
	}
	if p.Options.Bool("trim_space", false) {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "parser.options.trim_space",
			Message:  "trim_space is redundant; every field is already trimmed during normalization",
		})
	}

	return issues
}

// validateRuntime flags negative knobs (errors) and suspicious sizes (warnings).
func validateRuntime(r RuntimeConfig) []Issue {
	var issues []Issue

	for _, f := range []struct {
		path string
		v    int
	}{
		{"runtime.batch_size", r.BatchSize},
		{"runtime.log_interval", r.LogInterval},
		{"runtime.channel_buffer", r.ChannelBuffer},
	} {
		if f.v < 0 {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     f.path,
				Message:  fmt.Sprintf("%s must not be negative", f.path),
			})
		}
	}
	if r.BatchSize > 50_000 {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "runtime.batch_size",
			Message:  fmt.Sprintf("batch_size=%d; very large transactions may exhaust graph store memory", r.BatchSize),
		})
	}

	return issues
}

// validateMetrics checks the backend name and its address.
func validateMetrics(m MetricsConfig) []Issue {
	var issues []Issue

	switch m.Backend {
	case "", "none":
	case "pushgateway":
		if strings.TrimSpace(m.PushgatewayURL) == "" {
			issues = append(issues, Issue{
				Severity: SeverityWarning,
				Path:     "metrics.pushgateway_url",
				Message:  "pushgateway_url is empty; PUSHGATEWAY_URL or the default will be used",
			})
		}
	case "datadog":
		if strings.TrimSpace(m.DatadogAddr) == "" {
			issues = append(issues, Issue{
				Severity: SeverityWarning,
				Path:     "metrics.datadog_addr",
				Message:  "datadog_addr is empty; DD_AGENT_HOST or the default will be used",
			})
		}
	default:
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "metrics.backend",
			Message:  fmt.Sprintf("unknown metrics backend %q; metrics will be disabled", m.Backend),
		})
	}

	return issues
}

// HasErrors reports whether any issue is an error.
func HasErrors(issues []Issue) bool {
	for _, iss := range issues {
		if iss.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Package config defines the JSON-serializable configuration model for the
// graph loader and the environment-driven Neo4j connection settings.
//
// Pipeline files live under configs/pipelines/*.json. Field names in Go mirror
// the JSON structure. Connection secrets never go in the pipeline file; they
// come from the environment (optionally seeded from .env files, see neo4j.go).
//
// Example (trimmed):
//
//	{
//	  "job":     "companies_house",
//	  "source":  { "kind": "file", "file": { "path": "data/BasicCompanyDataAsOneFile.csv" } },
//	  "parser":  { "kind": "csv", "options": { "comma": ",", "lazy_quotes": true } },
//	  "runtime": { "batch_size": 2000, "log_interval": 50000 },
//	  "metrics": { "backend": "none" }
//	}
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Pipeline describes one load run. It is the top-level object decoded from a
// pipeline file.
type Pipeline struct {
	// Job names the run for logs and metrics grouping.
	Job string `json:"job"`

	// Source describes where input data comes from (a local CSV file).
	Source Source `json:"source"`

	// Parser configures how raw bytes are turned into records.
	Parser Parser `json:"parser"`

	Runtime RuntimeConfig `json:"runtime"`
	Metrics MetricsConfig `json:"metrics"`
}

// RuntimeConfig controls batching, progress and channel buffer sizes.
// Zero values fall back to ETL_* environment variables, then to defaults.
type RuntimeConfig struct {
	BatchSize     int `json:"batch_size"`
	LogInterval   int `json:"log_interval"`
	ChannelBuffer int `json:"channel_buffer"`

	// FuseLookupScans runs the country and classification pre-passes over a
	// single shared read of the input. Nil means true.
	FuseLookupScans *bool `json:"fuse_lookup_scans,omitempty"`
}

// MetricsConfig selects an optional metrics backend: "pushgateway",
// "datadog" or "none" (default).
type MetricsConfig struct {
	Backend        string `json:"backend"`
	PushgatewayURL string `json:"pushgateway_url"`
	DatadogAddr    string `json:"datadog_addr"`
}

// Source identifies the data source.
type Source struct {
	// Kind selects the source implementation. Current value: "file".
	Kind string `json:"kind"`

	// File carries options for the "file" source kind.
	File SourceFile `json:"file"`
}

// SourceFile holds configuration for the "file" source kind.
type SourceFile struct {
	// Path is the local filesystem path to the input file.
	Path string `json:"path"`
}

// Parser selects how to parse the raw source into records.
type Parser struct {
	// Kind selects the parser implementation. Current value: "csv".
	Kind string `json:"kind"`

	// Options is a free-form map interpreted by the parser implementation.
	// For CSV: comma (string), lazy_quotes (bool), trim_space (bool).
	Options Options `json:"options"`
}

const (
	DefaultBatchSize     = 2000
	DefaultLogInterval   = 50_000
	DefaultChannelBuffer = 4096
)

// Runtime is RuntimeConfig with every knob resolved.
type Runtime struct {
	BatchSize       int
	LogInterval     int
	ChannelBuffer   int
	FuseLookupScans bool
}

// Resolve picks each runtime knob from the pipeline file, then the
// environment (ETL_BATCH_SIZE, ETL_LOG_INTERVAL, ETL_CH_BUFFER), then the
// built-in default.
func (r RuntimeConfig) Resolve() Runtime {
	fuse := true
	if r.FuseLookupScans != nil {
		fuse = *r.FuseLookupScans
	}
	return Runtime{
		BatchSize:       pickInt(r.BatchSize, getenvInt("ETL_BATCH_SIZE", DefaultBatchSize)),
		LogInterval:     pickInt(r.LogInterval, getenvInt("ETL_LOG_INTERVAL", DefaultLogInterval)),
		ChannelBuffer:   pickInt(r.ChannelBuffer, getenvInt("ETL_CH_BUFFER", DefaultChannelBuffer)),
		FuseLookupScans: fuse,
	}
}

// Load reads and decodes a pipeline file.
func Load(path string) (Pipeline, error) {
	f, err := os.Open(path)
	if err != nil {
		return Pipeline{}, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	var p Pipeline
	dec := json.NewDecoder(f)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&p); err != nil {
		return Pipeline{}, fmt.Errorf("decode config %s: %w", path, err)
	}
	return p, nil
}

// getenvInt reads an int from environment, returning def when unset/invalid.
func getenvInt(k string, def int) int {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

// pickInt chooses the first positive value 'a', otherwise returns 'b'.
func pickInt(a, b int) int {
	if a > 0 {
		return a
	}
	return b
}

// Options is a loosely typed options bag for parser settings whose shape
// varies by implementation. Accessors return def when a key is absent or of
// an unexpected type; a nil Options behaves as empty.
type Options map[string]any

// String returns the string value for key or def.
func (o Options) String(key, def string) string {
	if s, ok := o[key].(string); ok {
		return s
	}
	return def
}

// Bool returns the bool value for key or def.
func (o Options) Bool(key string, def bool) bool {
	if b, ok := o[key].(bool); ok {
		return b
	}
	return def
}

// Int returns the int value for key or def. encoding/json decodes numbers as
// float64, so both float64 and int are accepted.
func (o Options) Int(key string, def int) int {
	switch n := o[key].(type) {
	case float64:
		return int(n)
	case int:
		return n
	}
	return def
}

// Rune returns the first rune of a string value for key, or def if the key is
// missing or empty. Used for the CSV delimiter.
func (o Options) Rune(key string, def rune) rune {
	if s, ok := o[key].(string); ok && s != "" {
		return []rune(s)[0]
	}
	return def
}

// UnmarshalJSON makes a missing or null "options" object decode to a non-nil,
// empty Options map.
func (o *Options) UnmarshalJSON(b []byte) error {
	if len(b) == 0 || string(b) == "null" {
		*o = Options{}
		return nil
	}
	var tmp map[string]any
	if err := json.Unmarshal(b, &tmp); err != nil {
		return err
	}
	*o = Options(tmp)
	return nil
}

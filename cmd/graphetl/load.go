package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"graphetl/internal/config"
	"graphetl/internal/datasource"
	"graphetl/internal/datasource/file"
	"graphetl/internal/datasource/httpds"
	"graphetl/internal/graph"
	"graphetl/internal/loader"
	"graphetl/internal/logging"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

const defaultPipelineConfig = "configs/pipelines/companies_house.json"

type loadOptions struct {
	configPath string
	file       string
	batchSize  int
	validate   bool
	metrics    metricsFlags
}

func newLoadCmd(a *app) *cobra.Command {
	var opts loadOptions
	cmd := &cobra.Command{
		Use:   "load",
		Short: "Load the company CSV into Neo4j",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLoad(cmd.Context(), a, opts)
		},
	}
	f := cmd.Flags()
	f.StringVar(&opts.configPath, "config", defaultPipelineConfig, "pipeline config JSON path")
	f.StringVar(&opts.file, "file", "", "input CSV path (overrides source.file.path)")
	f.IntVar(&opts.batchSize, "batch-size", 0, "rows per write transaction (overrides runtime.batch_size)")
	f.BoolVar(&opts.validate, "validate", false, "validate the configuration and exit")
	f.StringVar(&opts.metrics.backend, "metrics-backend", "", "metrics backend: pushgateway, datadog or none (overrides METRICS_BACKEND)")
	f.StringVar(&opts.metrics.pushgatewayURL, "pushgateway-url", "", "Pushgateway base URL (overrides PUSHGATEWAY_URL)")
	f.StringVar(&opts.metrics.datadogAddr, "datadog-addr", "", "dogstatsd address host:port (overrides DD_AGENT_HOST)")
	return cmd
}

// loadPipeline reads the config file and applies the flag overrides.
func loadPipeline(opts loadOptions) (config.Pipeline, error) {
	p, err := config.Load(opts.configPath)
	if err != nil {
		return config.Pipeline{}, err
	}
	if opts.file != "" {
		p.Source.Kind = "file"
		p.Source.File.Path = opts.file
	}
	if opts.batchSize > 0 {
		p.Runtime.BatchSize = opts.batchSize
	}
	return p, nil
}

func runLoad(ctx context.Context, a *app, opts loadOptions) error {
	log := a.logger()

	p, err := loadPipeline(opts)
	if err != nil {
		return err
	}
	issues := config.ValidatePipeline(p)
	for _, iss := range issues {
		if iss.Severity == config.SeverityError {
			log.Errorf("%s", iss.Error())
		} else {
			log.Warnf("%s", iss.Error())
		}
	}
	if config.HasErrors(issues) {
		log.Errorf("Configuration is invalid: %s", opts.configPath)
		return errSilentFailure
	}
	if opts.validate {
		log.Infof("Configuration is valid: %s", opts.configPath)
		return nil
	}

	neo, err := config.LoadNeo4j(a.envFiles...)
	if err != nil {
		return err
	}

	job := p.Job
	if job == "" {
		job = loader.DefaultJob
	}
	runID := uuid.NewString()

	flush, err := installMetrics(opts.metrics.resolve(p.Metrics), job, runID, log)
	if err != nil {
		return err
	}
	defer flush()

	l, err := loader.New(loader.Options{
		Job:     job,
		RunID:   runID,
		Input:   inputSource(p.Source.File.Path),
		Parser:  p.Parser.Options,
		Runtime: p.Runtime.Resolve(),
		Connect: a.connect(neo, log),
		Log:     log,
	})
	if err != nil {
		return err
	}

	log.Infof("Neo4j: %s (database %s)", neo.URI, neo.Database)
	sum, err := l.Run(ctx)
	if err != nil {
		return err
	}
	printSummary(log, sum)
	return nil
}

func printSummary(log logging.Logger, sum loader.Summary) {
	log.Infof("Rows in source: %s", humanize.Comma(sum.Rows))
	for _, ph := range sum.Phases {
		if ph.Stats.Written == 0 && ph.Stats.Read == 0 {
			log.Infof("  phase %d %-22s %s", ph.Number, ph.Name, ph.Elapsed.Round(time.Millisecond))
			continue
		}
		log.Infof("  phase %d %-22s %s read, %s written, %s skipped in %s",
			ph.Number, ph.Name,
			humanize.Comma(ph.Stats.Read), humanize.Comma(ph.Stats.Written), humanize.Comma(ph.Stats.Skipped),
			ph.Elapsed.Round(time.Millisecond))
	}
	log.Infof("Total time: %s", sum.Elapsed.Round(time.Second))
}

// inputSource reads http(s) URLs remotely and everything else from disk.
// A remote input is fetched once per pass.
func inputSource(path string) datasource.Source {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return httpds.NewSource(httpds.NewClient(httpds.Config{MaxRetries: 3}), path)
	}
	return file.NewLocal(path)
}

// neo4jConnector opens a driver-backed store on demand.
func neo4jConnector(cfg config.Neo4j, log logging.Logger) graph.Connector {
	return func(ctx context.Context) (graph.Store, error) {
		c, err := graph.Open(ctx, cfg, log)
		if err != nil {
			return nil, fmt.Errorf("neo4j %s: %w", cfg.URI, err)
		}
		return c, nil
	}
}

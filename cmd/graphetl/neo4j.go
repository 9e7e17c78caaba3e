package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"graphetl/internal/config"
	"graphetl/internal/probe"

	"github.com/spf13/cobra"
)

// connConfig is the non-secret part of the connection settings.
type connConfig struct {
	URI      string `json:"uri"`
	Database string `json:"database"`
	User     string `json:"user"`
}

// report merges extra top-level keys into the probe's JSON object.
func report(info probe.Info, extra map[string]any) (map[string]any, error) {
	b, err := json.Marshal(info)
	if err != nil {
		return nil, err
	}
	out := map[string]any{}
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	for k, v := range extra {
		out[k] = v
	}
	return out, nil
}

func newNeo4jTestCmd(a *app) *cobra.Command {
	var asJSON, verbose bool
	cmd := &cobra.Command{
		Use:   "neo4j-test",
		Short: "Check that the configured Neo4j database is reachable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadNeo4j(a.envFiles...)
			if err != nil {
				return err
			}
			info := a.detect(cmd.Context(), cfg)
			conn := connConfig{URI: cfg.URI, Database: cfg.Database, User: cfg.User}

			if asJSON {
				r, err := report(info, map[string]any{"uri": cfg.URI, "database": cfg.Database, "config": conn})
				if err != nil {
					return err
				}
				if err := writeJSON(a.out, r); err != nil {
					return err
				}
			} else {
				printTest(a, conn, info, verbose)
			}
			if !info.Connected {
				return errSilentFailure
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the result as JSON")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "print server version details")
	return cmd
}

func newNeo4jInfoCmd(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "neo4j-info",
		Short: "Print the Neo4j server version and edition",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadNeo4j(a.envFiles...)
			if err != nil {
				return err
			}
			info := a.detect(cmd.Context(), cfg)

			if asJSON {
				r, err := report(info, map[string]any{"uri": cfg.URI, "database": cfg.Database})
				if err != nil {
					return err
				}
				if err := writeJSON(a.out, r); err != nil {
					return err
				}
			} else {
				printInfo(a, cfg, info)
			}
			if !info.Connected {
				return errSilentFailure
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the result as JSON")
	return cmd
}

func (a *app) detect(ctx context.Context, cfg config.Neo4j) probe.Info {
	return probe.Detect(ctx, a.connect(cfg, a.logger()))
}

func printTest(a *app, conn connConfig, info probe.Info, verbose bool) {
	fmt.Fprintln(a.out, "Neo4j connection test")
	writeField(a.out, "URI", conn.URI)
	writeField(a.out, "Database", conn.Database)
	writeField(a.out, "User", conn.User)
	if !info.Connected {
		fmt.Fprintf(a.out, "FAILED: %s\n", info.Error)
		return
	}
	fmt.Fprintln(a.out, "OK: connected")
	if verbose {
		writeField(a.out, "Neo4j version", info.Neo4jVersion)
		writeField(a.out, "Cypher", strings.Join(info.CypherVersion, ", "))
		writeField(a.out, "Edition", info.Edition())
	}
}

func printInfo(a *app, cfg config.Neo4j, info probe.Info) {
	if !info.Connected {
		fmt.Fprintf(a.out, "Could not connect to %s: %s\n", cfg.URI, info.Error)
		return
	}
	writeField(a.out, "Neo4j version", info.Neo4jVersion)
	writeField(a.out, "Cypher", strings.Join(info.CypherVersion, ", "))
	writeField(a.out, "Edition", info.Edition())
	writeField(a.out, "URI", cfg.URI)
	writeField(a.out, "Database", cfg.Database)
}

package main

import (
	"errors"
	"io"
	"time"

	"graphetl/internal/config"
	"graphetl/internal/download"
	"graphetl/internal/graph"
	"graphetl/internal/logging"

	"github.com/spf13/cobra"
)

// errSilentFailure exits 1 without an extra error line; the command already
// reported the failure.
var errSilentFailure = errors.New("failed")

// app carries process-wide state shared by the commands.
type app struct {
	out      io.Writer
	debug    bool
	envFiles []string
	log      *logging.Zap

	// connect opens the graph store; tests replace it.
	connect func(cfg config.Neo4j, log logging.Logger) graph.Connector
	// downloadURL is the bulk product host; tests point it at httptest.
	downloadURL string
	now         func() time.Time
}

func newApp(out io.Writer) *app {
	return &app{
		out:      out,
		envFiles: config.DefaultEnvFiles,
		connect:  neo4jConnector,

		downloadURL: download.DefaultBaseURL,
		now:         time.Now,
	}
}

// logger builds the logger lazily so --debug is honoured.
func (a *app) logger() *logging.Zap {
	if a.log == nil {
		level := "info"
		if a.debug {
			level = "debug"
		}
		a.log = logging.New(logging.Options{Level: level, Output: a.out})
	}
	return a.log
}

func (a *app) sync() {
	if a.log != nil {
		a.log.Sync()
	}
}

func newRootCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "graphetl",
		Short:         "Bulk loader for the Companies House company register into Neo4j",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().BoolVar(&a.debug, "debug", false, "enable debug logging")
	cmd.PersistentFlags().StringSliceVar(&a.envFiles, "env-file", config.DefaultEnvFiles, "dotenv files to load before reading NEO4J_* settings")

	cmd.AddCommand(newLoadCmd(a))
	cmd.AddCommand(newNeo4jTestCmd(a))
	cmd.AddCommand(newNeo4jInfoCmd(a))
	cmd.AddCommand(newDownloadCmd(a))
	cmd.AddCommand(newVersionCmd(a))
	return cmd
}

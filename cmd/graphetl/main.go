// Command graphetl loads the Companies House bulk company file into Neo4j.
//
//	graphetl download                  # fetch and unpack the latest monthly file
//	graphetl neo4j-test                # check connection settings from .env
//	graphetl load --file data.csv      # run the full multi-phase load
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
)

const (
	exitOK          = 0
	exitFailure     = 1
	exitInterrupted = 130
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:])
	stop()
	os.Exit(code)
}

// run executes the command line args and maps the outcome to an exit code.
func run(ctx context.Context, args []string) int {
	a := newApp(os.Stdout)
	defer a.sync()

	root := newRootCmd(a)
	root.SetArgs(args)

	err := root.ExecuteContext(ctx)
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, errSilentFailure):
		return exitFailure
	case ctx.Err() != nil && errors.Is(err, context.Canceled):
		a.logger().Errorf("interrupted: %v", err)
		return exitInterrupted
	default:
		a.logger().Errorf("%v", err)
		return exitFailure
	}
}

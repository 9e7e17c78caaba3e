// Package graph is the graph store boundary: a small Store interface used by
// the schema initializer and the loaders, and a Neo4j implementation of it.
package graph

import "context"

// BatchParam is the parameter name every batched statement unwinds:
//
//	UNWIND $batch AS row ...
const BatchParam = "batch"

// Statement is one Cypher statement with its parameters.
type Statement struct {
	Cypher string
	Params map[string]any
}

// Store executes Cypher against a graph database.
type Store interface {
	// Run executes one statement in auto-commit mode and returns every
	// record as a field-name map.
	Run(ctx context.Context, cypher string, params map[string]any) ([]map[string]any, error)

	// RunBatched splits rows into chunks of batchSize and runs cypher once
	// per chunk, each in its own write transaction, binding the chunk to
	// $batch. It returns the number of chunks committed.
	RunBatched(ctx context.Context, cypher string, rows []map[string]any, batchSize int) (int, error)

	// RunTransaction runs statements in order inside one write transaction:
	// either all of them commit or none do.
	RunTransaction(ctx context.Context, stmts []Statement) error

	Close(ctx context.Context) error
}

// Connector opens a Store. Callers own the returned store and must Close it.
type Connector func(ctx context.Context) (Store, error)

// Batch builds the params map for a statement that unwinds $batch.
func Batch(rows []map[string]any) map[string]any {
	return map[string]any{BatchParam: rows}
}

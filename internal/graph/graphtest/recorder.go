// Package graphtest provides an in-memory graph.Store for tests.
package graphtest

import (
	"context"
	"sync"

	"graphetl/internal/batch"
	"graphetl/internal/graph"
)

// Handler answers one statement. Returning an error fails the call (and, in
// a transaction, every statement of it).
type Handler func(cypher string, params map[string]any) ([]map[string]any, error)

// Call is one statement seen by a Recorder.
type Call struct {
	Cypher string
	Params map[string]any
	// Tx is the 1-based transaction number for RunBatched/RunTransaction
	// calls, 0 for auto-commit Run calls.
	Tx int
}

// Recorder is a graph.Store that records every statement and delegates
// results to Handler. A nil Handler returns no records.
type Recorder struct {
	Handler Handler

	mu     sync.Mutex
	calls  []Call
	txs    int
	closed bool
}

var _ graph.Store = (*Recorder)(nil)

func (r *Recorder) handle(cypher string, params map[string]any, tx int) ([]map[string]any, error) {
	// Callers may reuse the batch slice after the call returns.
	if rows, ok := params[graph.BatchParam].([]map[string]any); ok {
		cp := make(map[string]any, len(params))
		for k, v := range params {
			cp[k] = v
		}
		cp[graph.BatchParam] = append([]map[string]any(nil), rows...)
		params = cp
	}
	r.calls = append(r.calls, Call{Cypher: cypher, Params: params, Tx: tx})
	if r.Handler == nil {
		return nil, nil
	}
	return r.Handler(cypher, params)
}

func (r *Recorder) Run(ctx context.Context, cypher string, params map[string]any) ([]map[string]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.handle(cypher, params, 0)
}

func (r *Recorder) RunBatched(ctx context.Context, cypher string, rows []map[string]any, batchSize int) (int, error) {
	n := 0
	for _, chunk := range batch.Chunk(rows, batchSize) {
		if err := r.RunTransaction(ctx, []graph.Statement{{Cypher: cypher, Params: graph.Batch(chunk)}}); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

// RunTransaction passes every statement to Handler in order and stops at the
// first error. Handlers that simulate state must roll back themselves.
func (r *Recorder) RunTransaction(ctx context.Context, stmts []graph.Statement) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.txs++
	for _, st := range stmts {
		if _, err := r.handle(st.Cypher, st.Params, r.txs); err != nil {
			return err
		}
	}
	return nil
}

func (r *Recorder) Close(context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

// Calls returns a copy of the recorded statements.
func (r *Recorder) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Call(nil), r.calls...)
}

// Transactions returns how many transactions were started.
func (r *Recorder) Transactions() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.txs
}

// Closed reports whether Close was called.
func (r *Recorder) Closed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}

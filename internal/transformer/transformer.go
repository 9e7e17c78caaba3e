// Package transformer holds in-memory transforms applied to a batch of
// parameter rows just before it is written to the graph store.
package transformer

// Transformer rewrites one batch of rows.
type Transformer interface {
	Apply(rows []map[string]any) []map[string]any
}

// Chain is an ordered list of transformers.
type Chain []Transformer

func (c Chain) Apply(in []map[string]any) []map[string]any {
	out := in
	for _, t := range c {
		out = t.Apply(out)
	}
	return out
}

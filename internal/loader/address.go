package loader

import (
	"context"

	"graphetl/internal/graph"
	csvparser "graphetl/internal/parser/csv"
	"graphetl/internal/record"
	"graphetl/internal/transformer"
)

// addressFrom applies both key checks: the owning company number and the
// three address key fields.
func addressFrom(rec csvparser.Record) (record.Address, bool) {
	num, ok := record.CompanyNumber(rec)
	if !ok {
		return record.Address{}, false
	}
	return record.AddressFrom(rec, num)
}

// addressPass upserts Address nodes and links them to their company in the
// same transaction. Node rows are de-duplicated per batch by address key so
// one MERGE per address runs; every row still gets its HAS_ADDRESS edge.
func (l *Loader) addressPass() pass {
	nodes := transformer.Chain{transformer.DeDup{Keys: record.AddressKey, Policy: "keep-last"}}
	return pass{
		label: "Address",
		build: func(rec csvparser.Record) ([]record.Row, bool) {
			a, ok := addressFrom(rec)
			if !ok {
				return nil, false
			}
			return []record.Row{a.Params()}, true
		},
		flush: func(ctx context.Context, rows []record.Row) error {
			return l.store.RunTransaction(ctx, []graph.Statement{
				{Cypher: addressCypher, Params: graph.Batch(nodes.Apply(rows))},
				{Cypher: hasAddressCypher, Params: graph.Batch(rows)},
			})
		},
	}
}

// locatedInPass links addresses to the Country named by their stored country
// attribute. Rows without a country are skipped; rows whose country cell
// differs from the attribute and unknown countries produce no edge.
func (l *Loader) locatedInPass() pass {
	return pass{
		label: "LOCATED_IN",
		build: func(rec csvparser.Record) ([]record.Row, bool) {
			a, ok := addressFrom(rec)
			if !ok || a.Country == "" {
				return nil, false
			}
			return []record.Row{{
				"addressLine1": a.Line1,
				"postTown":     a.PostTown,
				"postCode":     a.PostCode,
				"country":      a.Country,
			}}, true
		},
		flush: func(ctx context.Context, rows []record.Row) error {
			_, err := l.store.RunBatched(ctx, locatedInCypher, rows, len(rows))
			return err
		},
	}
}

package loader

import (
	"context"

	csvparser "graphetl/internal/parser/csv"
	"graphetl/internal/record"
)

// companyPass upserts one Company per record with a company number.
// Duplicate numbers in the file collapse onto one node; the last row wins.
func (l *Loader) companyPass() pass {
	return pass{
		label: "Company",
		build: func(rec csvparser.Record) ([]record.Row, bool) {
			c, ok := record.CompanyFrom(rec)
			if !ok {
				return nil, false
			}
			return []record.Row{c.Params()}, true
		},
		flush: func(ctx context.Context, rows []record.Row) error {
			_, err := l.store.RunBatched(ctx, companyCypher, rows, len(rows))
			return err
		},
	}
}

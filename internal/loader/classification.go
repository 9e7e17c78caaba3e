package loader

import (
	"context"

	csvparser "graphetl/internal/parser/csv"
	"graphetl/internal/record"
)

// classificationPass creates one CLASSIFIED_AS edge per populated SIC slot,
// ranked by slot. Codes missing from the store produce no edge.
func (l *Loader) classificationPass() pass {
	return pass{
		label: "CLASSIFIED_AS",
		build: func(rec csvparser.Record) ([]record.Row, bool) {
			num, ok := record.CompanyNumber(rec)
			if !ok {
				return nil, false
			}
			cls := record.ClassificationsFrom(rec, num)
			rows := make([]record.Row, 0, len(cls))
			for _, c := range cls {
				rows = append(rows, c.Params())
			}
			return rows, true
		},
		flush: func(ctx context.Context, rows []record.Row) error {
			_, err := l.store.RunBatched(ctx, classifiedAsCypher, rows, len(rows))
			return err
		},
	}
}

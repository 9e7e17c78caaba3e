package loader

import (
	"context"

	csvparser "graphetl/internal/parser/csv"
	"graphetl/internal/record"
)

// historyPass upserts PreviousName nodes with their PREVIOUSLY_NAMED edge.
func (l *Loader) historyPass() pass {
	return pass{
		label: "PreviousName",
		build: func(rec csvparser.Record) ([]record.Row, bool) {
			num, ok := record.CompanyNumber(rec)
			if !ok {
				return nil, false
			}
			names := record.PreviousNamesFrom(rec, num)
			rows := make([]record.Row, 0, len(names))
			for _, p := range names {
				rows = append(rows, p.Params())
			}
			return rows, true
		},
		flush: func(ctx context.Context, rows []record.Row) error {
			_, err := l.store.RunBatched(ctx, previousNameCypher, rows, len(rows))
			return err
		},
	}
}

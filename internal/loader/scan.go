package loader

import (
	"context"
	"fmt"

	"graphetl/internal/batch"
	csvparser "graphetl/internal/parser/csv"
	"graphetl/internal/record"

	"golang.org/x/sync/errgroup"
)

// Stats counts what one pass over the input did.
type Stats struct {
	Read        int64 // data records streamed
	ParseErrors int64 // malformed records reported by the reader
	Skipped     int64 // records failing the pass's key check
	Written     int64 // parameter rows sent to the store
	Batches     int64 // write transactions committed
}

func (s *Stats) add(o Stats) {
	s.Read += o.Read
	s.ParseErrors += o.ParseErrors
	s.Skipped += o.Skipped
	s.Written += o.Written
	s.Batches += o.Batches
}

// scan opens the input and calls fn for every record. The reader runs in its
// own goroutine feeding a bounded channel.
func (l *Loader) scan(ctx context.Context, label string, fn func(csvparser.Record) error) (Stats, error) {
	var st Stats

	src, err := l.opts.Input.Open(ctx)
	if err != nil {
		return st, fmt.Errorf("open input: %w", err)
	}

	recs := make(chan csvparser.Record, l.rt.ChannelBuffer)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(recs)
		return csvparser.StreamRecords(gctx, src, l.opts.Parser, recs, func(line int, err error) {
			st.ParseErrors++
			l.log.Debugf("line %d skipped: %v", line, err)
		})
	})

	g.Go(func() error {
		prog := newProgress(l.log, label, l.rows, l.rt.LogInterval)
		for rec := range recs {
			prog.tick()
			if err := fn(rec); err != nil {
				return err
			}
		}
		st.Read = prog.n
		return nil
	})

	if err := g.Wait(); err != nil {
		return st, err
	}
	if st.ParseErrors > 0 {
		l.log.Warnf("%s: %d malformed records skipped", label, st.ParseErrors)
	}
	return st, nil
}

// pass describes one streaming loader: build turns a record into zero or
// more parameter rows (ok=false means inadmissible) and flush writes a batch.
type pass struct {
	label string
	build func(csvparser.Record) (rows []record.Row, ok bool)
	flush func(ctx context.Context, rows []record.Row) error
}

// stream runs p over the whole input: records are built into rows, grouped
// into batches of BatchSize and flushed one batch at a time.
func (l *Loader) stream(ctx context.Context, p pass) (Stats, error) {
	rows := make(chan record.Row, l.rt.ChannelBuffer)
	g, gctx := errgroup.WithContext(ctx)

	var (
		scanned Stats
		skipped int64
		written int64
		batches int64
	)

	g.Go(func() error {
		defer close(rows)
		var err error
		scanned, err = l.scan(gctx, p.label, func(rec csvparser.Record) error {
			out, ok := p.build(rec)
			if !ok {
				skipped++
				return nil
			}
			for _, r := range out {
				select {
				case rows <- r:
				case <-gctx.Done():
					return gctx.Err()
				}
			}
			return nil
		})
		return err
	})

	g.Go(func() error {
		_, err := batch.Collect(gctx, rows, l.rt.BatchSize, func(ctx context.Context, items []record.Row) error {
			if err := p.flush(ctx, items); err != nil {
				return fmt.Errorf("%s: batch %d: %w", p.label, batches+1, err)
			}
			batches++
			written += int64(len(items))
			l.log.Debugf("%s: batch %d committed (%d rows)", p.label, batches, len(items))
			return nil
		})
		return err
	})

	err := g.Wait()
	scanned.Skipped = skipped
	scanned.Written = written
	scanned.Batches = batches
	return scanned, err
}

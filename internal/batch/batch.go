// Package batch groups a lazy stream of items into fixed-size batches and
// hands each batch to a flush callback.
//
// At most one batch is held in memory at a time; the callback owns the slice
// only for the duration of the call.
package batch

import (
	"context"
	"fmt"
)

// FlushFn writes one batch. It must not retain items after returning.
type FlushFn[T any] func(ctx context.Context, items []T) error

// Collect drains in, groups items into batches of size (the last may be
// smaller) and calls flush for each non-empty batch. It returns the number of
// batches flushed and the first error encountered; no further batches are
// flushed after an error.
//
// Cancellation: returns ctx.Err() when ctx is done before in is closed.
func Collect[T any](ctx context.Context, in <-chan T, size int, flush FlushFn[T]) (int, error) {
	if size <= 0 {
		return 0, fmt.Errorf("batch size must be > 0, got %d", size)
	}
	if flush == nil {
		return 0, fmt.Errorf("flush must not be nil")
	}

	var (
		batches int
		buf     = make([]T, 0, size)
	)

	emit := func() error {
		if len(buf) == 0 {
			return nil
		}
		if err := flush(ctx, buf); err != nil {
			return err
		}
		batches++
		// Reuse allocated slice; keep capacity to avoid churn.
		clear(buf)
		buf = buf[:0]
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			return batches, ctx.Err()

		case item, ok := <-in:
			if !ok {
				return batches, emit()
			}
			buf = append(buf, item)
			if len(buf) >= size {
				if err := emit(); err != nil {
					return batches, err
				}
			}
		}
	}
}

// Chunk splits an already materialized slice into consecutive batches of at
// most size items. The batches share items' backing array.
func Chunk[T any](items []T, size int) [][]T {
	if size <= 0 || len(items) == 0 {
		return nil
	}
	out := make([][]T, 0, (len(items)+size-1)/size)
	for start := 0; start < len(items); start += size {
		end := min(start+size, len(items))
		out = append(out, items[start:end:end])
	}
	return out
}

// Count returns how many batches of size n items split into: ceil(n/size).
func Count(n, size int) int {
	if n <= 0 || size <= 0 {
		return 0
	}
	return (n + size - 1) / size
}

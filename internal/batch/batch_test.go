package batch

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func feed(n int) <-chan int {
	ch := make(chan int, n)
	for i := 0; i < n; i++ {
		ch <- i
	}
	close(ch)
	return ch
}

// TestCollect_Sizes verifies the ceil(N/B) batch count and that concatenating
// the batches reproduces the input order.
func TestCollect_Sizes(t *testing.T) {
	t.Parallel()

	cases := []struct {
		n, size     int
		wantBatches int
		wantLast    int
	}{
		{n: 5, size: 2, wantBatches: 3, wantLast: 1},
		{n: 4, size: 2, wantBatches: 2, wantLast: 2},
		{n: 0, size: 3, wantBatches: 0},
		{n: 1, size: 2000, wantBatches: 1, wantLast: 1},
	}
	for _, c := range cases {
		var got []int
		var sizes []int
		batches, err := Collect(context.Background(), feed(c.n), c.size, func(_ context.Context, items []int) error {
			got = append(got, items...)
			sizes = append(sizes, len(items))
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, c.wantBatches, batches, "n=%d size=%d", c.n, c.size)
		assert.Equal(t, c.wantBatches, Count(c.n, c.size))
		require.Len(t, got, c.n)
		for i, v := range got {
			assert.Equal(t, i, v)
		}
		if c.wantBatches > 0 {
			assert.Equal(t, c.wantLast, sizes[len(sizes)-1])
		}
	}
}

// TestCollect_ErrorStops ensures the first flush error is returned and no
// later batch is flushed.
func TestCollect_ErrorStops(t *testing.T) {
	t.Parallel()

	wantErr := errors.New("write failed")
	calls := 0
	batches, err := Collect(context.Background(), feed(10), 2, func(context.Context, []int) error {
		calls++
		if calls == 2 {
			return wantErr
		}
		return nil
	})
	assert.ErrorIs(t, err, wantErr)
	assert.Equal(t, 1, batches)
	assert.Equal(t, 2, calls)
}

func TestCollect_ContextCancel(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	in := make(chan int) // never closed

	done := make(chan error, 1)
	go func() {
		_, err := Collect(ctx, in, 2, func(context.Context, []int) error { return nil })
		done <- err
	}()

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Collect did not return after cancel")
	}
}

func TestCollect_InvalidArgs(t *testing.T) {
	t.Parallel()

	_, err := Collect(context.Background(), feed(1), 0, func(context.Context, []int) error { return nil })
	assert.Error(t, err)

	_, err = Collect[int](context.Background(), feed(1), 1, nil)
	assert.Error(t, err)
}

func TestChunk(t *testing.T) {
	t.Parallel()

	items := []string{"a", "b", "c", "d", "e"}
	chunks := Chunk(items, 2)
	require.Len(t, chunks, 3)
	assert.Equal(t, []string{"a", "b"}, chunks[0])
	assert.Equal(t, []string{"e"}, chunks[2])

	assert.Nil(t, Chunk(items, 0))
	assert.Nil(t, Chunk([]string{}, 3))

	// Appending to a chunk must not clobber the next one.
	chunks[0] = append(chunks[0], "x")
	assert.Equal(t, []string{"c", "d"}, chunks[1])
}

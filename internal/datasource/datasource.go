// Package datasource defines where the loader's input bytes come from.
// Implementations live in subpackages: file for local paths and httpds for
// published downloads.
package datasource

import (
	"context"
	"io"
)

// Source opens a fresh stream over the input. Every full-file pass calls Open
// again, so implementations must support being opened more than once.
type Source interface {
	Open(ctx context.Context) (io.ReadCloser, error)
}

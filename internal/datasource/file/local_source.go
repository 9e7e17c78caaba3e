// Package file implements a local filesystem-backed data source.
package file

import (
	"context"
	"fmt"
	"io"
	"os"
)

// Local opens the same file path on every call to Open.
type Local struct{ path string }

// NewLocal returns a Local bound to path.
func NewLocal(path string) *Local { return &Local{path: path} }

// Path returns the configured path.
func (l *Local) Path() string { return l.path }

// Open returns the file for reading. A context that is already done
// short-circuits without touching the filesystem. Errors keep os.ErrNotExist
// reachable through errors.Is.
func (l *Local) Open(ctx context.Context) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", l.path, err)
	}
	return f, nil
}

// Size reports the file size in bytes. Directories are rejected.
func (l *Local) Size() (int64, error) {
	fi, err := os.Stat(l.path)
	if err != nil {
		return 0, fmt.Errorf("stat %s: %w", l.path, err)
	}
	if fi.IsDir() {
		return 0, fmt.Errorf("stat %s: is a directory", l.path)
	}
	return fi.Size(), nil
}

// Exists reports whether path names an existing regular file.
func (l *Local) Exists() bool {
	fi, err := os.Stat(l.path)
	return err == nil && fi.Mode().IsRegular()
}

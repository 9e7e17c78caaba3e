package csv

import (
	"io"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
)

// utf8BOM is stripped from the first header cell if present.
const utf8BOM = "\uFEFF"

// readCloser keeps Close() of the underlying source when Read is wrapped.
type readCloser struct {
	io.Reader
	io.Closer
}

// decodeUTF8 wraps src so that ill-formed UTF-8 sequences are replaced with
// U+FFFD instead of reaching the CSV reader. Well-formed input passes through
// unchanged. Close is forwarded to src.
func decodeUTF8(src io.ReadCloser) io.ReadCloser {
	return &readCloser{
		Reader: transform.NewReader(src, runes.ReplaceIllFormed()),
		Closer: src,
	}
}

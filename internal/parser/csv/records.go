// Package csv streams large delimited files as header-keyed records.
//
// Nothing here buffers the whole input: StreamRecords pushes one Record at a
// time into a channel and CountRows scans with a fixed-size buffer, so
// multi-GB inputs run in bounded memory.
package csv

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"graphetl/internal/config"
)

// Record maps a normalized header name to the raw cell text.
// Cells missing from a short row are absent from the map.
type Record map[string]string

// Get returns the cell for field, or "" when the column is missing.
func (r Record) Get(field string) string { return r[field] }

// NormalizeHeader trims surrounding whitespace from every header name and
// strips a UTF-8 BOM from the first one. The slice is modified in place.
func NormalizeHeader(header []string) []string {
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, utf8BOM)
		}
		header[i] = strings.TrimSpace(h)
	}
	return header
}

// StreamRecords reads src as CSV with a header row and sends one Record per
// data row into out. It closes src when done; the caller closes out.
//
// Options (all optional):
//   - comma (string; first rune used; default ',')
//   - lazy_quotes (bool; default true)
//   - trim_space (bool; default false) trims every cell
//   - fields_per_record (int; default -1, short and long rows tolerated;
//     0 pins the count to the header; a positive value is enforced)
//
// Bytes that are not valid UTF-8 are replaced with U+FFFD. Per-row parse
// errors are soft: onErr(line, err) is called and the stream continues.
// A missing or unreadable header and any error from src itself are fatal.
func StreamRecords(
	ctx context.Context,
	src io.ReadCloser,
	opt config.Options,
	out chan<- Record,
	onErr func(line int, err error),
) error {
	r := decodeUTF8(src)
	defer r.Close()

	cr := newReader(r, opt)
	trim := opt.Bool("trim_space", false)

	line := 0
	read := func() ([]string, error) { line++; return cr.Read() }

	hdr, err := read()
	if err != nil {
		if err == io.EOF {
			return fmt.Errorf("read header: empty input")
		}
		return fmt.Errorf("read header: %w", err)
	}
	// ReuseRecord shares the backing slice between reads.
	header := NormalizeHeader(append([]string(nil), hdr...))

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		row, err := read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			// csv.Reader repeats a source error on every later Read.
			var perr *csv.ParseError
			if !errors.As(err, &perr) {
				return fmt.Errorf("read line %d: %w", line, err)
			}
			if onErr != nil {
				onErr(line, fmt.Errorf("csv read: %w", err))
			}
			continue
		}

		rec := make(Record, len(header))
		for i, name := range header {
			if i >= len(row) {
				break
			}
			v := row[i]
			if trim {
				v = strings.TrimSpace(v)
			}
			rec[name] = v
		}

		select {
		case out <- rec:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func newReader(r io.Reader, opt config.Options) *csv.Reader {
	cr := csv.NewReader(r)
	cr.Comma = opt.Rune("comma", ',')
	cr.LazyQuotes = opt.Bool("lazy_quotes", true)
	cr.ReuseRecord = true
	cr.FieldsPerRecord = opt.Int("fields_per_record", -1)
	return cr
}

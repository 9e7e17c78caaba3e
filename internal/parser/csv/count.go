package csv

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
)

const countBufSize = 256 * 1024

// CountRows returns the number of data rows in src: physical lines minus the
// header line. A final line without a trailing newline still counts. Quoted
// cells spanning lines are counted once per physical line, which is close
// enough for progress totals.
func CountRows(ctx context.Context, src io.ReadCloser) (int64, error) {
	defer src.Close()

	br := bufio.NewReaderSize(src, countBufSize)
	buf := make([]byte, countBufSize)

	var lines int64
	var last byte = '\n'
	for {
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		default:
		}

		n, err := br.Read(buf)
		if n > 0 {
			lines += int64(bytes.Count(buf[:n], []byte{'\n'}))
			last = buf[n-1]
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("count rows: %w", err)
		}
	}
	if last != '\n' {
		lines++
	}
	if lines == 0 {
		return 0, nil
	}
	return lines - 1, nil
}

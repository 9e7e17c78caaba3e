// Package download fetches the monthly bulk company file from its publisher,
// unpacks it and leaves the CSV ready for the loader.
//
// Files are published as zip archives named after the first day of the month
// they were produced, within a few working days of month end.
package download

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"graphetl/internal/datasource/file"
	"graphetl/internal/datasource/httpds"
	"graphetl/internal/logging"

	"github.com/dustin/go-humanize"
)

const (
	DefaultBaseURL = "https://download.companieshouse.gov.uk"
	FilePrefix     = "BasicCompanyDataAsOneFile"
	DateLayout     = "2006-01-02"

	// DefaultListMonths is how far back List probes.
	DefaultListMonths = 12

	// publishDay is the day of month after which the current month's file
	// is assumed to be out.
	publishDay = 7

	defaultProgressStep = 50 << 20
)

var (
	// ErrNotPublished means the archive for the requested month is not on the server.
	ErrNotPublished = errors.New("download: file not published")
	// ErrCSVExists means the extracted CSV is already present and Force is off.
	ErrCSVExists = errors.New("download: csv already exists")
)

// LatestDate returns the first of the month whose file should be the newest
// available at now: this month after the 7th, otherwise the previous month.
func LatestDate(now time.Time) time.Time {
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	if now.Day() > publishDay {
		return first
	}
	return first.AddDate(0, -1, 0)
}

// ParseDate parses YYYY-MM-DD and snaps it to the first of the month.
// snapped reports whether the input was not already a first.
func ParseDate(s string) (date time.Time, snapped bool, err error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, false, fmt.Errorf("invalid date %q, expected YYYY-MM-01: %w", s, err)
	}
	first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	return first, t.Day() != 1, nil
}

// ArchiveName is the zip file name for date.
func ArchiveName(date time.Time) string {
	return fmt.Sprintf("%s-%s.zip", FilePrefix, date.Format(DateLayout))
}

// CSVName is the name of the CSV inside the archive for date.
func CSVName(date time.Time) string {
	return fmt.Sprintf("%s-%s.csv", FilePrefix, date.Format(DateLayout))
}

// URL builds the archive URL under baseURL.
func URL(baseURL string, date time.Time) string {
	return strings.TrimRight(baseURL, "/") + "/" + ArchiveName(date)
}

// Downloader fetches and unpacks archives into OutDir.
type Downloader struct {
	Client  *httpds.Client
	BaseURL string
	OutDir  string
	KeepZip bool
	Force   bool
	Log     logging.Logger

	// ProgressStep is the number of bytes between progress lines.
	ProgressStep int64
	// Now is used for list windows; defaults to time.Now.
	Now func() time.Time
}

func (d *Downloader) baseURL() string {
	if d.BaseURL == "" {
		return DefaultBaseURL
	}
	return d.BaseURL
}

func (d *Downloader) log() logging.Logger {
	if d.Log == nil {
		return logging.Nop()
	}
	return d.Log
}

func (d *Downloader) now() time.Time {
	if d.Now == nil {
		return time.Now()
	}
	return d.Now()
}

// Available is one published archive found by List.
type Available struct {
	Date time.Time
	URL  string
	Size int64 // -1 when unknown
}

// List probes the archives of the last months, newest first, and returns the ones
// that exist. months <= 0 means DefaultListMonths.
func (d *Downloader) List(ctx context.Context, months int) ([]Available, error) {
	if months <= 0 {
		months = DefaultListMonths
	}
	now := d.now()
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

	var out []Available
	for i := 0; i < months; i++ {
		date := first.AddDate(0, -i, 0)
		url := URL(d.baseURL(), date)
		r, err := d.Client.Stat(ctx, url)
		if err != nil {
			if ctx.Err() != nil {
				return out, ctx.Err()
			}
			d.log().Debugf("probe %s: %v", url, err)
			continue
		}
		if r.Exists {
			out = append(out, Available{Date: date, URL: url, Size: r.Size})
		}
	}
	return out, nil
}

// Extracted is one file written from the archive.
type Extracted struct {
	Path string
	Size int64
}

// Result describes a completed Fetch.
type Result struct {
	URL     string
	Archive string // zip path; removed unless KeepZip
	Bytes   int64
	Files   []Extracted
	CSV     string
}

// Fetch downloads the archive for date, extracts every member into OutDir and
// removes the zip unless KeepZip is set. An existing CSV is only replaced
// when Force is set.
func (d *Downloader) Fetch(ctx context.Context, date time.Time) (Result, error) {
	log := d.log()
	url := URL(d.baseURL(), date)
	res := Result{
		URL:     url,
		Archive: filepath.Join(d.OutDir, httpds.FileName(url)),
		CSV:     filepath.Join(d.OutDir, CSVName(date)),
	}

	log.Infof("Source: %s", url)
	log.Infof("Output: %s", d.OutDir)

	remote, err := d.Client.Stat(ctx, url)
	if err != nil {
		return res, fmt.Errorf("check availability: %w", err)
	}
	if !remote.Exists {
		return res, fmt.Errorf("%w: %s", ErrNotPublished, url)
	}
	log.Infof("File available: %s", SizeText(remote.Size))

	if file.NewLocal(res.CSV).Exists() && !d.Force {
		return res, fmt.Errorf("%w: %s", ErrCSVExists, res.CSV)
	}
	if err := os.MkdirAll(d.OutDir, 0o755); err != nil {
		return res, fmt.Errorf("create output dir: %w", err)
	}

	log.Infof("Downloading %s...", ArchiveName(date))
	n, err := d.fetchArchive(ctx, url, res.Archive)
	if err != nil {
		return res, err
	}
	res.Bytes = n
	log.Infof("Downloaded: %s", humanize.Bytes(uint64(n)))

	files, err := Extract(ctx, res.Archive, d.OutDir, log)
	if err != nil {
		return res, fmt.Errorf("extract %s: %w", res.Archive, err)
	}
	res.Files = files

	if !d.KeepZip {
		if err := os.Remove(res.Archive); err != nil {
			return res, fmt.Errorf("remove archive: %w", err)
		}
		log.Infof("Removed: %s", filepath.Base(res.Archive))
	}
	return res, nil
}

// fetchArchive streams url into dst via a .part file renamed on success.
func (d *Downloader) fetchArchive(ctx context.Context, url, dst string) (int64, error) {
	body, total, err := d.Client.Open(ctx, url)
	if err != nil {
		return 0, err
	}
	defer body.Close()

	part := dst + ".part"
	f, err := os.Create(part)
	if err != nil {
		return 0, fmt.Errorf("create %s: %w", part, err)
	}

	step := d.ProgressStep
	if step <= 0 {
		step = defaultProgressStep
	}
	pw := &progressWriter{w: f, total: total, step: step, next: step, log: d.log()}

	n, copyErr := io.Copy(pw, body)
	closeErr := f.Close()
	if copyErr == nil {
		copyErr = closeErr
	}
	if copyErr != nil {
		_ = os.Remove(part)
		return n, fmt.Errorf("download %s: %w", url, copyErr)
	}
	if total >= 0 && n != total {
		_ = os.Remove(part)
		return n, fmt.Errorf("download %s: short body: got %d of %d bytes", url, n, total)
	}
	if err := os.Rename(part, dst); err != nil {
		return n, fmt.Errorf("rename %s: %w", part, err)
	}
	return n, nil
}

// Extract unpacks every member of the zip at src into dir. Members that would
// land outside dir are rejected.
func Extract(ctx context.Context, src, dir string, log logging.Logger) ([]Extracted, error) {
	zr, err := zip.OpenReader(src)
	if err != nil {
		return nil, err
	}
	defer zr.Close()

	root, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}

	var out []Extracted
	for _, zf := range zr.File {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		target := filepath.Join(root, filepath.FromSlash(zf.Name))
		if target != root && !strings.HasPrefix(target, root+string(os.PathSeparator)) {
			return out, fmt.Errorf("member %q escapes %s", zf.Name, dir)
		}
		if zf.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return out, err
			}
			continue
		}
		log.Infof("Extracting: %s", zf.Name)
		n, err := extractFile(zf, target)
		if err != nil {
			return out, fmt.Errorf("member %s: %w", zf.Name, err)
		}
		log.Infof("Extracted: %s (%s)", filepath.Base(target), humanize.Bytes(uint64(n)))
		out = append(out, Extracted{Path: target, Size: n})
	}
	return out, nil
}

func extractFile(zf *zip.File, target string) (int64, error) {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return 0, err
	}
	rc, err := zf.Open()
	if err != nil {
		return 0, err
	}
	defer rc.Close()

	f, err := os.Create(target)
	if err != nil {
		return 0, err
	}
	n, err := io.Copy(f, rc)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return n, err
}

// progressWriter logs a line each time another step bytes have been written.
type progressWriter struct {
	w     io.Writer
	total int64
	n     int64
	step  int64
	next  int64
	log   logging.Logger
}

func (p *progressWriter) Write(b []byte) (int, error) {
	n, err := p.w.Write(b)
	p.n += int64(n)
	if p.n >= p.next {
		for p.next <= p.n {
			p.next += p.step
		}
		if p.total > 0 {
			p.log.Infof("Downloading: %s / %s (%.1f%%)",
				humanize.Bytes(uint64(p.n)), humanize.Bytes(uint64(p.total)),
				float64(p.n)/float64(p.total)*100)
		} else {
			p.log.Infof("Downloading: %s", humanize.Bytes(uint64(p.n)))
		}
	}
	return n, err
}

// SizeText renders a byte count, or "unknown size" when negative.
func SizeText(n int64) string {
	if n < 0 {
		return "unknown size"
	}
	return humanize.Bytes(uint64(n))
}

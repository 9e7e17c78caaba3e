package httpds

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"path"
	"time"
)

// Remote describes a published file as seen by a HEAD probe.
type Remote struct {
	URL          string
	Exists       bool
	Size         int64 // -1 when the server does not report it
	LastModified time.Time
}

// Stat probes url with HEAD. A 404 is reported as Exists=false, not an error;
// any other non-2xx status is an error.
func (c *Client) Stat(ctx context.Context, url string) (Remote, error) {
	resp, err := c.Head(ctx, url)
	if err != nil {
		return Remote{}, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	r := Remote{URL: url, Size: -1}
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return r, nil
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return r, fmt.Errorf("httpds: HEAD %s: %s", url, resp.Status)
	}
	r.Exists = true
	r.Size = resp.ContentLength
	if lm := resp.Header.Get("Last-Modified"); lm != "" {
		if t, err := http.ParseTime(lm); err == nil {
			r.LastModified = t
		}
	}
	return r, nil
}

// Open fetches url with GET and returns the body and its advertised length
// (-1 if unknown). Any non-200 status is an error.
func (c *Client) Open(ctx context.Context, url string) (io.ReadCloser, int64, error) {
	resp, err := c.Get(ctx, url)
	if err != nil {
		return nil, 0, err
	}
	if resp.StatusCode == http.StatusNotFound {
		_ = resp.Body.Close()
		return nil, 0, fmt.Errorf("httpds: GET %s: %s: %w", url, resp.Status, fs.ErrNotExist)
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, 0, fmt.Errorf("httpds: GET %s: %s", url, resp.Status)
	}
	return resp.Body, resp.ContentLength, nil
}

// FileName returns the last path segment of rawURL, e.g.
// "BasicCompanyDataAsOneFile-2024-01-01.zip". It returns "" when the URL has
// no usable path.
func FileName(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	base := path.Base(u.Path)
	if base == "." || base == "/" {
		return ""
	}
	return base
}

// Source adapts a URL to datasource.Source.
type Source struct {
	client *Client
	url    string
}

// NewSource returns a Source fetching url through c.
func NewSource(c *Client, url string) *Source {
	return &Source{client: c, url: url}
}

// Path returns the URL, for logs.
func (s *Source) Path() string { return s.url }

func (s *Source) Open(ctx context.Context) (io.ReadCloser, error) {
	rc, _, err := s.client.Open(ctx, s.url)
	return rc, err
}

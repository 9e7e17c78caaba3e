// Package httpds is the HTTP side of the data sources: a small client with
// retry and exponential backoff used to probe and fetch published bulk files.
//
// Transient failures (transport errors, 429 and 5xx) are retried; every other
// response is returned to the caller. Context cancellation is honoured both
// during requests and while waiting between attempts.
package httpds

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// DefaultUserAgent is sent when Config.UserAgent is empty.
const DefaultUserAgent = "graphetl/1"

// Config configures the HTTP client.
//
// Zero values get defaults:
//   - Timeout:        0 (no overall limit; bulk files take minutes)
//   - MaxRetries:     0
//   - InitialBackoff: 200ms
//   - MaxBackoff:     5s
type Config struct {
	// Timeout bounds each whole request including the body read.
	Timeout time.Duration

	// MaxRetries is the number of attempts after the first one.
	MaxRetries int

	// InitialBackoff is the wait before the first retry; it doubles per retry.
	InitialBackoff time.Duration

	// MaxBackoff caps the backoff.
	MaxBackoff time.Duration

	UserAgent string

	// Transport overrides the default RoundTripper, mainly for tests.
	Transport http.RoundTripper
}

// Client wraps an http.Client with retry and backoff behavior.
type Client struct {
	httpClient     *http.Client
	maxRetries     int
	initialBackoff time.Duration
	maxBackoff     time.Duration
	userAgent      string

	// sleep is injectable to keep tests fast.
	sleep func(context.Context, time.Duration) error
}

// NewClient constructs a Client from Config, applying defaults for zero values.
func NewClient(cfg Config) *Client {
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = 200 * time.Millisecond
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = 5 * time.Second
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	transport := cfg.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}

	return &Client{
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: transport,
		},
		maxRetries:     cfg.MaxRetries,
		initialBackoff: cfg.InitialBackoff,
		maxBackoff:     cfg.MaxBackoff,
		userAgent:      cfg.UserAgent,
		sleep:          sleepWithContext,
	}
}

// Do sends a body-less request, retrying transient failures.
//
// The returned response has a non-nil Body which the caller must close.
// Non-retryable statuses (including 404) are returned as responses, not errors.
func (c *Client) Do(ctx context.Context, method, url string, headers http.Header) (*http.Response, error) {
	if method == "" {
		return nil, fmt.Errorf("httpds: method must not be empty")
	}
	if url == "" {
		return nil, fmt.Errorf("httpds: url must not be empty")
	}

	attempts := c.maxRetries + 1
	var lastErr error

	for attempt := 0; attempt < attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, method, url, nil)
		if err != nil {
			return nil, fmt.Errorf("httpds: build request: %w", err)
		}
		req.Header.Set("User-Agent", c.userAgent)
		for k, vs := range headers {
			for _, v := range vs {
				req.Header.Set(k, v)
			}
		}

		resp, err := c.httpClient.Do(req)
		switch {
		case err != nil:
			lastErr = fmt.Errorf("httpds: %s %s: %w", method, url, err)
		case !isRetryableStatus(resp.StatusCode):
			return resp, nil
		default:
			_ = resp.Body.Close()
			lastErr = fmt.Errorf("httpds: retryable status %d from %s %s", resp.StatusCode, method, url)
		}

		if attempt+1 >= attempts {
			break
		}
		if err := c.sleep(ctx, backoffDuration(c.initialBackoff, attempt, c.maxBackoff)); err != nil {
			return nil, err
		}
	}
	return nil, lastErr
}

// Get issues a GET. The caller must close the response body.
func (c *Client) Get(ctx context.Context, url string) (*http.Response, error) {
	return c.Do(ctx, http.MethodGet, url, nil)
}

// Head issues a HEAD. The caller must close the response body.
func (c *Client) Head(ctx context.Context, url string) (*http.Response, error) {
	return c.Do(ctx, http.MethodHead, url, nil)
}

// isRetryableStatus treats 429 and 5xx as transient.
func isRetryableStatus(code int) bool {
	if code == http.StatusTooManyRequests {
		return true
	}
	return code >= 500 && code <= 599
}

// backoffDuration returns initial * 2^attempt, clamped to max.
func backoffDuration(initial time.Duration, attempt int, max time.Duration) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	d := initial << attempt
	if d > max || d <= 0 {
		return max
	}
	return d
}

// sleepWithContext waits for d or until ctx is done.
func sleepWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

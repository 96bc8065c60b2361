package fetch

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/makaron79/monitor-inpzu-btc/internal/metrics"
)

// Client performs HTTP requests with bounded retries and a fixed
// inter-attempt delay. Any transport error or non-2xx status counts as a
// failed attempt; after the last attempt the final error is returned.
type Client struct {
	http        *http.Client
	logger      *slog.Logger
	maxAttempts int
	retryDelay  time.Duration
	getTimeout  time.Duration
	postTimeout time.Duration
}

type Option func(*Client)

func WithMaxAttempts(n int) Option {
	return func(c *Client) { c.maxAttempts = n }
}

func WithRetryDelay(d time.Duration) Option {
	return func(c *Client) { c.retryDelay = d }
}

func WithTimeouts(get, post time.Duration) Option {
	return func(c *Client) {
		c.getTimeout = get
		c.postTimeout = post
	}
}

func NewClient(logger *slog.Logger, opts ...Option) *Client {
	c := &Client{
		http:        &http.Client{},
		logger:      logger,
		maxAttempts: 3,
		retryDelay:  2 * time.Second,
		getTimeout:  20 * time.Second,
		postTimeout: 10 * time.Second,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Get fetches url and returns the response body.
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	return c.do(ctx, http.MethodGet, url, "", nil, c.getTimeout)
}

// Post sends body to url and returns the response body.
func (c *Client) Post(ctx context.Context, url, contentType string, body []byte) ([]byte, error) {
	return c.do(ctx, http.MethodPost, url, contentType, body, c.postTimeout)
}

func (c *Client) do(ctx context.Context, method, url, contentType string, body []byte, timeout time.Duration) ([]byte, error) {
	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		data, err := c.attempt(ctx, method, url, contentType, body, timeout)
		if err == nil {
			return data, nil
		}
		lastErr = err

		c.logger.Warn("fetch attempt failed",
			"method", method,
			"url", url,
			"attempt", attempt,
			"max_attempts", c.maxAttempts,
			"error", err,
		)

		if ctx.Err() != nil {
			return nil, fmt.Errorf("%s %s: %w", method, url, ctx.Err())
		}
		if attempt < c.maxAttempts {
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("%s %s: %w", method, url, ctx.Err())
			case <-time.After(c.retryDelay):
			}
		}
	}
	return nil, fmt.Errorf("%s %s after %d attempts: %w", method, url, c.maxAttempts, lastErr)
}

func (c *Client) attempt(ctx context.Context, method, url, contentType string, body []byte, timeout time.Duration) ([]byte, error) {
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(reqCtx, method, url, reader)
	if err != nil {
		return nil, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("User-Agent", "nav-monitor/1.0 (+https://github.com/makaron79/monitor-inpzu-btc)")

	start := time.Now()
	resp, err := c.http.Do(req)
	metrics.FetchDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.FetchAttemptsTotal.WithLabelValues(method, "transport_error").Inc()
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		metrics.FetchAttemptsTotal.WithLabelValues(method, "http_error").Inc()
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, bytes.TrimSpace(snippet))
	}

	metrics.FetchAttemptsTotal.WithLabelValues(method, "ok").Inc()
	return io.ReadAll(io.LimitReader(resp.Body, 8<<20))
}

// Package webclient provides the authenticated HTTP client used for scraping,
// with an in-memory response cache so repeated fetches within a run cost one
// request.
package webclient

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"tgcdl/internal/consts"
	"tgcdl/internal/errs"
)

// Response is a cached page fetch result.
type Response struct {
	Body       []byte
	FinalURL   string // after redirects; manifest URLs resolve against this
	StatusCode int
}

// Client wraps http.Client with the platform headers, the session cookie jar
// and a per-run response cache.
type Client struct {
	log    *slog.Logger
	pages  *http.Client // bounded by the fetch timeout
	stream *http.Client // bounded only by the caller's context

	mu    sync.RWMutex
	cache map[string]*Response // request URL : response
}

// New creates a webclient with the given cookie jar attached.
func New(log *slog.Logger, jar http.CookieJar, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = consts.DefaultFetchTimeout
	}

	return &Client{
		log: log.With(slog.String("package", "webclient")),
		pages: &http.Client{
			Jar:     jar,
			Timeout: timeout,
		},
		stream: &http.Client{
			Jar: jar,
		},
		cache: make(map[string]*Response),
	}
}

// Get fetches url, serving repeats from the run cache. A 404 is
// errs.ErrNotFound; other non-2xx statuses are plain errors.
func (c *Client) Get(ctx context.Context, url string) (*Response, error) {
	c.mu.RLock()
	cached, ok := c.cache[url]
	c.mu.RUnlock()

	if ok {
		c.log.DebugContext(ctx, "cache hit", slog.String("url", url))

		return cached, nil
	}

	resp, err := c.do(ctx, c.pages, url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", errs.ErrNotFound, url)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("get %s: unexpected status %d", url, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	result := &Response{
		Body:       body,
		FinalURL:   resp.Request.URL.String(),
		StatusCode: resp.StatusCode,
	}

	c.mu.Lock()
	c.cache[url] = result
	c.mu.Unlock()

	return result, nil
}

// Stream issues an uncached GET and hands the body to the caller. Used for
// the guidebook PDF, which is written straight to disk.
func (c *Client) Stream(ctx context.Context, url string) (*http.Response, error) {
	resp, err := c.do(ctx, c.stream, url)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()

		return nil, fmt.Errorf("get %s: unexpected status %d", url, resp.StatusCode)
	}

	return resp, nil
}

func (c *Client) do(ctx context.Context, client *http.Client, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	for key, value := range consts.RequestHeaders {
		req.Header.Set(key, value)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", url, err)
	}

	return resp, nil
}

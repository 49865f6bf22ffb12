// Package fetch provides the HTTP client used for sitemap discovery and
// resolution: GET/HEAD with per-request timeout, a configurable
// User-Agent, and a small LRU cache so the content probe and the later
// resolution pass share one download per URL.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/aluiziolira/go-sitemirror/config"
	"github.com/aluiziolira/go-sitemirror/metrics"
)

// Responses larger than this are truncated; sitemaps and HTML pages of
// interest fit comfortably below it.
const maxBodyBytes = 10 << 20

// Response is the outcome of a completed GET.
type Response struct {
	URL         string
	StatusCode  int
	ContentType string
	Body        []byte
}

// OK reports whether the response carries a 2xx status.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Client issues polite, cache-assisted HTTP requests.
type Client struct {
	httpClient *http.Client
	userAgent  string
	cache      *lru.Cache[string, *Response]
	metrics    *metrics.Metrics
}

// New builds a client from cfg. A nil transport selects a default
// transport mirroring the crawl collector's settings; tests inject a
// mock transport instead.
func New(cfg *config.Config, m *metrics.Metrics, transport http.RoundTripper) (*Client, error) {
	if transport == nil {
		transport = &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout:   cfg.Timeout,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			MaxIdleConns:        100,
			IdleConnTimeout:     90 * time.Second,
			TLSHandshakeTimeout: 10 * time.Second,
		}
	}

	cache, err := lru.New[string, *Response](cfg.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("create response cache: %w", err)
	}

	return &Client{
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   cfg.Timeout,
		},
		userAgent: cfg.UserAgent,
		cache:     cache,
		metrics:   m,
	}, nil
}

// Get fetches rawURL, following redirects. Successful responses are
// cached by URL; a repeated Get is served from the cache without
// touching the network. Transport failures are returned classified.
func (c *Client) Get(ctx context.Context, phase, rawURL string) (*Response, error) {
	if cached, ok := c.cache.Get(rawURL); ok {
		return cached, nil
	}

	if _, err := parseAbsolute(rawURL); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	start := time.Now()
	c.metrics.IncFetch(phase)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		classified := Classify(err, 0)
		c.metrics.IncError(Label(classified))
		return nil, classified
	}
	defer resp.Body.Close()
	c.metrics.ObserveFetchDuration(time.Since(start))

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		classified := Classify(err, 0)
		c.metrics.IncError(Label(classified))
		return nil, classified
	}

	result := &Response{
		URL:         resp.Request.URL.String(),
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        body,
	}
	if result.OK() {
		c.cache.Add(rawURL, result)
	}
	return result, nil
}

// Head issues a lightweight existence probe and returns the status code.
func (c *Client) Head(ctx context.Context, phase, rawURL string) (int, error) {
	if _, err := parseAbsolute(rawURL); err != nil {
		return 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, rawURL, nil)
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	c.metrics.IncFetch(phase)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		classified := Classify(err, 0)
		c.metrics.IncError(Label(classified))
		return 0, classified
	}
	resp.Body.Close()
	return resp.StatusCode, nil
}

func parseAbsolute(rawURL string) (*url.URL, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL %q: %w", rawURL, err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("URL %q must be absolute", rawURL)
	}
	return parsed, nil
}

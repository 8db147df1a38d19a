// Package fetch retrieves raw document payloads over HTTP and caches
// them by URL. It knows nothing about markup; it hands back bytes plus
// the metadata the content resolver needs (final URL, declared media
// type, and optionally a pre-parsed tree supplied by the caller).
package fetch

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/antchfx/xmlquery"
)

// Resource is a fetched payload plus its metadata.
type Resource struct {
	URL         string         // canonical resolved URL (after redirects)
	ContentType string         // declared media type, may be empty or wrong
	Body        []byte
	Tree        *xmlquery.Node // optional pre-parsed tree; skips the parse chain
}

// Client fetches resources over HTTP with a bounded per-URL response
// cache, evicting the oldest entries when full.
type Client struct {
	httpClient *http.Client
	maxBytes   int64
	maxEntries int

	mu    sync.Mutex
	cache map[string]*Resource
	order []string // cache keys, oldest first
}

func NewClient(timeout time.Duration, maxBytes int64, maxEntries int) *Client {
	if maxEntries <= 0 {
		maxEntries = 64
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		maxBytes:   maxBytes,
		maxEntries: maxEntries,
		cache:      make(map[string]*Resource),
	}
}

// Fetch retrieves the resource at rawURL, following redirects. The
// result is cached under both the requested and the final URL.
func (c *Client) Fetch(ctx context.Context, rawURL string) (*Resource, error) {
	c.mu.Lock()
	if res, ok := c.cache[rawURL]; ok {
		c.mu.Unlock()
		return res, nil
	}
	c.mu.Unlock()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: status %d", rawURL, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read body %s: %w", rawURL, err)
	}
	if int64(len(body)) > c.maxBytes {
		return nil, fmt.Errorf("fetch %s: body exceeds max size (%d bytes)", rawURL, c.maxBytes)
	}

	finalURL := rawURL
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}

	contentType := resp.Header.Get("Content-Type")
	if mt, _, err := mime.ParseMediaType(contentType); err == nil {
		contentType = mt
	}

	res := &Resource{
		URL:         finalURL,
		ContentType: contentType,
		Body:        body,
	}

	c.mu.Lock()
	c.put(rawURL, res)
	if finalURL != rawURL {
		c.put(finalURL, res)
	}
	c.mu.Unlock()

	return res, nil
}

func (c *Client) put(key string, res *Resource) {
	if _, ok := c.cache[key]; ok {
		c.cache[key] = res
		return
	}
	for len(c.cache) >= c.maxEntries {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.cache, oldest)
	}
	c.cache[key] = res
	c.order = append(c.order, key)
}

// FromBytes wraps an in-memory payload as a Resource.
func FromBytes(url, contentType string, body []byte) *Resource {
	return &Resource{URL: url, ContentType: contentType, Body: body}
}

// FromFile reads a local file as a Resource. The media type is left
// empty; the content resolver infers it from the file extension.
func FromFile(path string) (*Resource, error) {
	body, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	return &Resource{URL: path, Body: body}, nil
}

// Close releases idle connections.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}

// Package store orchestrates fetch and parse into cached Documents and
// resolves cross-document fragment references.
package store

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"

	"github.com/antchfx/xmlquery"

	"github.com/docspan/docspan/internal/document"
	"github.com/docspan/docspan/internal/fetch"
	"github.com/docspan/docspan/internal/markup"
)

// Store hands out one Document per URL. Holders are constructed only
// after a fetch fully resolves, so a cancelled fetch never leaves a
// partially built Document visible to other callers.
type Store struct {
	fetcher *fetch.Client
	log     *slog.Logger
	workers int
	maxDocs int

	mu    sync.Mutex
	docs  map[string]*document.Document
	order []string // cache keys, oldest first
}

func New(fetcher *fetch.Client, log *slog.Logger, workers, maxDocs int) *Store {
	if workers <= 0 {
		workers = 4
	}
	return &Store{
		fetcher: fetcher,
		log:     log,
		workers: workers,
		maxDocs: maxDocs,
		docs:    make(map[string]*document.Document),
	}
}

// Load fetches, parses, and caches the document at rawURL.
func (s *Store) Load(ctx context.Context, rawURL string) (*document.Document, error) {
	s.mu.Lock()
	if d, ok := s.docs[rawURL]; ok {
		s.mu.Unlock()
		return d, nil
	}
	s.mu.Unlock()

	res, err := s.fetcher.Fetch(ctx, rawURL)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", rawURL, err)
	}
	doc, err := markup.ParseResource(res)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", rawURL, err)
	}
	s.log.Debug("document loaded",
		"url", doc.URL,
		"content_type", doc.ContentType,
		"language", doc.Language,
	)

	s.mu.Lock()
	defer s.mu.Unlock()
	// Two callers may have raced the same URL; the first holder cached
	// wins so every caller shares one set of offset annotations.
	if d, ok := s.docs[rawURL]; ok {
		return d, nil
	}
	s.put(rawURL, doc)
	if doc.URL != rawURL {
		s.put(doc.URL, doc)
	}
	return doc, nil
}

// put caches doc under key, evicting the oldest entries when full.
func (s *Store) put(key string, doc *document.Document) {
	if _, ok := s.docs[key]; ok {
		s.docs[key] = doc
		return
	}
	for s.maxDocs > 0 && len(s.docs) >= s.maxDocs {
		oldest := s.order[0]
		s.order = s.order[1:]
		delete(s.docs, oldest)
	}
	s.docs[key] = doc
	s.order = append(s.order, key)
}

// Resolve finds the element a "#id" or "url#id" reference points to,
// loading the referenced document relative to baseURL when needed. A
// reference without a fragment, or one whose element does not exist,
// resolves to a nil node without error.
func (s *Store) Resolve(ctx context.Context, ref, baseURL string) (*document.Document, *xmlquery.Node, error) {
	hash := strings.Index(ref, "#")
	if hash < 0 {
		return nil, nil, nil
	}

	target := baseURL
	if part := ref[:hash]; part != "" {
		base, err := url.Parse(baseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("resolve %s: bad base url: %w", ref, err)
		}
		rel, err := url.Parse(part)
		if err != nil {
			return nil, nil, fmt.Errorf("resolve %s: bad reference url: %w", ref, err)
		}
		target = base.ResolveReference(rel).String()
	}

	doc, err := s.Load(ctx, target)
	if err != nil {
		return nil, nil, err
	}
	return doc, doc.ElementByRef("#" + ref[hash+1:]), nil
}

// Prefetch warms the cache for a batch of URLs with a bounded worker
// pool. It returns the per-URL outcome; a nil error means the document
// is cached.
func (s *Store) Prefetch(ctx context.Context, urls []string) map[string]error {
	jobs := make(chan string)
	results := make(map[string]error, len(urls))

	var (
		wg       sync.WaitGroup
		resultMu sync.Mutex
	)
	for i := 0; i < s.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for u := range jobs {
				_, err := s.Load(ctx, u)
				resultMu.Lock()
				results[u] = err
				resultMu.Unlock()
				if err != nil {
					s.log.Warn("prefetch failed", "url", u, "error", err)
				}
			}
		}()
	}

	for _, u := range urls {
		select {
		case <-ctx.Done():
			resultMu.Lock()
			if _, ok := results[u]; !ok {
				results[u] = ctx.Err()
			}
			resultMu.Unlock()
		case jobs <- u:
		}
	}
	close(jobs)
	wg.Wait()

	return results
}

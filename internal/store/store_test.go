package store

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/docspan/docspan/internal/fetch"
)

func testServer() *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/doc.xml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/xml")
		w.Write([]byte(`<root><item id="foo">Hello</item><ref target="other.xml#bar"/></root>`))
	})
	mux.HandleFunc("/other.xml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/xml")
		w.Write([]byte(`<root><item xml:id="bar">World</item></root>`))
	})
	mux.HandleFunc("/third.xml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/xml")
		w.Write([]byte(`<root><item id="baz"/></root>`))
	})
	return httptest.NewServer(mux)
}

func testStore() *Store {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(fetch.NewClient(5*time.Second, 1<<20, 64), log, 2, 16)
}

func TestLoad_SharesOneHolderPerURL(t *testing.T) {
	srv := testServer()
	defer srv.Close()
	s := testStore()

	d1, err := s.Load(context.Background(), srv.URL+"/doc.xml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	d2, err := s.Load(context.Background(), srv.URL+"/doc.xml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d1 != d2 {
		t.Error("expected the same holder for repeated loads")
	}
	if d1.ContentType != "application/xml" {
		t.Errorf("expected application/xml, got %q", d1.ContentType)
	}
}

func TestResolve_SameDocument(t *testing.T) {
	srv := testServer()
	defer srv.Close()
	s := testStore()

	base := srv.URL + "/doc.xml"
	doc, node, err := s.Resolve(context.Background(), "#foo", base)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc == nil || doc.URL != base {
		t.Fatalf("expected base document, got %+v", doc)
	}
	if node == nil || node.Data != "item" {
		t.Fatalf("expected item element, got %v", node)
	}
}

func TestResolve_CrossDocument(t *testing.T) {
	srv := testServer()
	defer srv.Close()
	s := testStore()

	base := srv.URL + "/doc.xml"
	doc, node, err := s.Resolve(context.Background(), "other.xml#bar", base)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc == nil || doc.URL != srv.URL+"/other.xml" {
		t.Fatalf("expected other.xml to be loaded, got %+v", doc)
	}
	if node == nil || node.Data != "item" {
		t.Fatalf("expected item element via xml:id, got %v", node)
	}
}

func TestResolve_MissesAreData(t *testing.T) {
	srv := testServer()
	defer srv.Close()
	s := testStore()
	base := srv.URL + "/doc.xml"

	// No fragment at all.
	if _, node, err := s.Resolve(context.Background(), "doc.xml", base); err != nil || node != nil {
		t.Errorf("fragmentless reference: expected nil/nil, got %v/%v", node, err)
	}
	// Fragment that does not exist.
	if _, node, err := s.Resolve(context.Background(), "#nope", base); err != nil || node != nil {
		t.Errorf("unknown fragment: expected nil node without error, got %v/%v", node, err)
	}
}

func TestLoad_EvictsOldestFirst(t *testing.T) {
	srv := testServer()
	defer srv.Close()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	s := New(fetch.NewClient(5*time.Second, 1<<20, 64), log, 2, 2)

	first, err := s.Load(context.Background(), srv.URL+"/doc.xml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := s.Load(context.Background(), srv.URL+"/other.xml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := s.Load(context.Background(), srv.URL+"/third.xml"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// The newer document survives the eviction.
	again, err := s.Load(context.Background(), srv.URL+"/other.xml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if again != second {
		t.Error("expected other.xml to still be cached")
	}
	// The oldest was evicted and gets a fresh holder on reload.
	reloaded, err := s.Load(context.Background(), srv.URL+"/doc.xml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reloaded == first {
		t.Error("expected doc.xml to have been evicted first")
	}
}

func TestPrefetch(t *testing.T) {
	srv := testServer()
	defer srv.Close()
	s := testStore()

	urls := []string{
		srv.URL + "/doc.xml",
		srv.URL + "/other.xml",
		srv.URL + "/missing.xml",
	}
	results := s.Prefetch(context.Background(), urls)
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	if results[urls[0]] != nil || results[urls[1]] != nil {
		t.Errorf("expected successful prefetches, got %v", results)
	}
	if results[urls[2]] == nil {
		t.Error("expected error for missing document")
	}

	// Both good documents are now served from cache.
	d, err := s.Load(context.Background(), urls[1])
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.ElementByRef("#bar") == nil {
		t.Error("expected xml:id lookup on prefetched document")
	}
}

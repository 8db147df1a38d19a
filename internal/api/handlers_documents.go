package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/antchfx/xmlquery"

	"github.com/docspan/docspan/internal/markup"
)

type loadRequest struct {
	URL string `json:"url"`
}

type batchRequest struct {
	URLs []string `json:"urls"`
}

func (s *Server) handleLoadDocument(w http.ResponseWriter, r *http.Request) {
	var req loadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.URL == "" {
		jsonError(w, "url is required", http.StatusBadRequest)
		return
	}

	doc, err := s.store.Load(r.Context(), req.URL)
	if err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, markup.ErrUnparsable) {
			status = http.StatusUnprocessableEntity
		}
		jsonError(w, err.Error(), status)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"url":          doc.URL,
		"content_type": doc.ContentType,
		"language":     doc.Language,
		"total_offset": doc.TotalOffset(),
	})
}

func (s *Server) handleBatchLoad(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.URLs) == 0 {
		jsonError(w, "at least one url is required", http.StatusBadRequest)
		return
	}

	outcome := s.store.Prefetch(r.Context(), req.URLs)

	var results []map[string]any
	for _, u := range req.URLs {
		entry := map[string]any{"url": u}
		if err := outcome[u]; err != nil {
			entry["error"] = err.Error()
		}
		results = append(results, entry)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"documents": results})
}

// handleElement resolves a fragment reference to an element and reports
// its offset.
func (s *Server) handleElement(w http.ResponseWriter, r *http.Request) {
	docURL := r.URL.Query().Get("url")
	ref := r.URL.Query().Get("ref")
	if docURL == "" || ref == "" {
		jsonError(w, "url and ref query parameters are required", http.StatusBadRequest)
		return
	}

	doc, node, err := s.store.Resolve(r.Context(), ref, docURL)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadGateway)
		return
	}
	if node == nil {
		jsonError(w, "reference not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"url":    doc.URL,
		"tag":    node.Data,
		"offset": doc.ElementOffset(node),
	})
}

// handleNodeAtOffset does the floor lookup: the node at a given offset.
func (s *Server) handleNodeAtOffset(w http.ResponseWriter, r *http.Request) {
	docURL := r.URL.Query().Get("url")
	if docURL == "" {
		jsonError(w, "url query parameter is required", http.StatusBadRequest)
		return
	}
	offset, err := strconv.Atoi(r.URL.Query().Get("offset"))
	if err != nil || offset < 0 {
		jsonError(w, "offset must be a non-negative integer", http.StatusBadRequest)
		return
	}

	doc, err := s.store.Load(r.Context(), docURL)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadGateway)
		return
	}

	node := doc.NodeByOffset(offset)
	resp := map[string]any{
		"url":    doc.URL,
		"offset": doc.NodeOffset(node, 0, false),
	}
	if node.Type == xmlquery.ElementNode {
		resp["kind"] = "element"
		resp["tag"] = node.Data
	} else {
		resp["kind"] = "text"
		resp["text"] = snippet(node.Data, 80)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func snippet(s string, max int) string {
	s = strings.TrimSpace(s)
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

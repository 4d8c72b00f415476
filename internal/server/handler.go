// Package server exposes the content-intelligence service over HTTP.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/thetaroot/blog-luistravels-website-sub000/internal/intel"
	"github.com/thetaroot/blog-luistravels-website-sub000/internal/search"
	"github.com/thetaroot/blog-luistravels-website-sub000/pkg/errors"
	"github.com/thetaroot/blog-luistravels-website-sub000/pkg/logger"
)

// Handler serves the search, recommendation, cluster, and link endpoints.
type Handler struct {
	service      *intel.Service
	defaultLimit int
	maxResults   int
	logger       *slog.Logger
}

// New creates a Handler for the given service.
func New(service *intel.Service, defaultLimit, maxResults int) *Handler {
	return &Handler{
		service:      service,
		defaultLimit: defaultLimit,
		maxResults:   maxResults,
		logger:       slog.Default().With("component", "http-handler"),
	}
}

// Search handles GET /search.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()
	log := logger.FromContext(ctx)

	req, err := h.parseSearchRequest(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	results, cacheHit, err := h.service.Search(ctx, req)
	if err != nil {
		log.Error("search failed", "query", req.Query, "error", err)
		h.writeError(w, err)
		return
	}

	log.Info("search completed",
		"query", req.Query,
		"returned", len(results),
		"cache_hit", cacheHit,
		"latency_ms", time.Since(start).Milliseconds(),
	)
	h.writeJSON(w, http.StatusOK, map[string]any{
		"query":   req.Query,
		"results": results,
	})
}

// Recommendations handles GET /recommendations/{id}.
func (h *Handler) Recommendations(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	docID := r.PathValue("id")
	if docID == "" {
		h.writeError(w, errors.New(errors.ErrInvalidInput, http.StatusBadRequest, "document id is required"))
		return
	}
	count := h.defaultLimit
	if v := r.URL.Query().Get("count"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 {
			h.writeError(w, errors.New(errors.ErrInvalidInput, http.StatusBadRequest, "count must be a positive integer"))
			return
		}
		if parsed > h.maxResults {
			parsed = h.maxResults
		}
		count = parsed
	}

	recs, err := h.service.Recommend(ctx, docID, count)
	if err != nil {
		logger.FromContext(ctx).Error("recommendation failed", "document", docID, "error", err)
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"documentId":      docID,
		"recommendations": recs,
	})
}

// Clusters handles GET /clusters.
func (h *Handler) Clusters(w http.ResponseWriter, r *http.Request) {
	clusters, err := h.service.Clusters()
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"clusters": clusters})
}

// Links handles GET /links.
func (h *Handler) Links(w http.ResponseWriter, r *http.Request) {
	links, err := h.service.Links()
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"links": links})
}

// Reindex handles POST /reindex: it triggers an asynchronous rebuild.
func (h *Handler) Reindex(w http.ResponseWriter, r *http.Request) {
	// Detached from the request context: the rebuild outlives the HTTP
	// request that triggered it.
	ctx := context.WithoutCancel(r.Context())
	go func() {
		if err := h.service.Rebuild(ctx); err != nil {
			h.logger.Error("triggered rebuild failed", "error", err)
		}
	}()
	h.writeJSON(w, http.StatusAccepted, map[string]string{"status": "rebuild started"})
}

// CacheStats handles GET /cache/stats.
func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	hits, misses, enabled := h.service.CacheStats()
	if !enabled {
		h.writeJSON(w, http.StatusOK, map[string]string{"status": "disabled"})
		return
	}
	total := hits + misses
	var hitRate float64
	if total > 0 {
		hitRate = float64(hits) / float64(total) * 100
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"hits":     hits,
		"misses":   misses,
		"total":    total,
		"hit_rate": fmt.Sprintf("%.1f%%", hitRate),
	})
}

func (h *Handler) parseSearchRequest(r *http.Request) (search.Request, error) {
	q := r.URL.Query()
	req := search.Request{
		Query: q.Get("q"),
		Sort:  search.SortRelevance,
		Limit: h.defaultLimit,
	}
	if v := q.Get("sort"); v != "" {
		switch search.Sort(v) {
		case search.SortRelevance, search.SortDate, search.SortPopularity, search.SortReadingTime:
			req.Sort = search.Sort(v)
		default:
			return req, errors.Newf(errors.ErrInvalidInput, http.StatusBadRequest, "unknown sort %q", v)
		}
	}
	if v := q.Get("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 {
			return req, errors.New(errors.ErrInvalidInput, http.StatusBadRequest, "limit must be a positive integer")
		}
		if parsed > h.maxResults {
			parsed = h.maxResults
		}
		req.Limit = parsed
	}
	req.Filters.Language = q.Get("language")
	if v := q.Get("categories"); v != "" {
		req.Filters.Categories = strings.Split(v, ",")
	}
	if v := q.Get("tags"); v != "" {
		req.Filters.Tags = strings.Split(v, ",")
	}
	req.Filters.Location = q.Get("location")
	if v := q.Get("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return req, errors.Newf(errors.ErrInvalidInput, http.StatusBadRequest, "from must be RFC3339, got %q", v)
		}
		req.Filters.PublishedAfter = t
	}
	if v := q.Get("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return req, errors.Newf(errors.ErrInvalidInput, http.StatusBadRequest, "to must be RFC3339, got %q", v)
		}
		req.Filters.PublishedBefore = t
	}
	if v := q.Get("minReadingTime"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 0 {
			return req, errors.New(errors.ErrInvalidInput, http.StatusBadRequest, "minReadingTime must be a non-negative integer")
		}
		req.Filters.MinReadingTime = parsed
	}
	if v := q.Get("maxReadingTime"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 0 {
			return req, errors.New(errors.ErrInvalidInput, http.StatusBadRequest, "maxReadingTime must be a non-negative integer")
		}
		req.Filters.MaxReadingTime = parsed
	}
	return req, nil
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("writing response failed", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status := errors.HTTPStatusCode(err)
	h.writeJSON(w, status, map[string]string{"error": err.Error()})
}

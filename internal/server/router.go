package server

import (
	"net/http"
	"time"

	"github.com/thetaroot/blog-luistravels-website-sub000/pkg/health"
	"github.com/thetaroot/blog-luistravels-website-sub000/pkg/metrics"
	"github.com/thetaroot/blog-luistravels-website-sub000/pkg/middleware"
)

// NewRouter builds the HTTP mux with request-ID, metrics, and timeout
// middleware applied to every route.
func NewRouter(h *Handler, checker *health.Checker, m *metrics.Metrics, requestTimeout time.Duration) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /search", h.Search)
	mux.HandleFunc("GET /recommendations/{id}", h.Recommendations)
	mux.HandleFunc("GET /clusters", h.Clusters)
	mux.HandleFunc("GET /links", h.Links)
	mux.HandleFunc("POST /reindex", h.Reindex)
	mux.HandleFunc("GET /cache/stats", h.CacheStats)
	mux.HandleFunc("GET /healthz", checker.LiveHandler())
	mux.HandleFunc("GET /readyz", checker.ReadyHandler())

	var handler http.Handler = mux
	if requestTimeout > 0 {
		handler = middleware.Timeout(requestTimeout)(handler)
	}
	if m != nil {
		handler = middleware.Metrics(m)(handler)
	}
	handler = middleware.RequestID()(handler)
	return handler
}

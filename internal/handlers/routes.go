package handlers

import (
	"net/http"

	"github.com/Brownie44l1/trash-api/internal/metrics"
)

// NewRouter wires the API routes and the CORS, logging, metrics and panic
// recovery middleware.
func NewRouter(h *Handler, m *metrics.Metrics) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", h.Health)
	mux.HandleFunc("POST /classify", h.Classify)
	mux.HandleFunc("GET /classes", h.Classes)
	mux.Handle("GET /metrics", m.Handler())

	routes := map[string]bool{
		"/health":   true,
		"/classify": true,
		"/classes":  true,
		"/metrics":  true,
	}
	return instrument(m, routes, enableCORS(recoverPanics(mux)))
}

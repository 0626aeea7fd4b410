package handlers

import (
	"net/http"

	"github.com/ideaboard/ideaboard/internal/api"
)

// Version is the reported application version.
const Version = "1.0.0"

// HTTPHandler handles non-API HTTP endpoints
type HTTPHandler struct{}

// NewHTTPHandler creates a new HTTP handler
func NewHTTPHandler() *HTTPHandler {
	return &HTTPHandler{}
}

// SetupRoutes configures all HTTP routes
func (h *HTTPHandler) SetupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", h.handleHealth)
}

// handleHealth returns a simple health check response
func (h *HTTPHandler) handleHealth(w http.ResponseWriter, r *http.Request) {
	api.RespondJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": Version,
	})
}

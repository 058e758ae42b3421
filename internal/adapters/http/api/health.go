package api

import (
	"net/http"
)

// HealthHandler answers liveness checks.
type HealthHandler struct {
	body []byte
}

// NewHealthHandler creates a health handler serving body.
func NewHealthHandler(body []byte) *HealthHandler {
	return &HealthHandler{body: body}
}

// HandleHealth handles GET /health with the compact health document.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	writeBody(w, http.StatusOK, h.body)
}

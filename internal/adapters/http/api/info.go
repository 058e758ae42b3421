package api

import (
	"net/http"
)

// InfoHandler serves the platform description.
type InfoHandler struct {
	body []byte
}

// NewInfoHandler creates an info handler serving body.
func NewInfoHandler(body []byte) *InfoHandler {
	return &InfoHandler{body: body}
}

// HandleInfo handles GET /api/info.
func (h *InfoHandler) HandleInfo(w http.ResponseWriter, _ *http.Request) {
	writeBody(w, http.StatusOK, h.body)
}

package api

import (
	"net/http"
)

// CatalogHandler serves the service and template catalog.
type CatalogHandler struct {
	body []byte
}

// NewCatalogHandler creates a catalog handler serving body.
func NewCatalogHandler(body []byte) *CatalogHandler {
	return &CatalogHandler{body: body}
}

// HandleCatalog handles GET /api/catalog.
func (h *CatalogHandler) HandleCatalog(w http.ResponseWriter, _ *http.Request) {
	writeBody(w, http.StatusOK, h.body)
}

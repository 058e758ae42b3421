package api

import (
	"net/http"

	"github.com/cnoe-io/platform-api-gateway/internal/domain/platform"
	"github.com/cnoe-io/platform-api-gateway/pkg/logger"
)

// ErrorHandler answers the 404 fallback and the 405 method policy. Both
// bodies echo the request path.
type ErrorHandler struct {
	logger logger.Logger
}

// NewErrorHandler creates the handler. l may be nil.
func NewErrorHandler(l logger.Logger) *ErrorHandler {
	return &ErrorHandler{logger: l}
}

// HandleNotFound answers 404 with {"error": "Not Found", "path": <P>}.
func (h *ErrorHandler) HandleNotFound(w http.ResponseWriter, r *http.Request) {
	h.writeError(w, r, http.StatusNotFound, platform.NotFound(echoPath(r)))
}

// MethodGuard answers 405 for every method except GET, on known and unknown
// paths alike.
func (h *ErrorHandler) MethodGuard(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.Header().Set("Allow", http.MethodGet)
			h.writeError(w, r, http.StatusMethodNotAllowed, platform.MethodNotAllowed(echoPath(r)))
			return
		}
		next(w, r)
	}
}

// echoPath is the request path as it appears in error bodies: raw bytes read
// as ISO-8859-1, so bytes outside ASCII come back as \u00XX escapes.
func echoPath(r *http.Request) string {
	return platform.DecodePath(requestPath(r))
}

func (h *ErrorHandler) writeError(w http.ResponseWriter, r *http.Request, status int, doc platform.ErrorDocument) {
	body, err := platform.Compact(doc)
	if err != nil {
		// Unreachable for string fields.
		if h.logger != nil {
			h.logger.Error(r.Context(), "render error document", logger.Error(err), logger.String("path", doc.Path))
		}
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	writeBody(w, status, body)
}

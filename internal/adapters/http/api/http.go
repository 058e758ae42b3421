// Package api serves the gateway's public routing table.
package api

import (
	"net/http"
	"strings"

	"github.com/cnoe-io/platform-api-gateway/internal/domain/platform"
	"github.com/cnoe-io/platform-api-gateway/pkg/logger"
)

// Public routes.
const (
	PathHealth  = "/health"
	PathInfo    = "/api/info"
	PathCatalog = "/api/catalog"
)

// Endpoint labels used for metrics and logs. Unknown paths share one label so
// arbitrary request paths never create new series.
const (
	EndpointHealth   = "health"
	EndpointInfo     = "info"
	EndpointCatalog  = "catalog"
	EndpointNotFound = "not_found"
)

const contentTypeJSON = "application/json"

// Server dispatches requests by exact match on the escaped request path.
// It does not clean paths or redirect; anything outside the table is a 404.
type Server struct {
	healthHandler   *HealthHandler
	infoHandler     *InfoHandler
	catalogHandler  *CatalogHandler
	errorHandler    *ErrorHandler

	routes   map[string]http.Handler
	fallback http.Handler
	logger   logger.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithLogger enables request ids and access logging through l.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewServer renders the constant bodies and builds the routing table.
func NewServer(opts ...Option) *Server {
	bodies := platform.MustRender()
	s := &Server{
		healthHandler:  NewHealthHandler(bodies.Health),
		infoHandler:    NewInfoHandler(bodies.Info),
		catalogHandler: NewCatalogHandler(bodies.Catalog),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.errorHandler = NewErrorHandler(s.logger)

	s.routes = map[string]http.Handler{
		PathHealth:  s.route(EndpointHealth, s.healthHandler.HandleHealth),
		PathInfo:    s.route(EndpointInfo, s.infoHandler.HandleInfo),
		PathCatalog: s.route(EndpointCatalog, s.catalogHandler.HandleCatalog),
	}
	s.fallback = s.route(EndpointNotFound, s.errorHandler.HandleNotFound)
	return s
}

// route applies the method policy and metrics to a handler.
func (s *Server) route(endpoint string, h http.HandlerFunc) http.Handler {
	return MetricsMiddleware(s.errorHandler.MethodGuard(h), endpoint)
}

// Handler returns the router wrapped with request id and access logging.
func (s *Server) Handler() http.Handler {
	if s.logger == nil {
		return s
	}
	return RequestIDMiddleware(AccessLogMiddleware(s, s.logger))
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h, ok := s.routes[requestPath(r)]; ok {
		h.ServeHTTP(w, r)
		return
	}
	s.fallback.ServeHTTP(w, r)
}

// Routes lists the exact paths the router answers with 200.
func (s *Server) Routes() []string {
	return []string{PathHealth, PathInfo, PathCatalog}
}

// requestPath returns the path as sent on the wire: still percent-encoded,
// query string and fragment excluded. Requests built in-process carry no
// RequestURI and fall back to the parsed URL.
func requestPath(r *http.Request) string {
	if uri := r.RequestURI; strings.HasPrefix(uri, "/") {
		if i := strings.IndexAny(uri, "?#"); i >= 0 {
			uri = uri[:i]
		}
		return uri
	}
	if r.URL == nil {
		return ""
	}
	return r.URL.EscapedPath()
}

func writeBody(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

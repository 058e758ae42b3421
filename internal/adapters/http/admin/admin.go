// Package admin serves operational endpoints on a listener separate from the
// public routing table.
package admin

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Routes:
//
//	GET /metrics       -> Prometheus exposition
//	GET /openapi.yaml  -> embedded OpenAPI description of the public routes
const (
	PathMetrics = "/metrics"
	PathOpenAPI = "/openapi.yaml"
)

// Register attaches the admin routes to mux, exposing metrics from gatherer.
func Register(_ context.Context, mux *http.ServeMux, gatherer prometheus.Gatherer) {
	if mux == nil {
		panic("mux is nil")
	}
	if gatherer == nil {
		panic("gatherer is nil")
	}

	mux.Handle("GET "+PathMetrics, promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	mux.HandleFunc("GET "+PathOpenAPI, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/yaml; charset=utf-8")
		_, _ = w.Write(OpenAPI)
	})
}

// NewHandler returns a mux with the admin routes registered.
func NewHandler(ctx context.Context, gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	Register(ctx, mux, gatherer)
	return mux
}

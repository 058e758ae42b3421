package probe

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/cnoe-io/platform-api-gateway/internal/domain/platform"
)

const contentTypeJSON = "application/json"

// Case is one request the probe sends together with the exact response it
// expects back.
type Case struct {
	Name      string
	Method    string
	Target    string // path plus optional query, sent verbatim
	Status    int
	Body      []byte
	AllowHint string // expected Allow header, empty when none is required
}

// DefaultCases builds the contract cases from the gateway's own documents.
func DefaultCases() ([]Case, error) {
	bodies, err := platform.Render()
	if err != nil {
		return nil, err
	}
	notFound, err := platform.Compact(platform.NotFound("/does-not-exist"))
	if err != nil {
		return nil, err
	}
	notAllowed, err := platform.Compact(platform.MethodNotAllowed("/health"))
	if err != nil {
		return nil, err
	}

	return []Case{
		{Name: "health", Method: http.MethodGet, Target: "/health", Status: http.StatusOK, Body: bodies.Health},
		{Name: "info", Method: http.MethodGet, Target: "/api/info", Status: http.StatusOK, Body: bodies.Info},
		{Name: "catalog", Method: http.MethodGet, Target: "/api/catalog", Status: http.StatusOK, Body: bodies.Catalog},
		{Name: "health_query", Method: http.MethodGet, Target: "/health?x=1", Status: http.StatusOK, Body: bodies.Health},
		{Name: "not_found", Method: http.MethodGet, Target: "/does-not-exist?q=1", Status: http.StatusNotFound, Body: notFound},
		{
			Name: "method_not_allowed", Method: http.MethodPost, Target: "/health",
			Status: http.StatusMethodNotAllowed, Body: notAllowed, AllowHint: http.MethodGet,
		},
	}, nil
}

// check compares a response against the case.
func (c Case) check(r *response) error {
	if r.status != c.Status {
		return fmt.Errorf("status %d, want %d", r.status, c.Status)
	}
	if r.contentType != contentTypeJSON {
		return fmt.Errorf("content type %q, want %q", r.contentType, contentTypeJSON)
	}
	if c.AllowHint != "" && r.allow != c.AllowHint {
		return fmt.Errorf("allow header %q, want %q", r.allow, c.AllowHint)
	}
	if !bytes.Equal(r.body, c.Body) {
		return fmt.Errorf("body %q, want %q", r.body, c.Body)
	}
	return nil
}

// Package platform holds the fixed documents the gateway serves.
//
// Every document is built once at package initialization. Accessors return
// copies so no caller can alter what later requests observe.
package platform

// Service identity reported by the health document.
const (
	ServiceName    = "cnoe-platform-api"
	ServiceVersion = "1.0.0"
	HealthStatus   = "healthy"
)

// Error messages carried by ErrorDocument.
const (
	MsgNotFound         = "Not Found"
	MsgMethodNotAllowed = "Method Not Allowed"
)

// HealthDocument is the liveness payload.
type HealthDocument struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Version string `json:"version"`
}

// InfoDocument describes the platform and where its parts live.
type InfoDocument struct {
	Platform   string     `json:"platform"`
	Components Components `json:"components"`
	Endpoints  Endpoints  `json:"endpoints"`
}

// Components names the building blocks of the platform.
type Components struct {
	ArgoCD     string `json:"argocd"`
	Backstage  string `json:"backstage"`
	Kubernetes string `json:"kubernetes"`
}

// Endpoints lists the user-facing URLs.
type Endpoints struct {
	API    string `json:"api"`
	Portal string `json:"portal"`
	Docs   string `json:"docs"`
}

// CatalogDocument lists example services and project templates.
type CatalogDocument struct {
	Services  []Service  `json:"services"`
	Templates []Template `json:"templates"`
}

// Service is a catalog entry for a deployed application.
type Service struct {
	Name       string `json:"name"`
	Type       string `json:"type"`
	Status     string `json:"status"`
	Repository string `json:"repository"`
}

// Template is a catalog entry for a project scaffold.
type Template struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Language    string `json:"language"`
}

// ErrorDocument is returned for requests outside the routing table.
type ErrorDocument struct {
	Error string `json:"error"`
	Path  string `json:"path"`
}

var health = HealthDocument{
	Status:  HealthStatus,
	Service: ServiceName,
	Version: ServiceVersion,
}

var info = InfoDocument{
	Platform: "CNOE Internal Developer Portal",
	Components: Components{
		ArgoCD:     "GitOps Continuous Delivery",
		Backstage:  "Developer Portal (Infrastructure Ready)",
		Kubernetes: "Container Orchestration",
	},
	Endpoints: Endpoints{
		API:    "http://localhost:8080",
		Portal: "http://localhost:8081",
		Docs:   "http://localhost:8082",
	},
}

var catalog = CatalogDocument{
	Services: []Service{
		{
			Name:       "sample-app",
			Type:       "application",
			Status:     "active",
			Repository: "https://github.com/your-org/sample-app",
		},
	},
	Templates: []Template{
		{
			Name:        "nodejs-service",
			Description: "Node.js microservice template",
			Language:    "javascript",
		},
		{
			Name:        "python-api",
			Description: "Python FastAPI template",
			Language:    "python",
		},
	},
}

// Health returns the health document.
func Health() HealthDocument { return health }

// Info returns the platform info document.
func Info() InfoDocument { return info }

// Catalog returns a copy of the catalog document.
func Catalog() CatalogDocument {
	return CatalogDocument{
		Services:  append([]Service(nil), catalog.Services...),
		Templates: append([]Template(nil), catalog.Templates...),
	}
}

// NotFound builds the error document for an unknown path.
func NotFound(path string) ErrorDocument {
	return ErrorDocument{Error: MsgNotFound, Path: path}
}

// MethodNotAllowed builds the error document for a non-GET request.
func MethodNotAllowed(path string) ErrorDocument {
	return ErrorDocument{Error: MsgMethodNotAllowed, Path: path}
}

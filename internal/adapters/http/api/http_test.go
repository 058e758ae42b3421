package api_test

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	dto "github.com/prometheus/client_model/go"

	"github.com/cnoe-io/platform-api-gateway/internal/adapters/http/api"
	"github.com/cnoe-io/platform-api-gateway/pkg/logger"
	"github.com/cnoe-io/platform-api-gateway/pkg/metrics"
	. "github.com/smartystreets/goconvey/convey"
)

const wantHealth = `{"status": "healthy", "service": "cnoe-platform-api", "version": "1.0.0"}`

func serve(h http.Handler, method, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, http.NoBody)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestServer_Routes(t *testing.T) {
	Convey("Given a new API server", t, func() {
		server := api.NewServer()

		Convey("When requesting /health", func() {
			w := serve(server, http.MethodGet, "/health")

			Convey("Then it should return the compact health document", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Header().Get("Content-Type"), ShouldEqual, "application/json")
				So(w.Body.String(), ShouldEqual, wantHealth)

				var doc map[string]string
				So(json.Unmarshal(w.Body.Bytes(), &doc), ShouldBeNil)
				So(doc["status"], ShouldEqual, "healthy")
				So(doc["service"], ShouldEqual, "cnoe-platform-api")
				So(doc["version"], ShouldEqual, "1.0.0")
			})
		})

		Convey("When requesting /api/info", func() {
			w := serve(server, http.MethodGet, "/api/info")

			Convey("Then it should return the indented info document", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Header().Get("Content-Type"), ShouldEqual, "application/json")
				So(w.Body.String(), ShouldStartWith, "{\n  \"platform\": \"CNOE Internal Developer Portal\",\n  \"components\": {\n    \"argocd\"")

				var doc struct {
					Platform   string            `json:"platform"`
					Components map[string]string `json:"components"`
					Endpoints  map[string]string `json:"endpoints"`
				}
				So(json.Unmarshal(w.Body.Bytes(), &doc), ShouldBeNil)
				So(doc.Platform, ShouldEqual, "CNOE Internal Developer Portal")
				So(doc.Components, ShouldResemble, map[string]string{
					"argocd":     "GitOps Continuous Delivery",
					"backstage":  "Developer Portal (Infrastructure Ready)",
					"kubernetes": "Container Orchestration",
				})
				So(doc.Endpoints, ShouldResemble, map[string]string{
					"api":    "http://localhost:8080",
					"portal": "http://localhost:8081",
					"docs":   "http://localhost:8082",
				})
			})
		})

		Convey("When requesting /api/catalog", func() {
			w := serve(server, http.MethodGet, "/api/catalog")

			Convey("Then it should return the indented catalog document", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Header().Get("Content-Type"), ShouldEqual, "application/json")
				So(w.Body.String(), ShouldStartWith, "{\n  \"services\": [\n    {\n      \"name\": \"sample-app\"")
				So(w.Body.String(), ShouldNotEndWith, "\n")

				var doc struct {
					Services  []map[string]string `json:"services"`
					Templates []map[string]string `json:"templates"`
				}
				So(json.Unmarshal(w.Body.Bytes(), &doc), ShouldBeNil)
				So(doc.Services, ShouldHaveLength, 1)
				So(doc.Services[0], ShouldResemble, map[string]string{
					"name":       "sample-app",
					"type":       "application",
					"status":     "active",
					"repository": "https://github.com/your-org/sample-app",
				})
				So(doc.Templates, ShouldHaveLength, 2)
				So(doc.Templates[0]["name"], ShouldEqual, "nodejs-service")
				So(doc.Templates[0]["language"], ShouldEqual, "javascript")
				So(doc.Templates[1]["name"], ShouldEqual, "python-api")
				So(doc.Templates[1]["description"], ShouldEqual, "Python FastAPI template")
				So(doc.Templates[1]["language"], ShouldEqual, "python")
			})
		})

		Convey("When a query string is attached", func() {
			plain := serve(server, http.MethodGet, "/health")
			withQuery := serve(server, http.MethodGet, "/health?x=1&verbose")
			catalog := serve(server, http.MethodGet, "/api/catalog?page=2")

			Convey("Then it should not affect route matching", func() {
				So(withQuery.Code, ShouldEqual, http.StatusOK)
				So(withQuery.Body.String(), ShouldEqual, plain.Body.String())
				So(catalog.Code, ShouldEqual, http.StatusOK)
			})
		})

		Convey("Then Routes should list the three fixed paths", func() {
			So(server.Routes(), ShouldResemble, []string{"/health", "/api/info", "/api/catalog"})
		})
	})
}

func TestServer_NotFound(t *testing.T) {
	Convey("Given a new API server", t, func() {
		server := api.NewServer()

		cases := []struct {
			target string
			path   string
		}{
			{"/", "/"},
			{"/healthz", "/healthz"},
			{"/health/", "/health/"},
			{"//health", "//health"},
			{"/API/INFO", "/API/INFO"},
			{"/api/info/", "/api/info/"},
			{"/api", "/api"},
			{"/heal%74h", "/heal%74h"},
			{"/a/../health", "/a/../health"},
			{"/a%20b?c=d", "/a%20b"},
			{"/x&y<z>", "/x&y<z>"},
			{"/caf%C3%A9", "/caf%C3%A9"},
		}

		for _, tc := range cases {
			Convey("When requesting "+tc.target, func() {
				w := serve(server, http.MethodGet, tc.target)

				Convey("Then it should return 404 echoing the raw path", func() {
					So(w.Code, ShouldEqual, http.StatusNotFound)
					So(w.Header().Get("Content-Type"), ShouldEqual, "application/json")
					So(w.Header().Get("Location"), ShouldBeEmpty)
					So(w.Body.String(), ShouldEqual, `{"error": "Not Found", "path": "`+tc.path+`"}`)
				})
			})
		}

		Convey("When the same unknown path is requested twice", func() {
			first := serve(server, http.MethodGet, "/does/not/exist")
			second := serve(server, http.MethodGet, "/does/not/exist")

			Convey("Then the responses should be byte-identical", func() {
				So(first.Code, ShouldEqual, second.Code)
				So(bytes.Equal(first.Body.Bytes(), second.Body.Bytes()), ShouldBeTrue)
			})
		})
	})
}

func TestServer_MethodPolicy(t *testing.T) {
	Convey("Given a new API server", t, func() {
		server := api.NewServer()

		for _, method := range []string{http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch, http.MethodHead, http.MethodOptions} {
			Convey("When sending "+method+" to a known route", func() {
				w := serve(server, method, "/health")

				Convey("Then it should return 405 with an Allow header", func() {
					So(w.Code, ShouldEqual, http.StatusMethodNotAllowed)
					So(w.Header().Get("Allow"), ShouldEqual, "GET")
					So(w.Header().Get("Content-Type"), ShouldEqual, "application/json")
					So(w.Body.String(), ShouldEqual, `{"error": "Method Not Allowed", "path": "/health"}`)
				})
			})
		}

		Convey("When sending POST to an unknown route", func() {
			w := serve(server, http.MethodPost, "/unknown")

			Convey("Then the method policy should apply before the 404", func() {
				So(w.Code, ShouldEqual, http.StatusMethodNotAllowed)
				So(w.Body.String(), ShouldEqual, `{"error": "Method Not Allowed", "path": "/unknown"}`)
			})
		})
	})
}

func TestServer_Handler(t *testing.T) {
	Convey("Given a server with a logger", t, func() {
		var buf bytes.Buffer
		So(logger.Init(logger.WithWriter(&buf)), ShouldBeNil)
		So(logger.SetLevelString("info"), ShouldBeNil)
		handler := api.NewServer(api.WithLogger(logger.Get())).Handler()

		Convey("When a request carries no request id", func() {
			w := serve(handler, http.MethodGet, "/api/info")

			Convey("Then a UUID should be minted and echoed", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				_, err := uuid.Parse(w.Header().Get(api.HeaderRequestID))
				So(err, ShouldBeNil)
			})

			Convey("And an access log line should be written", func() {
				out := buf.String()
				So(out, ShouldContainSubstring, "msg=request")
				So(out, ShouldContainSubstring, "path=/api/info")
				So(out, ShouldContainSubstring, "status=200")
				So(out, ShouldContainSubstring, "request_id="+w.Header().Get(api.HeaderRequestID))
			})
		})

		Convey("When a request carries a request id", func() {
			req := httptest.NewRequest(http.MethodGet, "/nope", http.NoBody)
			req.Header.Set(api.HeaderRequestID, "abc-123")
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			Convey("Then it should be echoed and logged with the 404", func() {
				So(w.Code, ShouldEqual, http.StatusNotFound)
				So(w.Header().Get(api.HeaderRequestID), ShouldEqual, "abc-123")
				So(buf.String(), ShouldContainSubstring, "status=404")
				So(buf.String(), ShouldContainSubstring, "request_id=abc-123")
			})
		})

		Convey("When an inbound request id is oversized", func() {
			req := httptest.NewRequest(http.MethodGet, "/health", http.NoBody)
			req.Header.Set(api.HeaderRequestID, strings.Repeat("x", 500))
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			Convey("Then it should be replaced", func() {
				_, err := uuid.Parse(w.Header().Get(api.HeaderRequestID))
				So(err, ShouldBeNil)
			})
		})
	})

	Convey("Given a request built in-process without a RequestURI", t, func() {
		server := api.NewServer()
		req, err := http.NewRequest(http.MethodGet, "http://example.test/api/catalog?x=1", http.NoBody)
		So(err, ShouldBeNil)
		w := httptest.NewRecorder()
		server.ServeHTTP(w, req)

		Convey("Then routing should fall back to the parsed URL path", func() {
			So(w.Code, ShouldEqual, http.StatusOK)
		})
	})

	Convey("Given a server without a logger", t, func() {
		server := api.NewServer()

		Convey("Then Handler should be the bare router", func() {
			So(server.Handler(), ShouldEqual, server)
		})
	})
}

func TestServer_Metrics(t *testing.T) {
	Convey("Given a new API server", t, func() {
		server := api.NewServer()

		Convey("When serving a known route and an unknown path", func() {
			healthBefore := counterValue("http_requests_total", map[string]string{"endpoint": "health", "method": "GET", "status_code": "200"})
			missBefore := counterValue("errors_by_endpoint_total", map[string]string{"endpoint": "not_found", "method": "GET", "error_type": "not_found"})
			wrongBefore := counterValue("errors_by_type_total", map[string]string{"error_type": "method_not_allowed", "severity": "medium"})

			serve(server, http.MethodGet, "/health")
			serve(server, http.MethodGet, "/random-1")
			serve(server, http.MethodGet, "/random-2")
			serve(server, http.MethodPost, "/api/info")

			Convey("Then requests should be counted under fixed endpoint labels", func() {
				So(counterValue("http_requests_total", map[string]string{"endpoint": "health", "method": "GET", "status_code": "200"}), ShouldEqual, healthBefore+1)
				So(counterValue("errors_by_endpoint_total", map[string]string{"endpoint": "not_found", "method": "GET", "error_type": "not_found"}), ShouldEqual, missBefore+2)
				So(counterValue("errors_by_type_total", map[string]string{"error_type": "method_not_allowed", "severity": "medium"}), ShouldEqual, wrongBefore+1)
			})
		})
	})
}

func TestServer_MetricsMethodLabel(t *testing.T) {
	Convey("Given a new API server", t, func() {
		server := api.NewServer()
		otherLabels := map[string]string{"endpoint": "health", "method": "other", "status_code": "405"}
		before := counterValue("http_requests_total", otherLabels)

		Convey("When clients send made-up methods", func() {
			for i := 0; i < 20; i++ {
				w := serve(server, "BREW"+strconv.Itoa(i), "/health")
				So(w.Code, ShouldEqual, http.StatusMethodNotAllowed)
			}

			Convey("Then they should share a single series", func() {
				So(counterValue("http_requests_total", otherLabels), ShouldEqual, before+20)
				So(seriesWithLabelPrefix("http_requests_total", "method", "BREW"), ShouldEqual, 0)
				So(seriesWithLabelPrefix("http_request_duration_milliseconds", "method", "BREW"), ShouldEqual, 0)
				So(seriesWithLabelPrefix("errors_by_endpoint_total", "method", "BREW"), ShouldEqual, 0)
			})
		})

		Convey("When a standard method is sent", func() {
			serve(server, http.MethodDelete, "/health")

			Convey("Then it should keep its own label", func() {
				So(counterValue("http_requests_total", map[string]string{"endpoint": "health", "method": "DELETE", "status_code": "405"}), ShouldBeGreaterThan, 0)
			})
		})
	})
}

// seriesWithLabelPrefix counts series whose label starts with prefix.
func seriesWithLabelPrefix(suffix, label, prefix string) int {
	families, err := metrics.GetRegistry().Gather()
	if err != nil {
		panic(err)
	}
	n := 0
	for _, mf := range families {
		if !strings.HasSuffix(mf.GetName(), "_"+suffix) {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if lp.GetName() == label && strings.HasPrefix(lp.GetValue(), prefix) {
					n++
				}
			}
		}
	}
	return n
}

// rawGet writes a request line byte for byte, bypassing client-side URL
// validation, and returns the parsed response.
func rawGet(t *testing.T, addr, target string) (int, string) {
	t.Helper()
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(2 * time.Second))

	if _, err := io.WriteString(conn, "GET "+target+" HTTP/1.1\r\nHost: gateway\r\nConnection: close\r\n\r\n"); err != nil {
		t.Fatalf("write: %v", err)
	}
	resp, err := http.ReadResponse(bufio.NewReader(conn), nil)
	if err != nil {
		t.Fatalf("read response: %v", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp.StatusCode, string(body)
}

func TestServer_NonASCIIPath(t *testing.T) {
	Convey("Given a gateway listening on a real socket", t, func() {
		srv := httptest.NewServer(api.NewServer())
		defer srv.Close()
		addr := srv.Listener.Addr().String()

		Convey("Then raw UTF-8 bytes should be echoed one escape per byte", func() {
			code, body := rawGet(t, addr, "/caf\xc3\xa9")
			So(code, ShouldEqual, http.StatusNotFound)
			So(body, ShouldEqual, `{"error": "Not Found", "path": "/caf\u00c3\u00a9"}`)
		})

		Convey("Then invalid UTF-8 should be echoed, not replaced", func() {
			code, body := rawGet(t, addr, "/\xff")
			So(code, ShouldEqual, http.StatusNotFound)
			So(body, ShouldEqual, `{"error": "Not Found", "path": "/\u00ff"}`)

			_, body = rawGet(t, addr, "/\xff\xfe?q=1")
			So(body, ShouldEqual, `{"error": "Not Found", "path": "/\u00ff\u00fe"}`)
			So(body, ShouldNotContainSubstring, `\ufffd`)
		})
	})
}

// counterValue reads a counter from the shared registry by metric suffix and labels.
func counterValue(suffix string, labels map[string]string) float64 {
	families, err := metrics.GetRegistry().Gather()
	if err != nil {
		panic(err)
	}
	for _, mf := range families {
		if !strings.HasSuffix(mf.GetName(), "_"+suffix) {
			continue
		}
		for _, m := range mf.GetMetric() {
			if labelsMatch(m, labels) {
				return m.GetCounter().GetValue()
			}
		}
	}
	return 0
}

func labelsMatch(m *dto.Metric, labels map[string]string) bool {
	matched := 0
	for _, lp := range m.GetLabel() {
		if v, ok := labels[lp.GetName()]; ok {
			if v != lp.GetValue() {
				return false
			}
			matched++
		}
	}
	return matched == len(labels)
}

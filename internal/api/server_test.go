package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/nao1215/siteparser/internal/config"
	"github.com/nao1215/siteparser/internal/model"
)

// testServer returns the API handler over a fast test configuration.
func testServer() http.Handler {
	cfg := config.New()
	cfg.RequestTimeout = 2
	cfg.RetryTotal = 0
	cfg.MaxSeconds = 5
	return NewServer(cfg, nil).Handler()
}

// TestHealthEndpoint tests the liveness probe.
func TestHealthEndpoint(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	testServer().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("body = %v, want status ok", body)
	}
}

// TestMetricsEndpoint tests that Prometheus metrics are exposed.
func TestMetricsEndpoint(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	testServer().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

// TestParseEndpoint tests the crawl endpoint.
func TestParseEndpoint(t *testing.T) {
	t.Parallel()

	t.Run("crawls a site and returns its contacts", func(t *testing.T) {
		t.Parallel()

		site := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "text/html")
			fmt.Fprint(w, `<html><body><a href="mailto:info@a.test">mail</a></body></html>`)
		}))
		defer site.Close()

		payload, err := json.Marshal(map[string]any{"url": site.URL})
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/parse", bytes.NewReader(payload))
		testServer().ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
		}
		var result model.CrawlResult
		if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
			t.Fatalf("decode result: %v", err)
		}
		if len(result.Emails) != 1 || result.Emails[0] != "info@a.test" {
			t.Errorf("emails = %v, want [info@a.test]", result.Emails)
		}
	})

	t.Run("missing url is unprocessable", func(t *testing.T) {
		t.Parallel()

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/parse", strings.NewReader(`{}`))
		testServer().ServeHTTP(rec, req)

		if rec.Code != http.StatusUnprocessableEntity {
			t.Errorf("status = %d, want 422", rec.Code)
		}
	})

	t.Run("invalid JSON is a bad request", func(t *testing.T) {
		t.Parallel()

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/parse", strings.NewReader(`{not json`))
		testServer().ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("invalid start URL is a bad request", func(t *testing.T) {
		t.Parallel()

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/parse", strings.NewReader(`{"url":"javascript:void(0)"}`))
		testServer().ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("bad overrides are rejected before crawling", func(t *testing.T) {
		t.Parallel()

		body := `{"url":"http://a.test/","overrides":{"max_pages":0}}`
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/parse", strings.NewReader(body))
		testServer().ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "overrides") {
			t.Errorf("body = %s, want override error detail", rec.Body.String())
		}
	})

	t.Run("overrides shape the crawl", func(t *testing.T) {
		t.Parallel()

		var hits int
		site := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			hits++
			w.Header().Set("Content-Type", "text/html")
			fmt.Fprint(w, `<html><body><a href="/more">more</a></body></html>`)
		}))
		defer site.Close()

		body := fmt.Sprintf(`{"url":%q,"overrides":{"max_depth":0,"max_pages":1}}`, site.URL)
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/parse", strings.NewReader(body))
		testServer().ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
		}
		if hits != 1 {
			t.Errorf("site fetched %d times, want exactly 1", hits)
		}
	})
}

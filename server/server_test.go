package server

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/libredata/lql/source"
)

func testServer(t *testing.T) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	registry := source.NewRegistry()
	registry.Add(&source.Dataset{Slug: "numbers", Records: []source.Record{
		{Row: map[string]interface{}{"id": 1.0, "v": 5.0}},
		{Row: map[string]interface{}{"id": 2.0, "v": 7.0}},
		{Row: map[string]interface{}{"id": 3.0, "v": 5.0}},
	}})

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(registry, Options{Logger: logger})
}

func doGet(t *testing.T, s *Server, path string) (int, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	body, err := io.ReadAll(rec.Body)
	if err != nil {
		t.Fatalf("failed to read response body: %v", err)
	}
	var payload map[string]interface{}
	if err := json.Unmarshal(body, &payload); err != nil {
		t.Fatalf("invalid response JSON %q: %v", body, err)
	}
	return rec.Code, payload
}

func TestListSources(t *testing.T) {
	s := testServer(t)

	status, payload := doGet(t, s, "/sources")
	if status != http.StatusOK {
		t.Fatalf("status = %d, want 200", status)
	}
	sources, ok := payload["sources"].([]interface{})
	if !ok || len(sources) != 1 || sources[0] != "numbers" {
		t.Errorf("sources = %v, want [numbers]", payload["sources"])
	}
}

func TestQuerySource(t *testing.T) {
	s := testServer(t)

	t.Run("filtered rows", func(t *testing.T) {
		status, payload := doGet(t, s, "/sources/numbers/data?v=5")
		if status != http.StatusOK {
			t.Fatalf("status = %d, want 200, body %v", status, payload)
		}
		if payload["source"] != "numbers" || payload["redirected"] != false {
			t.Errorf("envelope = %v", payload)
		}
		rows, ok := payload["data"].([]interface{})
		if !ok || len(rows) != 2 {
			t.Fatalf("data = %v, want 2 rows", payload["data"])
		}
		first := rows[0].(map[string]interface{})
		if first["id"] != 1.0 {
			t.Errorf("first row = %v, want id 1", first)
		}
	})

	t.Run("aggregate", func(t *testing.T) {
		status, payload := doGet(t, s, "/sources/numbers/data?_aggregate=(t:Count(*))")
		if status != http.StatusOK {
			t.Fatalf("status = %d, want 200, body %v", status, payload)
		}
		data, ok := payload["data"].(map[string]interface{})
		if !ok || data["t"] != 3.0 {
			t.Errorf("data = %v, want {t: 3}", payload["data"])
		}
	})

	t.Run("query error maps to 400", func(t *testing.T) {
		status, payload := doGet(t, s, "/sources/numbers/data?age__%3E%3D=21")
		if status != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400, body %v", status, payload)
		}
		if payload["error"] != "unknown filter: >=" {
			t.Errorf("error = %v", payload["error"])
		}
	})

	t.Run("unknown slug maps to 404", func(t *testing.T) {
		status, payload := doGet(t, s, "/sources/nothere/data")
		if status != http.StatusNotFound {
			t.Fatalf("status = %d, want 404, body %v", status, payload)
		}
		if payload["error"] != "unknown source: nothere" {
			t.Errorf("error = %v", payload["error"])
		}
	})
}

package httputil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
)

func TestError_Shape(t *testing.T) {
	rec := httptest.NewRecorder()
	Error(rec, http.StatusNotFound, "room not found", nil)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
	var body map[string]map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["error"]["message"] != "room not found" {
		t.Fatalf("body = %s", rec.Body.String())
	}
	if _, ok := body["error"]["meta"]; ok {
		t.Fatalf("meta must be omitted when empty")
	}
}

func TestRequestLogger_PassesStatusThrough(t *testing.T) {
	h := middleware.RequestID(WithRequestLogger(RequestLogger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if L(r.Context()) == nil {
			t.Fatalf("no request logger in context")
		}
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("short and stout"))
	}))))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
	if rec.Code != http.StatusTeapot || rec.Body.String() != "short and stout" {
		t.Fatalf("got %d %q", rec.Code, rec.Body.String())
	}
}

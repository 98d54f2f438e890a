package ws

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestOriginChecker(t *testing.T) {
	check := originChecker([]string{"https://app.example.com/"})

	cases := map[string]bool{
		"":                             true,
		"https://app.example.com":      true,
		"HTTPS://APP.example.com":      true,
		"https://evil.example.com":     false,
		"http://app.example.com":       false,
		"https://app.example.com:8443": false,
	}
	for origin, want := range cases {
		r := httptest.NewRequest(http.MethodGet, "/ws", nil)
		if origin != "" {
			r.Header.Set("Origin", origin)
		}
		if got := check(r); got != want {
			t.Fatalf("origin %q: got %v, want %v", origin, got, want)
		}
	}

	wildcard := originChecker([]string{"*"})
	r := httptest.NewRequest(http.MethodGet, "/ws", nil)
	r.Header.Set("Origin", "https://whatever.test")
	if !wildcard(r) {
		t.Fatalf("wildcard must allow every origin")
	}
}

func TestHandleWS_UnknownCodec(t *testing.T) {
	s := NewServer(NewHub(nil), nil, Limits{}, nil)
	rec := httptest.NewRecorder()
	s.HandleWS(rec, httptest.NewRequest(http.MethodGet, "/ws?codec=xml", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}

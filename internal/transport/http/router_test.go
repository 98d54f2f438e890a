package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pion/webrtc/v4"

	"github.com/cwrk-planet/signal-service/internal/domain"
)

type fakeRooms map[string]domain.RoomSnapshot

func (f fakeRooms) Get(code string) (domain.RoomSnapshot, error) {
	if r, ok := f[code]; ok {
		return r, nil
	}
	return domain.RoomSnapshot{}, domain.ErrRoomNotFound
}

func newTestRouter() http.Handler {
	rooms := fakeRooms{
		"482913": {
			Code:    "482913",
			Name:    "Standup",
			HostID:  "secret-host-id",
			HasPin:  true,
			Live:    true,
			Members: []domain.Member{{ID: "a"}, {ID: "b"}},
		},
	}
	ice := []webrtc.ICEServer{{URLs: []string{"stun:stun.example.com:3478"}}}
	ws := func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusTeapot) }
	return NewRouter(NewHandler(rooms, ice), ws, RouterConfig{AllowedOrigins: []string{"https://app.example.com"}})
}

func TestRouter_Health(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestRouter().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Fatalf("got %d %q", rec.Code, rec.Body.String())
	}
}

func TestRouter_RoomPreview(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestRouter().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/rooms/482913", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["code"] != "482913" || body["hasPin"] != true || body["live"] != true || body["members"] != float64(2) {
		t.Fatalf("body = %v", body)
	}
	if _, leaked := body["hostId"]; leaked {
		t.Fatalf("preview leaks host id: %v", body)
	}
}

func TestRouter_RoomNotFound(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestRouter().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/rooms/000000", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
	var body struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	_ = json.Unmarshal(rec.Body.Bytes(), &body)
	if body.Error.Message != "room not found" {
		t.Fatalf("body = %s", rec.Body.String())
	}
}

func TestRouter_ICEServers(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestRouter().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ice-servers", nil))

	var body struct {
		ICEServers []struct {
			URLs []string `json:"urls"`
		} `json:"iceServers"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.ICEServers) != 1 || body.ICEServers[0].URLs[0] != "stun:stun.example.com:3478" {
		t.Fatalf("body = %s", rec.Body.String())
	}
}

func TestRouter_CORS(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/ice-servers", nil)
	req.Header.Set("Origin", "https://app.example.com")
	rec := httptest.NewRecorder()
	newTestRouter().ServeHTTP(rec, req)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://app.example.com" {
		t.Fatalf("allow-origin = %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/ice-servers", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rec = httptest.NewRecorder()
	newTestRouter().ServeHTTP(rec, req)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("disallowed origin got %q", got)
	}
}

func TestRouter_WSRoute(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestRouter().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ws", nil))
	if rec.Code != http.StatusTeapot {
		t.Fatalf("ws route not wired: %d", rec.Code)
	}
}

package ws

import (
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Server upgrades HTTP requests to hub connections.
type Server struct {
	hub      *Hub
	upgrader websocket.Upgrader
	limits   Limits
	log      *slog.Logger
}

// NewServer builds the upgrade handler. allowedOrigins empty or containing
// "*" accepts any origin.
func NewServer(hub *Hub, allowedOrigins []string, limits Limits, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	s := &Server{
		hub:    hub,
		limits: limits.withDefaults(),
		log:    log,
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(allowedOrigins),
	}
	return s
}

// HandleWS serves GET /ws?codec=json|msgpack.
func (s *Server) HandleWS(w http.ResponseWriter, r *http.Request) {
	codec, err := codecByName(r.URL.Query().Get("codec"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the error response
		s.log.Warn("ws upgrade failed", slog.Any("err", err))
		return
	}

	id := uuid.NewString()
	c := newClient(id, s.hub, conn, codec, s.limits, s.log)
	if err := s.hub.Register(c); err != nil {
		_ = conn.Close()
		return
	}
	s.log.Debug("ws connected",
		slog.String("conn", id),
		slog.String("codec", codec.Name()),
		slog.String("remote", r.RemoteAddr),
	)

	go c.writePump()
	c.readPump()
}

func originChecker(allowed []string) func(r *http.Request) bool {
	if len(allowed) == 0 || slices.Contains(allowed, "*") {
		return func(*http.Request) bool { return true }
	}
	norm := make([]string, 0, len(allowed))
	for _, o := range allowed {
		norm = append(norm, strings.TrimRight(strings.ToLower(o), "/"))
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		return slices.Contains(norm, strings.ToLower(u.Scheme+"://"+u.Host))
	}
}

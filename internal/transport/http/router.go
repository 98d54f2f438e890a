package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/cwrk-planet/signal-service/internal/transport/http/httputil"
)

type RouterConfig struct {
	AllowedOrigins []string
	Timeout        time.Duration
}

func NewRouter(h *Handler, ws http.HandlerFunc, cfg RouterConfig) http.Handler {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(httputil.WithRequestLogger)

	// upgraded connections outlive any request timeout
	r.With(httputil.RequestLogger).Get("/ws", ws)

	r.Group(func(pr chi.Router) {
		pr.Use(httputil.RequestLogger)
		pr.Use(middleware.Timeout(cfg.Timeout))
		pr.Use(cors.Handler(cors.Options{
			AllowedOrigins:   origins,
			AllowedMethods:   []string{"GET", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"X-Request-ID"},
			AllowCredentials: false,
			MaxAge:           300,
		}))

		pr.Get("/ice-servers", h.ICEServers)
		pr.Get("/rooms/{code}", h.GetRoom)
	})

	r.Get("/healthz", h.Health)

	return r
}

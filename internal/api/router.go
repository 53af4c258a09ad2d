package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const (
	compressionLevel = 5
	requestTimeout   = 60 * time.Second
)

// RouterConfig carries the handler collaborators and cross-cutting options.
type RouterConfig struct {
	Handler *Handler
	// Limiter gates the mutating API routes; nil disables rate limiting
	Limiter RateLimiter
	// MaxBodyBytes caps request body size; zero disables the cap
	MaxBodyBytes int64
}

// NewRouter creates a chi router with all endpoints and middleware.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Compress(compressionLevel))
	r.Use(middleware.Timeout(requestTimeout))
	r.Use(middleware.Heartbeat("/ping"))

	if cfg.MaxBodyBytes > 0 {
		r.Use(limitBody(cfg.MaxBodyBytes))
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", cfg.Handler.handleHealth)

		r.Group(func(r chi.Router) {
			if cfg.Limiter != nil {
				r.Use(rateLimit(cfg.Limiter))
			}

			r.Post("/ai/analyze", cfg.Handler.handleAnalyze)
			r.Post("/scan", cfg.Handler.handleScan)
			r.Post("/report-url", cfg.Handler.handleReport)
		})
	})

	return r
}

// limitBody caps the request body so a single client cannot buffer arbitrary
// payloads into the JSON decoder.
func limitBody(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}

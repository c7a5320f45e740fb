// Package web provides the HTTP server for listcheck: a JSON API under /api
// and a server-rendered results page.
package web

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"

	"github.com/JonMunkholm/listcheck/internal/config"
	"github.com/JonMunkholm/listcheck/internal/core"
	mw "github.com/JonMunkholm/listcheck/internal/web/middleware"
)

// Server is the HTTP server.
type Server struct {
	service  *core.Service
	cfg      *config.Config
	router   *chi.Mux
	server   *http.Server
	validate *validator.Validate

	limiter       *mw.RateLimiter // all requests, per IP
	submitLimiter *mw.RateLimiter // uploads, confirms and batches, per IP
}

// NewServer creates a Server.
func NewServer(service *core.Service, cfg *config.Config) *Server {
	s := &Server{
		service:  service,
		cfg:      cfg,
		router:   chi.NewRouter(),
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
	if cfg.Rate.Enabled {
		s.limiter = mw.NewRateLimiter(cfg.Rate.RequestsPerMinute, time.Minute)
		s.submitLimiter = mw.NewRateLimiter(cfg.Rate.SubmitLimit, time.Minute)
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(mw.TrustedRealIP(s.cfg.Security.TrustedProxies))
	s.router.Use(mw.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(securityHeaders)
	if s.limiter != nil {
		s.router.Use(s.limiter.Middleware)
	}
	s.router.Use(middleware.Timeout(s.cfg.Server.RequestTimeout))
}

func (s *Server) setupRoutes() {
	s.router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondErrorJSON(w, core.UserMessage{Message: "Not found", Code: "REQ404"}, http.StatusNotFound)
	})

	s.router.Group(func(r chi.Router) {
		r.Use(mw.APIKeyAuth(s.cfg.Security))
		r.Use(s.withWorkspace)
		r.Get("/results/{jobID}", s.handleResultsPage)
	})

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		r.Group(func(r chi.Router) {
			r.Use(mw.APIKeyAuth(s.cfg.Security))
			r.Use(s.withWorkspace)

			r.Route("/session", func(r chi.Router) {
				r.Get("/", s.handleSession)
				r.With(s.submitLimit).Post("/", s.handleAccept)
				r.Post("/column", s.handleSelectColumn)
				r.With(s.submitLimit).Post("/confirm", s.handleConfirm)
				r.Post("/cancel", s.handleCancel)
			})
			r.Get("/events", s.handleEvents)

			r.With(s.submitLimit).Post("/batch", s.handleBatch)
			r.Get("/local/{handle}", s.handleLocalPage)
			r.Get("/local/{handle}/export", s.handleLocalExport)

			r.Get("/jobs/{jobID}/results", s.handleResults)
			r.Get("/jobs/{jobID}/export", s.handleExport)

			r.Post("/verify", s.handleVerify)
			r.Post("/extract", s.handleExtract)

			r.Get("/stats", s.handleStats)
			r.Get("/lists", s.handleLists)
		})
	})
}

// Start listens on the configured address until Shutdown.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.cfg.Server.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}
	return s.server.ListenAndServe()
}

// RunBackground runs the rate limiter cleanup until ctx ends.
func (s *Server) RunBackground(ctx context.Context) {
	for _, rl := range []*mw.RateLimiter{s.limiter, s.submitLimiter} {
		if rl != nil {
			go rl.Cleanup(ctx)
		}
	}
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// submitLimit applies the stricter submission rate limit.
func (s *Server) submitLimit(next http.Handler) http.Handler {
	if s.submitLimiter == nil {
		return next
	}
	return s.submitLimiter.Middleware(next)
}

// securityHeaders adds security headers to all responses.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "default-src 'self'; style-src 'self' 'unsafe-inline'")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}

// writeJSON encodes v with the given status. Encoding errors are logged
// since headers are already sent.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode error", "error", err)
	}
}

// Package web provides the HTTP API and report downloads for the Actions &
// Decisions log and the Ideas & Issues register.
package web

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/JonMunkholm/registers/internal/auth"
	"github.com/JonMunkholm/registers/internal/config"
	"github.com/JonMunkholm/registers/internal/core"
	mw "github.com/JonMunkholm/registers/internal/web/middleware"
)

// Server is the HTTP server for both collections.
type Server struct {
	service  *core.Service
	cfg      *config.Config
	sessions *auth.Manager
	router   *chi.Mux
	server   *http.Server

	limiters []*rateLimiter
}

// NewServer creates a new Server instance. Sessions are verified only when a
// signing secret is configured.
func NewServer(service *core.Service, cfg *config.Config) *Server {
	s := &Server{
		service: service,
		cfg:     cfg,
		router:  chi.NewRouter(),
	}
	if cfg.Security.SessionSecret != "" {
		s.sessions = auth.NewManager(cfg.Security.SessionSecret, cfg.Security.SessionIssuer, cfg.Security.SessionTTL)
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(mw.TrustedRealIP(s.cfg.Security.TrustedProxies))
	s.router.Use(mw.Logger)
	s.router.Use(middleware.Recoverer)
	if s.cfg.Server.RequestTimeout > 0 {
		s.router.Use(middleware.Timeout(s.cfg.Server.RequestTimeout))
	}

	s.router.Use(securityHeaders(s.cfg.Security.EnableCSP))

	if s.cfg.Rate.Enabled {
		s.router.Use(s.newRateLimiter(s.cfg.Rate.RequestsPerMinute, time.Minute).middleware)
	}
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)

	// Import endpoints get their own, tighter budget.
	importLimit := func(next http.Handler) http.Handler { return next }
	if s.cfg.Rate.Enabled && s.cfg.Rate.ImportLimit > 0 {
		importLimit = s.newRateLimiter(s.cfg.Rate.ImportLimit, time.Minute).middleware
	}

	s.router.Route("/api", func(r chi.Router) {
		r.Use(mw.RequireSession(s.sessions, s.cfg.Security.RequireSession))
		r.Use(requestMetadata)

		r.Get("/session", s.handleSession)
		r.Get("/status", s.handleStatus)
		r.Get("/options", s.handleOptions)

		r.Route("/actions", func(r chi.Router) {
			r.Get("/", s.handleListActions)
			r.Post("/", s.handleCreateAction)

			r.Get("/rules", s.handleConstitutionRules)
			r.Post("/seed-rules", s.handleSeedRules)
			r.Get("/export", s.handleExportActions)
			r.Get("/report", s.handleActionsReport)
			r.With(importLimit).Post("/import/preview", s.handlePreviewActions)
			r.With(importLimit).Post("/import", s.handleImportActions)

			r.Get("/{id}", s.handleGetAction)
			r.Put("/{id}", s.handleUpdateAction)
			r.Patch("/{id}/status", s.handleSetActionStatus)
			r.Delete("/{id}", s.handleDeleteAction)
		})

		r.Route("/register", func(r chi.Router) {
			r.Get("/", s.handleListRegister)
			r.Post("/", s.handleCreateRegisterEntry)

			r.Get("/export", s.handleExportRegister)
			r.Get("/report", s.handleRegisterReport)
			r.With(importLimit).Post("/import/preview", s.handlePreviewRegister)
			r.With(importLimit).Post("/import", s.handleImportRegister)

			r.Get("/{id}", s.handleGetRegisterEntry)
			r.Put("/{id}", s.handleUpdateRegisterEntry)
			r.Patch("/{id}/status", s.handleSetRegisterStatus)
			r.Delete("/{id}", s.handleDeleteRegisterEntry)
		})
	})
}

// Start begins listening for HTTP requests on the configured address.
func (s *Server) Start() error {
	addr := s.cfg.Server.Addr()
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}

	slog.Info("starting server", "addr", addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server and its background cleanup.
func (s *Server) Shutdown(ctx context.Context) error {
	for _, rl := range s.limiters {
		rl.stop()
	}
	s.limiters = nil
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// securityHeaders adds security headers to all responses. Reports use inline
// styles, so style-src allows them.
func securityHeaders(enableCSP bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "DENY")
			w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
			if enableCSP {
				w.Header().Set("Content-Security-Policy", "default-src 'self'; script-src 'self'; style-src 'self' 'unsafe-inline'; img-src 'self' data:; frame-ancestors 'none'")
			}
			next.ServeHTTP(w, r)
		})
	}
}

// writeJSON encodes v as JSON and writes it to w with status 200.
func writeJSON(w http.ResponseWriter, v any) {
	writeJSONStatus(w, http.StatusOK, v)
}

// writeJSONStatus encodes v as JSON with the given status.
// Logs encoding errors since headers are already sent.
func writeJSONStatus(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode error", "error", err)
	}
}

// Package web provides the HTTP server, JSON API and pages of the editor.
package web

import (
	"context"
	"embed"
	"encoding/json"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/JonMunkholm/locgrid/internal/config"
	"github.com/JonMunkholm/locgrid/internal/core"
	mw "github.com/JonMunkholm/locgrid/internal/web/middleware"
)

//go:embed static
var staticFiles embed.FS

// Server is the HTTP server for the editor.
type Server struct {
	service  *core.Service
	cfg      *config.Config
	router   *chi.Mux
	server   *http.Server
	limiters []*rateLimiter
}

// NewServer creates a Server. A nil cfg uses the defaults.
func NewServer(service *core.Service, cfg *config.Config) *Server {
	if cfg == nil {
		cfg = config.Defaults()
	}
	s := &Server{
		service: service,
		cfg:     cfg,
		router:  chi.NewRouter(),
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
	s.router.Use(middleware.Compress(5))
	s.router.Use(securityHeaders(s.cfg.Security.EnableCSP))

	if s.cfg.Rate.Enabled {
		s.router.Use(s.rateLimit(s.cfg.Rate.RequestsPerMinute))
	}
}

// setupRoutes configures all HTTP routes. Progress streams are registered
// outside the request timeout.
func (s *Server) setupRoutes() {
	staticFS, err := fs.Sub(staticFiles, "static")
	if err != nil {
		panic(err)
	}
	s.router.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(staticFS))))
	s.router.Get("/healthz", s.handleHealth)

	timeout := middleware.Timeout(s.cfg.Server.RequestTimeout)
	uploadLimit := s.rateLimit(s.cfg.Rate.UploadLimit)
	translateLimit := s.rateLimit(s.cfg.Rate.TranslateLimit)

	// Pages
	s.router.Group(func(r chi.Router) {
		r.Use(timeout)
		r.Get("/", s.handleEditor)
		r.Get("/session/{sessionID}/preview", s.handlePreviewPage)
	})

	s.router.Route("/api", func(r chi.Router) {
		r.Use(mw.AccessTokenAuth(s.cfg.Security.AccessTokens))

		r.Get("/translate/{jobID}/progress", s.handleTranslateProgress)

		r.Group(func(r chi.Router) {
			r.Use(timeout)

			r.Get("/languages", s.handleLanguages)
			r.Get("/history", s.handleHistory)
			r.Get("/folders", s.handleListFolders)

			r.Post("/session", s.handleCreateSession)
			r.Route("/session/{sessionID}", func(r chi.Router) {
				r.Delete("/", s.handleCloseSession)

				// Loading
				r.With(uploadLimit).Post("/files", s.handleLoadFiles)
				r.With(uploadLimit).Post("/folder", s.handleLoadFolder)

				// Grid
				r.Get("/table", s.handleTable)
				r.Post("/cell", s.handleEditCell)
				r.With(translateLimit).Post("/cell/translate", s.handleTranslateCell)
				r.With(translateLimit).Post("/translate", s.handleStartTranslate)

				// Output
				r.Get("/export", s.handleExportAll)
				r.Get("/export/{file}", s.handleExportFile)
				r.Post("/save", s.handleSave)
			})

			r.Get("/translate/{jobID}", s.handleTranslateStatus)
			r.Get("/translate/{jobID}/result", s.handleTranslateResult)
			r.Post("/translate/{jobID}/cancel", s.handleCancelTranslate)
		})
	})
}

// Start begins listening for HTTP requests.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.cfg.Server.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}

	slog.Info("starting server", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server and the rate limiter sweepers.
func (s *Server) Shutdown(ctx context.Context) error {
	for _, l := range s.limiters {
		l.stop()
	}
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

const contentSecurityPolicy = "default-src 'self'; script-src 'self'; style-src 'self'; img-src 'self' data:; connect-src 'self'; frame-ancestors 'none'"

// securityHeaders adds security headers to all responses.
func securityHeaders(enableCSP bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("X-Frame-Options", "DENY")
			h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
			if enableCSP {
				h.Set("Content-Security-Policy", contentSecurityPolicy)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// rateLimit returns a per-IP limiter middleware allowing perMinute requests.
// A non-positive limit, or rate limiting switched off, passes everything.
func (s *Server) rateLimit(perMinute int) func(http.Handler) http.Handler {
	if !s.cfg.Rate.Enabled || perMinute <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	l := newRateLimiter(perMinute, time.Minute)
	s.limiters = append(s.limiters, l)
	return l.middleware(s)
}

// writeJSON encodes v as JSON with status 200.
func writeJSON(w http.ResponseWriter, v any) {
	writeJSONStatus(w, http.StatusOK, v)
}

// writeJSONStatus encodes v as JSON. Encoding errors are only logged since
// the header is already sent.
func writeJSONStatus(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode error", "error", err)
	}
}

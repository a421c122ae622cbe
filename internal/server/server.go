package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/me/contactbook/internal/audit"
	"github.com/me/contactbook/internal/config"
	"github.com/me/contactbook/internal/lockout"
	"github.com/me/contactbook/internal/metrics"
	"github.com/me/contactbook/internal/web"
	"github.com/me/contactbook/pkg/contactapi"
)

// DefaultPruneInterval is how often old audit events are deleted.
const DefaultPruneInterval = time.Hour

// Server is the contactbook web server.
type Server struct {
	router    chi.Router
	logger    *slog.Logger
	config    config.ServerConfig
	startTime time.Time
	api       *contactapi.Client
	audit     audit.Store
	lockout   lockout.Limiter    // optional; the UI falls back to an in-process limiter
	metrics   *metrics.Metrics   // optional; nil disables instrumentation
	staticDir string
	ui        *web.UI
}

// Option configures optional Server dependencies.
type Option func(*Server)

// WithAudit sets the audit store. Without it nothing is recorded.
func WithAudit(st audit.Store) Option {
	return func(s *Server) {
		s.audit = st
	}
}

// WithLockout sets the failed-login limiter.
func WithLockout(l lockout.Limiter) Option {
	return func(s *Server) {
		s.lockout = l
	}
}

// WithMetrics enables Prometheus instrumentation.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Server) {
		s.metrics = m
	}
}

// WithStaticDir serves /static/* from dir.
func WithStaticDir(dir string) Option {
	return func(s *Server) {
		s.staticDir = dir
	}
}

// New creates a new Server with all routes registered.
func New(cfg config.ServerConfig, api *contactapi.Client, logger *slog.Logger, opts ...Option) *Server {
	s := &Server{
		router:    chi.NewRouter(),
		logger:    logger.With("component", "server"),
		config:    cfg,
		startTime: time.Now(),
		api:       api,
		audit:     audit.Nop{},
		staticDir: "web/assets",
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.metrics != nil {
		api.SetObserver(s.metrics)
	}

	s.ui = web.New(api, logger, web.Config{
		Secure:     cfg.Session.SecureCookies,
		SessionTTL: cfg.Session.TTL,
		RequestID:  RequestIDFromContext,
	})
	s.ui.WithAudit(s.audit)
	s.ui.WithMetrics(s.metrics)
	if s.lockout != nil {
		s.ui.WithLockout(s.lockout)
	}

	s.routes()
	return s
}

// StartAuditPruner deletes audit events older than the configured retention
// every interval until ctx is done. A non-positive retention disables it.
func (s *Server) StartAuditPruner(ctx context.Context, interval time.Duration) {
	retention := s.config.Audit.Retention
	if retention <= 0 {
		return
	}
	if interval <= 0 {
		interval = DefaultPruneInterval
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		s.pruneAudit(ctx, retention)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.pruneAudit(ctx, retention)
			}
		}
	}()
}

func (s *Server) pruneAudit(ctx context.Context, retention time.Duration) {
	n, err := s.audit.Prune(ctx, time.Now().Add(-retention))
	if err != nil {
		if ctx.Err() == nil {
			s.logger.Error("audit prune failed", "error", err)
		}
		return
	}
	if n > 0 {
		s.logger.Info("audit events pruned", "count", n)
	}
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Handler returns the http.Handler for this server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() {
	r := s.router

	// Global middleware
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(s.logger))
	r.Use(s.metrics.Middleware)

	r.Handle("/static/*", web.StaticHandler(s.staticDir))

	r.Get("/healthz", s.handleHealth)
	if s.metrics != nil && !s.config.DisableMetrics {
		r.Handle("/metrics", s.metrics.Handler())
	}

	// UI routes (HTML)
	s.ui.RegisterRoutes(r)
}

package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/valentinuuiuiu/Personal-AI-Infrastructure/internal/skill"
	"github.com/valentinuuiuiu/Personal-AI-Infrastructure/internal/telemetry"
)

// SecretHeader carries the shared secret on every protected request.
const SecretHeader = "X-PAI-SECRET-KEY"

// Executor runs a skill to completion and returns its output.
type Executor interface {
	Output(ctx context.Context, name string, args []string) (string, error)
}

// Config holds API server configuration
type Config struct {
	Listen string
	// Secret is the shared key expected in SecretHeader. Empty means every
	// protected request is refused with 500.
	Secret        string
	MaxUploadSize int64
}

// Server exposes the skill dispatcher over HTTP.
type Server struct {
	config    Config
	exec      Executor
	registry  *skill.Registry
	events    *telemetry.Hub
	logger    *slog.Logger
	server    *http.Server
	startedAt time.Time
}

// New creates a new API server instance
func New(config Config, exec Executor, registry *skill.Registry, events *telemetry.Hub, logger *slog.Logger) *Server {
	if config.MaxUploadSize <= 0 {
		config.MaxUploadSize = 10 << 20
	}
	if events == nil {
		events = telemetry.NewHub(256)
	}
	return &Server{
		config:    config,
		exec:      exec,
		registry:  registry,
		events:    events,
		logger:    logger,
		startedAt: time.Now(),
	}
}

// Start starts the HTTP server (blocking)
func (s *Server) Start(ctx context.Context) error {
	s.server = &http.Server{
		Addr:         s.config.Listen,
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 10 * time.Minute, // skills may wait on slow completions
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("API server starting", "listen", s.config.Listen)

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("API server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		return ctx.Err()
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	}
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggingMiddleware)
	r.Use(middleware.Recoverer)

	// Unauthenticated ops endpoint.
	r.Get("/healthz", s.handleHealthz)

	r.Group(func(r chi.Router) {
		r.Use(s.secretMiddleware)
		r.Post("/execute_skill", s.handleExecuteSkill)
		r.Get("/events", s.handleEvents)
		r.Get("/events/stream", s.handleEventStream)
	})

	return r
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

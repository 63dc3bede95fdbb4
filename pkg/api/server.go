package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/yourusername/stackengine/pkg/engine"
)

// ServerConfig holds the server configuration.
type ServerConfig struct {
	Host             string        // Host to bind to (default "localhost")
	Port             int           // Port to listen on (default 8080)
	ReadTimeout      time.Duration // Read timeout (default 30s)
	WriteTimeout     time.Duration // Write timeout (default 60s)
	IdleTimeout      time.Duration // Idle timeout (default 120s)
	MaxEvalWorkers   int           // Max concurrent evaluation requests (default 100)
	MaxSearchWorkers int           // Max concurrent searches (default 4)
	MaxDepth         int           // Deepest search a client may request (default 6)
}

// DefaultConfig returns a ServerConfig with sensible defaults.
func DefaultConfig() ServerConfig {
	return ServerConfig{
		Host:             "localhost",
		Port:             8080,
		ReadTimeout:      30 * time.Second,
		WriteTimeout:     60 * time.Second,
		IdleTimeout:      120 * time.Second,
		MaxEvalWorkers:   100,
		MaxSearchWorkers: 4,
		MaxDepth:         DefaultMaxDepth,
	}
}

// Server is the HTTP API server.
type Server struct {
	config   ServerConfig
	engine   *engine.Engine
	handlers *Handlers
	server   *http.Server
	pool     *WorkerPool
	version  string
}

// NewServer creates a new API server.
func NewServer(e *engine.Engine, config ServerConfig, version string) *Server {
	pool := NewWorkerPool(PoolConfig{
		MaxEvalWorkers:   config.MaxEvalWorkers,
		MaxSearchWorkers: config.MaxSearchWorkers,
	})
	handlers := NewHandlersWithPool(e, version, pool)
	handlers.SetMaxDepth(config.MaxDepth)

	return &Server{
		config:   config,
		engine:   e,
		handlers: handlers,
		pool:     pool,
		version:  version,
	}
}

// Pool returns the worker pool for monitoring.
func (s *Server) Pool() *WorkerPool {
	return s.pool
}

// corsMiddleware adds CORS headers for browser access.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// loggingMiddleware logs all requests.
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		log.Info().
			Str("request-id", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("elapsed", time.Since(start)).
			Msg("request")
	})
}

// route is one API endpoint. Kind is the label shown in the startup banner.
type route struct {
	Method  string
	Kind    string
	Path    string
	Desc    string
	Handler http.HandlerFunc
}

func (s *Server) routes() []route {
	h := s.handlers
	return []route{
		{http.MethodGet, "GET", "/api/health", "Health check", h.Health},
		{http.MethodGet, "GET", "/api/start", "Opening position for a board size", h.Start},
		{http.MethodPost, "POST", "/api/evaluate", "Evaluate position", h.Evaluate},
		{http.MethodPost, "POST", "/api/moves", "List legal moves", h.Moves},
		{http.MethodPost, "POST", "/api/move", "Find the best move", h.Move},
		{http.MethodPost, "POST", "/api/analyze", "Rank every legal move", h.Analyze},
		{http.MethodGet, "GET", "/api/arena/stream", "Stream an engine match (SSE)", h.ArenaSSE},
		{http.MethodGet, "WS", "/api/ws", "WebSocket for real-time analysis", h.WebSocket},
	}
}

// Handler returns the routed API handler with middleware applied.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(loggingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(corsMiddleware)

	for _, rt := range s.routes() {
		r.Method(rt.Method, rt.Path, rt.Handler)
	}

	return r
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}

	log.Info().Str("version", s.version).Str("addr", addr).Msg("starting-api-server")
	for _, line := range s.banner() {
		log.Info().Msg(line)
	}

	return s.server.ListenAndServe()
}

// banner lists the served routes, one line each
func (s *Server) banner() []string {
	routes := s.routes()
	lines := make([]string, len(routes))
	for i, rt := range routes {
		lines[i] = fmt.Sprintf("  %-4s %-18s - %s", rt.Kind, rt.Path, rt.Desc)
	}
	return lines
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// ListenAndServeWithGracefulShutdown starts the server and handles shutdown signals.
func (s *Server) ListenAndServeWithGracefulShutdown() error {
	// Channel to listen for errors from server
	errChan := make(chan error, 1)

	go func() {
		if err := s.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	// Block until signal or error
	select {
	case err := <-errChan:
		return err
	case sig := <-quit:
		log.Info().Str("signal", sig.String()).Msg("shutting-down")
	}

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Info().Msg("server-stopped")
	return nil
}

// Package server provides the HTTP server for the mudra viewer.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/ayusman/mudra/internal/logging"
	"github.com/ayusman/mudra/internal/particle"
	"github.com/ayusman/mudra/internal/server/api"
	"github.com/ayusman/mudra/internal/store"
)

// Default push intervals.
const (
	DefaultStreamInterval = 33 * time.Millisecond // ~30 FPS
	DefaultPushInterval   = 66 * time.Millisecond // ~15 Hz
)

// Source publishes rendered frames and accepts viewport changes.
type Source interface {
	LatestFrame() ([]byte, uint64)
	Uniforms() particle.Uniforms
	Resize(width, height int)
}

// Config holds the server configuration.
type Config struct {
	StaticDir string
	Store     *store.Store
	Source    Source
	Logger    *zap.Logger

	StreamInterval time.Duration
	PushInterval   time.Duration
}

// Server represents the HTTP server for the mudra application.
type Server struct {
	config Config
	logger *zap.Logger
	mux    *http.ServeMux
	start  time.Time
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	if config.StreamInterval <= 0 {
		config.StreamInterval = DefaultStreamInterval
	}
	if config.PushInterval <= 0 {
		config.PushInterval = DefaultPushInterval
	}

	s := &Server{
		config: config,
		logger: logging.OrNop(config.Logger).Named("server"),
		mux:    http.NewServeMux(),
		start:  time.Now(),
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes for the server.
func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)
	s.mux.Handle("/metrics", promhttp.Handler())

	if s.config.Store != nil {
		sessions := api.NewSessionHandler(s.config.Store)
		s.mux.Handle("/api/sessions", sessions)
		s.mux.Handle("/api/sessions/", sessions)
	}

	if s.config.Source != nil {
		s.mux.Handle("/api/stream", NewStreamHandler(s.config.Source, s.config.StreamInterval, s.logger))
		s.mux.Handle("/api/uniforms", NewUniformsHandler(s.config.Source, s.config.PushInterval, s.logger))
	}

	if s.config.StaticDir != "" {
		fs := http.FileServer(http.Dir(s.config.StaticDir))
		s.mux.Handle("/", fs)
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// handleHealth handles GET requests to /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := map[string]any{
		"status": "ok",
		"uptime": time.Since(s.start).String(),
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Package web exposes the dump pipeline over HTTP. The server is a thin
// facade: request bodies map onto pipeline options, responses carry the
// document plus run metadata, and all heavy lifting stays in pkg/pipeline.
package web

import (
	"context"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/mwolter/assetdump/pkg/pipeline"
	"github.com/mwolter/assetdump/pkg/store"
)

// Config holds server configuration.
type Config struct {
	// Address is the server listen address (e.g., ":8080")
	Address string

	// Timeouts
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	ReadHeaderTimeout time.Duration

	// RequestTimeout bounds one dump request end to end.
	RequestTimeout time.Duration

	// MaxBodyBytes caps request body size.
	MaxBodyBytes int64
}

// DefaultConfig returns a production-ready server configuration.
func DefaultConfig() Config {
	return Config{
		Address:           ":8080",
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		RequestTimeout:    30 * time.Second,
		MaxBodyBytes:      1 << 20, // 1 MB
	}
}

// Server serves the dump API.
type Server struct {
	runner *pipeline.Runner
	loader store.PackageLoader
	logger *log.Logger
	config Config

	httpServer *http.Server
}

// New creates a server over the given runner and package backend.
func New(runner *pipeline.Runner, loader store.PackageLoader, logger *log.Logger, cfg Config) *Server {
	if logger == nil {
		logger = log.Default()
	}
	s := &Server{
		runner: runner,
		loader: loader,
		logger: logger,
		config: cfg,
	}
	s.httpServer = &http.Server{
		Addr:              cfg.Address,
		Handler:           s.Routes(),
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
	return s
}

// Routes builds the router. Exposed for tests.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)
	if s.config.RequestTimeout > 0 {
		r.Use(middleware.Timeout(s.config.RequestTimeout))
	}

	r.Get("/healthz", s.handleHealth)
	r.Get("/version", s.handleVersion)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/dump", s.handleDump)
		r.Get("/files/{fileID}", s.handleFile)
	})
	return r
}

// ListenAndServe runs the server until ctx is cancelled, then drains
// in-flight requests.
func (s *Server) ListenAndServe(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", s.config.Address)
		errCh <- s.httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.logger.Info("shutting down")
	return s.httpServer.Shutdown(shutdownCtx)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}

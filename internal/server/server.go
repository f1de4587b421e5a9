// Package server provides the HTTP server wrapper with lifecycle management.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"
)

// shutdownTimeout bounds graceful shutdown.
const shutdownTimeout = 10 * time.Second

// Server wraps the HTTP server with its routes and lifecycle management.
type Server struct {
	http   *http.Server
	mux    *http.ServeMux
	logger *slog.Logger
	token  string
}

// New creates a server listening on port. api is mounted at /query behind bearer auth when
// token is non-empty.
func New(port int, api http.Handler, token string, logger *slog.Logger) *Server {
	mux := http.NewServeMux()
	s := &Server{
		mux:    mux,
		logger: logger,
		token:  token,
		http: &http.Server{
			Addr:        fmt.Sprintf(":%d", port),
			ReadTimeout: 5 * time.Second,
			// Season generation answers only after every episode is written.
			WriteTimeout: 15 * time.Minute,
			IdleTimeout:  120 * time.Second,
		},
	}

	mux.Handle("/query", BearerAuth(token)(api))
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "ok")
	})
	return s
}

// Handler returns the routed handler with middleware applied.
func (s *Server) Handler() http.Handler {
	return LoggingMiddleware(s.logger)(s.mux)
}

// Setup adds middleware to the server (logging).
func (s *Server) Setup() {
	s.http.Handler = s.Handler()
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	if s.http.Handler == nil {
		s.Setup()
	}

	ln, err := net.Listen("tcp", s.http.Addr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	if s.http.Handler == nil {
		s.Setup()
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("GraphQL endpoint available", "url", fmt.Sprintf("http://%s/query", ln.Addr()),
			"auth", s.token != "")
		errCh <- s.http.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.http.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	s.logger.Info("server stopped")
	return nil
}

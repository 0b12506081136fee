// ABOUTME: HTTP transport shell for vcsmap route registration and lifecycle
// ABOUTME: Wires mapper endpoints onto a ServeMux with optional bearer-token auth

package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/relops/vcsmap/internal/auth"
	"github.com/relops/vcsmap/internal/config"
	"github.com/relops/vcsmap/internal/mapper"
)

// Server is the HTTP shell around the mapping service. It owns no business
// logic: handlers parse request parameters, call the mapper, and translate
// results and typed errors into wire responses.
type Server struct {
	mapper *mapper.Service
	logger *slog.Logger
	http   *http.Server
}

// New creates a Server with all routes registered. Mutating routes require a
// bearer token when auth.jwt_secret is configured; read routes are public.
func New(cfg *config.Config, svc *mapper.Service, logger *slog.Logger) *Server {
	s := &Server{
		mapper: svc,
		logger: logger.With("component", "server"),
	}

	requireAuth := func(h http.HandlerFunc) http.Handler { return h }
	if cfg.Auth.JWTSecret != "" {
		authMiddleware := auth.Middleware(auth.NewVerifier([]byte(cfg.Auth.JWTSecret)))
		requireAuth = func(h http.HandlerFunc) http.Handler { return authMiddleware(h) }
		s.logger.Info("HTTP auth middleware enabled")
	} else {
		s.logger.Warn("HTTP auth disabled - no jwt_secret configured")
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)

	// Query routes accept comma-delimited project lists
	mux.HandleFunc("GET /{projects}/rev/{vcs}/{prefix}", s.handleLookupRevision)
	mux.HandleFunc("GET /{projects}/mapfile/full", s.handleFullMapfile)
	mux.HandleFunc("GET /{projects}/mapfile/since/{since}", s.handleMapfileSince)

	// Mutating routes address exactly one project
	mux.Handle("POST /{project}/insert", requireAuth(s.handleInsertStrict))
	mux.Handle("POST /{project}/insert/ignoredups", requireAuth(s.handleInsertPermissive))
	mux.Handle("POST /{project}/insert/{hg}/{git}", requireAuth(s.handleInsertOne))
	mux.Handle("POST /{project}", requireAuth(s.handleRegisterProject))

	s.http = &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the route mux, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

// Start blocks serving HTTP until the server is shut down.
func (s *Server) Start() error {
	s.logger.Info("HTTP server listening", "addr", s.http.Addr)
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server, waiting for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.http.Shutdown(ctx)
}

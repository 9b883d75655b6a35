// Package api provides the HTTP surface for managing tracked locations and
// reading back detected snow events, trends, forecasts, and alert history.
// It wires a chi router with the cross-cutting middleware chain (panic
// recovery, request IDs, structured request logging) before requests reach
// the domain handlers.
package api

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RouteRegistrar mounts a handler's routes on the v1 router group.
type RouteRegistrar func(chi.Router)

// Server encapsulates the router and its dependencies.
type Server struct {
	logger *slog.Logger
	router *chi.Mux

	health     *HealthHandler
	registrars []RouteRegistrar
}

// ServerConfig holds the dependencies for creating a Server.
type ServerConfig struct {
	Logger     *slog.Logger
	Health     *HealthHandler
	Registrars []RouteRegistrar
}

// NewServer creates the API server and mounts all routes.
func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger must not be nil")
	}
	if cfg.Health == nil {
		return nil, fmt.Errorf("health handler must not be nil")
	}

	s := &Server{
		logger:     cfg.Logger,
		router:     chi.NewRouter(),
		health:     cfg.Health,
		registrars: cfg.Registrars,
	}
	s.mountRoutes()
	return s, nil
}

// Handler returns the http.Handler for the router.
func (s *Server) Handler() http.Handler {
	return s.router
}

// mountRoutes registers the global middleware chain and all routes.
// Middleware order matters: Recoverer is outermost so it catches panics from
// the rest of the chain; RequestID runs before the logger so log lines carry
// the correlation ID.
func (s *Server) mountRoutes() {
	s.router.Use(Recoverer(s.logger))
	s.router.Use(RequestIDMiddleware)
	s.router.Use(RequestLogger(s.logger))

	s.router.Route("/v1", func(r chi.Router) {
		for _, register := range s.registrars {
			register(r)
		}
	})

	s.router.Get("/health", s.health.Handle)
}

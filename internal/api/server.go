// Copyright (c) 2026 Kanakku. All rights reserved.

/*
Package api assembles the HTTP server: the middleware chain, the route tree,
and graceful shutdown.

Route map:

	/healthz                       liveness
	/readyz                        readiness (postgres + redis)
	/api/v1/auth/...               login, logout, session introspection
	/api/v1/expenses/...           ledger (authenticated)
	/api/v1/admin/...              management surface (admin role)
	/api/v1/admin/audit-logs       audit trail (admin role)
*/
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/anandvel/kanakku/internal/admin"
	"github.com/anandvel/kanakku/internal/audit"
	"github.com/anandvel/kanakku/internal/auth"
	"github.com/anandvel/kanakku/internal/expense"
	"github.com/anandvel/kanakku/internal/platform/config"
	"github.com/anandvel/kanakku/internal/platform/constants"
	"github.com/anandvel/kanakku/internal/platform/middleware"
	"github.com/anandvel/kanakku/internal/platform/sec"
)

// Dependencies carries everything the server wires together.
type Dependencies struct {
	AuthService *auth.Service

	AuthHandler    *auth.Handler
	ExpenseHandler *expense.Handler
	AdminHandler   *admin.Handler
	AuditHandler   *audit.Handler

	PostgresPinger Pinger
	RedisPinger    Pinger
}

// Server is the HTTP front of the application.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// New builds the server with its full middleware chain and route tree.
// The context bounds background middleware work (rate limiter cleanup).
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger, deps Dependencies) *Server {

	router := chi.NewRouter()

	// The order matters: tracing first, then logging, then guards, then identity.
	router.Use(middleware.RequestID())
	router.Use(middleware.StructuredLogger(logger))
	router.Use(middleware.PanicRecovery(logger))
	router.Use(middleware.RateLimit(ctx))
	router.Use(middleware.CORS(cfg))
	router.Use(chimw.Timeout(constants.GlobalRequestTimeout))
	router.Use(middleware.Authenticate(deps.AuthService, deps.AuthService.SessionTTL()))

	// Health probes stay outside the versioned API.
	health := newHealthHandler(deps.PostgresPinger, deps.RedisPinger)
	router.Get("/healthz", health.liveness)
	router.Get("/readyz", health.readiness)

	router.Route("/api/v1", func(api chi.Router) {
		api.Mount("/auth", deps.AuthHandler.Routes())

		api.Group(func(authenticated chi.Router) {
			authenticated.Use(middleware.RequireAuth())
			authenticated.Mount("/expenses", deps.ExpenseHandler.Routes())
		})

		api.Group(func(administrative chi.Router) {
			administrative.Use(middleware.RequireRole(sec.RoleAdmin))
			administrative.Route("/admin", func(adm chi.Router) {
				adm.Mount("/audit-logs", deps.AuditHandler.Routes())
				deps.AdminHandler.Register(adm)
			})
		})
	})

	return &Server{
		httpServer: &http.Server{
			Addr:              ":" + cfg.ServerPort,
			Handler:           router,
			ReadTimeout:       constants.DefaultReadTimeout,
			ReadHeaderTimeout: constants.DefaultReadHeaderTimeout,
			WriteTimeout:      constants.DefaultWriteTimeout,
			IdleTimeout:       constants.DefaultIdleTimeout,
		},
		logger: logger,
	}
}

// Start blocks serving requests until the listener fails or Shutdown runs.
func (server *Server) Start() error {
	server.logger.Info("http_server_listening", slog.String("addr", server.httpServer.Addr))

	if err := server.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http_server_failed: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests within the context deadline.
func (server *Server) Shutdown(ctx context.Context) error {
	server.logger.Info("http_server_shutting_down")
	return server.httpServer.Shutdown(ctx)
}

// Copyright (c) 2026 Kanakku. All rights reserved.

// Command api runs the Kanakku expense ledger server.
package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/anandvel/kanakku/internal/admin"
	"github.com/anandvel/kanakku/internal/api"
	"github.com/anandvel/kanakku/internal/audit"
	"github.com/anandvel/kanakku/internal/auth"
	"github.com/anandvel/kanakku/internal/expense"
	"github.com/anandvel/kanakku/internal/platform/config"
	"github.com/anandvel/kanakku/internal/platform/constants"
	"github.com/anandvel/kanakku/internal/platform/migration"
	"github.com/anandvel/kanakku/internal/platform/postgres"
	platformredis "github.com/anandvel/kanakku/internal/platform/redis"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run() error {

	// A local .env is a development convenience; its absence is normal.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := newLogger(cfg)
	slog.SetDefault(logger)

	logger.Info("starting",
		slog.String("app", constants.AppName),
		slog.String("version", constants.AppVersion),
		slog.String("environment", cfg.Environment),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// # Infrastructure

	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		return err
	}
	defer pool.Close()

	redisClient, err := platformredis.NewClient(ctx, cfg.RedisURL, logger)
	if err != nil {
		return err
	}
	defer redisClient.Close()

	if err := migration.RunUp(cfg.DatabaseURL, cfg.MigrationPath, logger); err != nil {
		return err
	}

	// # Wiring

	auditRecorder := audit.NewRecorder(audit.NewPostgresStore(pool), logger)

	userRepository := auth.NewUserRepository(pool)
	sessionStore := auth.NewRedisSessionStore(redisClient)
	sessionManager := auth.NewSessionManager(sessionStore, userRepository, cfg.SessionTTL)
	authService := auth.NewService(userRepository, sessionManager, auditRecorder, logger)

	expenseStore := expense.NewPostgresStore(pool)
	expenseService := expense.NewService(expenseStore, auditRecorder, authService, logger)

	adminService := admin.NewService(
		userRepository,
		expenseStore,
		authService,
		auditRecorder,
		logger,
		cfg.BootstrapAdminUsername,
		cfg.RevokeSessionsOnReset,
	)

	if cfg.HasBootstrapAdmin() {
		if err := authService.EnsureBootstrapAdmin(ctx, cfg.BootstrapAdminUsername, cfg.BootstrapAdminPassword); err != nil {
			return err
		}
	} else {
		logger.Warn("bootstrap_admin_not_configured")
	}

	server := api.New(ctx, cfg, logger, api.Dependencies{
		AuthService:    authService,
		AuthHandler:    auth.NewHandler(authService),
		ExpenseHandler: expense.NewHandler(expenseService),
		AdminHandler:   admin.NewHandler(adminService),
		AuditHandler:   audit.NewHandler(audit.NewPostgresStore(pool)),
		PostgresPinger: pool,
		RedisPinger:    platformredis.NewHealthChecker(redisClient),
	})

	// # Serve until signalled

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.Start()
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return errors.Join(err, <-serverErr)
	}

	return <-serverErr
}

// newLogger builds the process-wide structured logger. JSON in production,
// human-readable text in development.
func newLogger(cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}

	options := &slog.HandlerOptions{Level: level}

	if cfg.IsDevelopment() {
		return slog.New(slog.NewTextHandler(os.Stdout, options))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, options))
}

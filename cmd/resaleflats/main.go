package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"time"

	"resaleflats/internal/cli"
	apphttp "resaleflats/internal/http"
	"resaleflats/internal/log"
	"resaleflats/internal/reports"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	cli.LoadEnvFile()

	// Bootstrap logger until LOG_LEVEL is known
	logger := cli.SetupLogger(slog.LevelInfo)
	cfg := cli.LoadAndValidateConfig(logger)
	logger = cli.SetupLogger(cfg.SlogLevel())

	store := cli.OpenStore(context.Background(), logger, cfg)
	defer store.Close()

	service := reports.NewService(store, cfg.Since(), logger)

	srv, err := apphttp.NewServer(apphttp.Options{
		Addr:           ":" + cfg.Port,
		QueryTimeout:   cfg.QueryTimeout,
		TrustedProxies: cfg.TrustedProxies,
		RateLimit:      cfg.RateLimitPerMinute,
		Logger:         logger,
	}, service)
	if err != nil {
		logger.Error("Failed to create server", log.FieldError, err)
		os.Exit(1)
	}

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
	})

	logger.Info("Starting resaleflats server",
		"port", cfg.Port,
		"driver", cfg.DBDriver,
		log.FieldSince, cfg.ReportSince)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}

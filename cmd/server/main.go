// Command server serves the upload page and reconciliation API for the
// account described by the sync profile.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/JonMunkholm/doorsync/internal/config"
	"github.com/JonMunkholm/doorsync/internal/core"
	"github.com/JonMunkholm/doorsync/internal/logging"
	"github.com/JonMunkholm/doorsync/internal/source"
	"github.com/JonMunkholm/doorsync/internal/web"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	// Load and validate configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	profile, err := config.LoadProfile(cfg.Sync.ProfilePath)
	if err != nil {
		slog.Error("failed to load sync profile", "path", cfg.Sync.ProfilePath, "error", err)
		os.Exit(1)
	}
	settings, err := profile.Settings()
	if err != nil {
		slog.Error("invalid security levels", "error", err)
		os.Exit(1)
	}
	for _, t := range settings.SecurityLevels.Unmapped() {
		slog.Warn("no security level configured", "entry_code_type", t.String())
	}

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"account", settings.AccountName,
		"upload_max_concurrent", cfg.Upload.MaxConcurrent,
		"upload_max_file_size", cfg.Upload.MaxFileSize,
		"rate_limit_enabled", cfg.Rate.Enabled,
		"require_api_key", cfg.Security.RequireAPIKey,
	)
	slog.Debug("effective configuration", "config", cfg.String())

	// The configured source backs /api/sync. Postgres needs a pool; without
	// DATABASE_URL the server only accepts uploads.
	var pool *pgxpool.Pool
	if profile.Source.Kind == config.SourcePostgres && cfg.Database.URL != "" {
		pool, err = source.NewPool(context.Background(), cfg.Database)
		if err != nil {
			slog.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		slog.Info("connected to database", "table", profile.Source.Table)
	}
	src, err := source.New(profile.Source, pool)
	if err != nil {
		slog.Warn("table source unavailable, serving uploads only", "kind", profile.Source.Kind, "error", err)
		src = nil
	}

	service := core.NewService(settings, core.ServiceConfig{
		MaxConcurrent: cfg.Upload.MaxConcurrent,
		MaxWait:       cfg.Upload.MaxWaitTime,
	})
	server := web.NewServer(service, cfg, src)

	// Graceful shutdown
	done := make(chan struct{})
	go func() {
		defer close(done)
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		// Stop accepting requests, then let in-flight runs finish.
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
		if status := service.LimiterStatus(); status.Active > 0 {
			slog.Info("waiting for runs to complete", "active", status.Active)
			if err := service.WaitForRuns(shutdownCtx); err != nil {
				slog.Warn("runs did not complete in time", "error", err)
			}
		}
	}()

	slog.Info("server starting", "addr", cfg.Server.Addr())
	if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
	<-done
	slog.Info("server stopped")
}

package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/JonMunkholm/listcheck/internal/backend"
	"github.com/JonMunkholm/listcheck/internal/config"
	"github.com/JonMunkholm/listcheck/internal/core"
	"github.com/JonMunkholm/listcheck/internal/history"
	"github.com/JonMunkholm/listcheck/internal/logging"
	"github.com/JonMunkholm/listcheck/internal/web"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"backend_url", cfg.Backend.URL,
		"upload_max_concurrent", cfg.Upload.MaxConcurrent,
		"rate_limit_enabled", cfg.Rate.Enabled,
		"history", historyKind(cfg.History),
	)

	client, err := backend.New(cfg.Backend.URL, backend.Options{
		Timeout:   cfg.Backend.Timeout,
		UserAgent: cfg.Backend.UserAgent,
	})
	if err != nil {
		slog.Error("failed to create job service client", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	var store core.JobHistory
	if cfg.History.DatabaseURL != "" {
		pg, err := history.Connect(ctx, cfg.History)
		if err != nil {
			slog.Error("failed to connect to history database", "error", err)
			os.Exit(1)
		}
		defer pg.Close()
		store = pg
	} else {
		store = history.NewMemoryStore()
	}

	limiter := core.NewSubmitLimiter(cfg.Upload.MaxConcurrent, cfg.Upload.MaxWaitTime)

	service := core.NewService(client, store, limiter, core.Options{
		PreviewRows:   cfg.Upload.PreviewRows,
		MaxFileSize:   cfg.Upload.MaxFileSize,
		Background:    cfg.Upload.Background,
		PageSize:      cfg.Results.PageSize,
		LocalPageSize: cfg.Results.LocalPageSize,
		BatchWorkers:  cfg.Batch.Workers,
		BatchMaxLines: cfg.Batch.MaxLines,
		WorkspaceTTL:  cfg.Server.WorkspaceIdleTTL,
	})

	server := web.NewServer(service, cfg)

	jobCtx, cancelJobs := context.WithCancel(context.Background())
	server.RunBackground(jobCtx)

	go service.StartMaintenance(jobCtx, core.MaintenanceConfig{
		RetentionDays: cfg.History.RetentionDays,
		PurgeInterval: cfg.History.PurgeInterval,
	})

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")
		cancelJobs()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if st := limiter.Status(); st.Active > 0 {
			slog.Info("waiting for submissions to complete", "active", st.Active)
			if err := limiter.WaitForDrain(shutdownCtx); err != nil {
				slog.Warn("submissions did not complete in time", "error", err)
			} else {
				slog.Info("all submissions completed")
			}
		}

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	slog.Info("server starting", "addr", cfg.Server.Addr())
	if err := server.Start(); err != nil {
		slog.Info("server stopped", "error", err)
	}
}

func historyKind(cfg config.HistoryConfig) string {
	if cfg.DatabaseURL != "" {
		return "postgres"
	}
	return "memory"
}

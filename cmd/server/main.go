package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/JonMunkholm/DataCheck/internal/config"
	"github.com/JonMunkholm/DataCheck/internal/logging"
	"github.com/JonMunkholm/DataCheck/internal/pipeline"
	"github.com/JonMunkholm/DataCheck/internal/store"
	"github.com/JonMunkholm/DataCheck/internal/web"
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

	// Setup structured logging based on config
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"raw_dir", cfg.Data.RawDir,
		"join_mode", cfg.Data.JoinMode,
		"workers", cfg.Data.Workers,
		"rate_limit_enabled", cfg.Rate.Enabled,
	)

	ctx := context.Background()

	// Run history is optional: without a database URL the service still
	// checks datasets, it just keeps no history.
	var st *store.Store
	if cfg.Database.URL != "" {
		st, err = store.Open(ctx, cfg.Database)
		if err != nil {
			slog.Error("failed to open run-history store", "error", err)
			os.Exit(1)
		}
		defer st.Close()
		slog.Info("run-history store ready", "max_conns", cfg.Database.MaxConns)
	} else {
		slog.Info("no database configured, run history disabled")
	}

	// Register the datasets and the relation between them
	if err := pipeline.RegisterDefaults(cfg); err != nil {
		slog.Error("failed to register datasets", "error", err)
		os.Exit(1)
	}
	slog.Info("datasets registered", "count", pipeline.DatasetCount())

	service := pipeline.NewService(cfg, st)
	server := web.NewServer(service, cfg)

	// Create cancellable context for background jobs
	jobCtx, cancelJobs := context.WithCancel(context.Background())

	// Periodic re-checks pick up replaced source files
	go service.StartScheduler(jobCtx, cfg.Data.CheckInterval)

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")

		// Stop background jobs
		cancelJobs()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	slog.Info("server starting", "addr", cfg.Server.Addr())
	if err := server.Start(); err != nil {
		slog.Info("server stopped", "error", err)
	}
}

package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"smsink/internal/api"
	"smsink/internal/config"
	"smsink/internal/lock"
	"smsink/internal/log"
	"smsink/internal/metrics"
	"smsink/internal/storage"
	"smsink/internal/store"
	"smsink/internal/webhook"
)

const version = "0.1.0"

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		// Logger is not configured yet.
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return 1
	}

	log.Setup(cfg.LogLevel)
	logger := log.WithComponent("main")
	logger.Info("smsink starting", "version", version, "listen", cfg.Listen)

	if !cfg.HasSecret() {
		// Start anyway: readiness stays 503 and every delivery answers 401
		// until the secret is provided.
		logger.Warn("WEBHOOK_SECRET is not configured, all webhook deliveries will be rejected")
	}

	dbPath := cfg.SQLitePath()

	lockPath := cfg.LockFile
	if lockPath == "" {
		lockPath = lock.DefaultPath(dbPath)
	}
	pidLock, err := lock.AcquirePIDLock(lockPath)
	if err != nil {
		logger.Error("failed to acquire PID lock (another instance may be running)", "path", lockPath, "error", err)
		return 1
	}
	defer pidLock.Release()

	db, err := storage.OpenSQLite(ctx, dbPath)
	if err != nil {
		logger.Error("failed to open database", "path", dbPath, "error", err)
		return 1
	}
	defer db.Close()
	logger.Info("database opened", "path", dbPath)

	collector := metrics.NewCollector()
	messages := store.New(db)
	ingestor := webhook.NewIngestor(cfg.WebhookSecret, messages, collector, log.WithComponent("webhook"))

	server := api.New(api.Config{
		Listen:    cfg.Listen,
		HasSecret: cfg.HasSecret(),
	}, db, messages, ingestor, collector, log.WithComponent("api"))

	if err := server.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("server failed", "error", err)
		return 1
	}

	logger.Info("smsink stopped")
	return 0
}

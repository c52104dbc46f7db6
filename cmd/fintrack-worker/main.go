package main

import (
	"context"
	"os"
	"time"

	"fintrack/internal/cli"
	applog "fintrack/internal/log"
	gsheet "fintrack/internal/sheets/google"
	"fintrack/internal/worker"
)

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger("info", applog.ComponentWorker)
	cfg := cli.LoadAndValidateConfig(logger)
	logger = cli.SetupLogger(cfg.LogLevel, applog.ComponentWorker)
	logger.Info("Starting fintrack-worker")

	if !cfg.AMQPEnabled() {
		logger.Error("fintrack-worker needs AMQP_URL; without a broker the server exports in-process")
		os.Exit(1)
	}

	components := cli.BuildBackend(context.Background(), logger, cfg)
	defer components.Close()
	if components.Broker == nil {
		logger.Error("Message broker unreachable", "url_set", cfg.AMQPURL != "")
		os.Exit(1)
	}

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, nil)

	if exp, ok := components.Exporter.(*gsheet.Exporter); ok {
		if err := exp.EnsureHeader(ctx); err != nil {
			// Don't exit: rows can still be appended.
			logger.Error("Failed to write sheet header", "error", err)
		}
	} else {
		logger.Info("Google Sheets disabled - exports stay in memory")
	}

	// Alerts popped from the queue go straight to their channels.
	w := worker.NewWorker(components.Store, components.Exporter, components.Notifier, cfg.SyncBatchSize)

	logger.Info("Performing startup sync check...")
	if _, _, err := w.StartupSyncCheck(ctx); err != nil {
		logger.Error("Failed startup sync check", "error", err)
	}

	go func() {
		if err := w.Run(ctx, components.Broker); err != nil {
			logger.Error("Message consumption failed", "error", err)
			os.Exit(1)
		}
	}()

	// Periodic catch-up for messages lost while the broker was down.
	ticker := time.NewTicker(cfg.SyncInterval)
	defer ticker.Stop()
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, failed, err := w.StartupSyncCheck(ctx); err != nil || failed > 0 {
					logger.Error("Periodic sync failed", "error", err, "failed", failed)
				}
			}
		}
	}()

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker shutdown complete")
}

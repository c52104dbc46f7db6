package main

import (
	"context"
	"time"

	"fintrack/internal/cli"
	applog "fintrack/internal/log"
	"fintrack/internal/services"
)

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger("info", applog.ComponentBills)
	cfg := cli.LoadAndValidateConfig(logger)
	logger = cli.SetupLogger(cfg.LogLevel, applog.ComponentBills)
	logger.Info("Starting bill-worker")

	components := cli.BuildBackend(context.Background(), logger, cfg)
	defer components.Close()

	processor := services.NewBillProcessor(components.Store, nil)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, nil)

	interval := cfg.BillProcessorInterval
	logger.Info("Bill processor configured",
		"interval", interval,
		"backend", cfg.DataBackend)

	logger.Info("Running initial bill processing...")
	if count, err := processor.ProcessDueBills(ctx, time.Now()); err != nil {
		logger.Error("Initial processing failed", "error", err)
	} else {
		logger.Info("Initial processing complete", "bills_reopened", count)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				count, err := processor.ProcessDueBills(ctx, now)
				if err != nil {
					logger.Error("Periodic processing failed", "error", err)
					continue
				}
				logger.Info("Periodic processing complete",
					"bills_reopened", count,
					"next_check", now.Add(interval).Format("15:04:05"))
			}
		}
	}()

	cli.WaitForShutdown(ctx, done)
	logger.Info("Bill-worker shutdown complete")
}

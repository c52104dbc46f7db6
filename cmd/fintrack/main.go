package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"fintrack/internal/auth"
	"fintrack/internal/cache"
	"fintrack/internal/cli"
	apphttp "fintrack/internal/http"
	applog "fintrack/internal/log"
	"fintrack/internal/services"
)

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger("info", applog.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger)
	logger = cli.SetupLogger(cfg.LogLevel, applog.ComponentApp)

	components := cli.BuildBackend(context.Background(), logger, cfg)
	store := components.Store

	lowBalance, err := cfg.LowBalance()
	if err != nil {
		logger.Error("Invalid low balance threshold", "error", err)
		os.Exit(1)
	}

	dashCache := cache.NewLRUCache[*services.Dashboard](cfg.CacheSize, cfg.CacheTTL)
	cacheManager := cache.NewManager()
	cacheManager.Register(dashCache)
	cacheManager.StartCleanup(cfg.CacheTTL)

	dashboard := services.NewDashboardService(store, dashCache, lowBalance)
	ledger := services.NewLedgerService(store, components.SyncPublisher(), components.AlertNotifier(), dashboard, cfg.StrictCategories)

	deps := apphttp.Deps{
		Ledger:        ledger,
		Budgets:       services.NewBudgetService(store, dashboard, cfg.StrictCategories),
		Bills:         services.NewBillService(store, ledger, dashboard, cfg.StrictCategories),
		Goals:         services.NewGoalService(store, dashboard),
		Settings:      services.NewSettingsService(store, dashboard),
		Dashboard:     dashboard,
		Notifications: store,
		Auth:          auth.NewLocalAuthenticator(store),
		Checks:        components.Checks,
	}
	if cfg.AuthEnabled {
		deps.Tokens = auth.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL)
	}

	srv := apphttp.NewServer(":"+cfg.Port, deps, apphttp.Options{
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		AuthEnabled:        cfg.AuthEnabled,
		TrustedProxies:     cfg.TrustedProxies,
		Logger:             logger.WithComponent(applog.ComponentHTTP),
	})

	// Without a broker nobody consumes sync messages, so exports are
	// polled from storage in-process.
	var processor *services.SyncProcessor
	if components.Broker == nil {
		processor = services.NewSyncProcessor(store, components.Exporter, services.SyncProcessorConfig{
			PollInterval: cfg.SyncInterval,
			BatchSize:    cfg.SyncBatchSize,
		})
	}

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		if processor != nil {
			if err := processor.Stop(ctx); err != nil {
				logger.Error("Sync processor shutdown error", "error", err)
			}
		}
		cacheManager.Stop()
		if err := components.Close(); err != nil {
			logger.Error("Backend cleanup error", "error", err)
		}
	})

	if processor != nil {
		if err := processor.Start(ctx); err != nil {
			logger.Error("Failed to start sync processor", "error", err)
			os.Exit(1)
		}
	}
	// An in-memory store is private to this process, so bill-worker cannot
	// reach it.
	if cfg.DataBackend == "memory" {
		go runBillProcessor(ctx, logger, services.NewBillProcessor(store, dashboard), cfg.BillProcessorInterval)
	}

	logger.Info("Starting fintrack server",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"auth_enabled", cfg.AuthEnabled,
		"broker", components.Broker != nil)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}

func runBillProcessor(ctx context.Context, logger *applog.Logger, p *services.BillProcessor, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		if _, err := p.ProcessDueBills(ctx, time.Now()); err != nil {
			logger.Error("Bill processing failed", "error", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

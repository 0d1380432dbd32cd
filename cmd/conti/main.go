package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"
	_ "time/tzdata"

	"conti/internal/backend"
	"conti/internal/cache"
	"conti/internal/cli"
	"conti/internal/core"
	apphttp "conti/internal/http"
	"conti/internal/log"
	"conti/internal/receipt"
	"conti/internal/services"
)

func main() {
	cli.LoadEnvFile()
	boot := cli.SetupLogger(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"), log.ComponentApp)
	cfg := cli.LoadAndValidateConfig(boot, nil)
	logger := cli.SetupLogger(cfg.LogLevel, cfg.LogFormat, log.ComponentApp)

	startCtx, startCancel := context.WithTimeout(context.Background(), 30*time.Second)
	res, err := backend.NewFactory(logger.Logger.With(log.FieldComponent, log.ComponentBackend)).Create(startCtx, cfg)
	startCancel()
	if err != nil {
		logger.Error("Failed to initialize backend", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}

	clock := services.Clock{Location: cfg.Location}
	statsCache := cache.NewLRUCache[core.Stats](cfg.StatsCacheSize, cfg.StatsCacheTTL)
	cacheManager := cache.NewManager(logger.Logger.With(log.FieldComponent, log.ComponentStats))
	cacheManager.Register(statsCache)
	cacheManager.StartCleanup(cfg.StatsCacheTTL)

	stats := services.NewStatsService(res.Store, clock, statsCache)
	expenses := services.NewExpenseService(res.Store, res.Publisher, clock, stats)

	srv := apphttp.NewServer(cfg.Addr(), apphttp.Deps{
		Expenses:           expenses,
		Stats:              stats,
		Scanner:            receipt.NewScanner(res.Recognizer),
		Store:              res.Store,
		Clock:              clock,
		Logger:             logger,
		CacheManager:       cacheManager,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		TrustedProxies:     cfg.TrustedProxies,
	})
	srv.MaxHeaderBytes = 1 << 16

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		if err := res.Close(); err != nil {
			logger.Error("Backend close error", "error", err)
		}
	})

	logger.Info("Starting conti server",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"ocr", cfg.OCRProvider,
		"events", res.Publisher != nil,
		"timezone", cfg.Timezone)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		res.Close()
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}

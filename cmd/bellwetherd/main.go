// Bellwether serves live market-depth and fair-price metrics for binary
// prediction markets on Polymarket and Kalshi, fetched through a market
// data vendor and cached in Redis.
//
// Architecture:
//
//	main.go              entry point: loads config, wires components, waits for SIGINT/SIGTERM
//	api/                 HTTP surface: per-market and combined metrics, health, index, scrape
//	metrics/             coordinators: cache replay, book fetch, pricing, record assembly
//	pricing/             tiered bellwether cascade, reportability policy, stale VWAP fallback
//	market/              pure book and trade math: VWAP, midpoint, cost-to-move walk
//	exchange/            vendor REST adapter: payload normalization for both venue shapes
//	cache/               redis metric cache plus the long-lived stale VWAP side-cache
//	telemetry/           prometheus collectors
//
// How it prices:
//
//	Each answer carries a tier. Tier 1 is a 6h VWAP, tier 2 widens the
//	window to 12h or 24h, tier 3 falls back to the order book midpoint,
//	and tier 4 serves the last stored VWAP or reports no data. Every
//	answer also grades how much money it would take to move the book
//	five cents, so a thin market can never masquerade as a deep one.
package main

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"bellwether/internal/api"
	"bellwether/internal/cache"
	"bellwether/internal/config"
	"bellwether/internal/exchange"
	"bellwether/internal/metrics"
	"bellwether/internal/pricing"
	"bellwether/internal/telemetry"
)

func main() {
	// Load config
	cfgPath := "configs/config.yaml"
	if p := os.Getenv("BELLWETHER_CONFIG"); p != "" {
		cfgPath = p
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		slog.Error("failed to load config", "error", err, "path", cfgPath)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	// Set up logger
	var handler slog.Handler
	opts := &slog.HandlerOptions{Level: parseLogLevel(cfg.Logging.Level)}
	if cfg.Logging.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	logger := slog.New(handler)

	tel := telemetry.New()

	store, err := cache.New(cfg.Cache.RedisURL, tel, logger)
	if err != nil {
		logger.Error("failed to set up cache", "error", err)
		os.Exit(1)
	}

	client := exchange.NewClient(cfg.Vendor, tel, logger)
	pricer := pricing.New(client, store, tel, logger)
	service := metrics.NewService(client, pricer, store, logger)

	health := api.Health{
		CredentialConfigured: cfg.Vendor.APIKey != "",
		CacheConfigured:      store.Enabled(),
	}
	server := api.NewServer(cfg.Server, service, health, tel, logger)

	go func() {
		if err := server.Start(); err != nil {
			logger.Error("http server failed", "error", err)
			os.Exit(1)
		}
	}()

	logger.Info("bellwether started",
		"port", cfg.Server.Port,
		"vendor", cfg.Vendor.BaseURL,
		"credential_configured", health.CredentialConfigured,
		"cache_configured", health.CacheConfigured,
	)

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("received shutdown signal", "signal", sig.String())

	if err := server.Stop(); err != nil {
		logger.Error("failed to stop http server", "error", err)
	}
	if err := store.Close(); err != nil {
		logger.Error("failed to close cache", "error", err)
	}
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

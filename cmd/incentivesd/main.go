package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"incentives/internal/assets"
	"incentives/internal/config"
	"incentives/internal/decimal"
	"incentives/internal/engine"
	"incentives/internal/lock"
	"incentives/internal/server"
	"incentives/internal/store"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

func setupLoggerFromEnv() {
	levelStr := os.Getenv("LOG_LEVEL")
	var level slog.Level
	switch levelStr {
	case "debug", "DEBUG":
		level = slog.LevelDebug
	case "warn", "WARN", "warning", "WARNING":
		level = slog.LevelWarn
	case "error", "ERROR":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	format := os.Getenv("LOG_FORMAT")
	var handler slog.Handler
	if format == "json" || format == "JSON" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	}

	slog.SetDefault(slog.New(handler))
}

func main() {
	_ = godotenv.Load()

	setupLoggerFromEnv()
	slog.Info("starting incentives engine")

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	backend, err := openStore(cfg)
	if err != nil {
		slog.Error("failed to open store", "error", err)
		os.Exit(1)
	}

	factory := newChainFactoryGateway(cfg.FactoryAddress)
	eng := engine.New(backend, factory)

	if err := bootstrapConfig(eng, cfg); err != nil {
		slog.Error("failed to bootstrap engine config", "error", err)
		os.Exit(1)
	}

	lockEng := lock.New(backend, newChainContractChecker())

	httpServer := server.NewServer(cfg, eng, lockEng, os.Getenv("POOL_LABELS_FILE"))
	if err := httpServer.Start(); err != nil {
		slog.Error("failed to start HTTP server", "error", err)
		os.Exit(1)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	slog.Info("shutting down gracefully...")
	if err := httpServer.Stop(); err != nil {
		slog.Error("error stopping HTTP server", "error", err)
	}
	slog.Info("shutdown complete")
}

// openStore picks the Postgres-backed store when STORE_DSN is set to a
// "postgres://" URL, falling back to the in-memory store for local
// development and tests.
func openStore(cfg *config.Config) (store.Store, error) {
	if cfg.StoreDSN == "" {
		slog.Warn("no store DSN configured, using in-memory store")
		return store.NewMemStore(), nil
	}
	pg, err := store.OpenPG(cfg.StoreDSN)
	if err != nil {
		return nil, err
	}
	return pg, nil
}

// bootstrapConfig seeds the engine's singleton GlobalConfig from process
// configuration the first time the process runs against a fresh store.
func bootstrapConfig(eng *engine.Engine, cfg *config.Config) error {
	if cfg.Owner == "" || cfg.ProtocolAssetDenom == "" {
		slog.Warn("OWNER/PROTOCOL_ASSET_DENOM not set, skipping config bootstrap")
		return nil
	}

	protocolAsset, err := assets.Native(cfg.ProtocolAssetDenom)
	if err != nil {
		return err
	}

	protocolPerSecond := decimal.ZeroAmount()
	if cfg.ProtocolPerSecond != "" {
		protocolPerSecond, err = decimal.ParseAmount(cfg.ProtocolPerSecond)
		if err != nil {
			return err
		}
	}

	var fee *engine.IncentivizationFee
	if cfg.IncentivizationFee != "" {
		amount, err := decimal.ParseAmount(cfg.IncentivizationFee)
		if err != nil {
			return err
		}
		fee = &engine.IncentivizationFee{
			Asset:    protocolAsset,
			Amount:   amount,
			Receiver: cfg.IncentivizationAddr,
		}
	}

	return eng.Bootstrap(context.Background(), engine.GlobalConfig{
		Owner:              cfg.Owner,
		Factory:            cfg.FactoryAddress,
		Trader:             cfg.Trader,
		ProtocolAsset:      protocolAsset,
		ProtocolPerSecond:  protocolPerSecond,
		TotalAllocPoints:   decimal.ZeroAmount(),
		IncentivizationFee: fee,
	})
}

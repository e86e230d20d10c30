// Command treasury runs the treasury management engine: a shared multi-asset
// pool with yield investments, a proposal/approval/timelock spending workflow
// and portfolio rebalancing, exposed over an HTTP JSON API.
//
// Usage:
//
//	treasury --config config.yaml
//	treasury (uses CLI arguments)
//
// Required environment variables:
//
//	For --platform=binance: BINANCE_API_KEY, BINANCE_API_SECRET
//	For --platform=bybit:   BYBIT_API_KEY, BYBIT_API_SECRET
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/adshao/go-binance/v2"
	"github.com/hirokisan/bybit/v2"
	"go.uber.org/zap"

	"github.com/astratum/treasury/config"
	"github.com/astratum/treasury/internal/adapters"
	"github.com/astratum/treasury/internal/storage/events"
	"github.com/astratum/treasury/internal/storage/state"
	"github.com/astratum/treasury/internal/treasury"
	"github.com/astratum/treasury/internal/web"
)

func main() {
	cfg, err := config.Get()
	if err != nil {
		log.Fatal(err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	adapter, err := buildAdapter(cfg)
	if err != nil {
		logger.Fatal("failed to build rebalance adapter", zap.Error(err))
	}

	eventStore, err := events.NewWALStore(filepath.Join(cfg.WALDir, "events"))
	if err != nil {
		logger.Fatal("failed to open event journal", zap.Error(err))
	}
	defer eventStore.Close()

	stateStore, err := state.NewStore(filepath.Join(cfg.WALDir, "state"))
	if err != nil {
		logger.Fatal("failed to open state store", zap.Error(err))
	}
	defer stateStore.Close()

	engine, err := treasury.New(
		treasury.Limits{
			MinProposalAmount:      cfg.MinProposalAmount,
			MaxProposalAmount:      cfg.MaxProposalAmount,
			MaxSingleInvestmentBps: cfg.MaxSingleInvestmentBps,
			ProposalExecutionDelay: cfg.ProposalExecutionDelay,
			RebalanceThresholdBps:  cfg.RebalanceThresholdBps,
			BenchmarkAPYBps:        cfg.BenchmarkAPYBps,
			StrictAllocations:      cfg.StrictAllocations,
		},
		logger,
		treasury.WithRebalanceAdapter(adapter),
		treasury.WithGovernance(adapters.NewApprovalBook()),
		treasury.WithEventSink(eventStore),
		treasury.WithStateStore(stateStore),
	)
	if err != nil {
		logger.Fatal("failed to build treasury engine", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	server := web.NewServer(cfg.ListenAddr, engine, eventStore, logger)
	if err := server.Start(ctx); err != nil {
		logger.Fatal("HTTP server failed", zap.Error(err))
	}
}

func buildAdapter(cfg config.Config) (treasury.RebalanceAdapter, error) {
	switch cfg.Platform {
	case "", "noop":
		return adapters.NewNoop(), nil
	case "binance":
		apiKey := os.Getenv("BINANCE_API_KEY")
		apiSecret := os.Getenv("BINANCE_API_SECRET")
		if apiKey == "" || apiSecret == "" {
			log.Fatal("BINANCE_API_KEY and BINANCE_API_SECRET environment variables must be set")
		}
		return adapters.NewBinance(binance.NewClient(apiKey, apiSecret), cfg.Quote), nil
	case "bybit":
		apiKey := os.Getenv("BYBIT_API_KEY")
		apiSecret := os.Getenv("BYBIT_API_SECRET")
		if apiKey == "" || apiSecret == "" {
			log.Fatal("BYBIT_API_KEY and BYBIT_API_SECRET environment variables must be set")
		}
		client := bybit.NewClient().WithAuth(apiKey, apiSecret)
		return adapters.NewBybit(client, cfg.Quote), nil
	default:
		log.Fatalf("unsupported platform %q", cfg.Platform)
		return nil, nil
	}
}

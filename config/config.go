// Package config loads the treasury daemon configuration from a YAML file or
// CLI flags, applying per-field defaults.
package config

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Config is the runtime configuration of the treasury daemon.
type Config struct {
	// Platform selects the rebalance adapter: noop, binance or bybit.
	Platform string
	// Quote is the venue symbol of the unit of account, e.g. USDT.
	Quote string
	// ListenAddr is the HTTP API bind address.
	ListenAddr string
	// WALDir is the base directory for the event and state WALs.
	WALDir string

	MinProposalAmount      decimal.Decimal
	MaxProposalAmount      decimal.Decimal
	MaxSingleInvestmentBps int64
	ProposalExecutionDelay time.Duration
	RebalanceThresholdBps  int64
	BenchmarkAPYBps        int64
	StrictAllocations      bool
}

type configTmp struct {
	Platform               string        `yaml:"platform"`
	Quote                  string        `yaml:"quote"`
	ListenAddr             string        `yaml:"listen_addr"`
	WALDir                 string        `yaml:"wal_dir"`
	MinProposalAmount      string        `yaml:"min_proposal_amount"`
	MaxProposalAmount      string        `yaml:"max_proposal_amount"`
	MaxSingleInvestmentBps int64         `yaml:"max_single_investment_bps"`
	ProposalExecutionDelay time.Duration `yaml:"proposal_execution_delay"`
	RebalanceThresholdBps  int64         `yaml:"rebalance_threshold_bps"`
	BenchmarkAPYBps        int64         `yaml:"benchmark_apy_bps"`
	StrictAllocations      bool          `yaml:"strict_allocations"`
}

// Get reads configuration from --config when given, falling back to flags.
func Get() (Config, error) {
	configPath := flag.String("config", "", "path to yaml config")
	platform := flag.String("platform", "noop", "rebalance adapter: noop, binance or bybit")
	quote := flag.String("quote", "USDT", "venue symbol of the unit of account")
	listen := flag.String("listen", ":8080", "HTTP API listen address")
	walDir := flag.String("waldir", "./wal", "base directory for WAL storage")
	flag.Parse()

	if *configPath != "" {
		return getYaml(*configPath)
	}

	cfg := defaults()
	cfg.Platform = *platform
	cfg.Quote = *quote
	cfg.ListenAddr = *listen
	cfg.WALDir = *walDir
	return cfg, nil
}

func defaults() Config {
	return Config{
		Platform:               "noop",
		Quote:                  "USDT",
		ListenAddr:             ":8080",
		WALDir:                 "./wal",
		MinProposalAmount:      decimal.NewFromInt(1000),
		MaxProposalAmount:      decimal.NewFromInt(100000),
		MaxSingleInvestmentBps: 1000,
		ProposalExecutionDelay: 7 * 24 * time.Hour,
		RebalanceThresholdBps:  500,
		BenchmarkAPYBps:        500,
	}
}

func getYaml(path string) (Config, error) {
	f, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	var tmp configTmp
	if err := yaml.Unmarshal(f, &tmp); err != nil {
		return Config{}, err
	}

	cfg := defaults()
	if tmp.Platform != "" {
		cfg.Platform = tmp.Platform
	}
	if tmp.Quote != "" {
		cfg.Quote = tmp.Quote
	}
	if tmp.ListenAddr != "" {
		cfg.ListenAddr = tmp.ListenAddr
	}
	if tmp.WALDir != "" {
		cfg.WALDir = tmp.WALDir
	}
	if tmp.MinProposalAmount != "" {
		cfg.MinProposalAmount, err = decimal.NewFromString(tmp.MinProposalAmount)
		if err != nil {
			return Config{}, fmt.Errorf("incorrect 'min_proposal_amount' param in yaml config, error: %w", err)
		}
	}
	if tmp.MaxProposalAmount != "" {
		cfg.MaxProposalAmount, err = decimal.NewFromString(tmp.MaxProposalAmount)
		if err != nil {
			return Config{}, fmt.Errorf("incorrect 'max_proposal_amount' param in yaml config, error: %w", err)
		}
	}
	if tmp.MaxSingleInvestmentBps != 0 {
		cfg.MaxSingleInvestmentBps = tmp.MaxSingleInvestmentBps
	}
	if tmp.ProposalExecutionDelay != 0 {
		cfg.ProposalExecutionDelay = tmp.ProposalExecutionDelay
	}
	if tmp.RebalanceThresholdBps != 0 {
		cfg.RebalanceThresholdBps = tmp.RebalanceThresholdBps
	}
	if tmp.BenchmarkAPYBps != 0 {
		cfg.BenchmarkAPYBps = tmp.BenchmarkAPYBps
	}
	cfg.StrictAllocations = tmp.StrictAllocations

	if cfg.MinProposalAmount.GreaterThan(cfg.MaxProposalAmount) {
		return Config{}, fmt.Errorf("min_proposal_amount %s exceeds max_proposal_amount %s",
			cfg.MinProposalAmount, cfg.MaxProposalAmount)
	}
	if cfg.MaxSingleInvestmentBps < 0 || cfg.MaxSingleInvestmentBps > 10000 {
		return Config{}, fmt.Errorf("max_single_investment_bps must be within [0, 10000], got %d", cfg.MaxSingleInvestmentBps)
	}

	return cfg, nil
}

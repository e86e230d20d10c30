package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestGetYaml_FullConfig(t *testing.T) {
	path := writeConfig(t, `
platform: binance
quote: USDC
listen_addr: ":9090"
wal_dir: /var/lib/treasury
min_proposal_amount: "2500"
max_proposal_amount: "500000"
max_single_investment_bps: 2000
proposal_execution_delay: 48h
rebalance_threshold_bps: 300
benchmark_apy_bps: 700
strict_allocations: true
`)

	cfg, err := getYaml(path)
	require.NoError(t, err)
	require.Equal(t, "binance", cfg.Platform)
	require.Equal(t, "USDC", cfg.Quote)
	require.Equal(t, ":9090", cfg.ListenAddr)
	require.Equal(t, "/var/lib/treasury", cfg.WALDir)
	require.True(t, cfg.MinProposalAmount.Equal(decimal.NewFromInt(2500)))
	require.True(t, cfg.MaxProposalAmount.Equal(decimal.NewFromInt(500000)))
	require.Equal(t, int64(2000), cfg.MaxSingleInvestmentBps)
	require.Equal(t, 48*time.Hour, cfg.ProposalExecutionDelay)
	require.Equal(t, int64(300), cfg.RebalanceThresholdBps)
	require.Equal(t, int64(700), cfg.BenchmarkAPYBps)
	require.True(t, cfg.StrictAllocations)
}

func TestGetYaml_DefaultsForOmittedFields(t *testing.T) {
	path := writeConfig(t, `
platform: bybit
`)

	cfg, err := getYaml(path)
	require.NoError(t, err)
	require.Equal(t, "bybit", cfg.Platform)
	require.Equal(t, "USDT", cfg.Quote)
	require.Equal(t, ":8080", cfg.ListenAddr)
	require.True(t, cfg.MinProposalAmount.Equal(decimal.NewFromInt(1000)))
	require.True(t, cfg.MaxProposalAmount.Equal(decimal.NewFromInt(100000)))
	require.Equal(t, 7*24*time.Hour, cfg.ProposalExecutionDelay)
	require.False(t, cfg.StrictAllocations)
}

func TestGetYaml_InvalidAmount(t *testing.T) {
	path := writeConfig(t, `
min_proposal_amount: "not-a-number"
`)

	_, err := getYaml(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "min_proposal_amount")
}

func TestGetYaml_InvertedBounds(t *testing.T) {
	path := writeConfig(t, `
min_proposal_amount: "5000"
max_proposal_amount: "1000"
`)

	_, err := getYaml(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "exceeds")
}

func TestGetYaml_InvestmentCapOutOfRange(t *testing.T) {
	path := writeConfig(t, `
max_single_investment_bps: 20000
`)

	_, err := getYaml(path)
	require.Error(t, err)
}

func TestGetYaml_MissingFile(t *testing.T) {
	_, err := getYaml(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

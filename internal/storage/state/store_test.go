package state

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/astratum/treasury/internal/domain"
	"github.com/astratum/treasury/internal/treasury"
)

func TestStore_LoadEmpty(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	_, found, err := store.Load()
	require.NoError(t, err)
	require.False(t, found)
}

func TestStore_KeepsNewestSnapshot(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	first := treasury.State{TotalRevenue: decimal.NewFromInt(100)}
	second := treasury.State{TotalRevenue: decimal.NewFromInt(250)}
	require.NoError(t, store.Save(first))
	require.NoError(t, store.Save(second))

	loaded, found, err := store.Load()
	require.NoError(t, err)
	require.True(t, found)
	require.True(t, loaded.TotalRevenue.Equal(decimal.NewFromInt(250)))
}

// TestEngineRecovery drives the engine through a few operations, restarts it
// against the same store directory, and checks it picks up where it left off.
func TestEngineRecovery(t *testing.T) {
	dir := t.TempDir()
	admin := domain.NewCaller("admin", domain.RoleAdmin)
	anyone := domain.NewCaller("anyone")
	assetUSD := common.HexToAddress("0x00000000000000000000000000000000000000a1")

	store, err := NewStore(dir)
	require.NoError(t, err)

	e, err := treasury.New(treasury.DefaultLimits(), zap.NewNop(), treasury.WithStateStore(store))
	require.NoError(t, err)

	_, err = e.AddAsset(admin, assetUSD, "USD", 4000, false)
	require.NoError(t, err)
	require.NoError(t, e.Deposit(anyone, assetUSD, decimal.NewFromInt(10000)))
	require.NoError(t, e.Pause(admin))
	require.NoError(t, store.Close())

	reopened, err := NewStore(dir)
	require.NoError(t, err)
	defer reopened.Close()

	recovered, err := treasury.New(treasury.DefaultLimits(), zap.NewNop(), treasury.WithStateStore(reopened))
	require.NoError(t, err)

	a, err := recovered.GetAsset(assetUSD)
	require.NoError(t, err)
	require.Equal(t, "USD", a.Symbol)
	require.True(t, a.Balance.Equal(decimal.NewFromInt(10000)))
	require.True(t, recovered.Paused())
}

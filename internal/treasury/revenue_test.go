package treasury

import (
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/astratum/treasury/internal/domain"
)

var revenueSource = common.HexToAddress("0x0000000000000000000000000000000000000D01")

func TestCollectRevenue_AllocatedShare(t *testing.T) {
	// allocationBps=5000 on amount=1000 credits exactly 500
	e, _, sink := fundedEngine(t, 0)

	stream, err := e.AddRevenueStream(manager, "protocol fees", assetUSD, 5000)
	require.NoError(t, err)

	share, err := e.CollectRevenue(anyone, stream.ID, decimal.NewFromInt(1000), revenueSource)
	require.NoError(t, err)
	require.True(t, share.Equal(decimal.NewFromInt(500)))

	asset, err := e.GetAsset(assetUSD)
	require.NoError(t, err)
	require.True(t, asset.Balance.Equal(decimal.NewFromInt(500)))

	got, err := e.GetRevenueStream(stream.ID)
	require.NoError(t, err)
	require.True(t, got.TotalCollected.Equal(decimal.NewFromInt(500)))
	require.True(t, e.TotalRevenue().Equal(decimal.NewFromInt(500)))

	events := sink.byType(domain.EventRevenueCollected)
	require.Len(t, events, 1)
	payload := events[0].Payload.(domain.RevenueCollectedPayload)
	require.True(t, payload.TreasuryShare.Equal(decimal.NewFromInt(500)))
	require.Equal(t, revenueSource, payload.Source)
}

func TestCollectRevenue_BelowRoundingFloor(t *testing.T) {
	// a share that floors to zero is silently dropped, not an error
	e, _, sink := fundedEngine(t, 0)

	stream, err := e.AddRevenueStream(manager, "dust fees", assetUSD, 50) // 0.5%
	require.NoError(t, err)

	share, err := e.CollectRevenue(anyone, stream.ID, decimal.NewFromInt(100), revenueSource)
	require.NoError(t, err)
	require.True(t, share.IsZero())

	asset, err := e.GetAsset(assetUSD)
	require.NoError(t, err)
	require.True(t, asset.Balance.IsZero())

	got, err := e.GetRevenueStream(stream.ID)
	require.NoError(t, err)
	require.True(t, got.TotalCollected.IsZero())
	require.Empty(t, sink.byType(domain.EventRevenueCollected), "dropped dust must not emit")
}

func TestCollectRevenue_InactiveStream(t *testing.T) {
	e, _, _ := fundedEngine(t, 0)

	stream, err := e.AddRevenueStream(manager, "protocol fees", assetUSD, 5000)
	require.NoError(t, err)
	require.NoError(t, e.SetRevenueStreamActive(manager, stream.ID, false))

	_, err = e.CollectRevenue(anyone, stream.ID, decimal.NewFromInt(1000), revenueSource)
	require.ErrorIs(t, err, domain.ErrStreamInactive)
	require.ErrorIs(t, err, domain.ErrStateConflict)
}

func TestCollectRevenue_UnknownStream(t *testing.T) {
	e, _, _ := fundedEngine(t, 0)

	_, err := e.CollectRevenue(anyone, 42, decimal.NewFromInt(1000), revenueSource)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAddRevenueStream_Validation(t *testing.T) {
	e, _, _ := fundedEngine(t, 0)

	_, err := e.AddRevenueStream(manager, "", assetUSD, 5000)
	require.ErrorIs(t, err, domain.ErrValidation)

	_, err = e.AddRevenueStream(manager, "fees", assetUSD, 10001)
	require.ErrorIs(t, err, domain.ErrInvalidAllocation)

	_, err = e.AddRevenueStream(manager, "fees", assetBTC, 5000)
	require.ErrorIs(t, err, domain.ErrUnsupportedAsset)

	_, err = e.AddRevenueStream(anyone, "fees", assetUSD, 5000)
	require.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestCollectRevenue_MaintainsMonthlyAverage(t *testing.T) {
	e, clock, _ := fundedEngine(t, 0)

	stream, err := e.AddRevenueStream(manager, "protocol fees", assetUSD, 10000)
	require.NoError(t, err)

	_, err = e.CollectRevenue(anyone, stream.ID, decimal.NewFromInt(3000), revenueSource)
	require.NoError(t, err)

	clock.Advance(61 * 24 * time.Hour)
	_, err = e.CollectRevenue(anyone, stream.ID, decimal.NewFromInt(3000), revenueSource)
	require.NoError(t, err)

	got, err := e.GetRevenueStream(stream.ID)
	require.NoError(t, err)
	require.True(t, got.TotalCollected.Equal(decimal.NewFromInt(6000)))
	require.True(t, got.MonthlyAverage.Equal(decimal.NewFromInt(3000)), "got %s", got.MonthlyAverage)
}

package domain

import (
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var (
	testAsset    = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	testProtocol = common.HexToAddress("0x00000000000000000000000000000000000000c1")
)

func TestInvestment_ExpectedYield(t *testing.T) {
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	inv := Investment{
		Principal:      decimal.NewFromInt(10000),
		ExpectedAPYBps: 500,
		StartedAt:      start,
	}

	tests := []struct {
		name    string
		elapsed time.Duration
		want    int64
	}{
		{"nothing accrues at start", 0, 0},
		{"half year floors down", 365 * 12 * time.Hour, 250},
		{"full year", 365 * 24 * time.Hour, 500},
		{"two years", 2 * 365 * 24 * time.Hour, 1000},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := inv.ExpectedYield(start.Add(tc.elapsed))
			require.True(t, got.Equal(decimal.NewFromInt(tc.want)), "got %s", got)
		})
	}
}

func TestInvestment_YieldBeforeStartIsZero(t *testing.T) {
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	inv := Investment{
		Principal:      decimal.NewFromInt(10000),
		ExpectedAPYBps: 500,
		StartedAt:      start,
	}
	require.True(t, inv.ExpectedYield(start.Add(-time.Hour)).IsZero())
}

func TestInvestment_Harvestable(t *testing.T) {
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	inv := Investment{
		Principal:      decimal.NewFromInt(10000),
		ExpectedAPYBps: 500,
		StartedAt:      start,
		YieldAccrued:   decimal.NewFromInt(300),
	}
	got := inv.Harvestable(start.Add(365 * 24 * time.Hour))
	require.True(t, got.Equal(decimal.NewFromInt(200)), "got %s", got)
}

func TestInvestment_Locked(t *testing.T) {
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	inv := Investment{StartedAt: start, LockPeriod: 24 * time.Hour}

	require.True(t, inv.Locked(start.Add(time.Hour)))
	require.False(t, inv.Locked(start.Add(24*time.Hour)))
}

func TestYieldStrategy_Validate(t *testing.T) {
	valid := YieldStrategy{
		Name:           "stable carry",
		TargetProtocol: testProtocol,
		MinInvestment:  decimal.NewFromInt(100),
		MaxInvestment:  decimal.NewFromInt(10000),
		RiskLevel:      3,
	}
	require.NoError(t, valid.Validate())

	noName := valid
	noName.Name = ""
	require.ErrorIs(t, noName.Validate(), ErrValidation)

	zeroProtocol := valid
	zeroProtocol.TargetProtocol = common.Address{}
	require.ErrorIs(t, zeroProtocol.Validate(), ErrProtocolAddressInvalid)

	badRisk := valid
	badRisk.RiskLevel = 11
	require.ErrorIs(t, badRisk.Validate(), ErrValidation)

	inverted := valid
	inverted.MinInvestment = decimal.NewFromInt(20000)
	require.ErrorIs(t, inverted.Validate(), ErrValidation)
}

func TestYieldStrategy_Fits(t *testing.T) {
	s := YieldStrategy{
		MinInvestment: decimal.NewFromInt(100),
		MaxInvestment: decimal.NewFromInt(1000),
	}
	require.False(t, s.Fits(decimal.NewFromInt(99)))
	require.True(t, s.Fits(decimal.NewFromInt(100)))
	require.True(t, s.Fits(decimal.NewFromInt(1000)))
	require.False(t, s.Fits(decimal.NewFromInt(1001)))

	// zero max means unbounded
	open := YieldStrategy{MinInvestment: decimal.NewFromInt(100)}
	require.True(t, open.Fits(decimal.NewFromInt(1000000)))
}

func TestRevenueStream_TreasuryShare(t *testing.T) {
	s := RevenueStream{AllocationBps: 5000}
	require.True(t, s.TreasuryShare(decimal.NewFromInt(1000)).Equal(decimal.NewFromInt(500)))

	// below the rounding floor the share is dropped entirely
	small := RevenueStream{AllocationBps: 50}
	require.True(t, small.TreasuryShare(decimal.NewFromInt(100)).IsZero())
}

func TestRevenueStream_MonthsSinceCreation(t *testing.T) {
	created := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	s := RevenueStream{CreatedAt: created}

	require.Equal(t, int64(1), s.MonthsSinceCreation(created))
	require.Equal(t, int64(1), s.MonthsSinceCreation(created.Add(29*24*time.Hour)))
	require.Equal(t, int64(2), s.MonthsSinceCreation(created.Add(61*24*time.Hour)))
}

func TestAsset_ReserveRelease(t *testing.T) {
	a, err := NewAsset(testAsset, "USD", 4000, false, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	a.Balance = decimal.NewFromInt(1000)
	a.Reserve(decimal.NewFromInt(600))
	require.True(t, a.ReservedAmount.Equal(decimal.NewFromInt(600)))
	require.True(t, a.AvailableForInvestment().Equal(decimal.NewFromInt(1000)), "reservation is advisory")

	// releasing more than reserved clamps at zero
	a.Release(decimal.NewFromInt(900))
	require.True(t, a.ReservedAmount.IsZero())
}

func TestParseRole(t *testing.T) {
	for _, known := range []string{"admin", "treasury_manager", "investment_manager", "governance", "emergency"} {
		role, ok := ParseRole(known)
		require.True(t, ok)
		require.Equal(t, Role(known), role)
	}

	_, ok := ParseRole("auditor")
	require.False(t, ok)
}

func TestCaller_Has(t *testing.T) {
	c := NewCaller("ops", RoleAdmin, RoleGovernance)

	require.True(t, c.Has(RoleAdmin))
	require.True(t, c.Has(RoleEmergency, RoleGovernance))
	require.False(t, c.Has(RoleEmergency))
	require.False(t, NewCaller("nobody").Has(RoleAdmin))
}

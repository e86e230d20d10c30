package domain

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// RevenueStream routes external revenue into a designated asset under a
// fixed basis-point allocation. The share below the rounding floor is
// dropped, never carried over.
type RevenueStream struct {
	ID               uint64          `json:"id"`
	Source           string          `json:"source"`
	Asset            common.Address  `json:"asset"`
	TotalCollected   decimal.Decimal `json:"total_collected"`
	MonthlyAverage   decimal.Decimal `json:"monthly_average"`
	LastCollectionAt time.Time       `json:"last_collection_at"`
	CreatedAt        time.Time       `json:"created_at"`
	Active           bool            `json:"active"`
	AllocationBps    int64           `json:"allocation_bps"`
}

// TreasuryShare computes the portion of a revenue amount routed to the
// treasury, floored to whole units.
func (s *RevenueStream) TreasuryShare(amount decimal.Decimal) decimal.Decimal {
	return amount.
		Mul(decimal.NewFromInt(s.AllocationBps)).
		Div(decimal.NewFromInt(BpsDenominator)).
		Floor()
}

// MonthsSinceCreation is the elapsed whole months since bootstrap, used to
// maintain the running monthly average. Never less than one.
func (s *RevenueStream) MonthsSinceCreation(now time.Time) int64 {
	months := int64(now.Sub(s.CreatedAt).Hours() / (24 * 30))
	if months < 1 {
		return 1
	}
	return months
}

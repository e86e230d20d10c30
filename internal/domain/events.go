package domain

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EventType identifies a treasury event.
type EventType string

const (
	EventAssetAdded                EventType = "AssetAdded"
	EventAssetStatusChanged        EventType = "AssetStatusChanged"
	EventInvestmentMade            EventType = "InvestmentMade"
	EventInvestmentWithdrawn       EventType = "InvestmentWithdrawn"
	EventYieldHarvested            EventType = "YieldHarvested"
	EventTreasuryProposalCreated   EventType = "TreasuryProposalCreated"
	EventTreasuryProposalExecuted  EventType = "TreasuryProposalExecuted"
	EventTreasuryProposalCancelled EventType = "TreasuryProposalCancelled"
	EventPortfolioRebalanced       EventType = "PortfolioRebalanced"
	EventRevenueCollected          EventType = "RevenueCollected"
	EventEmergencyWithdrawal       EventType = "EmergencyWithdrawal"
	EventTreasuryMetricsUpdated    EventType = "TreasuryMetricsUpdated"
	EventTreasuryPaused            EventType = "TreasuryPaused"
	EventTreasuryUnpaused          EventType = "TreasuryUnpaused"
)

// Event is emitted exactly once per successful state transition, never for a
// failed attempt. Payload holds the per-type fields.
type Event struct {
	ID      uuid.UUID `json:"id"`
	Type    EventType `json:"type"`
	At      time.Time `json:"at"`
	Payload any       `json:"payload"`
}

// EventRecord bundles a journaled event with its WAL index.
type EventRecord struct {
	Index uint64 `json:"index"`
	Event Event  `json:"event"`
}

type AssetAddedPayload struct {
	Asset               common.Address `json:"asset"`
	Symbol              string         `json:"symbol"`
	TargetAllocationBps int64          `json:"target_allocation_bps"`
	YieldBearing        bool           `json:"yield_bearing"`
}

type AssetStatusChangedPayload struct {
	Asset  common.Address `json:"asset"`
	Active bool           `json:"active"`
}

type InvestmentMadePayload struct {
	InvestmentID   uint64          `json:"investment_id"`
	Protocol       common.Address  `json:"protocol"`
	Asset          common.Address  `json:"asset"`
	Amount         decimal.Decimal `json:"amount"`
	ExpectedAPYBps int64           `json:"expected_apy_bps"`
	ProtocolName   string          `json:"protocol_name"`
}

type InvestmentWithdrawnPayload struct {
	InvestmentID uint64          `json:"investment_id"`
	Asset        common.Address  `json:"asset"`
	Principal    decimal.Decimal `json:"principal"`
	FinalYield   decimal.Decimal `json:"final_yield"`
}

type YieldHarvestedPayload struct {
	InvestmentID uint64          `json:"investment_id"`
	Asset        common.Address  `json:"asset"`
	Amount       decimal.Decimal `json:"amount"`
}

type ProposalCreatedPayload struct {
	ProposalID        uint64          `json:"proposal_id"`
	Proposer          string          `json:"proposer"`
	Asset             common.Address  `json:"asset"`
	Amount            decimal.Decimal `json:"amount"`
	Recipient         common.Address  `json:"recipient"`
	Purpose           string          `json:"purpose"`
	ExecutionDeadline time.Time       `json:"execution_deadline"`
}

type ProposalExecutedPayload struct {
	ProposalID uint64          `json:"proposal_id"`
	Asset      common.Address  `json:"asset"`
	Amount     decimal.Decimal `json:"amount"`
	Recipient  common.Address  `json:"recipient"`
}

type ProposalCancelledPayload struct {
	ProposalID uint64          `json:"proposal_id"`
	Released   decimal.Decimal `json:"released"`
}

type PortfolioRebalancedPayload struct {
	TotalValue           decimal.Decimal `json:"total_value"`
	DiversificationScore int64           `json:"diversification_score"`
}

type RevenueCollectedPayload struct {
	StreamID      uint64          `json:"stream_id"`
	Source        common.Address  `json:"source"`
	Asset         common.Address  `json:"asset"`
	Amount        decimal.Decimal `json:"amount"`
	TreasuryShare decimal.Decimal `json:"treasury_share"`
}

type EmergencyWithdrawalPayload struct {
	Asset     common.Address  `json:"asset"`
	Amount    decimal.Decimal `json:"amount"`
	Recipient common.Address  `json:"recipient"`
	Reason    string          `json:"reason"`
}

type MetricsUpdatedPayload struct {
	Metrics TreasuryMetrics `json:"metrics"`
}

type PausePayload struct {
	By string `json:"by"`
}

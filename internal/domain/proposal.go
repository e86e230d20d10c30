package domain

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// TreasuryProposal is a spending request moving through the
// create -> approve -> timelock -> execute workflow. Proposals are never
// removed; they terminate as executed or cancelled.
type TreasuryProposal struct {
	ID                 uint64                             `json:"id"`
	Proposer           string                             `json:"proposer"`
	Amount             decimal.Decimal                    `json:"amount"`
	Recipient          common.Address                     `json:"recipient"`
	Asset              common.Address                     `json:"asset"`
	Purpose            string                             `json:"purpose"`
	VotesFor           decimal.Decimal                    `json:"votes_for"`
	VotesAgainst       decimal.Decimal                    `json:"votes_against"`
	CreatedAt          time.Time                          `json:"created_at"`
	ExecutionDeadline  time.Time                          `json:"execution_deadline"`
	Executed           bool                               `json:"executed"`
	Cancelled          bool                               `json:"cancelled"`
	GovernanceApproved bool                               `json:"governance_approved"`
	VoterWeights       map[common.Address]decimal.Decimal `json:"voter_weights,omitempty"`
}

// Processed reports whether the proposal reached a terminal state.
func (p *TreasuryProposal) Processed() bool {
	return p.Executed || p.Cancelled
}

// Executable reports whether the timelock has elapsed.
func (p *TreasuryProposal) Executable(now time.Time) bool {
	return !now.Before(p.ExecutionDeadline)
}

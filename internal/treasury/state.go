package treasury

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/astratum/treasury/internal/domain"
)

// State is the engine's full persistable state. A snapshot is written after
// every successful mutation and recovered on start.
type State struct {
	Paused           bool                               `json:"paused"`
	AssetOrder       []common.Address                   `json:"asset_order"`
	Assets           map[common.Address]domain.Asset    `json:"assets"`
	Investments      map[uint64]domain.Investment       `json:"investments"`
	Strategies       map[uint64]domain.YieldStrategy    `json:"strategies"`
	Proposals        map[uint64]domain.TreasuryProposal `json:"proposals"`
	Streams          map[uint64]domain.RevenueStream    `json:"streams"`
	NextInvestmentID uint64                             `json:"next_investment_id"`
	NextStrategyID   uint64                             `json:"next_strategy_id"`
	NextProposalID   uint64                             `json:"next_proposal_id"`
	NextStreamID     uint64                             `json:"next_stream_id"`
	TotalYieldEarned decimal.Decimal                    `json:"total_yield_earned"`
	TotalRevenue     decimal.Decimal                    `json:"total_revenue"`
	YieldHistory     map[string]decimal.Decimal         `json:"yield_history"`
	Metrics          domain.TreasuryMetrics             `json:"metrics"`
}

// snapshot copies the mutable state into a State value. Caller holds the lock.
func (e *Engine) snapshot() State {
	s := State{
		Paused:           e.paused,
		AssetOrder:       append([]common.Address(nil), e.assetOrder...),
		Assets:           make(map[common.Address]domain.Asset, len(e.assets)),
		Investments:      make(map[uint64]domain.Investment, len(e.investments)),
		Strategies:       make(map[uint64]domain.YieldStrategy, len(e.strategies)),
		Proposals:        make(map[uint64]domain.TreasuryProposal, len(e.proposals)),
		Streams:          make(map[uint64]domain.RevenueStream, len(e.streams)),
		NextInvestmentID: e.nextInvestmentID,
		NextStrategyID:   e.nextStrategyID,
		NextProposalID:   e.nextProposalID,
		NextStreamID:     e.nextStreamID,
		TotalYieldEarned: e.totalYieldEarned,
		TotalRevenue:     e.totalRevenue,
		YieldHistory:     make(map[string]decimal.Decimal, len(e.yieldHistory)),
		Metrics:          e.metrics,
	}
	for addr, a := range e.assets {
		s.Assets[addr] = *a
	}
	for id, inv := range e.investments {
		s.Investments[id] = *inv
	}
	for id, st := range e.strategies {
		s.Strategies[id] = *st
	}
	for id, p := range e.proposals {
		s.Proposals[id] = *p
	}
	for id, st := range e.streams {
		s.Streams[id] = *st
	}
	for k, v := range e.yieldHistory {
		s.YieldHistory[k] = v
	}
	return s
}

// restore loads a persisted snapshot into the engine. Only called from New,
// before any operation runs.
func (e *Engine) restore(s *State) {
	e.paused = s.Paused
	e.assetOrder = append([]common.Address(nil), s.AssetOrder...)
	for addr, a := range s.Assets {
		asset := a
		e.assets[addr] = &asset
	}
	for id, inv := range s.Investments {
		investment := inv
		e.investments[id] = &investment
	}
	for id, st := range s.Strategies {
		strategy := st
		e.strategies[id] = &strategy
	}
	for id, p := range s.Proposals {
		proposal := p
		e.proposals[id] = &proposal
	}
	for id, st := range s.Streams {
		stream := st
		e.streams[id] = &stream
	}
	e.nextInvestmentID = s.NextInvestmentID
	e.nextStrategyID = s.NextStrategyID
	e.nextProposalID = s.NextProposalID
	e.nextStreamID = s.NextStreamID
	e.totalYieldEarned = s.TotalYieldEarned
	e.totalRevenue = s.TotalRevenue
	for k, v := range s.YieldHistory {
		e.yieldHistory[k] = v
	}
	e.metrics = s.Metrics
}

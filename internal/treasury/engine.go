// Package treasury implements the treasury management engine: a serialized,
// single-operation-at-a-time state machine over a shared pool of assets, with
// yield investments, a proposal/approval/timelock spending workflow, revenue
// intake, portfolio rebalancing and role-gated emergency control.
package treasury

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/astratum/treasury/internal/domain"
)

// Governance is the external governance body. The engine never tallies votes;
// it only asks whether a proposal carries an approval.
type Governance interface {
	IsApproved(proposalID uint64) bool
}

// RebalanceAdapter executes the external side of a rebalance step. Amounts are
// in the common unit of account; symbol is the asset's ticker.
type RebalanceAdapter interface {
	Acquire(symbol string, amount decimal.Decimal) error
	Reduce(symbol string, amount decimal.Decimal) error
}

// EventSink receives every emitted event, typically a WAL-backed journal.
type EventSink interface {
	Append(event domain.Event) error
}

// StateStore persists engine state between restarts.
type StateStore interface {
	Save(state State) error
	Load() (*State, bool, error)
}

// Limits are the engine's tunable bounds and defaults.
type Limits struct {
	MinProposalAmount      decimal.Decimal
	MaxProposalAmount      decimal.Decimal
	MaxSingleInvestmentBps int64
	ProposalExecutionDelay time.Duration
	RebalanceThresholdBps  int64
	BenchmarkAPYBps        int64
	StrictAllocations      bool
}

// DefaultLimits returns the stock engine bounds.
func DefaultLimits() Limits {
	return Limits{
		MinProposalAmount:      decimal.NewFromInt(1000),
		MaxProposalAmount:      decimal.NewFromInt(100000),
		MaxSingleInvestmentBps: 1000,
		ProposalExecutionDelay: 7 * 24 * time.Hour,
		RebalanceThresholdBps:  500,
		BenchmarkAPYBps:        500,
	}
}

// Engine is the single shared mutable resource. All mutating operations run
// under one lock and an in-flight flag: while an operation is executing
// (including during external adapter call-outs), any other mutating call is
// rejected with a state conflict instead of interleaving.
type Engine struct {
	mu       sync.Mutex
	inFlight atomic.Bool

	log        *zap.Logger
	now        func() time.Time
	limits     Limits
	governance Governance
	adapter    RebalanceAdapter
	sink       EventSink
	states     StateStore

	paused           bool
	assets           map[common.Address]*domain.Asset
	assetOrder       []common.Address
	investments      map[uint64]*domain.Investment
	strategies       map[uint64]*domain.YieldStrategy
	proposals        map[uint64]*domain.TreasuryProposal
	streams          map[uint64]*domain.RevenueStream
	nextInvestmentID uint64
	nextStrategyID   uint64
	nextProposalID   uint64
	nextStreamID     uint64
	totalYieldEarned decimal.Decimal
	totalRevenue     decimal.Decimal
	yieldHistory     map[string]decimal.Decimal
	metrics          domain.TreasuryMetrics
}

// Option configures the engine.
type Option func(*Engine)

// WithClock overrides the time source. All deadlines and accruals are
// computed from this clock at call time; nothing runs on a timer.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithGovernance sets the external governance collaborator.
func WithGovernance(g Governance) Option {
	return func(e *Engine) { e.governance = g }
}

// WithRebalanceAdapter sets the external exchange adapter.
func WithRebalanceAdapter(a RebalanceAdapter) Option {
	return func(e *Engine) { e.adapter = a }
}

// WithEventSink sets the durable event journal.
func WithEventSink(s EventSink) Option {
	return func(e *Engine) { e.sink = s }
}

// WithStateStore sets the snapshot store; New recovers from it when present.
func WithStateStore(s StateStore) Option {
	return func(e *Engine) { e.states = s }
}

// New builds an engine and, when a state store is configured, recovers the
// last persisted state.
func New(limits Limits, log *zap.Logger, opts ...Option) (*Engine, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if limits.MinProposalAmount.GreaterThan(limits.MaxProposalAmount) {
		return nil, errors.Wrap(domain.ErrValidation, "min proposal amount exceeds max")
	}

	e := &Engine{
		log:              log.With(zap.String("component", "treasury")),
		now:              time.Now,
		limits:           limits,
		assets:           make(map[common.Address]*domain.Asset),
		investments:      make(map[uint64]*domain.Investment),
		strategies:       make(map[uint64]*domain.YieldStrategy),
		proposals:        make(map[uint64]*domain.TreasuryProposal),
		streams:          make(map[uint64]*domain.RevenueStream),
		totalYieldEarned: decimal.Zero,
		totalRevenue:     decimal.Zero,
		yieldHistory:     make(map[string]decimal.Decimal),
	}
	for _, opt := range opts {
		opt(e)
	}

	if e.states != nil {
		state, ok, err := e.states.Load()
		if err != nil {
			return nil, errors.Wrap(err, "recover treasury state")
		}
		if ok {
			e.restore(state)
			e.log.Info("recovered treasury state",
				zap.Int("assets", len(e.assets)),
				zap.Int("proposals", len(e.proposals)),
				zap.Int("investments", len(e.investments)))
		}
	}

	return e, nil
}

// begin serializes a mutating operation: takes the lock, flips the in-flight
// flag, and applies the pause and role gates. The returned release must be
// called on every exit path. emergency marks pause-bypassing operations.
func (e *Engine) begin(caller domain.Caller, emergency bool, roles ...domain.Role) (func(), error) {
	e.mu.Lock()
	if !e.inFlight.CompareAndSwap(false, true) {
		e.mu.Unlock()
		return nil, errors.Wrap(domain.ErrReentrancy, "mutating operation in flight")
	}
	release := func() {
		e.inFlight.Store(false)
		e.mu.Unlock()
	}

	if e.paused && !emergency {
		release()
		return nil, domain.ErrPaused
	}
	if len(roles) > 0 && !caller.Has(roles...) {
		release()
		return nil, errors.Wrapf(domain.ErrUnauthorized, "caller %q lacks required role", caller.ID)
	}
	return release, nil
}

// callOut runs an external adapter step with the lock released but the
// in-flight flag held, so re-entrant calls into the engine are rejected
// rather than deadlocked or interleaved.
func (e *Engine) callOut(fn func() error) error {
	e.mu.Unlock()
	defer e.mu.Lock()
	return fn()
}

// emit records an event after a successful state transition. The durable
// append is best effort: a journal failure is logged, not rolled back.
func (e *Engine) emit(t domain.EventType, payload any) {
	ev := domain.Event{
		ID:      uuid.New(),
		Type:    t,
		At:      e.now(),
		Payload: payload,
	}
	if e.sink != nil {
		if err := e.sink.Append(ev); err != nil {
			e.log.Error("failed to journal event", zap.String("type", string(t)), zap.Error(err))
		}
	}
	e.log.Info("event", zap.String("type", string(t)), zap.Any("payload", payload))
}

// persist saves a state snapshot after a successful mutation.
func (e *Engine) persist() {
	if e.states == nil {
		return
	}
	if err := e.states.Save(e.snapshot()); err != nil {
		e.log.Error("failed to persist treasury state", zap.Error(err))
	}
}

// asset returns an active registry entry.
func (e *Engine) asset(addr common.Address) (*domain.Asset, error) {
	a, ok := e.assets[addr]
	if !ok || !a.Active {
		return nil, errors.Wrapf(domain.ErrUnsupportedAsset, "asset %s", addr.Hex())
	}
	return a, nil
}

// totalBalances sums the live balances of active assets. This is the base for
// allocation math: invested principal is not part of the liquid pool.
func (e *Engine) totalBalances() decimal.Decimal {
	total := decimal.Zero
	for _, addr := range e.assetOrder {
		a := e.assets[addr]
		if a.Active {
			total = total.Add(a.Balance)
		}
	}
	return total
}

// totalValue is the full treasury value: liquid balances plus the principal
// still committed to active investments.
func (e *Engine) totalValue() decimal.Decimal {
	total := e.totalBalances()
	for _, inv := range e.investments {
		if inv.Active {
			total = total.Add(inv.Principal)
		}
	}
	return total
}

// Paused reports whether non-emergency mutations are blocked.
func (e *Engine) Paused() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.paused
}

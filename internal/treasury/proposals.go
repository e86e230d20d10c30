package treasury

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/astratum/treasury/internal/domain"
)

// CreateProposal opens a spending proposal and provisionally reserves the
// amount on the asset. The execution deadline starts the timelock; execution
// additionally requires governance approval. Caller-agnostic by design:
// intent to spend is visible to anyone immediately.
func (e *Engine) CreateProposal(caller domain.Caller, amount decimal.Decimal, recipient, assetAddr common.Address, purpose string) (*domain.TreasuryProposal, error) {
	release, err := e.begin(caller, false)
	if err != nil {
		return nil, err
	}
	defer release()

	if amount.LessThan(e.limits.MinProposalAmount) || amount.GreaterThan(e.limits.MaxProposalAmount) {
		return nil, errors.Wrapf(domain.ErrAmountOutOfRange,
			"amount %s outside [%s, %s]", amount.String(),
			e.limits.MinProposalAmount.String(), e.limits.MaxProposalAmount.String())
	}
	if recipient == (common.Address{}) {
		return nil, errors.Wrap(domain.ErrValidation, "recipient must not be zero")
	}

	asset, err := e.asset(assetAddr)
	if err != nil {
		return nil, err
	}
	if amount.GreaterThan(asset.Balance) {
		return nil, errors.Wrapf(domain.ErrInsufficientBalance,
			"asset %s holds %s, proposal needs %s", asset.Symbol, asset.Balance.String(), amount.String())
	}

	now := e.now()
	e.nextProposalID++
	p := &domain.TreasuryProposal{
		ID:                e.nextProposalID,
		Proposer:          caller.ID,
		Amount:            amount,
		Recipient:         recipient,
		Asset:             assetAddr,
		Purpose:           purpose,
		VotesFor:          decimal.Zero,
		VotesAgainst:      decimal.Zero,
		CreatedAt:         now,
		ExecutionDeadline: now.Add(e.limits.ProposalExecutionDelay),
	}
	e.proposals[p.ID] = p
	asset.Reserve(amount)

	e.emit(domain.EventTreasuryProposalCreated, domain.ProposalCreatedPayload{
		ProposalID:        p.ID,
		Proposer:          p.Proposer,
		Asset:             p.Asset,
		Amount:            p.Amount,
		Recipient:         p.Recipient,
		Purpose:           p.Purpose,
		ExecutionDeadline: p.ExecutionDeadline,
	})
	e.persist()

	out := *p
	return &out, nil
}

// ApproveProposal records the external governance body's approval. This is a
// capability check, not a vote tally; tallying happens outside the engine.
// Governance only.
func (e *Engine) ApproveProposal(caller domain.Caller, proposalID uint64) error {
	release, err := e.begin(caller, false, domain.RoleGovernance)
	if err != nil {
		return err
	}
	defer release()

	p, ok := e.proposals[proposalID]
	if !ok {
		return errors.Wrapf(domain.ErrNotFound, "proposal %d", proposalID)
	}
	if p.Processed() {
		return errors.Wrapf(domain.ErrAlreadyProcessed, "proposal %d", proposalID)
	}

	p.GovernanceApproved = true
	e.persist()
	return nil
}

// ExecuteProposal pays out an approved proposal once its timelock elapsed.
// The approval gate accepts either the pushed flag set via ApproveProposal or
// a pulled approval from the governance collaborator. Caller-agnostic: the
// gates, not the caller, authorize the spend.
func (e *Engine) ExecuteProposal(caller domain.Caller, proposalID uint64) error {
	release, err := e.begin(caller, false)
	if err != nil {
		return err
	}
	defer release()

	p, ok := e.proposals[proposalID]
	if !ok {
		return errors.Wrapf(domain.ErrNotFound, "proposal %d", proposalID)
	}
	if p.Processed() {
		return errors.Wrapf(domain.ErrAlreadyProcessed, "proposal %d", proposalID)
	}
	if !p.Executable(e.now()) {
		return errors.Wrapf(domain.ErrDeadlineNotReached,
			"proposal %d executable at %s", p.ID, p.ExecutionDeadline)
	}

	approved := p.GovernanceApproved
	if !approved && e.governance != nil {
		approved = e.governance.IsApproved(p.ID)
	}
	if !approved {
		return errors.Wrapf(domain.ErrNotGovernanceApproved, "proposal %d", p.ID)
	}

	asset, ok := e.assets[p.Asset]
	if !ok {
		return errors.Wrapf(domain.ErrNotFound, "asset %s", p.Asset.Hex())
	}
	// the balance can have dropped below the reservation since creation;
	// reservation is advisory, so re-check here
	if err := e.debit(asset, p.Amount); err != nil {
		return err
	}
	asset.Release(p.Amount)
	p.Executed = true

	e.emit(domain.EventTreasuryProposalExecuted, domain.ProposalExecutedPayload{
		ProposalID: p.ID,
		Asset:      p.Asset,
		Amount:     p.Amount,
		Recipient:  p.Recipient,
	})
	e.persist()
	return nil
}

// CancelProposal terminates a pending proposal and releases its reservation.
// Allowed for the proposer, a TreasuryManager or an Admin at any point before
// execution.
func (e *Engine) CancelProposal(caller domain.Caller, proposalID uint64) error {
	release, err := e.begin(caller, false)
	if err != nil {
		return err
	}
	defer release()

	p, ok := e.proposals[proposalID]
	if !ok {
		return errors.Wrapf(domain.ErrNotFound, "proposal %d", proposalID)
	}
	if p.Processed() {
		return errors.Wrapf(domain.ErrAlreadyProcessed, "proposal %d", proposalID)
	}
	if caller.ID != p.Proposer && !caller.Has(domain.RoleTreasuryManager, domain.RoleAdmin) {
		return errors.Wrapf(domain.ErrUnauthorized, "caller %q may not cancel proposal %d", caller.ID, p.ID)
	}

	if asset, ok := e.assets[p.Asset]; ok {
		asset.Release(p.Amount)
	}
	p.Cancelled = true

	e.emit(domain.EventTreasuryProposalCancelled, domain.ProposalCancelledPayload{
		ProposalID: p.ID,
		Released:   p.Amount,
	})
	e.persist()
	return nil
}

// GetProposal returns a copy of one proposal.
func (e *Engine) GetProposal(id uint64) (*domain.TreasuryProposal, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	p, ok := e.proposals[id]
	if !ok {
		return nil, errors.Wrapf(domain.ErrNotFound, "proposal %d", id)
	}
	out := *p
	return &out, nil
}

// ListProposals returns copies of all proposals, oldest first.
func (e *Engine) ListProposals() []domain.TreasuryProposal {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]domain.TreasuryProposal, 0, len(e.proposals))
	for id := uint64(1); id <= e.nextProposalID; id++ {
		if p, ok := e.proposals[id]; ok {
			out = append(out, *p)
		}
	}
	return out
}

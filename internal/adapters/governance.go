// Package adapters holds the engine's external collaborators: the governance
// approval registry and the exchange adapters behind the rebalancer.
package adapters

import "sync"

// ApprovalBook is the pushed side of the governance collaborator: the
// message-bus bridge records approvals here and the engine pulls them through
// IsApproved when executing a proposal.
type ApprovalBook struct {
	mu       sync.RWMutex
	approved map[uint64]bool
}

// NewApprovalBook creates an empty approval registry.
func NewApprovalBook() *ApprovalBook {
	return &ApprovalBook{approved: make(map[uint64]bool)}
}

// Approve marks a proposal as approved by the governance body.
func (b *ApprovalBook) Approve(proposalID uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.approved[proposalID] = true
}

// Revoke withdraws a previously recorded approval.
func (b *ApprovalBook) Revoke(proposalID uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.approved, proposalID)
}

// IsApproved implements treasury.Governance.
func (b *ApprovalBook) IsApproved(proposalID uint64) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.approved[proposalID]
}

package treasury

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/astratum/treasury/internal/domain"
)

// AddRevenueStream registers a revenue source routed into a designated asset.
// TreasuryManager or Admin only.
func (e *Engine) AddRevenueStream(caller domain.Caller, source string, assetAddr common.Address, allocationBps int64) (*domain.RevenueStream, error) {
	release, err := e.begin(caller, false, domain.RoleTreasuryManager, domain.RoleAdmin)
	if err != nil {
		return nil, err
	}
	defer release()

	if source == "" {
		return nil, errors.Wrap(domain.ErrValidation, "stream source is required")
	}
	if allocationBps < 0 || allocationBps > domain.BpsDenominator {
		return nil, errors.Wrapf(domain.ErrInvalidAllocation, "stream allocation %d bps", allocationBps)
	}
	if _, err := e.asset(assetAddr); err != nil {
		return nil, err
	}

	e.nextStreamID++
	s := &domain.RevenueStream{
		ID:             e.nextStreamID,
		Source:         source,
		Asset:          assetAddr,
		TotalCollected: decimal.Zero,
		MonthlyAverage: decimal.Zero,
		CreatedAt:      e.now(),
		Active:         true,
		AllocationBps:  allocationBps,
	}
	e.streams[s.ID] = s
	e.persist()

	out := *s
	return &out, nil
}

// SetRevenueStreamActive toggles a stream. TreasuryManager or Admin only.
func (e *Engine) SetRevenueStreamActive(caller domain.Caller, id uint64, active bool) error {
	release, err := e.begin(caller, false, domain.RoleTreasuryManager, domain.RoleAdmin)
	if err != nil {
		return err
	}
	defer release()

	s, ok := e.streams[id]
	if !ok {
		return errors.Wrapf(domain.ErrNotFound, "revenue stream %d", id)
	}
	s.Active = active
	e.persist()
	return nil
}

// CollectRevenue routes a revenue event through a stream: the stream's
// basis-point share is pulled into the designated asset, the remainder stays
// with the source. Revenue sources push; the engine never pulls. A share that
// floors to zero is silently dropped as a no-op, not an error.
func (e *Engine) CollectRevenue(caller domain.Caller, streamID uint64, amount decimal.Decimal, source common.Address) (decimal.Decimal, error) {
	release, err := e.begin(caller, false)
	if err != nil {
		return decimal.Zero, err
	}
	defer release()

	s, ok := e.streams[streamID]
	if !ok {
		return decimal.Zero, errors.Wrapf(domain.ErrNotFound, "revenue stream %d", streamID)
	}
	if !s.Active {
		return decimal.Zero, errors.Wrapf(domain.ErrStreamInactive, "revenue stream %d", streamID)
	}
	if !amount.IsPositive() {
		return decimal.Zero, errors.Wrap(domain.ErrValidation, "revenue amount must be positive")
	}

	share := s.TreasuryShare(amount)
	if !share.IsPositive() {
		return decimal.Zero, nil
	}

	asset, ok := e.assets[s.Asset]
	if !ok {
		return decimal.Zero, errors.Wrapf(domain.ErrNotFound, "asset %s", s.Asset.Hex())
	}

	now := e.now()
	e.credit(asset, share)
	s.TotalCollected = s.TotalCollected.Add(share)
	s.LastCollectionAt = now
	s.MonthlyAverage = s.TotalCollected.Div(decimal.NewFromInt(s.MonthsSinceCreation(now))).Floor()
	e.totalRevenue = e.totalRevenue.Add(share)

	e.emit(domain.EventRevenueCollected, domain.RevenueCollectedPayload{
		StreamID:      s.ID,
		Source:        source,
		Asset:         s.Asset,
		Amount:        amount,
		TreasuryShare: share,
	})
	e.persist()

	return share, nil
}

// GetRevenueStream returns a copy of one stream.
func (e *Engine) GetRevenueStream(id uint64) (*domain.RevenueStream, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	s, ok := e.streams[id]
	if !ok {
		return nil, errors.Wrapf(domain.ErrNotFound, "revenue stream %d", id)
	}
	out := *s
	return &out, nil
}

// ListRevenueStreams returns copies of all streams, oldest first.
func (e *Engine) ListRevenueStreams() []domain.RevenueStream {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]domain.RevenueStream, 0, len(e.streams))
	for id := uint64(1); id <= e.nextStreamID; id++ {
		if s, ok := e.streams[id]; ok {
			out = append(out, *s)
		}
	}
	return out
}

// TotalRevenue is the cumulative treasury share collected across streams.
func (e *Engine) TotalRevenue() decimal.Decimal {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.totalRevenue
}

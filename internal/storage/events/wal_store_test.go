package events

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/astratum/treasury/internal/domain"
)

func testEvent(t domain.EventType) domain.Event {
	return domain.Event{
		ID:   uuid.New(),
		Type: t,
		At:   time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		Payload: domain.RevenueCollectedPayload{
			StreamID:      1,
			Amount:        decimal.NewFromInt(1000),
			TreasuryShare: decimal.NewFromInt(500),
		},
	}
}

func TestWALStore_AppendAndReplay(t *testing.T) {
	store, err := NewWALStore(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	require.Equal(t, uint64(0), store.CurrentIndex())

	require.NoError(t, store.Append(testEvent(domain.EventRevenueCollected)))
	require.NoError(t, store.Append(testEvent(domain.EventTreasuryPaused)))
	require.Equal(t, uint64(2), store.CurrentIndex())

	records, err := store.EventsAfter(0)
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.Equal(t, uint64(1), records[0].Index)
	require.Equal(t, domain.EventRevenueCollected, records[0].Event.Type)
	require.Equal(t, domain.EventTreasuryPaused, records[1].Event.Type)
}

func TestWALStore_EventsAfterCursor(t *testing.T) {
	store, err := NewWALStore(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	for range 3 {
		require.NoError(t, store.Append(testEvent(domain.EventYieldHarvested)))
	}

	records, err := store.EventsAfter(2)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, uint64(3), records[0].Index)

	records, err = store.EventsAfter(3)
	require.NoError(t, err)
	require.Empty(t, records)
}

func TestWALStore_SurvivesReopen(t *testing.T) {
	dir := t.TempDir()

	store, err := NewWALStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.Append(testEvent(domain.EventAssetAdded)))
	require.NoError(t, store.Close())

	reopened, err := NewWALStore(dir)
	require.NoError(t, err)
	defer reopened.Close()

	require.Equal(t, uint64(1), reopened.CurrentIndex())
	records, err := reopened.EventsAfter(0)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, domain.EventAssetAdded, records[0].Event.Type)
}

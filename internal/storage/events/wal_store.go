// Package events persists the treasury event feed in a WAL so the outbound
// bridge can replay transitions it missed.
package events

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/pkg/errors"
	"github.com/vadiminshakov/gowal"

	"github.com/astratum/treasury/internal/domain"
)

const (
	segmentThreshold = 1000
	maxSegments      = 100

	eventKeyPrefix = "event_"
)

// WALStore is a durable, replayable journal of emitted events.
type WALStore struct {
	wal *gowal.Wal
	mu  sync.RWMutex
}

// NewWALStore opens the event journal in dir.
func NewWALStore(dir string) (*WALStore, error) {
	cfg := gowal.Config{
		Dir:              dir,
		Prefix:           "events_",
		SegmentThreshold: segmentThreshold,
		MaxSegments:      maxSegments,
		IsInSyncDiskMode: true,
	}

	wal, err := gowal.NewWAL(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "init event WAL")
	}

	return &WALStore{wal: wal}, nil
}

// Append implements treasury.EventSink.
func (s *WALStore) Append(event domain.Event) error {
	if s == nil || s.wal == nil {
		return errors.New("event store is not initialized")
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return errors.Wrap(err, "marshal event")
	}

	key := fmt.Sprintf("%s%s", eventKeyPrefix, event.Type)

	s.mu.Lock()
	defer s.mu.Unlock()

	nextIndex := s.wal.CurrentIndex() + 1
	return s.wal.Write(nextIndex, key, payload)
}

// EventsAfter returns all events journaled after the provided WAL index.
// Replayed payloads are generic JSON values, not the typed payload structs.
func (s *WALStore) EventsAfter(index uint64) ([]domain.EventRecord, error) {
	if s == nil || s.wal == nil {
		return nil, errors.New("event store is not initialized")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	current := s.wal.CurrentIndex()
	if current <= index {
		return nil, nil
	}

	records := make([]domain.EventRecord, 0, current-index)
	for idx := index + 1; idx <= current; idx++ {
		_, payload, err := s.wal.Get(idx)
		if err != nil {
			continue
		}

		var event domain.Event
		if err := json.Unmarshal(payload, &event); err != nil {
			return nil, errors.Wrap(err, "decode event")
		}
		records = append(records, domain.EventRecord{Index: idx, Event: event})
	}

	return records, nil
}

// CurrentIndex returns the latest WAL index stored.
func (s *WALStore) CurrentIndex() uint64 {
	if s == nil || s.wal == nil {
		return 0
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.wal.CurrentIndex()
}

// Close closes the underlying WAL.
func (s *WALStore) Close() error {
	if s == nil || s.wal == nil {
		return errors.New("event store is not initialized")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.wal.Close()
}

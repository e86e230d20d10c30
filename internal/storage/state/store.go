// Package state persists the engine's full state snapshot so a restart
// resumes from the last applied operation.
package state

import (
	"encoding/json"
	"sync"

	"github.com/pkg/errors"
	"github.com/vadiminshakov/gowal"

	"github.com/astratum/treasury/internal/treasury"
)

const (
	segmentThreshold = 500
	maxSegments      = 10

	stateKey = "treasury_state"
)

// Store is a WAL-backed snapshot store. Every Save appends a full snapshot;
// Load replays the WAL and keeps the newest one.
type Store struct {
	wal *gowal.Wal
	mu  sync.Mutex
}

// NewStore opens the snapshot store in dir.
func NewStore(dir string) (*Store, error) {
	cfg := gowal.Config{
		Dir:              dir,
		Prefix:           "state_",
		SegmentThreshold: segmentThreshold,
		MaxSegments:      maxSegments,
		IsInSyncDiskMode: true,
	}

	wal, err := gowal.NewWAL(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "init state WAL")
	}

	return &Store{wal: wal}, nil
}

// Save implements treasury.StateStore.
func (s *Store) Save(state treasury.State) error {
	if s == nil || s.wal == nil {
		return errors.New("state store is not initialized")
	}

	payload, err := json.Marshal(state)
	if err != nil {
		return errors.Wrap(err, "marshal treasury state")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	nextIndex := s.wal.CurrentIndex() + 1
	return s.wal.Write(nextIndex, stateKey, payload)
}

// Load implements treasury.StateStore. The second return value reports
// whether a snapshot was found.
func (s *Store) Load() (*treasury.State, bool, error) {
	if s == nil || s.wal == nil {
		return nil, false, errors.New("state store is not initialized")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		latest []byte
		found  bool
	)
	for msg := range s.wal.Iterator() {
		if msg.Key == stateKey {
			latest = msg.Value
			found = true
		}
	}
	if !found {
		return nil, false, nil
	}

	var state treasury.State
	if err := json.Unmarshal(latest, &state); err != nil {
		return nil, false, errors.Wrap(err, "decode treasury state")
	}
	return &state, true, nil
}

// Close closes the underlying WAL.
func (s *Store) Close() error {
	if s == nil || s.wal == nil {
		return errors.New("state store is not initialized")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.wal.Close()
}

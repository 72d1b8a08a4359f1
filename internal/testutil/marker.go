package testutil

import (
	"context"
	"sort"
	"sync"
)

// MemMarkerStore is an in-memory marker.Store for sequencer tests.
type MemMarkerStore struct {
	mu        sync.Mutex
	completed map[string]bool
}

// NewMemMarkerStore returns an empty store, optionally pre-seeded with
// already-completed phases.
func NewMemMarkerStore(completed ...string) *MemMarkerStore {
	s := &MemMarkerStore{completed: make(map[string]bool)}
	for _, id := range completed {
		s.completed[id] = true
	}
	return s
}

// IsComplete implements marker.Store.
func (s *MemMarkerStore) IsComplete(_ context.Context, phaseID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.completed[phaseID], nil
}

// MarkComplete implements marker.Store.
func (s *MemMarkerStore) MarkComplete(_ context.Context, phaseID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.completed[phaseID] = true
	return nil
}

// Completed implements marker.Store.
func (s *MemMarkerStore) Completed(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.completed))
	for id := range s.completed {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

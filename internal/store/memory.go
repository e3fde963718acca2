package store

import (
	"context"
	"sort"
	"sync"

	domain "github.com/donaldgifford/slot-watcher/pkg/types"
)

// MemoryStore implements Store in process memory. State is lost on exit;
// it backs dry runs and tests.
type MemoryStore struct {
	mu     sync.RWMutex
	states map[string]domain.MonitorState
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{states: make(map[string]domain.MonitorState)}
}

// Load returns a copy of the stored state.
func (s *MemoryStore) Load(_ context.Context, targetID string) (*domain.MonitorState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.states[targetID]
	if !ok {
		return nil, ErrNotFound
	}
	return &st, nil
}

// Save stores a copy of state.
func (s *MemoryStore) Save(_ context.Context, state *domain.MonitorState) error {
	if err := validateState(state); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[state.TargetID] = *state
	return nil
}

// Delete removes a target's state.
func (s *MemoryStore) Delete(_ context.Context, targetID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.states, targetID)
	return nil
}

// List returns all states ordered by target ID.
func (s *MemoryStore) List(_ context.Context) ([]domain.MonitorState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.MonitorState, 0, len(s.states))
	for _, st := range s.states {
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TargetID < out[j].TargetID })
	return out, nil
}

// Ping always succeeds.
func (*MemoryStore) Ping(context.Context) error { return nil }

// Close is a no-op.
func (*MemoryStore) Close() error { return nil }

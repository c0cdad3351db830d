package gate

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Store is the persistence contract for approval gates. Implementations
// store snapshots; all state transitions go through Service, which
// serializes them.
type Store interface {
	// Create persists a newly opened gate.
	Create(ctx context.Context, g *Gate) error

	// Get returns the gate with the given ID or ErrGateNotFound.
	Get(ctx context.Context, id string) (*Gate, error)

	// Update overwrites the stored gate.
	Update(ctx context.Context, g *Gate) error

	// ListActionable returns every gate in Pending or Escalated state.
	ListActionable(ctx context.Context) ([]*Gate, error)

	// Close releases backend resources.
	Close() error
}

// MemoryStore keeps gates in memory. Safe for concurrent use.
type MemoryStore struct {
	mu    sync.RWMutex
	gates map[string]*Gate
}

// NewMemoryStore creates an empty gate store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{gates: make(map[string]*Gate)}
}

// Create persists a newly opened gate.
func (s *MemoryStore) Create(ctx context.Context, g *Gate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.gates[g.ID]; exists {
		return fmt.Errorf("gate %s already exists", g.ID)
	}
	cp := *g
	s.gates[g.ID] = &cp
	return nil
}

// Get returns the gate with the given ID.
func (s *MemoryStore) Get(ctx context.Context, id string) (*Gate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.gates[id]
	if !ok {
		return nil, fmt.Errorf("gate %q: %w", id, ErrGateNotFound)
	}
	cp := *g
	return &cp, nil
}

// Update overwrites the stored gate.
func (s *MemoryStore) Update(ctx context.Context, g *Gate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.gates[g.ID]; !ok {
		return fmt.Errorf("gate %q: %w", g.ID, ErrGateNotFound)
	}
	cp := *g
	s.gates[g.ID] = &cp
	return nil
}

// ListActionable returns the Pending and Escalated gates, oldest first.
func (s *MemoryStore) ListActionable(ctx context.Context) ([]*Gate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*Gate
	for _, g := range s.gates {
		if g.State.Actionable() {
			cp := *g
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// Close is a no-op for the memory store.
func (s *MemoryStore) Close() error {
	return nil
}

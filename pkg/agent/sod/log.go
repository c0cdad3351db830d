package sod

import (
	"context"
	"sync"
)

// MemoryLog is an in-memory action log keyed by business object.
type MemoryLog struct {
	mu      sync.RWMutex
	entries map[string][]PerformedAction
}

// NewMemoryLog creates an empty action log.
func NewMemoryLog() *MemoryLog {
	return &MemoryLog{entries: make(map[string][]PerformedAction)}
}

// Performed returns the logged actions for an object, oldest first.
func (l *MemoryLog) Performed(ctx context.Context, objectID string) ([]PerformedAction, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	actions := l.entries[objectID]
	out := make([]PerformedAction, len(actions))
	copy(out, actions)
	return out, nil
}

// Record appends one performed action.
func (l *MemoryLog) Record(ctx context.Context, action PerformedAction) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries[action.ObjectID] = append(l.entries[action.ObjectID], action)
	return nil
}

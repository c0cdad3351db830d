package store

import (
	"context"
	"sort"
	"sync"

	"mizan-hq/mizan/pkg/decision"
)

// MemoryStore keeps decision records in memory. Safe for concurrent use.
type MemoryStore struct {
	mu      sync.RWMutex
	records []*decision.Record
}

// NewMemoryStore creates an empty in-memory decision store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Store appends one record.
func (s *MemoryStore) Store(ctx context.Context, rec *decision.Record) error {
	if rec.ID == "" || rec.ContextHash == "" {
		return ErrInvalidRecord
	}

	// Copy so later caller mutation cannot affect the stored record.
	cp := *rec
	s.mu.Lock()
	s.records = append(s.records, &cp)
	s.mu.Unlock()
	return nil
}

// Query returns matching records, newest first.
func (s *MemoryStore) Query(ctx context.Context, filter Filter) ([]*decision.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*decision.Record
	for _, rec := range s.records {
		if filter.Tenant != "" && rec.Tenant != filter.Tenant {
			continue
		}
		if filter.PolicyType != "" && rec.PolicyType != filter.PolicyType {
			continue
		}
		if !filter.Since.IsZero() && rec.EvaluatedAt.Before(filter.Since) {
			continue
		}
		cp := *rec
		out = append(out, &cp)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].EvaluatedAt.After(out[j].EvaluatedAt)
	})

	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

// Count returns the number of stored records.
func (s *MemoryStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records), nil
}

// Close is a no-op for the memory store.
func (s *MemoryStore) Close() error {
	return nil
}

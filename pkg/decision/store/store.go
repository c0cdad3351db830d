package store

import (
	"context"
	"errors"
	"time"

	"mizan-hq/mizan/pkg/decision"
)

// ErrInvalidRecord indicates a record missing its required identity fields.
var ErrInvalidRecord = errors.New("decision record missing id or context hash")

// Filter narrows a decision query. Zero values mean "no constraint".
type Filter struct {
	Tenant     string
	PolicyType decision.PolicyType
	Since      time.Time
	Limit      int
}

// Store is the persistence contract for decision records.
type Store interface {
	// Store appends one record.
	Store(ctx context.Context, rec *decision.Record) error

	// Query returns records matching the filter, newest first.
	Query(ctx context.Context, filter Filter) ([]*decision.Record, error)

	// Count returns the total number of stored records.
	Count(ctx context.Context) (int, error)

	// Close releases backend resources.
	Close() error
}

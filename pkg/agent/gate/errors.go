package gate

import (
	"errors"
	"fmt"
	"time"
)

// ErrGateNotFound indicates an unknown gate ID.
var ErrGateNotFound = errors.New("approval gate not found")

// ErrNotAuthorized indicates the deciding role lacks authority over the
// gate's approver role.
var ErrNotAuthorized = errors.New("role not authorized to decide gate")

// InvalidTransitionError indicates an attempted transition out of a
// terminal state, or an unknown decision verb.
type InvalidTransitionError struct {
	GateID    string
	From      State
	Attempted string
}

// Error returns the error message.
func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("gate %s: invalid transition %q from state %s", e.GateID, e.Attempted, e.From)
}

// ApprovalExpiredError indicates a manual decision attempted after the
// auto-reject deadline.
type ApprovalExpiredError struct {
	GateID         string
	AutoRejectedAt time.Time
}

// Error returns the error message.
func (e *ApprovalExpiredError) Error() string {
	return fmt.Sprintf("gate %s: approval window expired at %s", e.GateID, e.AutoRejectedAt.Format(time.RFC3339))
}

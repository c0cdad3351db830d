package workflow

import (
	"errors"
	"fmt"
)

// ErrInstanceNotFound is returned for an unknown instance ID.
var ErrInstanceNotFound = errors.New("workflow instance not found")

// ErrUnknownWorkflowType is returned when starting an instance of an
// unregistered definition.
var ErrUnknownWorkflowType = errors.New("unknown workflow type")

// StepError rejects an advance that names a step other than the
// active one, or targets a completed instance. Steps never skip.
type StepError struct {
	InstanceID string
	Active     string
	Attempted  string
}

func (e *StepError) Error() string {
	if e.Active == "" {
		return fmt.Sprintf("workflow instance %s is already completed, cannot advance step %q",
			e.InstanceID, e.Attempted)
	}
	return fmt.Sprintf("workflow instance %s: step %q is active, cannot complete %q",
		e.InstanceID, e.Active, e.Attempted)
}

// WrongAssigneeError rejects an advance by a role other than the
// active step's assignee.
type WrongAssigneeError struct {
	InstanceID string
	StepID     string
	Required   string
	Presented  string
}

func (e *WrongAssigneeError) Error() string {
	return fmt.Sprintf("workflow instance %s: step %q requires role %q, presented %q",
		e.InstanceID, e.StepID, e.Required, e.Presented)
}

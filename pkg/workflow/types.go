package workflow

import "time"

// Step is one entry in a workflow definition.
type Step struct {
	// StepID identifies the step within its workflow type.
	StepID string `yaml:"stepId" json:"stepId"`

	// Name is the human-readable step name.
	Name string `yaml:"name" json:"name"`

	// AssigneeRole is the role that must complete the step.
	AssigneeRole string `yaml:"assigneeRole" json:"assigneeRole"`

	// DaysToComplete is the step's time budget, counted from the moment
	// the step becomes active.
	DaysToComplete int `yaml:"daysToComplete" json:"daysToComplete"`
}

// Definition is a named ordered step list.
type Definition struct {
	// WorkflowType names the definition (e.g. "GAP_ASSESSMENT").
	WorkflowType string `yaml:"workflowType" json:"workflowType"`

	// Steps run strictly in order.
	Steps []Step `yaml:"steps" json:"steps"`

	// SlaDays bounds the whole instance. Zero means no instance-level SLA.
	SlaDays int `yaml:"slaDays" json:"slaDays"`
}

// Status is the instance lifecycle status.
type Status string

const (
	StatusRunning   Status = "Running"
	StatusCompleted Status = "Completed"
)

// Instance is one running (or finished) workflow.
type Instance struct {
	// ID is the internal identifier.
	ID string `json:"id"`

	// InstanceNumber is the human-facing number, e.g. "WF-20260831-001".
	InstanceNumber string `json:"instanceNumber"`

	WorkflowType string `json:"workflowType"`

	// EntityType and EntityID name the business object the workflow
	// concerns.
	EntityType string `json:"entityType,omitempty"`
	EntityID   string `json:"entityId,omitempty"`

	Status Status `json:"status"`

	// CurrentState is the active step's ID, or the final step's ID once
	// the instance completes.
	CurrentState string `json:"currentState"`

	// StepIndex is the zero-based position of the active step.
	StepIndex int `json:"stepIndex"`

	StartedAt time.Time `json:"startedAt"`

	// StepStartedAt and StepDueAt track the active step's window.
	// StepDueAt is recomputed each time a step becomes active.
	StepStartedAt time.Time `json:"stepStartedAt"`
	StepDueAt     time.Time `json:"stepDueAt"`

	// SlaDueDate bounds the whole instance; zero when the definition
	// carries no instance-level SLA.
	SlaDueDate time.Time `json:"slaDueDate,omitempty"`

	// SlaBreached is raised by the overdue scan and never cleared.
	SlaBreached bool `json:"slaBreached"`

	CompletedAt time.Time `json:"completedAt,omitempty"`
}

// ActiveStep returns the active step from the definition, or false if
// the instance has completed.
func (i *Instance) ActiveStep(def *Definition) (Step, bool) {
	if i.Status != StatusRunning || i.StepIndex >= len(def.Steps) {
		return Step{}, false
	}
	return def.Steps[i.StepIndex], true
}

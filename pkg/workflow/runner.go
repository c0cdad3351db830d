package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Runner starts and advances workflow instances. Instances live in
// memory; durable storage belongs to the caller, which can snapshot
// the Instance records this package hands back.
type Runner struct {
	mu          sync.Mutex
	definitions map[string]*Definition
	instances   map[string]*Instance
	daySeq      map[string]int
	logger      *slog.Logger
	now         func() time.Time
}

// NewRunner creates a runner over the given definitions.
func NewRunner(defs []*Definition, logger *slog.Logger) (*Runner, error) {
	if logger == nil {
		logger = slog.Default()
	}
	byType := make(map[string]*Definition, len(defs))
	for _, def := range defs {
		if def.WorkflowType == "" {
			return nil, fmt.Errorf("workflow definition missing workflowType")
		}
		if len(def.Steps) == 0 {
			return nil, fmt.Errorf("workflow %q has no steps", def.WorkflowType)
		}
		if _, dup := byType[def.WorkflowType]; dup {
			return nil, fmt.Errorf("duplicate workflow type %q", def.WorkflowType)
		}
		seen := make(map[string]bool, len(def.Steps))
		for _, step := range def.Steps {
			if step.StepID == "" || step.AssigneeRole == "" {
				return nil, fmt.Errorf("workflow %q: every step needs stepId and assigneeRole", def.WorkflowType)
			}
			if seen[step.StepID] {
				return nil, fmt.Errorf("workflow %q: duplicate step %q", def.WorkflowType, step.StepID)
			}
			seen[step.StepID] = true
		}
		byType[def.WorkflowType] = def
	}
	return &Runner{
		definitions: byType,
		instances:   make(map[string]*Instance),
		daySeq:      make(map[string]int),
		logger:      logger.With("component", "workflow.runner"),
		now:         time.Now,
	}, nil
}

// SetClock overrides the runner clock. Intended for tests.
func (r *Runner) SetClock(now func() time.Time) {
	r.now = now
}

// Start creates a Running instance at the first step of the named
// workflow type.
func (r *Runner) Start(ctx context.Context, workflowType, entityType, entityID string) (*Instance, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	def, ok := r.definitions[workflowType]
	if !ok {
		return nil, fmt.Errorf("workflow type %q: %w", workflowType, ErrUnknownWorkflowType)
	}

	now := r.now().UTC()
	first := def.Steps[0]

	inst := &Instance{
		ID:             uuid.NewString(),
		InstanceNumber: r.nextNumberLocked(now),
		WorkflowType:   workflowType,
		EntityType:     entityType,
		EntityID:       entityID,
		Status:         StatusRunning,
		CurrentState:   first.StepID,
		StepIndex:      0,
		StartedAt:      now,
		StepStartedAt:  now,
		StepDueAt:      now.AddDate(0, 0, first.DaysToComplete),
	}
	if def.SlaDays > 0 {
		inst.SlaDueDate = now.AddDate(0, 0, def.SlaDays)
	}
	r.instances[inst.ID] = inst

	r.logger.Info("workflow instance started",
		"instance", inst.InstanceNumber,
		"workflow_type", workflowType,
		"first_step", first.StepID,
	)
	cp := *inst
	return &cp, nil
}

// nextNumberLocked allocates the next WF-YYYYMMDD-NNN number.
func (r *Runner) nextNumberLocked(now time.Time) string {
	day := now.Format("20060102")
	r.daySeq[day]++
	return fmt.Sprintf("WF-%s-%03d", day, r.daySeq[day])
}

// Get returns a copy of the instance.
func (r *Runner) Get(ctx context.Context, instanceID string) (*Instance, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	inst, ok := r.instances[instanceID]
	if !ok {
		return nil, fmt.Errorf("instance %q: %w", instanceID, ErrInstanceNotFound)
	}
	cp := *inst
	return &cp, nil
}

// AdvanceStep records completion of the named step by the given role
// and activates the next step. The named step must be the active one,
// and the role must be its assignee. Completing the final step marks
// the instance Completed.
func (r *Runner) AdvanceStep(ctx context.Context, instanceID, stepID, completingRole string) (*Instance, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	inst, ok := r.instances[instanceID]
	if !ok {
		return nil, fmt.Errorf("instance %q: %w", instanceID, ErrInstanceNotFound)
	}
	def := r.definitions[inst.WorkflowType]

	active, running := inst.ActiveStep(def)
	if !running {
		return nil, &StepError{InstanceID: instanceID, Attempted: stepID}
	}
	if stepID != active.StepID {
		return nil, &StepError{InstanceID: instanceID, Active: active.StepID, Attempted: stepID}
	}
	if completingRole != active.AssigneeRole {
		return nil, &WrongAssigneeError{
			InstanceID: instanceID,
			StepID:     active.StepID,
			Required:   active.AssigneeRole,
			Presented:  completingRole,
		}
	}

	now := r.now().UTC()
	inst.StepIndex++
	if inst.StepIndex >= len(def.Steps) {
		inst.Status = StatusCompleted
		inst.CompletedAt = now
		inst.StepDueAt = time.Time{}
		r.logger.Info("workflow instance completed",
			"instance", inst.InstanceNumber,
			"workflow_type", inst.WorkflowType,
		)
	} else {
		next := def.Steps[inst.StepIndex]
		inst.CurrentState = next.StepID
		inst.StepStartedAt = now
		inst.StepDueAt = now.AddDate(0, 0, next.DaysToComplete)
		r.logger.Info("workflow step advanced",
			"instance", inst.InstanceNumber,
			"completed_step", active.StepID,
			"active_step", next.StepID,
			"step_due_at", inst.StepDueAt,
		)
	}

	cp := *inst
	return &cp, nil
}

// Overdue scans running instances and returns those whose active step
// or instance SLA has passed, raising SlaBreached where the instance
// deadline is the one breached. The scan never transitions steps.
func (r *Runner) Overdue(ctx context.Context) []*Instance {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now().UTC()
	var out []*Instance
	for _, inst := range r.instances {
		if inst.Status != StatusRunning {
			continue
		}
		stepOverdue := !inst.StepDueAt.IsZero() && !now.Before(inst.StepDueAt)
		slaOverdue := !inst.SlaDueDate.IsZero() && !now.Before(inst.SlaDueDate)
		if slaOverdue && !inst.SlaBreached {
			inst.SlaBreached = true
			r.logger.Warn("workflow instance breached its SLA",
				"instance", inst.InstanceNumber,
				"sla_due_date", inst.SlaDueDate,
			)
		}
		if stepOverdue || slaOverdue {
			cp := *inst
			out = append(out, &cp)
		}
	}
	return out
}

// Types returns the registered workflow type names.
func (r *Runner) Types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.definitions))
	for t := range r.definitions {
		out = append(out, t)
	}
	return out
}

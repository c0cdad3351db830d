package governor

import (
	"fmt"

	"mizan-hq/mizan/pkg/agent/sod"
)

// ActionNotPermittedError rejects an action outside the agent's
// allow-list. The allow-list is the agent's complete vocabulary, so
// there is no narrower error for unknown versus forbidden actions.
type ActionNotPermittedError struct {
	AgentCode string
	Action    string
}

func (e *ActionNotPermittedError) Error() string {
	return fmt.Sprintf("agent %q is not permitted to perform action %q", e.AgentCode, e.Action)
}

// SoDViolationError rejects an action that a Block-enforced
// separation-of-duties rule forbids.
type SoDViolationError struct {
	Conflict *sod.Conflict
}

func (e *SoDViolationError) Error() string {
	return fmt.Sprintf("separation of duties rule %q blocks action %q on object %q (prior action %q by %s)",
		e.Conflict.RuleCode, e.Conflict.ProposedAction, e.Conflict.ObjectID,
		e.Conflict.Prior.Action, e.Conflict.Prior.AgentCode)
}

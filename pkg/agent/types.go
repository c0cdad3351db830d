package agent

// Definition is the static governance policy for one autonomous agent.
type Definition struct {
	// AgentCode uniquely identifies the agent (e.g. "EVIDENCE_COLLECTOR").
	AgentCode string `yaml:"agentCode"`

	// Name is the human-readable agent name.
	Name string `yaml:"name"`

	// AgentType groups agents for SoD purposes (e.g. "EVIDENCE_AGENT",
	// "COMPLIANCE_AGENT").
	AgentType string `yaml:"agentType"`

	// AllowedActions is the agent's complete action vocabulary. Anything
	// outside it is rejected outright.
	AllowedActions []string `yaml:"allowedActions"`

	// ApprovalRequiredActions is the subset of allowed actions that route
	// through an approval gate.
	ApprovalRequiredActions []string `yaml:"approvalRequiredActions"`

	// AutoApprovalConfidenceThreshold (0-100) is the confidence cutoff
	// consulted for approval-required actions.
	AutoApprovalConfidenceThreshold int `yaml:"autoApprovalConfidenceThreshold"`

	// AllowConfidenceBypass lets an approval-required action skip the gate
	// when confidence meets the threshold. Defaults to false: meeting the
	// threshold alone never silently skips human oversight unless an
	// administrator opted the agent in.
	AllowConfidenceBypass bool `yaml:"allowConfidenceBypass"`

	// OversightRole approves this agent's gated actions.
	OversightRole string `yaml:"oversightRole"`

	// EscalationRole is notified when a gate breaches its SLA.
	EscalationRole string `yaml:"escalationRole"`

	// ApprovalSLAHours is the approval window before escalation.
	// Zero applies the catalog default of 24.
	ApprovalSLAHours int `yaml:"approvalSlaHours"`

	// AutoRejectHours is the total window before a pending gate is
	// auto-rejected. Zero applies the catalog default of 72.
	AutoRejectHours int `yaml:"autoRejectHours"`
}

// MayPerform reports whether the action is in the agent's allow-list.
func (d *Definition) MayPerform(action string) bool {
	for _, a := range d.AllowedActions {
		if a == action {
			return true
		}
	}
	return false
}

// RequiresApproval reports whether the action is approval-gated for this
// agent.
func (d *Definition) RequiresApproval(action string) bool {
	for _, a := range d.ApprovalRequiredActions {
		if a == action {
			return true
		}
	}
	return false
}

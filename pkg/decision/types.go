package decision

import (
	"time"

	"github.com/google/uuid"
)

// PolicyType classifies what kind of decision a record captures.
type PolicyType string

const (
	// PolicyTypeScopeDerivation records a scope derivation computation.
	PolicyTypeScopeDerivation PolicyType = "ScopeDerivation"

	// PolicyTypeAgentAction records an agent action governance verdict.
	PolicyTypeAgentAction PolicyType = "AgentAction"
)

// Record is one audited policy decision.
type Record struct {
	// ID is the record's unique identifier.
	ID string `json:"id"`

	// Tenant is the opaque tenant scope the decision was made for.
	Tenant string `json:"tenant"`

	PolicyType PolicyType `json:"policyType"`

	// PolicyVersion identifies the ruleset (or agent catalog) version that
	// produced the decision, e.g. "KSA_GRC_COMPREHENSIVE@3".
	PolicyVersion string `json:"policyVersion"`

	// ContextHash is the deterministic hash of the input context; it doubles
	// as the decision cache key.
	ContextHash string `json:"contextHash"`

	// ContextJSON is the canonicalized input context, kept verbatim so an
	// auditor can replay the decision.
	ContextJSON string `json:"contextJson"`

	// Decision is the outcome ("DeriveScope", "Approved", "PendingApproval",
	// "Rejected").
	Decision string `json:"decision"`

	// Reason is a human-readable explanation of the outcome.
	Reason string `json:"reason"`

	RulesEvaluated int `json:"rulesEvaluated"`
	RulesMatched   int `json:"rulesMatched"`

	// ConfidenceScore is matched/evaluated expressed as a 0-100 integer.
	// The ratio is a stable, documented choice; rule-declared weights are
	// not used.
	ConfidenceScore int `json:"confidenceScore"`

	EvaluatedAt time.Time `json:"evaluatedAt"`
	ExpiresAt   time.Time `json:"expiresAt"`

	// IsCached marks records returned from the decision cache rather than
	// freshly computed. Stored records always have IsCached=false; the flag
	// is set on the copy handed to the caller.
	IsCached bool `json:"isCached"`

	// RelatedEntityType and RelatedEntityID link the decision to the
	// business object it concerns (a tenant, an evidence item, a risk).
	RelatedEntityType string `json:"relatedEntityType,omitempty"`
	RelatedEntityID   string `json:"relatedEntityId,omitempty"`
}

// NewRecord creates a record with a fresh ID and evaluation timestamp.
func NewRecord(tenant string, policyType PolicyType) *Record {
	return &Record{
		ID:          uuid.NewString(),
		Tenant:      tenant,
		PolicyType:  policyType,
		EvaluatedAt: time.Now().UTC(),
	}
}

// Confidence computes the matched/evaluated ratio as a 0-100 score.
// Zero rules evaluated scores zero, not an error.
func Confidence(matched, evaluated int) int {
	if evaluated <= 0 {
		return 0
	}
	return matched * 100 / evaluated
}

package agent

import (
	"fmt"
	"os"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultApprovalSLAHours is the approval window applied when a
	// definition leaves ApprovalSLAHours unset.
	DefaultApprovalSLAHours = 24

	// DefaultAutoRejectHours is the auto-reject window applied when a
	// definition leaves AutoRejectHours unset.
	DefaultAutoRejectHours = 72
)

// Catalog is the registry of agent definitions. Lookups are concurrent-safe;
// Replace swaps the whole catalog atomically (the administrative reseed
// path).
type Catalog struct {
	mu     sync.RWMutex
	byCode map[string]*Definition
}

// catalogDoc is the wire shape of an agent catalog document.
type catalogDoc struct {
	Agents []*Definition `yaml:"agents"`
}

// NewCatalog creates a catalog over the given definitions, validating them
// first. Validation failures prevent the catalog from being constructed at
// all; a half-valid catalog never serves lookups.
func NewCatalog(defs []*Definition) (*Catalog, error) {
	if err := validateDefinitions(defs); err != nil {
		return nil, err
	}

	byCode := make(map[string]*Definition, len(defs))
	for _, d := range defs {
		applyDefaults(d)
		byCode[d.AgentCode] = d
	}
	return &Catalog{byCode: byCode}, nil
}

// LoadCatalog reads an agent catalog YAML document from disk.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read agent catalog %q: %w", path, err)
	}

	var doc catalogDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse agent catalog %q: %w", path, err)
	}
	return NewCatalog(doc.Agents)
}

// Lookup returns the definition for an agent code, or ErrUnknownAgent.
func (c *Catalog) Lookup(agentCode string) (*Definition, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	d, ok := c.byCode[agentCode]
	if !ok {
		return nil, fmt.Errorf("agent %q: %w", agentCode, ErrUnknownAgent)
	}
	return d, nil
}

// Replace swaps in a new set of definitions atomically after validating it.
func (c *Catalog) Replace(defs []*Definition) error {
	if err := validateDefinitions(defs); err != nil {
		return err
	}

	byCode := make(map[string]*Definition, len(defs))
	for _, d := range defs {
		applyDefaults(d)
		byCode[d.AgentCode] = d
	}

	c.mu.Lock()
	c.byCode = byCode
	c.mu.Unlock()
	return nil
}

// Codes returns every agent code in the catalog, sorted.
func (c *Catalog) Codes() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	codes := make([]string, 0, len(c.byCode))
	for code := range c.byCode {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// applyDefaults fills in unset SLA windows.
func applyDefaults(d *Definition) {
	if d.ApprovalSLAHours <= 0 {
		d.ApprovalSLAHours = DefaultApprovalSLAHours
	}
	if d.AutoRejectHours <= 0 {
		d.AutoRejectHours = DefaultAutoRejectHours
	}
}

// validateDefinitions checks a whole definition set, aggregating problems.
func validateDefinitions(defs []*Definition) error {
	var problems []string
	seen := make(map[string]bool, len(defs))

	for i, d := range defs {
		code := d.AgentCode
		if code == "" {
			code = fmt.Sprintf("agents[%d]", i)
			problems = append(problems, fmt.Sprintf("%s: agentCode is required", code))
		}
		if seen[d.AgentCode] && d.AgentCode != "" {
			problems = append(problems, fmt.Sprintf("%s: duplicate agent code", code))
		}
		seen[d.AgentCode] = true

		if d.AgentType == "" {
			problems = append(problems, fmt.Sprintf("%s: agentType is required", code))
		}
		if len(d.AllowedActions) == 0 {
			problems = append(problems, fmt.Sprintf("%s: allowedActions cannot be empty", code))
		}
		if d.AutoApprovalConfidenceThreshold < 0 || d.AutoApprovalConfidenceThreshold > 100 {
			problems = append(problems, fmt.Sprintf("%s: confidence threshold %d outside 0-100",
				code, d.AutoApprovalConfidenceThreshold))
		}
		if d.OversightRole == "" {
			problems = append(problems, fmt.Sprintf("%s: oversightRole is required", code))
		}
		if d.ApprovalSLAHours < 0 || d.AutoRejectHours < 0 {
			problems = append(problems, fmt.Sprintf("%s: SLA hours cannot be negative", code))
		}
		if d.ApprovalSLAHours > 0 && d.AutoRejectHours > 0 && d.AutoRejectHours <= d.ApprovalSLAHours {
			problems = append(problems, fmt.Sprintf("%s: autoRejectHours (%d) must exceed approvalSlaHours (%d)",
				code, d.AutoRejectHours, d.ApprovalSLAHours))
		}

		// Approval-required actions must be a subset of allowed actions.
		for _, action := range d.ApprovalRequiredActions {
			if !d.MayPerform(action) {
				problems = append(problems, fmt.Sprintf("%s: approval-required action %q not in allowedActions",
					code, action))
			}
		}
	}

	if len(problems) > 0 {
		return &CatalogValidationError{Errors: problems}
	}
	return nil
}

// Package directory answers approver-authority questions: whether a role
// may decide a given gate, either because it is the gate's approver role or
// because it holds escalation authority over it.
//
// Authority is modeled as RBAC in casbin. Each approver role gets a decide
// permission on itself; escalation roles inherit the approver roles they
// escalate for through grouping policies, so an escalation role can decide
// any gate of the agents it oversees.
package directory

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"

	"mizan-hq/mizan/pkg/agent"
)

// rbacModel is the casbin model: subject inherits roles through g, and a
// decide permission is granted per approver role.
const rbacModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && r.obj == p.obj && r.act == p.act
`

// Directory resolves role authority for gate decisions.
type Directory struct {
	mu       sync.RWMutex
	enforcer *casbin.Enforcer
	logger   *slog.Logger
}

// New creates an empty directory.
func New(logger *slog.Logger) (*Directory, error) {
	if logger == nil {
		logger = slog.Default()
	}

	m, err := model.NewModelFromString(rbacModel)
	if err != nil {
		return nil, fmt.Errorf("build rbac model: %w", err)
	}
	enforcer, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("create enforcer: %w", err)
	}

	return &Directory{
		enforcer: enforcer,
		logger:   logger.With("component", "agent.directory"),
	}, nil
}

// NewFromCatalog creates a directory seeded with the oversight and
// escalation roles of every agent in the catalog.
func NewFromCatalog(catalog *agent.Catalog, logger *slog.Logger) (*Directory, error) {
	d, err := New(logger)
	if err != nil {
		return nil, err
	}
	for _, code := range catalog.Codes() {
		def, err := catalog.Lookup(code)
		if err != nil {
			return nil, err
		}
		if err := d.RegisterApprover(def.OversightRole); err != nil {
			return nil, err
		}
		if def.EscalationRole != "" && def.EscalationRole != def.OversightRole {
			if err := d.GrantEscalation(def.EscalationRole, def.OversightRole); err != nil {
				return nil, err
			}
		}
	}
	return d, nil
}

// RegisterApprover grants a role decide authority over its own gates.
func (d *Directory) RegisterApprover(role string) error {
	if role == "" {
		return fmt.Errorf("approver role cannot be empty")
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, err := d.enforcer.AddPolicy(role, role, "decide"); err != nil {
		return fmt.Errorf("register approver %q: %w", role, err)
	}
	return nil
}

// GrantEscalation gives escalationRole authority over approverRole's gates.
func (d *Directory) GrantEscalation(escalationRole, approverRole string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, err := d.enforcer.AddPolicy(approverRole, approverRole, "decide"); err != nil {
		return fmt.Errorf("register approver %q: %w", approverRole, err)
	}
	if _, err := d.enforcer.AddGroupingPolicy(escalationRole, approverRole); err != nil {
		return fmt.Errorf("grant escalation %q over %q: %w", escalationRole, approverRole, err)
	}
	return nil
}

// CanDecide reports whether role may decide a gate whose approver role is
// approverRole.
func (d *Directory) CanDecide(role, approverRole string) (bool, error) {
	if role == approverRole {
		return true, nil
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	ok, err := d.enforcer.Enforce(role, approverRole, "decide")
	if err != nil {
		return false, fmt.Errorf("enforce decide authority: %w", err)
	}
	return ok, nil
}

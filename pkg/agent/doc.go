// Package agent holds the static per-agent governance policy: which actions
// an agent may perform, which of those need human approval, its confidence
// threshold, and its oversight and escalation roles.
//
// Definitions are immutable at runtime. They are loaded from an
// administrative catalog document (YAML) and replaced wholesale on reseed;
// per-agent edits never mutate a live definition.
package agent

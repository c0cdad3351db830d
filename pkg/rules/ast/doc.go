// Package ast defines the typed representation of derivation rulesets.
//
// Rulesets arrive as JSON or YAML documents (seeded by administrators) in
// which each rule carries a condition tree and an ordered action list. The
// document is parsed exactly once, at load time, into the tagged types in
// this package; malformed operators, combinators, or action types are
// rejected by Parse rather than surfacing during evaluation.
package ast

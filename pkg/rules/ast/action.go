package ast

// ActionType tags the variant of an Action.
type ActionType string

const (
	// ActionApplyBaseline adds a compliance baseline code to the derived scope.
	ActionApplyBaseline ActionType = "apply_baseline"

	// ActionApplyPackage adds a control package code to the derived scope.
	ActionApplyPackage ActionType = "apply_package"

	// ActionApplyTemplate adds a document template code to the derived scope.
	ActionApplyTemplate ActionType = "apply_template"

	// ActionTag writes a key/value annotation into the derived scope.
	ActionTag ActionType = "tag"
)

// Action is one effect of a firing rule. Code is set for the apply_* variants;
// Key and Value are set for tag actions.
type Action struct {
	Type  ActionType
	Code  string
	Key   string
	Value string
}

// IsApply reports whether the action contributes a catalog code (as opposed
// to a tag annotation).
func (a *Action) IsApply() bool {
	switch a.Type {
	case ActionApplyBaseline, ActionApplyPackage, ActionApplyTemplate:
		return true
	default:
		return false
	}
}

// validActionType reports whether the action type is known.
func validActionType(t ActionType) bool {
	switch t {
	case ActionApplyBaseline, ActionApplyPackage, ActionApplyTemplate, ActionTag:
		return true
	default:
		return false
	}
}

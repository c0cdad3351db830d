package ast

// Combinator joins child conditions in a composite node.
type Combinator string

const (
	// CombinatorAnd requires every child to match. An AND node with no
	// children is vacuously true.
	CombinatorAnd Combinator = "and"

	// CombinatorOr requires at least one child to match. An OR node with
	// no children never matches.
	CombinatorOr Combinator = "or"
)

// Operator compares a profile field against a rule value in a leaf condition.
type Operator string

const (
	// OperatorEquals matches on exact string equality (scalars are
	// stringified before comparison).
	OperatorEquals Operator = "equals"

	// OperatorIn matches when the profile value intersects the rule
	// value, interpreted as a comma-separated set. The profile side may
	// be a scalar or a set of strings.
	OperatorIn Operator = "in"

	// OperatorContains matches substring containment for scalar profile
	// values and set membership for set-valued profile fields.
	// Matching is case-sensitive; callers wanting folding must normalize
	// profiles before evaluation.
	OperatorContains Operator = "contains"

	// OperatorGte matches when the profile value is numerically >= the
	// rule value. Non-numeric operands evaluate to false.
	OperatorGte Operator = "gte"

	// OperatorLt matches when the profile value is numerically < the
	// rule value. Non-numeric operands evaluate to false.
	OperatorLt Operator = "lt"
)

// Condition is a node in a rule's condition tree. A node is either a leaf
// (Field/Operator/Value set, no children) or a composite (Combinator set,
// Children possibly empty).
type Condition struct {
	// Combinator is set for composite nodes.
	Combinator Combinator

	// Children are the sub-conditions of a composite node.
	Children []*Condition

	// Field is the organization profile field a leaf inspects.
	Field string

	// Operator is the leaf comparison operator.
	Operator Operator

	// Value is the leaf comparison value. For OperatorIn it is a
	// comma-separated set.
	Value string
}

// IsLeaf reports whether the node is a field/operator/value predicate.
func (c *Condition) IsLeaf() bool {
	return c.Combinator == ""
}

// validCombinator reports whether the combinator is known.
func validCombinator(comb Combinator) bool {
	return comb == CombinatorAnd || comb == CombinatorOr
}

// validOperator reports whether the operator is known.
func validOperator(op Operator) bool {
	switch op {
	case OperatorEquals, OperatorIn, OperatorContains, OperatorGte, OperatorLt:
		return true
	default:
		return false
	}
}

package ldmodel

// Operator is the closed set of clause comparison operators.
type Operator string

// The supported clause operators.
const (
	OperatorIn                 Operator = "in"
	OperatorEndsWith           Operator = "endsWith"
	OperatorStartsWith         Operator = "startsWith"
	OperatorMatches            Operator = "matches"
	OperatorContains           Operator = "contains"
	OperatorLessThan           Operator = "lessThan"
	OperatorLessThanOrEqual    Operator = "lessThanOrEqual"
	OperatorGreaterThan        Operator = "greaterThan"
	OperatorGreaterThanOrEqual Operator = "greaterThanOrEqual"
	OperatorBefore             Operator = "before"
	OperatorAfter              Operator = "after"
	OperatorSemVerEqual        Operator = "semVerEqual"
	OperatorSemVerLessThan     Operator = "semVerLessThan"
	OperatorSemVerGreaterThan  Operator = "semVerGreaterThan"
	OperatorSegmentMatch       Operator = "segmentMatch"

	// OperatorMatchesExpr is a non-upstream extension: it evaluates a
	// pre-compiled CEL boolean expression against the context's attribute map instead of
	// comparing a single attribute against clause.Values. Clauses using it ignore Attribute
	// and Values and instead read CelExpression.
	OperatorMatchesExpr Operator = "matchesExpr"
)

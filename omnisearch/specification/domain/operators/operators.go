package operators

type Operator string

const (
	// Comparison

	OperatorEq  Operator = "="
	OperatorGt  Operator = ">"
	OperatorLt  Operator = "<"
	OperatorGte Operator = ">="
	OperatorLte Operator = "<="
	OperatorNe  Operator = "!="

	// Pattern matching and membership

	OperatorLike Operator = "LIKE"
	OperatorIn   Operator = "IN"

	// Logical operators

	OperatorAnd Operator = "AND"
	OperatorOr  Operator = "OR"
	OperatorNot Operator = "NOT"

	// Functions

	OperatorLower Operator = "LOWER"

	// Postfix

	OperatorIsNull    Operator = "IS NULL"
	OperatorIsNotNull Operator = "IS NOT NULL"
)

// IsFunction reports whether the operator is rendered in call form, e.g. LOWER(x).
func (o Operator) IsFunction() bool {
	return o == OperatorLower
}

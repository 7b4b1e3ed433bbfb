package metapager

import "fmt"

// Operator is a comparison operator of a predicate tree.
type Operator string

const (
	OperatorGT  Operator = ">"
	OperatorLT  Operator = "<"
	OperatorGTE Operator = ">="
	OperatorLTE Operator = "<="
	OperatorEq  Operator = "="
	OperatorNeq Operator = "!="
)

// Valid reports whether the operator is usable in a comparison.
func (o Operator) Valid() bool {
	switch o {
	case OperatorGT, OperatorLT, OperatorGTE, OperatorLTE, OperatorEq, OperatorNeq:
		return true
	default:
		return false
	}
}

// ForOrdering maps a strict operator back to the direction it advances.
func (o Operator) ForOrdering() Direction {
	switch o {
	case OperatorGT:
		return DirectionASC
	case OperatorLT:
		return DirectionDESC
	default:
		panic(fmt.Errorf("cannot map operator '%s' to ordering", o))
	}
}

// Holds reports whether cmp (the result of comparing left to right) satisfies
// the operator.
func (o Operator) Holds(cmp int) bool {
	switch o {
	case OperatorGT:
		return cmp > 0
	case OperatorLT:
		return cmp < 0
	case OperatorGTE:
		return cmp >= 0
	case OperatorLTE:
		return cmp <= 0
	case OperatorEq:
		return cmp == 0
	case OperatorNeq:
		return cmp != 0
	default:
		return false
	}
}

package metapager

import (
	"fmt"

	"github.com/samber/lo"
)

// Compare is the comparison of an auxiliary attribute clause.
type Compare string

const (
	CompareEq        Compare = "="
	CompareNeq       Compare = "!="
	CompareGT        Compare = ">"
	CompareGTE       Compare = ">="
	CompareLT        Compare = "<"
	CompareLTE       Compare = "<="
	CompareExists    Compare = "EXISTS"
	CompareNotExists Compare = "NOT EXISTS"
)

type (
	// Filter is the caller's original filter. All conditions are AND-ed.
	Filter struct {
		// MetaKey names the attribute bound to the "meta_value" and
		// "meta_value_num" orderings. Records must carry it.
		MetaKey string
		// MetaType is the comparison type of "meta_value".
		MetaType ValueType
		// Columns are conditions on built-in record columns.
		Columns []ColumnCondition
		// Clauses are conditions on auxiliary attributes. Named clauses can be
		// referenced from an ordering.
		Clauses []Clause
	}

	// ColumnCondition compares a built-in column to a value.
	ColumnCondition struct {
		Column   string
		Operator Operator
		Value    any
	}

	// Clause declares a condition on an auxiliary attribute.
	Clause struct {
		// Name is optional; it makes the clause usable as an ordering name.
		Name      string
		Attribute string
		// Compare defaults to CompareExists when Value is nil and to
		// CompareEq otherwise.
		Compare Compare
		Value   any
		// Type defaults to TypeString.
		Type ValueType
	}

	// FilterTransform rewrites a filter before it is resolved. It is invoked
	// once per request.
	FilterTransform func(Filter) Filter
)

func (c Clause) compare() Compare {
	if c.Compare != "" {
		return c.Compare
	}
	if c.Value == nil {
		return CompareExists
	}

	return CompareEq
}

func (c Compare) operator() (Operator, bool) {
	switch c {
	case CompareEq:
		return OperatorEq, true
	case CompareNeq:
		return OperatorNeq, true
	case CompareGT:
		return OperatorGT, true
	case CompareGTE:
		return OperatorGTE, true
	case CompareLT:
		return OperatorLT, true
	case CompareLTE:
		return OperatorLTE, true
	default:
		return "", false
	}
}

// clause returns the named clause declared in the filter.
func (f Filter) clause(name string) (Clause, bool) {
	if name == "" {
		return Clause{}, false
	}

	return lo.Find(f.Clauses, func(c Clause) bool { return c.Name == name })
}

func (f Filter) clauseNames() []string {
	return lo.FilterMap(f.Clauses, func(c Clause, _ int) (string, bool) { return c.Name, c.Name != "" })
}

// Predicate builds the predicate tree of the filter. Column conditions are
// resolved against the registry of known columns. Values are coerced into
// their comparison domain; values that do not coerce are rejected.
func (f Filter) Predicate(columns Columns) (Predicate, error) {
	var ret And

	if f.MetaKey != "" {
		ret = append(ret, Exists{Attribute: f.MetaKey})
	}

	for _, cond := range f.Columns {
		col, ok := columns[cond.Column]
		if !ok {
			return nil, fmt.Errorf("%w: unknown filter column '%s'", ErrInvalidRequest, cond.Column)
		}
		if !cond.Operator.Valid() {
			return nil, fmt.Errorf("%w: invalid operator '%s' for column '%s'", ErrInvalidRequest, cond.Operator, cond.Column)
		}

		value, err := col.Type.Coerce(cond.Value)
		if err != nil {
			return nil, fmt.Errorf("%w: column '%s': %w", ErrInvalidRequest, cond.Column, err)
		}

		ret = append(ret, Comparison{Operand: col.Source(), Operator: cond.Operator, Value: value})
	}

	for _, c := range f.Clauses {
		if c.Attribute == "" {
			return nil, fmt.Errorf("%w: clause '%s' has no attribute", ErrInvalidRequest, c.Name)
		}

		switch cmp := c.compare(); cmp {
		case CompareExists, CompareNotExists:
			ret = append(ret, Exists{Attribute: c.Attribute, Negate: cmp == CompareNotExists})
		default:
			op, ok := cmp.operator()
			if !ok {
				return nil, fmt.Errorf("%w: invalid compare '%s' in clause '%s'", ErrInvalidRequest, cmp, c.Name)
			}

			src := AttributeSource(c.Attribute, c.Type)
			value, err := src.Type.Coerce(c.Value)
			if err != nil {
				return nil, fmt.Errorf("%w: clause '%s': %w", ErrInvalidRequest, c.Name, err)
			}

			ret = append(ret, Comparison{Operand: src, Operator: op, Value: value})
		}
	}

	return Conjoin(ret...), nil
}

package metapager

import "fmt"

// Predicate is a boolean filter tree handed to the storage collaborator. The
// closed set of nodes is And, Or, Comparison and Exists.
type Predicate interface {
	isPredicate()
}

type (
	// And holds when every child holds. An empty And holds.
	And []Predicate
	// Or holds when any child holds. An empty Or does not hold.
	Or []Predicate

	// Comparison compares the value located by Operand to Value. Value is
	// already coerced into the operand's comparison domain.
	Comparison struct {
		Operand  Source
		Operator Operator
		Value    any
	}

	// Exists holds when the record carries the auxiliary attribute. Negate
	// inverts it.
	Exists struct {
		Attribute string
		Negate    bool
	}
)

func (And) isPredicate()        {}
func (Or) isPredicate()         {}
func (Comparison) isPredicate() {}
func (Exists) isPredicate()     {}

// Row is a record as returned by the storage collaborator. Value locates the
// value of a column or an auxiliary attribute; ok is false when the record
// does not carry it.
type Row interface {
	Value(src Source) (v any, ok bool)
}

// Conjoin joins predicates with AND, dropping nil ones. It returns nil when
// nothing is left and the single predicate when only one is left.
func Conjoin(predicates ...Predicate) Predicate {
	ret := make(And, 0, len(predicates))
	for _, p := range predicates {
		switch pt := p.(type) {
		case nil:
			continue
		case And:
			if len(pt) == 0 {
				continue
			}
		}

		ret = append(ret, p)
	}

	switch len(ret) {
	case 0:
		return nil
	case 1:
		return ret[0]
	default:
		return ret
	}
}

// Eval evaluates a predicate against a row with the comparison semantics of
// each operand's ValueType. A nil predicate holds.
func Eval(p Predicate, row Row) (bool, error) {
	switch pt := p.(type) {
	case nil:
		return true, nil
	case And:
		for _, child := range pt {
			ok, err := Eval(child, row)
			if err != nil || !ok {
				return false, err
			}
		}

		return true, nil
	case Or:
		for _, child := range pt {
			ok, err := Eval(child, row)
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		}

		return false, nil
	case Exists:
		_, ok := row.Value(AttributeSource(pt.Attribute, TypeString))
		return ok != pt.Negate, nil
	case Comparison:
		v, ok := row.Value(pt.Operand)
		if !ok {
			return false, nil
		}

		cmp, err := pt.Operand.Type.Compare(v, pt.Value)
		if err != nil {
			return false, fmt.Errorf("%w: %s: %w", ErrInvalidSortValue, pt.Operand, err)
		}

		return pt.Operator.Holds(cmp), nil
	default:
		return false, fmt.Errorf("unsupported predicate %T", p)
	}
}

// Walk calls fn for every node of the tree in depth-first order.
func Walk(p Predicate, fn func(Predicate)) {
	if p == nil {
		return
	}

	fn(p)
	switch pt := p.(type) {
	case And:
		for _, child := range pt {
			Walk(child, fn)
		}
	case Or:
		for _, child := range pt {
			Walk(child, fn)
		}
	}
}

package metapager

import (
	"fmt"

	"github.com/samber/lo"
)

type (
	tConjunct = Comparison

	tDisjunct []tConjunct

	// tDNF represents the disjunctive normal form (DNF) of a logical expression.
	// Each disjunct is joined by OR, and each disjunct consists of a list of
	// conjuncts which are joined by AND. A conjunct is the value of
	// Operator(Operand, Value).
	//
	// Thus:
	//
	//	DNF = X1 OR X2 ... OR Xn, where Xi = Ai1 AND Ai2 ... AND Aim.
	tDNF []tDisjunct
)

// toDNF expands the boundary of a row into the continuation condition.
//
// For keys [(K1, D1), (K2, D2) ... (Kn, Dn)] and boundary values
// [V1, V2 ... Vn] the result is:
//
//	(K1 O1 V1) or (K1 = V1 and K2 O2 V2) or ... or (K1 = V1 ... and Kn On Vn)
//
// where Oi is ">" for ascending and "<" for descending keys. This is the
// lexicographic "strictly after" comparison of the key tuple under the mixed
// directions. It is exact only because the last key is unique.
func toDNF(b BoundaryValues, spec OrderSpec) (tDNF, error) {
	if b == nil {
		return nil, nil
	}

	conjuncts := make([]tConjunct, 0, len(spec))
	for _, key := range spec {
		raw, ok := b[key.Name]
		if !ok {
			return nil, fmt.Errorf("%w: no boundary value for key '%s'", ErrCursorOrderMismatch, key.Name)
		}

		value, err := key.Source.Type.Coerce(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: key '%s': %w", ErrInvalidSortValue, key.Name, err)
		}

		conjuncts = append(conjuncts, tConjunct{
			Operand:  key.Source,
			Operator: key.Direction.ForOperator(),
			Value:    value,
		})
	}

	dnf := make(tDNF, 0, len(conjuncts))
	for i := range conjuncts {
		previousWithEqualityCondition := lo.Map(conjuncts[:i], func(item tConjunct, _ int) tConjunct {
			item.Operator = OperatorEq
			return item
		})

		disjunct := make(tDisjunct, 0, i+1)
		disjunct = append(disjunct, previousWithEqualityCondition...)
		disjunct = append(disjunct, conjuncts[i])

		dnf = append(dnf, disjunct)
	}

	return dnf, nil
}

func (d tDisjunct) toPredicate() Predicate {
	ret := make(And, 0, len(d))
	for _, conjunct := range d {
		ret = append(ret, conjunct)
	}

	if len(ret) == 1 {
		return ret[0]
	}

	return ret
}

func (d tDNF) toPredicate() Predicate {
	if len(d) == 0 {
		return nil
	}

	ret := make(Or, 0, len(d))
	for _, disjunct := range d {
		if len(disjunct) == 0 {
			continue
		}

		ret = append(ret, disjunct.toPredicate())
	}

	if len(ret) == 1 {
		return ret[0]
	}

	return ret
}

// Continuation builds the predicate selecting exactly the rows strictly after
// the boundary in the total order of spec. It returns nil for nil boundary
// values (first page).
func Continuation(b BoundaryValues, spec OrderSpec) (Predicate, error) {
	dnf, err := toDNF(b, spec)
	if err != nil {
		return nil, err
	}

	return dnf.toPredicate(), nil
}

// BuildPredicate combines the caller's filter with the continuation after
// the boundary. Without a boundary the filter is returned unmodified.
func BuildPredicate(filter Predicate, b BoundaryValues, spec OrderSpec) (Predicate, error) {
	continuation, err := Continuation(b, spec)
	if err != nil {
		return nil, err
	}

	return Conjoin(filter, continuation), nil
}

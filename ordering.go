package metapager

import (
	"fmt"
	"strings"

	"github.com/samber/lo"
)

// Direction defines the sort direction for the requested dataset.
type Direction string

const (
	DirectionASC  Direction = "ASC"
	DirectionDESC Direction = "DESC"
)

// ParseDirection parses a direction case-insensitively.
func ParseDirection(s string) (Direction, error) {
	d := Direction(strings.ToUpper(strings.TrimSpace(s)))
	if !d.Valid() {
		return "", fmt.Errorf("invalid ordering direction '%s'", s)
	}

	return d, nil
}

func (o Direction) Valid() bool {
	return o == DirectionASC || o == DirectionDESC
}

// ForOperator returns the strict operator that advances in the direction.
func (o Direction) ForOperator() Operator {
	switch o {
	case DirectionASC:
		return OperatorGT
	case DirectionDESC:
		return OperatorLT
	default:
		panic(fmt.Errorf("cannot map direction '%s' to operator", o))
	}
}

// Reverse returns the opposite direction.
func (o Direction) Reverse() Direction {
	if o == DirectionDESC {
		return DirectionASC
	}

	return DirectionDESC
}

// Source locates a comparable value of a record: either a built-in column or
// an auxiliary attribute from the key/value store.
type Source struct {
	// Column is the record column name. Empty for attributes.
	Column string
	// Attribute is the auxiliary attribute key. Empty for columns.
	Attribute string
	// Type selects the comparison semantics.
	Type ValueType
}

// ColumnSource returns a Source for a built-in column.
func ColumnSource(column string, typ ValueType) Source {
	return Source{Column: column, Type: typ.OrDefault()}
}

// AttributeSource returns a Source for an auxiliary attribute.
func AttributeSource(attribute string, typ ValueType) Source {
	return Source{Attribute: attribute, Type: typ.OrDefault()}
}

// IsAttribute reports whether the source is an auxiliary attribute.
func (s Source) IsAttribute() bool {
	return s.Attribute != ""
}

// String returns "col:<name>" or "attr:<name>".
func (s Source) String() string {
	if s.IsAttribute() {
		return "attr:" + s.Attribute
	}

	return "col:" + s.Column
}

var _availableColumnNameSymbols = append([]rune("_.-"), lo.AlphanumericCharset...)

func (s Source) validate() error {
	if s.IsAttribute() == (s.Column != "") {
		return fmt.Errorf("source must name exactly one of column or attribute")
	}
	if !s.Type.Valid() {
		return fmt.Errorf("invalid value type '%s'", s.Type)
	}

	// Guard against SQL injection by restricting allowed characters in column names.
	if !s.IsAttribute() && !lo.Every(_availableColumnNameSymbols, []rune(s.Column)) {
		return fmt.Errorf("column name contains forbidden symbols '%s'", s.Column)
	}

	return nil
}

// SortKey is one component of a compound ordering.
type SortKey struct {
	Name      string
	Source    Source
	Direction Direction
}

func (k SortKey) validate() error {
	if k.Name == "" {
		return fmt.Errorf("empty sort key name")
	}
	if !k.Direction.Valid() {
		return fmt.Errorf("invalid ordering direction '%s' of key '%s'", k.Direction, k.Name)
	}

	return k.Source.validate()
}

// OrderSpec is a resolved ordering. The last key always yields a unique value
// per row, so the order is total.
type OrderSpec []SortKey

// Names returns sort key names in order.
func (o OrderSpec) Names() []string {
	return lo.Map(o, func(k SortKey, _ int) string { return k.Name })
}

// Attributes returns the distinct auxiliary attributes referenced by the
// ordering, in order of first appearance.
func (o OrderSpec) Attributes() []string {
	return lo.Uniq(lo.FilterMap(o, func(k SortKey, _ int) (string, bool) {
		return k.Source.Attribute, k.Source.IsAttribute()
	}))
}

// Reverse returns a copy with every direction flipped.
func (o OrderSpec) Reverse() OrderSpec {
	return lo.Map(o, func(k SortKey, _ int) SortKey {
		k.Direction = k.Direction.Reverse()
		return k
	})
}

// String renders the ordering as "name ASC, other DESC".
func (o OrderSpec) String() string {
	return strings.Join(lo.Map(o, func(k SortKey, _ int) string {
		return fmt.Sprintf("%s %s", k.Name, k.Direction)
	}), ", ")
}

func (o OrderSpec) validate() error {
	if len(o) == 0 {
		return fmt.Errorf("empty ordering list")
	}

	seen := make(map[string]struct{}, len(o))
	for _, key := range o {
		if err := key.validate(); err != nil {
			return err
		}
		if _, ok := seen[key.Name]; ok {
			return fmt.Errorf("duplicate sort key '%s'", key.Name)
		}
		seen[key.Name] = struct{}{}
	}

	return nil
}

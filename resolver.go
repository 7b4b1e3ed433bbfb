package metapager

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/samber/lo"
)

const (
	// OrderMetaValue orders by the filter's MetaKey compared as MetaType.
	OrderMetaValue = "meta_value"
	// OrderMetaValueNum orders by the filter's MetaKey compared as DECIMAL.
	OrderMetaValueNum = "meta_value_num"
)

type (
	// Column describes a built-in record column.
	Column struct {
		Name string
		Type ValueType
		// Unique marks columns whose values are unique per row.
		Unique bool
	}

	// Columns maps external names to record columns.
	Columns map[string]Column
)

// Source returns the column's value source.
func (c Column) Source() Source {
	return ColumnSource(c.Name, c.Type)
}

// OrderRequest is a caller's ordering request. It is one of OrderByField or
// OrderByClauses; nil selects the resolver's default ordering.
type OrderRequest interface {
	isOrderRequest()
}

type (
	// OrderByField orders by a single name. An empty Direction means DESC.
	OrderByField struct {
		Name      string
		Direction Direction
	}

	// OrderClause is one entry of OrderByClauses.
	OrderClause struct {
		Name      string
		Direction Direction
	}

	// OrderByClauses orders by several names in the given order.
	OrderByClauses []OrderClause
)

func (OrderByField) isOrderRequest()   {}
func (OrderByClauses) isOrderRequest() {}

// ParseOrderRequest reads the transport form of an ordering: either a JSON
// string naming a single field or a JSON object mapping names to directions.
// Object key order is preserved. direction applies to the string form only.
func ParseOrderRequest(raw []byte, direction Direction) (OrderRequest, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}

	if raw[0] == '"' {
		var name string
		if err := json.Unmarshal(raw, &name); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
		}

		return OrderByField{Name: name, Direction: direction}, nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	if tok, err := dec.Token(); err != nil || tok != json.Delim('{') {
		return nil, fmt.Errorf("%w: ordering must be a string or an object", ErrInvalidRequest)
	}

	var ret OrderByClauses
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
		}

		var dirString string
		if err = dec.Decode(&dirString); err != nil {
			return nil, fmt.Errorf("%w: direction of '%v': %w", ErrInvalidRequest, keyTok, err)
		}

		dir, err := ParseDirection(dirString)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
		}

		ret = append(ret, OrderClause{Name: keyTok.(string), Direction: dir})
	}

	return ret, nil
}

// Resolver turns ordering requests into OrderSpecs.
type Resolver struct {
	id       Column
	columns  Columns
	defaults []OrderClause
}

// NewResolver returns a Resolver over the given columns. id is the record's
// unique identifier column, appended as the final ascending key whenever no
// explicit key is unique.
func NewResolver(id Column, columns ...Column) *Resolver {
	id.Unique = true
	id.Type = id.Type.OrDefault()

	r := &Resolver{
		id:      id,
		columns: Columns{id.Name: id},
	}

	return r.WithColumns(columns...)
}

// WithColumns registers additional columns under their own names.
func (r *Resolver) WithColumns(columns ...Column) *Resolver {
	for _, c := range columns {
		c.Type = c.Type.OrDefault()
		r.columns[c.Name] = c
	}

	return r
}

// WithAlias registers a column under an external alias.
func (r *Resolver) WithAlias(alias string, column Column) *Resolver {
	column.Type = column.Type.OrDefault()
	r.columns[alias] = column

	return r
}

// WithDefaultOrder sets the ordering used for nil requests.
func (r *Resolver) WithDefaultOrder(clauses ...OrderClause) *Resolver {
	r.defaults = clauses
	return r
}

// Columns returns the registered columns.
func (r *Resolver) Columns() Columns {
	return r.columns
}

// ID returns the identifier column.
func (r *Resolver) ID() Column {
	return r.id
}

// Resolve normalizes req against the filter's declared clauses into an
// OrderSpec. Names are looked up as declared clause names first, then as the
// meta_value/meta_value_num pseudo fields, then as columns. A repeated name
// keeps its last position and direction.
func (r *Resolver) Resolve(req OrderRequest, filter Filter) (OrderSpec, error) {
	var clauses []OrderClause
	switch rt := req.(type) {
	case nil:
		clauses = r.defaults
	case OrderByField:
		clauses = []OrderClause{{Name: rt.Name, Direction: rt.Direction}}
	case OrderByClauses:
		clauses = rt
	default:
		return nil, fmt.Errorf("%w: unsupported ordering request %T", ErrInvalidRequest, req)
	}

	var (
		ret    OrderSpec
		unique bool
	)
	for _, c := range clauses {
		dir := c.Direction
		if dir == "" {
			dir = DirectionDESC
		}
		if !dir.Valid() {
			return nil, fmt.Errorf("%w: invalid ordering direction '%s'", ErrInvalidRequest, dir)
		}

		src, isUnique, err := r.source(c.Name, filter)
		if err != nil {
			return nil, err
		}
		unique = unique || isUnique

		// Remove previous occurrence (avoid duplication).
		idx := slices.IndexFunc(ret, func(k SortKey) bool { return k.Name == c.Name })
		if idx != -1 {
			ret = slices.Delete(ret, idx, idx+1)
		}

		ret = append(ret, SortKey{Name: c.Name, Source: src, Direction: dir})
	}

	if !unique {
		ret = append(ret, SortKey{Name: r.id.Name, Source: r.id.Source(), Direction: DirectionASC})
	}

	if err := ret.validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}

	return ret, nil
}

func (r *Resolver) source(name string, filter Filter) (Source, bool, error) {
	if c, ok := filter.clause(name); ok {
		if name == r.id.Name {
			return Source{}, false, fmt.Errorf("%w: clause name '%s' is reserved for the record identifier", ErrInvalidRequest, name)
		}
		if c.Attribute == "" {
			return Source{}, false, fmt.Errorf("%w: clause '%s' has no attribute", ErrInvalidRequest, name)
		}

		return AttributeSource(c.Attribute, c.Type), false, nil
	}

	switch name {
	case OrderMetaValue, OrderMetaValueNum:
		if filter.MetaKey == "" {
			return Source{}, false, fmt.Errorf("%w: '%s' requires a meta key", ErrUnknownOrderingClause, name)
		}

		typ := filter.MetaType
		if name == OrderMetaValueNum {
			typ = TypeDecimal
		}

		return AttributeSource(filter.MetaKey, typ), false, nil
	}

	if c, ok := r.columns[name]; ok {
		return c.Source(), c.Unique, nil
	}

	known := append(lo.Keys(map[string]Column(r.columns)), filter.clauseNames()...)
	slices.Sort(known)

	return Source{}, false, fmt.Errorf(
		"%w '%s'. closest: '%s'", ErrUnknownOrderingClause, name, closestName(name, known),
	)
}

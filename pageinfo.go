package metapager

import (
	"encoding/json"
	"fmt"
)

// PageInfo is the pagination metadata of a page. Empty cursors marshal as
// JSON null.
type PageInfo struct {
	HasNextPage     bool   `json:"hasNextPage"`
	HasPreviousPage bool   `json:"hasPreviousPage"`
	StartCursor     Cursor `json:"startCursor"`
	EndCursor       Cursor `json:"endCursor"`
}

// PageState is what the executor learned while producing a page.
type PageState struct {
	// HasMore is true when the lookahead row was present.
	HasMore bool
	// HasBoundary is true when the request carried a non-empty cursor.
	HasBoundary bool
	// Backward is true for pages produced from a Before cursor.
	Backward bool
}

// AssemblePageInfo computes cursors of the first and the last row and the
// existence flags. Rows are in the requested (not the scan) order.
func AssemblePageInfo[R Row](rows []R, spec OrderSpec, state PageState) (PageInfo, error) {
	info := PageInfo{
		HasNextPage:     state.HasMore,
		HasPreviousPage: state.HasBoundary,
	}
	if state.Backward {
		info.HasNextPage, info.HasPreviousPage = state.HasBoundary, state.HasMore
	}

	if len(rows) == 0 {
		return info, nil
	}

	var err error
	if info.StartCursor, err = RowCursor(rows[0], spec); err != nil {
		return PageInfo{}, err
	}
	if info.EndCursor, err = RowCursor(rows[len(rows)-1], spec); err != nil {
		return PageInfo{}, err
	}

	return info, nil
}

// RowCursor encodes the boundary values of a row.
func RowCursor(row Row, spec OrderSpec) (Cursor, error) {
	b, err := BoundaryOf(row, spec)
	if err != nil {
		return "", err
	}

	return EncodeCursor(b, spec)
}

// BoundaryOf extracts the sort key values of a row, coerced into each key's
// comparison domain. A row missing a key or carrying a value that does not
// coerce yields ErrInvalidSortValue.
func BoundaryOf(row Row, spec OrderSpec) (BoundaryValues, error) {
	ret := make(BoundaryValues, len(spec))
	for _, key := range spec {
		raw, ok := row.Value(key.Source)
		if !ok {
			return nil, fmt.Errorf("%w: row has no value for key '%s'", ErrInvalidSortValue, key.Name)
		}

		value, err := key.Source.Type.Coerce(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: key '%s': %w", ErrInvalidSortValue, key.Name, err)
		}

		ret[key.Name] = value
	}

	return ret, nil
}

// MarshalJSON implements json.Marshaler.
func (c Cursor) MarshalJSON() ([]byte, error) {
	if c.IsEmpty() {
		return []byte("null"), nil
	}

	return json.Marshal(string(c))
}

// UnmarshalJSON implements json.Unmarshaler.
func (c *Cursor) UnmarshalJSON(data []byte) error {
	var s *string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}

	*c = ""
	if s != nil {
		*c = Cursor(*s)
	}

	return nil
}

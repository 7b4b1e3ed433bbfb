package metapager

import (
	"context"
	"fmt"
	"slices"
	"sync"
)

// SliceScanner is an in-memory Scanner over a fixed set of rows. Rows that
// do not carry every attribute referenced by the ordering, or carry one that
// is not of the key's type, are skipped like gormstore skips them.
type SliceScanner[R Row] struct {
	mu   sync.RWMutex
	rows []R
}

func NewSliceScanner[R Row](rows ...R) *SliceScanner[R] {
	return &SliceScanner[R]{rows: rows}
}

// Replace swaps the underlying rows.
func (s *SliceScanner[R]) Replace(rows ...R) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.rows = rows
}

// Scan implements Scanner.
func (s *SliceScanner[R]) Scan(ctx context.Context, req ScanRequest) ([]R, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	type keyed struct {
		row  R
		keys []any
	}

	matched := make([]keyed, 0, len(s.rows))
	for _, row := range s.rows {
		keys, ok, err := sortValues(row, req.Order)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}

		holds, err := Eval(req.Where, row)
		if err != nil {
			return nil, err
		}
		if holds {
			matched = append(matched, keyed{row: row, keys: keys})
		}
	}

	var sortErr error
	slices.SortStableFunc(matched, func(a, b keyed) int {
		for i, key := range req.Order {
			c, err := key.Source.Type.Compare(a.keys[i], b.keys[i])
			if err != nil {
				sortErr = err
				return 0
			}
			if c == 0 {
				continue
			}
			if key.Direction == DirectionDESC {
				return -c
			}

			return c
		}

		return 0
	})
	if sortErr != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSortValue, sortErr)
	}

	if req.Limit >= 0 && len(matched) > req.Limit {
		matched = matched[:req.Limit]
	}

	ret := make([]R, 0, len(matched))
	for _, m := range matched {
		ret = append(ret, m.row)
	}

	return ret, nil
}

func sortValues[R Row](row R, spec OrderSpec) ([]any, bool, error) {
	ret := make([]any, 0, len(spec))
	for _, key := range spec {
		raw, ok := row.Value(key.Source)
		if !ok {
			return nil, false, nil
		}

		value, err := key.Source.Type.Coerce(raw)
		if err != nil && key.Source.IsAttribute() {
			return nil, false, nil
		} else if err != nil {
			return nil, false, fmt.Errorf("%w: key '%s': %w", ErrInvalidSortValue, key.Name, err)
		}

		ret = append(ret, value)
	}

	return ret, true, nil
}

var _ Scanner[Row] = (*SliceScanner[Row])(nil)

package metapager

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func Test_AssemblePageInfo(t *testing.T) {
	spec := OrderSpec{idKey()}
	rows := []testRow{{id: 1}, {id: 2}, {id: 3}}

	start, err := EncodeCursor(BoundaryValues{"id": uint64(1)}, spec)
	require.NoError(t, err)
	end, err := EncodeCursor(BoundaryValues{"id": uint64(3)}, spec)
	require.NoError(t, err)

	tests := []struct {
		name     string
		state    PageState
		wantNext bool
		wantPrev bool
	}{
		{"first page with more", PageState{HasMore: true}, true, false},
		{"middle page", PageState{HasMore: true, HasBoundary: true}, true, true},
		{"last page", PageState{HasBoundary: true}, false, true},
		{"backward page with more", PageState{HasMore: true, HasBoundary: true, Backward: true}, true, true},
		{"backward first page", PageState{HasBoundary: true, Backward: true}, true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info, err := AssemblePageInfo(rows, spec, tt.state)
			require.NoError(t, err)
			require.Equal(t, PageInfo{
				HasNextPage:     tt.wantNext,
				HasPreviousPage: tt.wantPrev,
				StartCursor:     start,
				EndCursor:       end,
			}, info)
		})
	}
}

func Test_AssemblePageInfo_InvalidSortValue(t *testing.T) {
	spec := OrderSpec{
		{Name: "n", Source: AttributeSource("n", TypeUnsigned), Direction: DirectionASC},
		idKey(),
	}

	_, err := AssemblePageInfo([]testRow{{id: 1}}, spec, PageState{})
	require.ErrorIs(t, err, ErrInvalidSortValue)

	_, err = AssemblePageInfo([]testRow{{id: 1, meta: map[string]string{"n": "-3"}}}, spec, PageState{})
	require.ErrorIs(t, err, ErrInvalidSortValue)
}

func Test_BoundaryOf(t *testing.T) {
	spec := OrderSpec{
		{Name: "n", Source: AttributeSource("n", TypeDecimal), Direction: DirectionDESC},
		idKey(),
	}

	b, err := BoundaryOf(testRow{id: 4, meta: map[string]string{"n": "2.5"}}, spec)
	require.NoError(t, err)
	require.Equal(t, BoundaryValues{"n": 2.5, "id": uint64(4)}, b)
}

package metapager

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func Test_SliceScanner_Scan(t *testing.T) {
	s := NewSliceScanner(
		testRow{id: 3, title: "b", meta: map[string]string{"n": "10"}},
		testRow{id: 1, title: "b", meta: map[string]string{"n": "9"}},
		testRow{id: 2, title: "a"},
		testRow{id: 4, title: "a", meta: map[string]string{"n": "10"}},
	)

	order := OrderSpec{
		{Name: "n", Source: AttributeSource("n", TypeUnsigned), Direction: DirectionDESC},
		{Name: "title", Source: ColumnSource("title", TypeString), Direction: DirectionASC},
		idKey(),
	}

	rows, err := s.Scan(context.Background(), ScanRequest{Order: order, Limit: -1})
	require.NoError(t, err)
	require.Equal(t, []uint64{4, 3, 1}, rowIDs(rows), "row 2 lacks the ordering attribute")

	rows, err = s.Scan(context.Background(), ScanRequest{Order: order, Limit: 2})
	require.NoError(t, err)
	require.Equal(t, []uint64{4, 3}, rowIDs(rows))

	rows, err = s.Scan(context.Background(), ScanRequest{
		Where: Comparison{Operand: ColumnSource("title", TypeString), Operator: OperatorEq, Value: "b"},
		Order: OrderSpec{idKey()},
		Limit: 10,
	})
	require.NoError(t, err)
	require.Equal(t, []uint64{1, 3}, rowIDs(rows))

	s.Replace(
		testRow{id: 9, title: "9", meta: map[string]string{"n": "x"}},
		testRow{id: 8, title: "b", meta: map[string]string{"n": "1"}},
	)
	rows, err = s.Scan(context.Background(), ScanRequest{Order: order, Limit: 5})
	require.NoError(t, err)
	require.Equal(t, []uint64{8}, rowIDs(rows), "row 9 holds no unsigned value")

	_, err = s.Scan(context.Background(), ScanRequest{
		Order: OrderSpec{{Name: "title", Source: ColumnSource("title", TypeUnsigned), Direction: DirectionASC}},
		Limit: 5,
	})
	require.ErrorIs(t, err, ErrInvalidSortValue)
}

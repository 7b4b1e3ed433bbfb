package metapager

import "testing"

func Test_Operator_Valid_And_ForOrdering(t *testing.T) {
	tests := []struct {
		name     string
		in       Operator
		valid    bool
		ordering Direction
		panicExp bool
	}{
		{"GT valid maps to ASC", OperatorGT, true, DirectionASC, false},
		{"LT valid maps to DESC", OperatorLT, true, DirectionDESC, false},
		{"EQ valid has no ordering", OperatorEq, true, "", true},
		{"unknown invalid", Operator("~"), false, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.in.Valid(); got != tt.valid {
				t.Errorf("%s: Valid=%v want %v", tt.name, got, tt.valid)
			}
			if !tt.panicExp {
				if got := tt.in.ForOrdering(); got != tt.ordering {
					t.Errorf("%s: ForOrdering=%v want %v", tt.name, got, tt.ordering)
				}
				return
			}

			defer func() {
				if recover() == nil {
					t.Errorf("%s: expected panic", tt.name)
				}
			}()
			tt.in.ForOrdering()
		})
	}
}

func Test_Operator_Holds(t *testing.T) {
	tests := []struct {
		op   Operator
		cmp  int
		want bool
	}{
		{OperatorGT, 1, true},
		{OperatorGT, 0, false},
		{OperatorLT, -1, true},
		{OperatorLT, 0, false},
		{OperatorGTE, 0, true},
		{OperatorLTE, 1, false},
		{OperatorEq, 0, true},
		{OperatorNeq, 0, false},
		{OperatorNeq, -1, true},
		{Operator("~"), 0, false},
	}
	for _, tt := range tests {
		if got := tt.op.Holds(tt.cmp); got != tt.want {
			t.Errorf("%s.Holds(%d)=%v want %v", tt.op, tt.cmp, got, tt.want)
		}
	}
}

package metapager

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestResolver() *Resolver {
	createdAt := Column{Name: "created_at", Type: TypeDateTime}

	return NewResolver(Column{Name: "id", Type: TypeUnsigned},
		Column{Name: "title"},
		Column{Name: "slug", Unique: true},
		createdAt,
	).
		WithAlias("date", createdAt).
		WithDefaultOrder(OrderClause{Name: "created_at", Direction: DirectionDESC})
}

func idKey() SortKey {
	return SortKey{Name: "id", Source: ColumnSource("id", TypeUnsigned), Direction: DirectionASC}
}

func Test_Resolver_Resolve(t *testing.T) {
	filter := Filter{
		MetaKey:  "color",
		MetaType: TypeString,
		Clauses: []Clause{
			{Name: "price", Attribute: "_price", Compare: CompareExists, Type: TypeUnsigned},
			{Name: "city", Attribute: "city", Value: "Paris"},
		},
	}

	tests := []struct {
		name   string
		req    OrderRequest
		filter Filter
		want   OrderSpec
	}{
		{
			name: "nil request uses default order",
			req:  nil,
			want: OrderSpec{
				{Name: "created_at", Source: ColumnSource("created_at", TypeDateTime), Direction: DirectionDESC},
				idKey(),
			},
		},
		{
			name: "empty direction means DESC",
			req:  OrderByField{Name: "title"},
			want: OrderSpec{
				{Name: "title", Source: ColumnSource("title", TypeString), Direction: DirectionDESC},
				idKey(),
			},
		},
		{
			name: "alias keeps the requested name",
			req:  OrderByField{Name: "date", Direction: DirectionASC},
			want: OrderSpec{
				{Name: "date", Source: ColumnSource("created_at", TypeDateTime), Direction: DirectionASC},
				idKey(),
			},
		},
		{
			name: "unique column needs no tie-breaker",
			req:  OrderByField{Name: "slug", Direction: DirectionASC},
			want: OrderSpec{
				{Name: "slug", Source: ColumnSource("slug", TypeString), Direction: DirectionASC},
			},
		},
		{
			name: "explicit id keeps its direction",
			req:  OrderByField{Name: "id", Direction: DirectionDESC},
			want: OrderSpec{
				{Name: "id", Source: ColumnSource("id", TypeUnsigned), Direction: DirectionDESC},
			},
		},
		{
			name:   "declared clauses resolve to attributes",
			req:    OrderByClauses{{Name: "price", Direction: DirectionASC}, {Name: "title", Direction: DirectionDESC}},
			filter: filter,
			want: OrderSpec{
				{Name: "price", Source: AttributeSource("_price", TypeUnsigned), Direction: DirectionASC},
				{Name: "title", Source: ColumnSource("title", TypeString), Direction: DirectionDESC},
				idKey(),
			},
		},
		{
			name:   "meta_value uses the meta key and type",
			req:    OrderByField{Name: OrderMetaValue, Direction: DirectionASC},
			filter: filter,
			want: OrderSpec{
				{Name: OrderMetaValue, Source: AttributeSource("color", TypeString), Direction: DirectionASC},
				idKey(),
			},
		},
		{
			name:   "meta_value_num compares as decimal",
			req:    OrderByField{Name: OrderMetaValueNum, Direction: DirectionASC},
			filter: filter,
			want: OrderSpec{
				{Name: OrderMetaValueNum, Source: AttributeSource("color", TypeDecimal), Direction: DirectionASC},
				idKey(),
			},
		},
		{
			name: "repeated name keeps the last occurrence",
			req: OrderByClauses{
				{Name: "title", Direction: DirectionASC},
				{Name: "created_at", Direction: DirectionDESC},
				{Name: "title", Direction: DirectionDESC},
			},
			want: OrderSpec{
				{Name: "created_at", Source: ColumnSource("created_at", TypeDateTime), Direction: DirectionDESC},
				{Name: "title", Source: ColumnSource("title", TypeString), Direction: DirectionDESC},
				idKey(),
			},
		},
	}

	r := newTestResolver()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.Resolve(tt.req, tt.filter)
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func Test_Resolver_Resolve_Errors(t *testing.T) {
	r := newTestResolver()

	t.Run("unknown name suggests the closest one", func(t *testing.T) {
		_, err := r.Resolve(OrderByField{Name: "tilte"}, Filter{})
		require.ErrorIs(t, err, ErrUnknownOrderingClause)
		require.ErrorContains(t, err, "closest: 'title'")
	})

	t.Run("meta_value without meta key", func(t *testing.T) {
		_, err := r.Resolve(OrderByField{Name: OrderMetaValue}, Filter{})
		require.ErrorIs(t, err, ErrUnknownOrderingClause)
	})

	t.Run("unnamed clause is not an ordering name", func(t *testing.T) {
		_, err := r.Resolve(OrderByField{Name: "city"}, Filter{Clauses: []Clause{{Attribute: "city"}}})
		require.ErrorIs(t, err, ErrUnknownOrderingClause)
	})

	t.Run("invalid direction", func(t *testing.T) {
		_, err := r.Resolve(OrderByField{Name: "title", Direction: "UP"}, Filter{})
		require.ErrorIs(t, err, ErrInvalidRequest)
	})

	t.Run("clause named like the identifier", func(t *testing.T) {
		filter := Filter{Clauses: []Clause{{Name: "id", Attribute: "legacy_id"}}}

		_, err := r.Resolve(OrderByField{Name: "id"}, filter)
		require.ErrorIs(t, err, ErrInvalidRequest)
		require.ErrorContains(t, err, "clause name 'id' is reserved")

		_, err = r.Resolve(OrderByClauses{{Name: "title"}, {Name: "id", Direction: DirectionASC}}, filter)
		require.ErrorContains(t, err, "clause name 'id' is reserved")

		// Not referenced by the ordering, the clause only filters.
		spec, err := r.Resolve(OrderByField{Name: "title", Direction: DirectionASC}, filter)
		require.NoError(t, err)
		require.Equal(t, []string{"title", "id"}, spec.Names())
	})
}

func Test_ParseOrderRequest(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		dir     Direction
		want    OrderRequest
		wantErr bool
	}{
		{"empty", "", "", nil, false},
		{"null", "null", "", nil, false},
		{"single name", `"title"`, DirectionASC, OrderByField{Name: "title", Direction: DirectionASC}, false},
		{
			"object keeps key order", `{"price":"asc","title":"DESC","city":"asc"}`, DirectionDESC,
			OrderByClauses{
				{Name: "price", Direction: DirectionASC},
				{Name: "title", Direction: DirectionDESC},
				{Name: "city", Direction: DirectionASC},
			}, false,
		},
		{"array", `["title"]`, "", nil, true},
		{"bad direction", `{"title":"up"}`, "", nil, true},
		{"non-string direction", `{"title":1}`, "", nil, true},
		{"broken json", `{"title":`, "", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseOrderRequest([]byte(tt.raw), tt.dir)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidRequest)
				return
			}

			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

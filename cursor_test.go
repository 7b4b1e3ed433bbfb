package metapager

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func compoundSpec() OrderSpec {
	return OrderSpec{
		{Name: "price", Source: AttributeSource("price", TypeDecimal), Direction: DirectionDESC},
		{Name: "published", Source: AttributeSource("published", TypeDate), Direction: DirectionASC},
		{Name: "title", Source: ColumnSource("title", TypeString), Direction: DirectionASC},
		idKey(),
	}
}

func Test_Cursor_RoundTrip(t *testing.T) {
	spec := compoundSpec()
	b := BoundaryValues{
		"price":     "19.5",
		"published": time.Date(2024, 2, 29, 13, 0, 0, 0, time.UTC),
		"title":     "a \"quoted\" title",
		"id":        uint64(42),
	}

	c, err := EncodeCursor(b, spec)
	require.NoError(t, err)
	require.False(t, c.IsEmpty())

	again, err := EncodeCursor(b, spec)
	require.NoError(t, err)
	require.Equal(t, c, again, "encoding must be deterministic")

	got, err := DecodeCursor(c, spec)
	require.NoError(t, err)
	require.Equal(t, BoundaryValues{
		"price":     19.5,
		"published": time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC),
		"title":     "a \"quoted\" title",
		"id":        uint64(42),
	}, got)

	// Re-encoding the decoded values yields the same token.
	back, err := EncodeCursor(got, spec)
	require.NoError(t, err)
	require.Equal(t, c, back)

	elements, err := CursorElements(c)
	require.NoError(t, err)
	require.Equal(t, []string{"price", "published", "title", "id"}, []string{
		elements[0].Name, elements[1].Name, elements[2].Name, elements[3].Name,
	})
	require.Equal(t, "2024-02-29", elements[1].Value)
}

func Test_Cursor_Empty(t *testing.T) {
	spec := compoundSpec()

	c, err := EncodeCursor(nil, spec)
	require.NoError(t, err)
	require.True(t, c.IsEmpty())

	b, err := DecodeCursor("", spec)
	require.NoError(t, err)
	require.Nil(t, b)
}

func Test_Cursor_EncodeMissingValue(t *testing.T) {
	_, err := EncodeCursor(BoundaryValues{"id": 1}, compoundSpec())
	require.ErrorIs(t, err, ErrInvalidSortValue)
}

func Test_Cursor_Invalid(t *testing.T) {
	spec := OrderSpec{idKey()}
	encode := func(payload string) Cursor {
		return Cursor(_encoder.EncodeToString([]byte(payload)))
	}

	valid, err := EncodeCursor(BoundaryValues{"id": 7}, spec)
	require.NoError(t, err)

	tests := []struct {
		name   string
		cursor Cursor
	}{
		{"not base64", "!!!"},
		{"truncated", valid[:len(valid)-3]},
		{"not json", encode("hello")},
		{"unknown field", encode(`{"v":1,"k":[{"n":"id","s":"col:id","t":"UNSIGNED","d":"ASC","v":"7"}],"x":1}`)},
		{"trailing data", encode(`{"v":1,"k":[{"n":"id","s":"col:id","t":"UNSIGNED","d":"ASC","v":"7"}]}{}`)},
		{"wrong version", encode(`{"v":2,"k":[{"n":"id","s":"col:id","t":"UNSIGNED","d":"ASC","v":"7"}]}`)},
		{"no keys", encode(`{"v":1,"k":[]}`)},
		{"bad type", encode(`{"v":1,"k":[{"n":"id","s":"col:id","t":"BLOB","d":"ASC","v":"7"}]}`)},
		{"bad value", encode(`{"v":1,"k":[{"n":"id","s":"col:id","t":"UNSIGNED","d":"ASC","v":"seven"}]}`)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeCursor(tt.cursor, spec)
			require.ErrorIs(t, err, ErrInvalidCursor)
		})
	}
}

func Test_Cursor_OrderMismatch(t *testing.T) {
	// Ordering A: [(title, ASC), (id, ASC)].
	specA := OrderSpec{
		{Name: "title", Source: ColumnSource("title", TypeString), Direction: DirectionASC},
		idKey(),
	}

	c, err := EncodeCursor(BoundaryValues{"title": "abc", "id": uint64(3)}, specA)
	require.NoError(t, err)

	tests := []struct {
		name string
		spec OrderSpec
	}{
		{
			"different keys",
			OrderSpec{
				{Name: "created_at", Source: ColumnSource("created_at", TypeDateTime), Direction: DirectionDESC},
				idKey(),
			},
		},
		{
			"different direction",
			OrderSpec{
				{Name: "title", Source: ColumnSource("title", TypeString), Direction: DirectionDESC},
				idKey(),
			},
		},
		{
			"different type",
			OrderSpec{
				{Name: "title", Source: ColumnSource("title", TypeDecimal), Direction: DirectionASC},
				idKey(),
			},
		},
		{
			"different source",
			OrderSpec{
				{Name: "title", Source: AttributeSource("title", TypeString), Direction: DirectionASC},
				idKey(),
			},
		},
		{"different length", OrderSpec{idKey()}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeCursor(c, tt.spec)
			require.ErrorIs(t, err, ErrCursorOrderMismatch)
		})
	}
}

func Test_Cursor_JSON(t *testing.T) {
	data, err := json.Marshal(PageInfo{StartCursor: "abc"})
	require.NoError(t, err)
	require.JSONEq(t, `{"hasNextPage":false,"hasPreviousPage":false,"startCursor":"abc","endCursor":null}`, string(data))

	var info PageInfo
	require.NoError(t, json.Unmarshal(data, &info))
	require.Equal(t, Cursor("abc"), info.StartCursor)
	require.True(t, info.EndCursor.IsEmpty())
}

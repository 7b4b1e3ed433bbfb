package metapager

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
)

var _encoder = base64.RawURLEncoding

// cursorVersion is bumped whenever the token layout changes. Tokens of other
// versions are rejected as invalid.
const cursorVersion = 1

// BoundaryValues maps sort key names to the coerced values observed at one
// row. Since every OrderSpec ends with a unique key, the values identify the
// row's position in the total order.
type BoundaryValues map[string]any

// Cursor is an opaque, versioned encoding of BoundaryValues. The empty
// Cursor is the start of the sequence.
type Cursor string

// IsEmpty reports whether the cursor is the start-of-sequence sentinel.
func (c Cursor) IsEmpty() bool {
	return c == ""
}

// String implements fmt.Stringer.
func (c Cursor) String() string {
	return string(c)
}

type (
	// cursorPayload is the JSON layout of a token:
	//
	//	{"v":1,"k":[{"n":"title","s":"col:title","t":"STRING","d":"ASC","v":"abc"}, ...]}
	cursorPayload struct {
		Version  int             `json:"v"`
		Elements []CursorElement `json:"k"`
	}

	// CursorElement is one sort key of a token: its name, source, type,
	// direction and the canonical text form of the boundary value.
	CursorElement struct {
		Name      string    `json:"n"`
		Source    string    `json:"s"`
		Type      ValueType `json:"t"`
		Direction Direction `json:"d"`
		Value     string    `json:"v"`
	}
)

// EncodeCursor serializes boundary values in OrderSpec order. It is a pure
// function of its input. Nil boundary values encode to the empty Cursor.
func EncodeCursor(b BoundaryValues, spec OrderSpec) (Cursor, error) {
	if b == nil {
		return "", nil
	}

	payload := cursorPayload{
		Version:  cursorVersion,
		Elements: make([]CursorElement, 0, len(spec)),
	}
	for _, key := range spec {
		value, ok := b[key.Name]
		if !ok {
			return "", fmt.Errorf("%w: no boundary value for key '%s'", ErrInvalidSortValue, key.Name)
		}

		text, err := key.Source.Type.Format(value)
		if err != nil {
			return "", fmt.Errorf("%w: key '%s': %w", ErrInvalidSortValue, key.Name, err)
		}

		payload.Elements = append(payload.Elements, CursorElement{
			Name:      key.Name,
			Source:    key.Source.String(),
			Type:      key.Source.Type,
			Direction: key.Direction,
			Value:     text,
		})
	}

	jTok, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("cannot marshal cursor value: %w", err)
	}

	return Cursor(_encoder.EncodeToString(jTok)), nil
}

// DecodeCursor parses a token produced by EncodeCursor under the same
// OrderSpec. The empty Cursor decodes to nil boundary values.
func DecodeCursor(c Cursor, spec OrderSpec) (BoundaryValues, error) {
	elements, err := decodeElements(c)
	if err != nil || elements == nil {
		return nil, err
	}

	// Boundary values are not comparable across orderings.
	if len(elements) != len(spec) {
		return nil, fmt.Errorf("%w: cursor has %d keys, ordering has %d", ErrCursorOrderMismatch, len(elements), len(spec))
	}

	ret := make(BoundaryValues, len(spec))
	for i, key := range spec {
		el := elements[i]
		if el.Name != key.Name || el.Source != key.Source.String() ||
			el.Type != key.Source.Type || el.Direction != key.Direction {
			return nil, fmt.Errorf(
				"%w: cursor key '%s %s' at position %d, ordering key '%s %s'",
				ErrCursorOrderMismatch, el.Name, el.Direction, i, key.Name, key.Direction,
			)
		}

		value, err := key.Source.Type.Coerce(el.Value)
		if err != nil {
			return nil, fmt.Errorf("%w: key '%s': %w", ErrInvalidCursor, key.Name, err)
		}

		ret[key.Name] = value
	}

	return ret, nil
}

// CursorElements returns the decoded elements of a token without matching
// them against an ordering.
func CursorElements(c Cursor) ([]CursorElement, error) {
	return decodeElements(c)
}

func decodeElements(c Cursor) ([]CursorElement, error) {
	if c.IsEmpty() {
		return nil, nil
	}

	jsonData, err := _encoder.DecodeString(string(c))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to decode base64 encoded cursor: %w", ErrInvalidCursor, err)
	}

	dec := json.NewDecoder(bytes.NewReader(jsonData))
	dec.DisallowUnknownFields()

	var payload cursorPayload
	if err = dec.Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: failed to unmarshal json encoded cursor: %w", ErrInvalidCursor, err)
	}
	if dec.More() {
		return nil, fmt.Errorf("%w: trailing data after cursor payload", ErrInvalidCursor)
	}

	if payload.Version != cursorVersion {
		return nil, fmt.Errorf("%w: unsupported cursor version %d", ErrInvalidCursor, payload.Version)
	}
	if len(payload.Elements) == 0 {
		return nil, fmt.Errorf("%w: cursor has no keys", ErrInvalidCursor)
	}

	for _, el := range payload.Elements {
		if el.Name == "" || !el.Type.Valid() || !el.Direction.Valid() {
			return nil, fmt.Errorf("%w: malformed cursor key '%s'", ErrInvalidCursor, el.Name)
		}
	}

	return payload.Elements, nil
}

var _ fmt.Stringer = Cursor("")

package metapager

import "errors"

var (
	// ErrUnknownOrderingClause is returned when an ordering references a name
	// that is neither a declared filter clause nor a known column.
	ErrUnknownOrderingClause = errors.New("unknown ordering clause")
	// ErrInvalidCursor is returned for malformed, truncated or tampered tokens.
	ErrInvalidCursor = errors.New("invalid cursor")
	// ErrCursorOrderMismatch is returned when a well-formed token was produced
	// under a different ordering than the one of the current request.
	ErrCursorOrderMismatch = errors.New("cursor does not match ordering")
	// ErrStorageUnavailable wraps any failure of the storage collaborator.
	ErrStorageUnavailable = errors.New("storage unavailable")
	// ErrInvalidSortValue is returned when a stored value cannot be coerced
	// into the comparison domain of its sort key.
	ErrInvalidSortValue = errors.New("invalid sort value")
	// ErrInvalidRequest is returned for requests that cannot be served as given.
	ErrInvalidRequest = errors.New("invalid page request")
)

package metapager

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"

	"go.uber.org/zap"
)

// ScanRequest is what the engine asks of the storage collaborator: rows
// matching Where, ordered by Order, at most Limit of them.
type ScanRequest struct {
	Where Predicate
	Order OrderSpec
	Limit int
}

// Scanner is the storage collaborator. It must compare values exactly as the
// ValueType of each Source prescribes, and order with the same semantics it
// uses to evaluate Where.
type Scanner[R Row] interface {
	Scan(ctx context.Context, req ScanRequest) ([]R, error)
}

// Request is a page request.
type Request struct {
	Filter   Filter
	OrderBy  OrderRequest
	PageSize int
	// After resumes forwards after the row the cursor was taken from.
	After Cursor
	// Before pages backwards from the row the cursor was taken from.
	// It cannot be combined with After.
	Before Cursor
}

// RawRequest is intended for API payloads. For proper code generation, inline it:
//
//	type MyFilter struct {
//	    Paging RawRequest `json:",inline"`
//	}
type RawRequest struct {
	// First is the page size. Non-positive values select the default.
	First int `json:"first"`
	// After is a cursor obtained from PageInfo.EndCursor.
	After string `json:"after"`
	// Before is a cursor obtained from PageInfo.StartCursor.
	Before string `json:"before"`
	// OrderBy is either a name or an object of name to direction.
	OrderBy json.RawMessage `json:"orderby"`
	// Order is the direction used when OrderBy is a single name.
	Order string `json:"order"`
}

// Decode converts RawRequest into a Request over the given filter.
func (r RawRequest) Decode(filter Filter) (Request, error) {
	var dir Direction
	if r.Order != "" {
		var err error
		if dir, err = ParseDirection(r.Order); err != nil {
			return Request{}, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
		}
	}

	orderBy, err := ParseOrderRequest(r.OrderBy, dir)
	if err != nil {
		return Request{}, err
	}

	return Request{
		Filter:   filter,
		OrderBy:  orderBy,
		PageSize: r.First,
		After:    Cursor(r.After),
		Before:   Cursor(r.Before),
	}, nil
}

// Page is one page of rows with its pagination info.
type Page[R Row] struct {
	Rows     []R      `json:"rows"`
	PageInfo PageInfo `json:"pageInfo"`
	// Order is the resolved ordering the page was produced under.
	Order OrderSpec `json:"-"`
	// AppliedLimit is the effective page size.
	AppliedLimit int `json:"-"`
}

// Pager drives the storage collaborator through keyset pagination. It holds
// no per-request state and is safe for concurrent use.
type Pager[R Row] struct {
	scanner   Scanner[R]
	resolver  *Resolver
	limits    Limits
	logger    *zap.Logger
	transform FilterTransform
}

func NewPager[R Row](scanner Scanner[R], resolver *Resolver) *Pager[R] {
	return &Pager[R]{
		scanner:  scanner,
		resolver: resolver,
		limits:   DefaultLimits(),
		logger:   zap.NewNop(),
	}
}

// WithLimits sets the page size limits.
func (p *Pager[R]) WithLimits(limits Limits) *Pager[R] {
	p.limits = limits.orDefault()
	return p
}

// WithLogger sets the logger. Nil disables logging.
func (p *Pager[R]) WithLogger(logger *zap.Logger) *Pager[R] {
	if logger == nil {
		logger = zap.NewNop()
	}

	p.logger = logger

	return p
}

// WithFilterTransform registers a transform applied to every request's
// filter before ordering resolution and predicate building.
func (p *Pager[R]) WithFilterTransform(transform FilterTransform) *Pager[R] {
	p.transform = transform
	return p
}

// Paginate serves one page. It either returns a complete page or an error,
// never both.
func (p *Pager[R]) Paginate(ctx context.Context, req Request) (*Page[R], error) {
	if !req.After.IsEmpty() && !req.Before.IsEmpty() {
		return nil, fmt.Errorf("%w: cannot combine after and before cursors", ErrInvalidRequest)
	}

	filter := req.Filter
	if p.transform != nil {
		filter = p.transform(filter)
	}

	spec, err := p.resolver.Resolve(req.OrderBy, filter)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve ordering: %w", err)
	}

	filterPredicate, err := filter.Predicate(p.resolver.Columns())
	if err != nil {
		return nil, fmt.Errorf("cannot build filter: %w", err)
	}

	backward := !req.Before.IsEmpty()
	token := req.After
	if backward {
		token = req.Before
	}

	boundary, err := DecodeCursor(token, spec)
	if err != nil {
		return nil, err
	}

	scanOrder := spec
	if backward {
		scanOrder = spec.Reverse()
	}

	where, err := BuildPredicate(filterPredicate, boundary, scanOrder)
	if err != nil {
		return nil, fmt.Errorf("cannot build continuation: %w", err)
	}

	limit := p.limits.Normalize(req.PageSize)

	p.logger.Debug("Scanning page",
		zap.Stringer("order", scanOrder),
		zap.Int("limit", limit),
		zap.Bool("backward", backward),
		zap.Bool("continuation", boundary != nil),
	)

	// Fetch one extra record to determine if there is a further page.
	rows, err := p.scanner.Scan(ctx, ScanRequest{Where: where, Order: scanOrder, Limit: limit + 1})
	if err != nil {
		p.logger.Error("Scan failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}

	rows, hasMore := TrimResultSet(rows, limit)
	if backward {
		slices.Reverse(rows)
	}

	info, err := AssemblePageInfo(rows, spec, PageState{
		HasMore:     hasMore,
		HasBoundary: boundary != nil,
		Backward:    backward,
	})
	if err != nil {
		return nil, err
	}

	p.logger.Debug("Page served",
		zap.Int("rows", len(rows)),
		zap.Bool("has_next_page", info.HasNextPage),
		zap.Bool("has_previous_page", info.HasPreviousPage),
	)

	return &Page[R]{
		Rows:         rows,
		PageInfo:     info,
		Order:        spec,
		AppliedLimit: limit,
	}, nil
}

// TrimResultSet drops the lookahead row. The collaborator was asked for
// limit+1 rows; receiving all of them means there is a further page.
//
// Suppose limit = 2 and resultSet = [a, b, c]: the result is [a, b], true.
func TrimResultSet[R any](resultSet []R, limit int) ([]R, bool) {
	if len(resultSet) > limit {
		return resultSet[:limit], true
	}

	return resultSet, false
}

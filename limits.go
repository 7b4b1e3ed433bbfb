package metapager

const (
	MaxLimit     = 100
	DefaultLimit = 10
)

// Limits bounds the page sizes a Pager accepts.
type Limits struct {
	// Default is applied when the requested page size is not positive.
	Default int
	// Max caps the requested page size.
	Max int
}

// DefaultLimits returns Limits{DefaultLimit, MaxLimit}.
func DefaultLimits() Limits {
	return Limits{Default: DefaultLimit, Max: MaxLimit}
}

// Normalize clamps the page size into the limits.
func (l Limits) Normalize(pageSize int) int {
	ret, _ := l.IsNormalized(pageSize)
	return ret
}

// IsNormalized returns the normalized page size and whether the requested one
// was already within the limits.
func (l Limits) IsNormalized(pageSize int) (int, bool) {
	l = l.orDefault()
	if pageSize <= 0 {
		return l.Default, false
	} else if pageSize > l.Max {
		return l.Max, false
	}

	return pageSize, true
}

func (l Limits) orDefault() Limits {
	if l.Max <= 0 {
		l.Max = MaxLimit
	}
	if l.Default <= 0 || l.Default > l.Max {
		l.Default = min(DefaultLimit, l.Max)
	}

	return l
}

// NormalizeLimit normalizes a page size against DefaultLimits.
func NormalizeLimit(pageSize int) int {
	return DefaultLimits().Normalize(pageSize)
}

package metapager

import (
	"cmp"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// ValueType selects the comparison semantics of a sort key or a filter clause.
type ValueType string

const (
	TypeString   ValueType = "STRING"
	TypeSigned   ValueType = "SIGNED"
	TypeUnsigned ValueType = "UNSIGNED"
	TypeDecimal  ValueType = "DECIMAL"
	TypeDate     ValueType = "DATE"
	TypeDateTime ValueType = "DATETIME"
)

const (
	DateLayout     = "2006-01-02"
	DateTimeLayout = "2006-01-02 15:04:05"
	// DateTimeFormat is the canonical text of a DATETIME value. Fractional
	// seconds are kept; trailing zeros are dropped.
	DateTimeFormat = "2006-01-02 15:04:05.999999999"
)

var _dateTimeLayouts = []string{
	DateTimeLayout,
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999999-07:00",
	DateLayout,
}

// ParseValueType parses a type name case-insensitively. An empty name is
// TypeString. NUMERIC is accepted as TypeSigned, CHAR as TypeString.
func ParseValueType(s string) (ValueType, error) {
	switch t := ValueType(strings.ToUpper(strings.TrimSpace(s))); t {
	case "", "CHAR":
		return TypeString, nil
	case "NUMERIC":
		return TypeSigned, nil
	case TypeString, TypeSigned, TypeUnsigned, TypeDecimal, TypeDate, TypeDateTime:
		return t, nil
	default:
		return "", fmt.Errorf("unknown value type '%s'", s)
	}
}

// OrDefault returns TypeString for the zero value.
func (t ValueType) OrDefault() ValueType {
	if t == "" {
		return TypeString
	}

	return t
}

func (t ValueType) Valid() bool {
	switch t {
	case TypeString, TypeSigned, TypeUnsigned, TypeDecimal, TypeDate, TypeDateTime:
		return true
	default:
		return false
	}
}

// IsTemporal reports whether values of the type are dates or datetimes.
func (t ValueType) IsTemporal() bool {
	return t == TypeDate || t == TypeDateTime
}

// Coerce converts v into the canonical Go representation of the type:
// string, int64, uint64, float64 or a UTC time.Time. Values that do not
// represent the type exactly are rejected.
func (t ValueType) Coerce(v any) (any, error) {
	switch t.OrDefault() {
	case TypeString:
		return coerceString(v)
	case TypeSigned:
		return coerceSigned(v)
	case TypeUnsigned:
		return coerceUnsigned(v)
	case TypeDecimal:
		return coerceDecimal(v)
	case TypeDate:
		tm, err := coerceTime(v)
		if err != nil {
			return nil, err
		}

		return time.Date(tm.Year(), tm.Month(), tm.Day(), 0, 0, 0, 0, time.UTC), nil
	case TypeDateTime:
		tm, err := coerceTime(v)
		if err != nil {
			return nil, err
		}

		return tm, nil
	default:
		return nil, fmt.Errorf("unknown value type '%s'", t)
	}
}

// Format renders a coerced value in its canonical text form. Parsing the
// result with Coerce yields the same value.
func (t ValueType) Format(v any) (string, error) {
	c, err := t.Coerce(v)
	if err != nil {
		return "", err
	}

	switch cv := c.(type) {
	case string:
		return cv, nil
	case int64:
		return strconv.FormatInt(cv, 10), nil
	case uint64:
		return strconv.FormatUint(cv, 10), nil
	case float64:
		return strconv.FormatFloat(cv, 'g', -1, 64), nil
	case time.Time:
		if t == TypeDate {
			return cv.Format(DateLayout), nil
		}

		return cv.Format(DateTimeFormat), nil
	default:
		return "", fmt.Errorf("cannot format value of type %T", c)
	}
}

// Compare coerces both values and compares them under the type's semantics.
func (t ValueType) Compare(a, b any) (int, error) {
	ca, err := t.Coerce(a)
	if err != nil {
		return 0, err
	}
	cb, err := t.Coerce(b)
	if err != nil {
		return 0, err
	}

	switch va := ca.(type) {
	case string:
		return strings.Compare(va, cb.(string)), nil
	case int64:
		return cmp.Compare(va, cb.(int64)), nil
	case uint64:
		return cmp.Compare(va, cb.(uint64)), nil
	case float64:
		return cmp.Compare(va, cb.(float64)), nil
	case time.Time:
		return va.Compare(cb.(time.Time)), nil
	default:
		return 0, fmt.Errorf("cannot compare values of type %T", ca)
	}
}

func coerceString(v any) (any, error) {
	switch vt := v.(type) {
	case string:
		return vt, nil
	case []byte:
		return string(vt), nil
	case fmt.Stringer:
		return vt.String(), nil
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprintf("%d", vt), nil
	default:
		return nil, fmt.Errorf("cannot use %T as %s", v, TypeString)
	}
}

func coerceSigned(v any) (any, error) {
	switch vt := v.(type) {
	case int:
		return int64(vt), nil
	case int8:
		return int64(vt), nil
	case int16:
		return int64(vt), nil
	case int32:
		return int64(vt), nil
	case int64:
		return vt, nil
	case uint, uint8, uint16, uint32, uint64:
		u, _ := coerceUnsigned(vt)
		if u.(uint64) > math.MaxInt64 {
			return nil, fmt.Errorf("value %d overflows %s", u, TypeSigned)
		}

		return int64(u.(uint64)), nil
	case float64:
		if vt != math.Trunc(vt) || vt < math.MinInt64 || vt >= 1<<63 {
			return nil, fmt.Errorf("value %v is not a %s integer", vt, TypeSigned)
		}

		return int64(vt), nil
	case string:
		return parseSigned(vt)
	case []byte:
		return parseSigned(string(vt))
	default:
		return nil, fmt.Errorf("cannot use %T as %s", v, TypeSigned)
	}
}

func parseSigned(s string) (any, error) {
	i, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("value '%s' is not a %s integer", s, TypeSigned)
	}

	return i, nil
}

func coerceUnsigned(v any) (any, error) {
	switch vt := v.(type) {
	case uint:
		return uint64(vt), nil
	case uint8:
		return uint64(vt), nil
	case uint16:
		return uint64(vt), nil
	case uint32:
		return uint64(vt), nil
	case uint64:
		return vt, nil
	case int, int8, int16, int32, int64:
		s, _ := coerceSigned(vt)
		if s.(int64) < 0 {
			return nil, fmt.Errorf("value %d is negative for %s", s, TypeUnsigned)
		}

		return uint64(s.(int64)), nil
	case float64:
		if vt != math.Trunc(vt) || vt < 0 || vt >= 1<<64 {
			return nil, fmt.Errorf("value %v is not a %s integer", vt, TypeUnsigned)
		}

		return uint64(vt), nil
	case string:
		return parseUnsigned(vt)
	case []byte:
		return parseUnsigned(string(vt))
	default:
		return nil, fmt.Errorf("cannot use %T as %s", v, TypeUnsigned)
	}
}

func parseUnsigned(s string) (any, error) {
	u, err := strconv.ParseUint(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("value '%s' is not a %s integer", s, TypeUnsigned)
	}

	return u, nil
}

func coerceDecimal(v any) (any, error) {
	switch vt := v.(type) {
	case float64:
		return vt, nil
	case float32:
		return float64(vt), nil
	case int, int8, int16, int32, int64:
		s, _ := coerceSigned(vt)
		return float64(s.(int64)), nil
	case uint, uint8, uint16, uint32, uint64:
		u, _ := coerceUnsigned(vt)
		return float64(u.(uint64)), nil
	case string:
		return parseDecimal(vt)
	case []byte:
		return parseDecimal(string(vt))
	default:
		return nil, fmt.Errorf("cannot use %T as %s", v, TypeDecimal)
	}
}

func parseDecimal(s string) (any, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, fmt.Errorf("value '%s' is not a %s number", s, TypeDecimal)
	}

	return f, nil
}

func coerceTime(v any) (time.Time, error) {
	switch vt := v.(type) {
	case time.Time:
		return vt.UTC(), nil
	case *time.Time:
		if vt == nil {
			return time.Time{}, fmt.Errorf("nil time")
		}

		return vt.UTC(), nil
	case string:
		return parseTime(vt)
	case []byte:
		return parseTime(string(vt))
	default:
		return time.Time{}, fmt.Errorf("cannot use %T as a date", v)
	}
}

func parseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range _dateTimeLayouts {
		tm, err := time.Parse(layout, s)
		if err == nil {
			return tm.UTC(), nil
		}
	}

	return time.Time{}, fmt.Errorf("value '%s' is not a date", s)
}

package ir

import (
	"encoding/json"
	"fmt"
	"math"
	"time"
)

// Unbounded is the limit sentinel meaning "no LIMIT clause".
// It is the largest integer a JSON number can carry without loss (2^53 - 1),
// which is what upstream query parsers emit when no limit was requested.
const Unbounded int64 = 9007199254740991

// Row maps logical attribute names to values.
//
// A Row handed to the coercion layer is mutated in place; callers that need
// the original values must Clone first.
type Row map[string]any

// Clone returns a shallow copy of the row.
func (r Row) Clone() Row {
	if r == nil {
		return nil
	}
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// IsScalar reports whether v is a string, a number, or a time.Time.
// These are the only element types accepted in a membership list.
func IsScalar(v any) bool {
	switch v.(type) {
	case string, time.Time, *time.Time:
		return true
	}
	return IsNumber(v)
}

// IsNumber reports whether v is one of Go's numeric kinds or a json.Number.
func IsNumber(v any) bool {
	switch v.(type) {
	case int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64, json.Number:
		return true
	default:
		return false
	}
}

// IsNullish reports whether v counts as "no value" for an auto-assigned
// attribute: nil, the empty string, or the literal string "null".
func IsNullish(v any) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return val == "" || val == "null"
	default:
		return false
	}
}

// NormalizeNumber converts decoder-specific numeric representations into
// int64 (integral values) or float64. Non-numeric values are returned as-is.
//
// encoding/json with UseNumber yields json.Number; yaml.v3 yields int or
// float64. The driver type a value is finally bound as is chosen per column
// by coerce.BindValue.
func NormalizeNumber(v any) any {
	switch val := v.(type) {
	case json.Number:
		if i, err := val.Int64(); err == nil {
			return i
		}
		if f, err := val.Float64(); err == nil {
			return f
		}
		return val.String()
	case int:
		return int64(val)
	case int32:
		return int64(val)
	case float64:
		if val == math.Trunc(val) && math.Abs(val) <= float64(Unbounded) {
			return int64(val)
		}
		return val
	default:
		return v
	}
}

// ToInt64 converts a numeric value to int64.
func ToInt64(v any) (int64, error) {
	switch val := NormalizeNumber(v).(type) {
	case int64:
		return val, nil
	case int8:
		return int64(val), nil
	case int16:
		return int64(val), nil
	case uint8:
		return int64(val), nil
	case uint16:
		return int64(val), nil
	case uint32:
		return int64(val), nil
	case uint:
		if uint64(val) > math.MaxInt64 {
			return 0, fmt.Errorf("value %d overflows int64", val)
		}
		return int64(val), nil
	case uint64:
		if val > math.MaxInt64 {
			return 0, fmt.Errorf("value %d overflows int64", val)
		}
		return int64(val), nil
	case float32:
		return int64(val), nil
	case float64:
		return int64(val), nil
	default:
		return 0, fmt.Errorf("value of type %T is not a number", v)
	}
}

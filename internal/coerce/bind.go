package coerce

import (
	"encoding/json"
	"strconv"

	"gopkg.in/inf.v0"

	"github.com/roach88/cqlc/internal/ir"
	"github.com/roach88/cqlc/internal/schema"
)

// BindValue converts v into the Go type the driver marshals into attr's
// column. Only numbers bound to number attributes are converted:
//
//	tinyint, smallint, int, bigint, varint, counter -> int64
//	float                                           -> float32
//	decimal                                         -> *inf.Dec
//	double, or no column type                       -> float64
//
// A fractional value bound to an integral column is left as float64 so the
// driver rejects it instead of truncating.
func BindValue(attr schema.AttributeDef, v any) any {
	if attr.Type != schema.TypeNumber || !ir.IsNumber(v) {
		return v
	}
	n := ir.NormalizeNumber(v)

	switch {
	case attr.Integral():
		if _, fractional := n.(float64); fractional {
			return n
		}
		if i, err := ir.ToInt64(n); err == nil {
			return i
		}
		return n
	case attr.ColumnType == "float":
		if f, ok := toFloat64(n); ok {
			return float32(f)
		}
	case attr.ColumnType == "decimal":
		if d, ok := toDecimal(v, n); ok {
			return d
		}
	default:
		if f, ok := toFloat64(n); ok {
			return f
		}
	}
	return n
}

// BindAttribute binds v for the attribute named name in e. Undeclared
// attributes pass through.
func BindAttribute(e *schema.Entry, name string, v any) any {
	attr, ok := e.Attribute(name)
	if !ok {
		return v
	}
	return BindValue(attr, v)
}

func toFloat64(n any) (float64, bool) {
	switch val := n.(type) {
	case float64:
		return val, true
	case float32:
		return float64(val), true
	}
	i, err := ir.ToInt64(n)
	if err != nil {
		return 0, false
	}
	return float64(i), true
}

// toDecimal prefers the original decimal text of a json.Number so no digits
// are lost to float64.
func toDecimal(orig, n any) (*inf.Dec, bool) {
	if num, ok := orig.(json.Number); ok {
		if d, ok := new(inf.Dec).SetString(num.String()); ok {
			return d, true
		}
	}
	if i, ok := n.(int64); ok {
		return inf.NewDec(i, 0), true
	}
	f, ok := toFloat64(n)
	if !ok {
		return nil, false
	}
	return new(inf.Dec).SetString(strconv.FormatFloat(f, 'f', -1, 64))
}

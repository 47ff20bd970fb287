package coerce

import (
	"math/big"
	"strconv"
	"time"

	"github.com/gocql/gocql"
	"gopkg.in/inf.v0"

	"github.com/roach88/cqlc/internal/ir"
	"github.com/roach88/cqlc/internal/schema"
)

// CastRead converts a value scanned from the driver into its logical form
// for attr.
//
//	gocql.UUID -> string
//	*inf.Dec   -> float64
//	*big.Int   -> int64 when it fits, else its decimal string
//	time.Time  -> RFC 3339 string for string attributes, else Unix millis
//
// JSON text held by a json attribute is decoded; text that does not parse
// is returned unchanged. Everything else passes through.
func CastRead(attr schema.AttributeDef, v any) any {
	switch val := v.(type) {
	case nil:
		return nil
	case gocql.UUID:
		return val.String()
	case *gocql.UUID:
		if val == nil {
			return nil
		}
		return val.String()
	case *inf.Dec:
		if val == nil {
			return nil
		}
		return decToFloat(val)
	case *big.Int:
		if val == nil {
			return nil
		}
		if val.IsInt64() {
			return val.Int64()
		}
		return val.String()
	case time.Time:
		return castTime(attr, val)
	case *time.Time:
		if val == nil {
			return nil
		}
		return castTime(attr, *val)
	case string:
		if attr.Type == schema.TypeJSON {
			if decoded, err := ir.DecodeJSON(val); err == nil {
				return decoded
			}
		}
		return val
	default:
		return v
	}
}

// CastRow maps a driver row keyed by column into a row keyed by attribute,
// casting every value. Columns with no attribute in e are dropped.
func CastRow(e *schema.Entry, columns map[string]any) ir.Row {
	row := make(ir.Row, len(columns))
	for col, v := range columns {
		name, ok := e.AttributeFor(col)
		if !ok {
			continue
		}
		attr, _ := e.Attribute(name)
		row[name] = CastRead(attr, v)
	}
	return row
}

func castTime(attr schema.AttributeDef, t time.Time) any {
	if attr.Type == schema.TypeString {
		return t.UTC().Format(time.RFC3339Nano)
	}
	return t.UnixMilli()
}

func decToFloat(d *inf.Dec) float64 {
	f, _ := strconv.ParseFloat(d.String(), 64)
	return f
}

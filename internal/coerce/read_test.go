package coerce

import (
	"math/big"
	"testing"
	"time"

	"github.com/gocql/gocql"
	"github.com/stretchr/testify/assert"
	"gopkg.in/inf.v0"

	"github.com/roach88/cqlc/internal/ir"
	"github.com/roach88/cqlc/internal/schema"
)

func TestCastRead(t *testing.T) {
	str := schema.AttributeDef{Name: "s", Type: schema.TypeString}
	num := schema.AttributeDef{Name: "n", Type: schema.TypeNumber}
	js := schema.AttributeDef{Name: "j", Type: schema.TypeJSON}

	id := gocql.TimeUUID()
	ts := time.Date(2024, 3, 1, 12, 30, 0, 500_000_000, time.UTC)
	huge, _ := new(big.Int).SetString("123456789012345678901234567890", 10)

	testCases := []struct {
		name string
		attr schema.AttributeDef
		in   any
		want any
	}{
		{"nil", str, nil, nil},
		{"uuid", str, id, id.String()},
		{"decimal", num, inf.NewDec(1250, 2), 12.5},
		{"varint fits", num, big.NewInt(42), int64(42)},
		{"varint overflows", num, huge, "123456789012345678901234567890"},
		{"time as string", str, ts, "2024-03-01T12:30:00.5Z"},
		{"time as millis", num, ts, ts.UnixMilli()},
		{"json object", js, `{"theme":"dark"}`, map[string]any{"theme": "dark"}},
		{"json number", js, `7`, int64(7)},
		{"json garbage kept", js, `{oops`, `{oops`},
		{"plain string", str, `{"x":1}`, `{"x":1}`},
		{"passthrough", num, int64(3), int64(3)},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, CastRead(tc.attr, tc.in))
		})
	}
}

func TestCastRow_MapsColumnsToAttributes(t *testing.T) {
	e := peopleEntry(t)
	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	row := CastRow(e, map[string]any{
		"id":         "a",
		"created_at": ts,
		"seen_at":    ts,
		"settings":   `{"n":1}`,
		"stray":      "dropped",
	})

	assert.Equal(t, ir.Row{
		"id":        "a",
		"createdAt": "2024-01-02T03:04:05Z",
		"seenAt":    ts.UnixMilli(),
		"settings":  map[string]any{"n": int64(1)},
	}, row)
}

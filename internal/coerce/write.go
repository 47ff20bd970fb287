package coerce

import (
	"fmt"

	"github.com/roach88/cqlc/internal/ir"
	"github.com/roach88/cqlc/internal/schema"
)

// Coercer applies write-side coercion rules to rows.
type Coercer struct {
	ids IDGenerator
}

// New returns a Coercer drawing identifiers from ids.
// A nil ids uses TimeUUIDGenerator.
func New(ids IDGenerator) *Coercer {
	if ids == nil {
		ids = TimeUUIDGenerator{}
	}
	return &Coercer{ids: ids}
}

// PrepareCreate coerces a row about to be inserted: json attributes are
// encoded and nullish auto-assigned attributes receive a generated id.
// A missing auto-assigned attribute is added.
func (c *Coercer) PrepareCreate(e *schema.Entry, row ir.Row) error {
	if row == nil {
		return ir.RowShapeError("create on %s requires a record", e.TableName())
	}
	if err := encodeJSONAttributes(e, row); err != nil {
		return err
	}
	for _, attr := range e.Attributes() {
		if attr.AutoIncrement && ir.IsNullish(row[attr.Name]) {
			row[attr.Name] = c.ids.Generate()
		}
	}
	return nil
}

// PrepareUpdate coerces values about to be set. Only json encoding applies;
// identifiers are never generated on update.
func (c *Coercer) PrepareUpdate(e *schema.Entry, row ir.Row) error {
	if len(row) == 0 {
		return ir.RowShapeError("update on %s requires at least one value to set", e.TableName())
	}
	return encodeJSONAttributes(e, row)
}

// encodeJSONAttributes serializes every present, non-nil json attribute.
// Strings are encoded too, so "x" is stored as "\"x\"".
func encodeJSONAttributes(e *schema.Entry, row ir.Row) error {
	for _, attr := range e.Attributes() {
		if attr.Type != schema.TypeJSON {
			continue
		}
		v, ok := row[attr.Name]
		if !ok || v == nil {
			continue
		}
		text, err := ir.EncodeJSON(v)
		if err != nil {
			return &ir.Error{
				Kind:    ir.KindInvalidRowShape,
				Message: fmt.Sprintf("attribute %q cannot be encoded as JSON", attr.Name),
				Model:   e.TableName(),
				Err:     err,
			}
		}
		row[attr.Name] = text
	}
	return nil
}

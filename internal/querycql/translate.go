package querycql

import (
	"fmt"

	"github.com/roach88/cqlc/internal/ir"
	"github.com/roach88/cqlc/internal/queryir"
)

// ColumnResolver maps an attribute name to its column name.
type ColumnResolver func(attr string) string

// ValueBinder converts a value compared against attr into the form bound to
// the driver.
type ValueBinder func(attr string, v any) any

// Translate compiles a predicate tree into a WHERE fragment.
//
// The tree is checked with queryir.Validate first. A nil predicate or an
// empty conjunction yields an empty fragment. Conjunction children are joined
// with " AND " in order, and children that translate to nothing are dropped.
// resolve may be nil, in which case attribute names are used as column names.
func Translate(p queryir.Predicate, resolve ColumnResolver) (Fragment, error) {
	return translate(p, resolve, nil)
}

func translate(p queryir.Predicate, resolve ColumnResolver, bind ValueBinder) (Fragment, error) {
	if err := queryir.Validate(p); err != nil {
		return Fragment{}, err
	}
	if resolve == nil {
		resolve = func(attr string) string { return attr }
	}
	if bind == nil {
		bind = func(_ string, v any) any { return ir.NormalizeNumber(v) }
	}
	t := translator{resolve: resolve, bind: bind}
	return t.predicate(p)
}

// translator assumes a validated tree.
type translator struct {
	resolve ColumnResolver
	bind    ValueBinder
}

func (t translator) predicate(p queryir.Predicate) (Fragment, error) {
	switch pred := p.(type) {
	case nil:
		return Fragment{}, nil
	case queryir.And:
		return t.and(pred)
	case *queryir.And:
		return t.and(*pred)
	case queryir.Compare:
		return t.compare(pred), nil
	case *queryir.Compare:
		return t.compare(*pred), nil
	case queryir.In:
		return t.in(pred), nil
	case *queryir.In:
		return t.in(*pred), nil
	default:
		return Fragment{}, ir.PredicateError("unsupported predicate %T", p)
	}
}

func (t translator) and(and queryir.And) (Fragment, error) {
	var b fragmentBuilder
	for _, child := range and.Predicates {
		f, err := t.predicate(child)
		if err != nil {
			return Fragment{}, err
		}
		b.addFragment(f)
	}
	return b.join(" AND "), nil
}

func (t translator) compare(c queryir.Compare) Fragment {
	text := fmt.Sprintf("%s %s ?", quoteIdentifier(t.resolve(c.Attribute)), c.Op)
	return Fragment{Text: text, Values: []any{t.bind(c.Attribute, c.Value)}}
}

func (t translator) in(in queryir.In) Fragment {
	values := make([]any, len(in.Values))
	for i, v := range in.Values {
		values[i] = t.bind(in.Attribute, v)
	}
	text := fmt.Sprintf("%s IN (%s)", quoteIdentifier(t.resolve(in.Attribute)), placeholders(len(values)))
	return Fragment{Text: text, Values: values}
}

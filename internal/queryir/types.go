package queryir

import (
	"fmt"

	"github.com/roach88/cqlc/internal/ir"
)

// Predicate represents a filter condition.
//
// This is a sealed interface - only types in this package implement it.
//
// Predicate types:
//   - And: all child predicates must hold
//   - Compare: attribute <op> value
//   - In: attribute is one of a list of scalars
type Predicate interface {
	predicateNode() // Marker method - seals interface to this package
}

// Operator is a comparison operator supported by the storage engine.
type Operator string

const (
	OpEq  Operator = "="
	OpGt  Operator = ">"
	OpGte Operator = ">="
	OpLt  Operator = "<"
	OpLte Operator = "<="
	OpNe  Operator = "!="
)

// Operators lists every supported comparison operator.
var Operators = []Operator{OpEq, OpGt, OpGte, OpLt, OpLte, OpNe}

// Valid reports whether op is a supported comparison operator.
func (op Operator) Valid() bool {
	for _, o := range Operators {
		if o == op {
			return true
		}
	}
	return false
}

// And represents a conjunction of predicates.
//
// Semantics:
//
//	<predicate1> AND <predicate2> AND ... AND <predicateN>
//
// An empty And places no restriction and compiles to an empty fragment.
// Children are compiled in slice order; that order is the order of the
// bound values.
type And struct {
	Predicates []Predicate
}

func (And) predicateNode() {}

// Compare represents a single attribute comparison.
//
// Semantics:
//
//	"<attribute>" <op> ?
//
// Value is always bound, never interpolated.
type Compare struct {
	Attribute string
	Op        Operator
	Value     any
}

func (Compare) predicateNode() {}

// In represents a membership test.
//
// Semantics:
//
//	"<attribute>" IN (?,?,...)
//
// Every element of Values must satisfy ir.IsScalar. Elements are bound in
// slice order.
type In struct {
	Attribute string
	Values    []any
}

func (In) predicateNode() {}

// Eq is shorthand for Compare{Attribute: attr, Op: OpEq, Value: v}.
func Eq(attr string, v any) Compare {
	return Compare{Attribute: attr, Op: OpEq, Value: v}
}

// AllOf is shorthand for And{Predicates: preds}.
func AllOf(preds ...Predicate) And {
	return And{Predicates: preds}
}

// Method names the operation a Statement asks for.
type Method string

const (
	MethodCount   Method = "count"
	MethodFind    Method = "find"
	MethodCreate  Method = "create"
	MethodUpdate  Method = "update"
	MethodDestroy Method = "destroy"
)

// Valid reports whether m is a known method.
func (m Method) Valid() bool {
	switch m {
	case MethodCount, MethodFind, MethodCreate, MethodUpdate, MethodDestroy:
		return true
	default:
		return false
	}
}

// Direction is a sort direction.
type Direction string

const (
	Asc  Direction = "ASC"
	Desc Direction = "DESC"
)

// Sort orders results by one column.
type Sort struct {
	Column    string
	Direction Direction
}

// Criteria carries the filtering and shaping part of a statement.
type Criteria struct {
	// Where is the filter (nil = no filter).
	Where Predicate

	// Select lists the attributes to project. Empty means all columns.
	Select []string

	// Limit caps the number of rows. Zero and ir.Unbounded mean no limit.
	Limit int64

	// Sort lists ordering pairs, applied in order.
	Sort []Sort
}

// Meta carries per-statement options.
type Meta struct {
	// Fetch asks create and destroy to return the affected rows.
	Fetch bool
}

// Statement is the intermediate form produced by the upstream query compiler.
//
// Which fields are consulted depends on Method:
//
//	count    Criteria.Where
//	find     Criteria (all fields)
//	create   NewRecord, Meta.Fetch
//	update   Criteria.Where, ValuesToSet
//	destroy  Criteria.Where, Meta.Fetch
type Statement struct {
	Method      Method
	Using       string
	Criteria    Criteria
	NewRecord   ir.Row
	ValuesToSet ir.Row
	Meta        Meta
}

// String renders a short description for logs.
func (s Statement) String() string {
	return fmt.Sprintf("%s %s", s.Method, s.Using)
}

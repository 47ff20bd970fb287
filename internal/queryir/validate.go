package queryir

import (
	"fmt"
	"strings"

	"github.com/roach88/cqlc/internal/ir"
)

// Validate checks that a predicate tree can be compiled.
//
// Rules:
//  1. Every Compare and In names a non-empty attribute containing no "?"
//  2. Every Compare uses a supported operator
//  3. Every In lists at least one element, and every element is a scalar
//     (string, number, or time); anything else is an invalid membership
//     query, never a silent drop
//  4. nil children inside an And are malformed
//
// A nil predicate is valid and means "no filter".
// Validate is a pure function with no side effects. All problems found are
// reported in a single ir.KindPredicateParse error.
func Validate(p Predicate) error {
	v := &validator{}
	if p != nil {
		v.validatePredicate(p)
	}
	if len(v.problems) == 0 {
		return nil
	}
	return ir.PredicateError("%s", strings.Join(v.problems, "; "))
}

// validator accumulates problems during traversal.
type validator struct {
	problems []string
}

// addProblem appends a problem message.
func (v *validator) addProblem(format string, args ...any) {
	v.problems = append(v.problems, fmt.Sprintf(format, args...))
}

// validatePredicate recursively validates a predicate node.
func (v *validator) validatePredicate(p Predicate) {
	switch pred := p.(type) {
	case And:
		v.validateAnd(pred)
	case *And:
		v.validateAnd(*pred)
	case Compare:
		v.validateCompare(pred)
	case *Compare:
		v.validateCompare(*pred)
	case In:
		v.validateIn(pred)
	case *In:
		v.validateIn(*pred)
	case nil:
		v.addProblem("nil predicate inside conjunction")
	default:
		v.addProblem("unsupported predicate type %T", p)
	}
}

func (v *validator) validateAnd(and And) {
	for _, child := range and.Predicates {
		v.validatePredicate(child)
	}
}

func (v *validator) validateCompare(c Compare) {
	if c.Attribute == "" {
		v.addProblem("comparison has empty attribute name")
	}
	v.checkMarker(c.Attribute)
	if !c.Op.Valid() {
		v.addProblem("unsupported modifier: %s", c.Op)
	}
	if c.Value == nil {
		v.addProblem("attribute %q compared to null", c.Attribute)
	}
}

func (v *validator) validateIn(in In) {
	if in.Attribute == "" {
		v.addProblem("invalid membership query: empty attribute name")
	}
	v.checkMarker(in.Attribute)
	if len(in.Values) == 0 {
		v.addProblem("invalid membership query: attribute %q has an empty list", in.Attribute)
	}
	for i, elem := range in.Values {
		if !ir.IsScalar(elem) {
			v.addProblem("invalid membership query: attribute %q element %d has type %T", in.Attribute, i, elem)
		}
	}
}

func (v *validator) checkMarker(attr string) {
	if strings.ContainsRune(attr, '?') {
		v.addProblem("attribute %q contains a placeholder marker", attr)
	}
}

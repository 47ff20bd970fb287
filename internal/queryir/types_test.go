package queryir

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPredicate_SealedSwitch(t *testing.T) {
	preds := []Predicate{
		And{},
		Compare{Attribute: "age", Op: OpGte, Value: 30},
		In{Attribute: "status", Values: []any{"active"}},
	}

	var seen []string
	for _, p := range preds {
		switch p.(type) {
		case And:
			seen = append(seen, "and")
		case Compare:
			seen = append(seen, "compare")
		case In:
			seen = append(seen, "in")
		default:
			t.Fatalf("unexpected predicate type %T", p)
		}
	}
	assert.Equal(t, []string{"and", "compare", "in"}, seen)
}

func TestOperator_Valid(t *testing.T) {
	for _, op := range Operators {
		assert.True(t, op.Valid(), "operator %q", op)
	}
	assert.False(t, Operator("like").Valid())
	assert.False(t, Operator("in").Valid(), "membership is its own node, not an operator")
	assert.False(t, Operator("").Valid())
}

func TestMethod_Valid(t *testing.T) {
	for _, m := range []Method{MethodCount, MethodFind, MethodCreate, MethodUpdate, MethodDestroy} {
		assert.True(t, m.Valid())
	}
	assert.False(t, Method("upsert").Valid())
}

func TestShorthands(t *testing.T) {
	assert.Equal(t, Compare{Attribute: "id", Op: OpEq, Value: 7}, Eq("id", 7))

	and := AllOf(Eq("a", 1), Eq("b", 2))
	assert.Len(t, and.Predicates, 2)
}

func TestStatement_String(t *testing.T) {
	stmt := Statement{Method: MethodFind, Using: "people"}
	assert.Equal(t, "find people", stmt.String())
}

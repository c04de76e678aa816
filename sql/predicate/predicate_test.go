package predicate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConstraint_EmptyOnNilOrZeroLength(t *testing.T) {
	var nilConstraint Constraint
	assert.True(t, nilConstraint.Empty(), "nil Constraint should be Empty")
	assert.True(t, (Constraint{}).Empty(), "zero-length Constraint should be Empty")

	nonEmpty := Constraint{{{Column: "a", Op: EQ, Value: "1"}}}
	assert.False(t, nonEmpty.Empty(), "a Constraint with a disjunct should not be Empty")
}

func TestCompOp_String(t *testing.T) {
	cases := map[CompOp]string{EQ: "=", LT: "<", LE: "<=", GT: ">", GE: ">="}
	for op, want := range cases {
		assert.Equal(t, want, op.String())
	}
}

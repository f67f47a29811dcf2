package backend

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crillab/wmibo/wmibo"
)

func TestEncodeRow(t *testing.T) {
	row := wmibo.Row{ID: "C", RHS: 0, Terms: wmibo.Expr{{Coeff: 1, Var: wmibo.B(1)}}}
	tests := []struct {
		name    string
		ind     wmibo.Indicator
		gated   bool
		vars    []int
		coeffs  []int
		atLeast int
	}{
		{"plain", wmibo.Indicator{}, false, []int{1}, []int{-1}, 0},
		{"gated", wmibo.Indicator{Lit: wmibo.Pos(3)}, true, []int{1, 3}, []int{-1, -1}, -1},
		{"negated", wmibo.Indicator{Lit: wmibo.Neg(3)}, true, []int{1, 3}, []int{-1, 1}, 0},
	}
	for _, tt := range tests {
		r, err := encodeRow(row, tt.ind, tt.gated)
		require.NoError(t, err, tt.name)
		require.NotNil(t, r, tt.name)
		assert.Equal(t, tt.vars, r.vars, tt.name)
		assert.Equal(t, tt.coeffs, r.coeffs, tt.name)
		assert.Equal(t, tt.atLeast, r.atLeast, tt.name)
	}
}

func TestEncodeRowMergesAndDrops(t *testing.T) {
	// b1 + b1 - 2 b1 <= 0 always holds.
	row := wmibo.Row{ID: "C", RHS: 0.5, Terms: wmibo.Expr{
		{Coeff: 1, Var: wmibo.B(1)}, {Coeff: 1, Var: wmibo.B(1)}, {Coeff: -2, Var: wmibo.B(1)},
	}}
	r, err := encodeRow(row, wmibo.Indicator{}, false)
	require.NoError(t, err)
	assert.Nil(t, r)

	// 2 b1 + 3 b2 <= 7.9 always holds too.
	row = wmibo.Row{ID: "D", RHS: 7.9, Terms: wmibo.Expr{{Coeff: 2, Var: wmibo.B(1)}, {Coeff: 3, Var: wmibo.B(2)}}}
	r, err = encodeRow(row, wmibo.Indicator{Lit: wmibo.Pos(4)}, true)
	require.NoError(t, err)
	assert.Nil(t, r)
}

func TestEncodeObjective(t *testing.T) {
	inst, err := wmibo.Load(strings.NewReader("p wmibo 1 2 0 0\nbegin obj\nobj max : lin 2 b1 -3 b2 0 b1\nend\n"))
	require.NoError(t, err)
	e, err := encode(inst)
	require.NoError(t, err)
	assert.Equal(t, []cost{{lits: []int{1}, weight: 2}, {lits: []int{-2}, weight: 3}}, e.costs)
	assert.True(t, e.clauseOnly())
}

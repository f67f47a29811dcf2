package check

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crillab/wmibo/wmibo"
)

const instance = `p wmibo 1 3 1 2
var i 1 [0,10] name=load
var r 1 [0,2.5]
begin cnf
cl hard b1 b2 0
end
begin wcnf
wcl 4 soft b3 0
wcl 1 soft ~b1 0
end
begin ind
ind b1 => CAP
end
begin lin
lc CAP <= 4 : 1 i1 2 b2
lc SUM = 3 : 1 i1 1 r1
end
begin obj
obj max : lin 1 i1 -1 r1
end
`

func load(t *testing.T, src string) *wmibo.Instance {
	t.Helper()
	inst, err := wmibo.Load(strings.NewReader(src))
	require.NoError(t, err)
	return inst
}

func readSolution(t *testing.T, src string) wmibo.Solution {
	t.Helper()
	sol, err := wmibo.ReadSolution(strings.NewReader(src))
	require.NoError(t, err)
	return sol
}

func TestVerifyOK(t *testing.T) {
	inst := load(t, instance)
	// lin = 3 - 0 = 3; b3 and ~b1 are violated, penalty 5.
	sol := readSolution(t, "s OPTIMUM FOUND\no -2\nv b1=1 b2=0 b3=0\nv i1=3\nv r1=0\n")
	r := Verify(inst, sol)
	assert.True(t, r.OK(), "failures: %v", r.Failures)
	assert.Empty(t, r.Warnings)
	assert.Equal(t, 5.0, r.Penalty)
	assert.Equal(t, 2, r.SoftViolations)
	assert.Equal(t, 3.0, r.LinearObjective)
	assert.Equal(t, 8.0, r.TotalMin)
	assert.Equal(t, 2.0, r.TotalInternal)
	assert.Equal(t, -2.0, r.TotalMaxOriginal)
	assert.Equal(t, TotalMaxOriginal, r.BestMatch)
	assert.Equal(t, 0.0, r.BestAbsError)
}

func TestVerifyInternalConvention(t *testing.T) {
	inst := load(t, instance)
	sol := readSolution(t, "s OPTIMUM FOUND\no 2\nv b1=1 b2=0 b3=0 i1=3 r1=0\n")
	r := Verify(inst, sol)
	assert.True(t, r.OK(), "failures: %v", r.Failures)
	assert.Equal(t, TotalInternal, r.BestMatch)
}

func TestVerifyInactiveConstraint(t *testing.T) {
	inst := load(t, instance)
	// CAP is violated, but its indicator b1 is false.
	sol := readSolution(t, "s SATISFIABLE\nv b1=0 b2=1 b3=1 i1=3 r1=0\n")
	r := Verify(inst, sol)
	assert.True(t, r.OK(), "failures: %v", r.Failures)
	assert.False(t, r.HasReported)

	sol.Assignment.SetBool(1, true)
	r = Verify(inst, sol)
	assert.False(t, r.OK())
	assert.Equal(t, []string{"linear CAP violated: lhs=5 <= rhs=4 (feas_tol=1e-08)"}, r.Failures)
}

func TestVerifyFailures(t *testing.T) {
	inst := load(t, instance)
	tests := []struct {
		name string
		sol  string
		want string
	}{
		{"missing bool", "s SATISFIABLE\nv b1=1 b2=0 i1=3 r1=0\n", "missing assignment: b3"},
		{"not boolean", "s SATISFIABLE\nv b1=1 b2=0 b3=0.5 i1=3 r1=0\n", "b3 is not boolean: 0.5"},
		{"not integral", "s SATISFIABLE\nv b1=1 b2=0 b3=1 i1=2.5 r1=0.5\n", "i1 is not integral"},
		{"int bounds", "s SATISFIABLE\nv b1=0 b2=1 b3=1 i1=11 r1=-8\n", "i1 out of bounds [0,10]: 11"},
		{"real bounds", "s SATISFIABLE\nv b1=1 b2=0 b3=1 i1=0 r1=3\n", "r1 out of bounds [0,2.5]"},
		{"hard clause", "s SATISFIABLE\nv b1=0 b2=0 b3=1 i1=3 r1=0\n", "hard clause at line 5 violated"},
		{"equality", "s SATISFIABLE\nv b1=1 b2=0 b3=1 i1=3 r1=1\n", "linear SUM violated"},
		{"missing int", "s SATISFIABLE\nv b1=1 b2=0 b3=1 r1=0\n", "missing assignment: i1"},
		{"objective", "s OPTIMUM FOUND\no 7\nv b1=1 b2=0 b3=0 i1=3 r1=0\n", "objective mismatch"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Verify(inst, readSolution(t, tt.sol))
			require.False(t, r.OK())
			var found bool
			for _, msg := range r.Failures {
				if strings.Contains(msg, tt.want) {
					found = true
				}
			}
			assert.True(t, found, "%q not in %v", tt.want, r.Failures)
		})
	}
}

func TestVerifyUndeclaredWarnings(t *testing.T) {
	inst := load(t, "p wmibo 1 0 1 1\n")
	r := Verify(inst, readSolution(t, "s SATISFIABLE\nv i1=-40 r1=1e9\n"))
	assert.True(t, r.OK())
	assert.Len(t, r.Warnings, 2)
}

func TestVerifyTolerances(t *testing.T) {
	inst := load(t, "p wmibo 1 0 1 0\nopt int_tol 0.1\nvar i 1 [0,3]\n")
	r := Verify(inst, readSolution(t, "s SATISFIABLE\nv i1=3.05\n"))
	assert.True(t, r.OK(), "failures: %v", r.Failures)
}

func TestPrint(t *testing.T) {
	inst := load(t, instance)
	r := Verify(inst, readSolution(t, "s OPTIMUM FOUND\no -2\nv b1=1 b2=0 b3=0 i1=3 r1=0\n"))
	var buf bytes.Buffer
	require.NoError(t, r.Print(&buf, "model.wmibo"))
	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "WMIBO VALIDATION REPORT\n  instance: model.wmibo\n  status:   OPTIMUM FOUND\n"))
	assert.Contains(t, out, "best_match: total_max_original")
	assert.True(t, strings.HasSuffix(out, "\nRESULT: OK\n"))
}

package wmibo

import (
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadFile(t *testing.T, path string) *Instance {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	inst, err := Load(f)
	require.NoError(t, err, "could not load %q", path)
	return inst
}

func loadString(src string, opts ...LoadOption) (*Instance, error) {
	return Load(strings.NewReader(src), opts...)
}

func TestLoadFeasibility(t *testing.T) {
	inst := loadFile(t, "testdata/feas.wmibo")
	assert.Len(t, inst.Clauses, 2)
	assert.Empty(t, inst.Constraints)
	assert.Equal(t, []Lit{Pos(1), Neg(2)}, inst.Clauses[0].Lits)
	assert.Equal(t, []Lit{Pos(2), Pos(3)}, inst.Clauses[1].Lits)
	assert.Equal(t, SolveFeas, inst.EffectiveQuery().Kind)
	assert.Empty(t, inst.Warnings)
}

func TestLoadSoftClauses(t *testing.T) {
	inst := loadFile(t, "testdata/soft.wmibo")
	soft := inst.SoftClauses()
	require.Len(t, soft, 2)
	assert.Equal(t, int64(5), soft[0].Weight)
	assert.Equal(t, int64(1), soft[1].Weight)
	assert.Equal(t, SolveOpt, inst.EffectiveQuery().Kind)

	// b1 false violates the weight-5 clause only.
	a := Assignment{B(1): 0, B(2): 1}
	penalty, nb := inst.Penalty(a)
	assert.Equal(t, 5.0, penalty)
	assert.Equal(t, 1, nb)
	assert.Equal(t, 5.0, inst.TotalObjective(a))
	// b1 and b2 true violate the weight-1 clause only.
	penalty, nb = inst.Penalty(Assignment{B(1): 1, B(2): 1})
	assert.Equal(t, 1.0, penalty)
	assert.Equal(t, 1, nb)
}

func TestLoadIndicator(t *testing.T) {
	inst := loadFile(t, "testdata/indicator.wmibo")
	ind, ok := inst.IndicatorOf("C1")
	require.True(t, ok)
	assert.Equal(t, Pos(1), ind.Lit)
	v, ok := inst.Var(I(1))
	require.True(t, ok)
	assert.Equal(t, "load", v.Name)
	assert.Equal(t, Domain{Lower: 0, Upper: 10}, v.Domain)
	assert.True(t, inst.Active("C1", Assignment{B(1): 1}))
	assert.False(t, inst.Active("C1", Assignment{B(1): 0}))
}

func TestLoadUndeclaredIsReportedByValidation(t *testing.T) {
	src := `p wmibo 1 2 1 0
begin ind
ind b1 => C1
end
begin lin
lc C1 <= 5 : 1 i1 2 b2
end
`
	_, err := loadString(src)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUndeclaredVariable), "got %v", err)
	var fe *FormatError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, 6, fe.Line)
}

func TestLoadMixed(t *testing.T) {
	inst := loadFile(t, "testdata/mixed.wmibo")
	assert.Empty(t, inst.Warnings)
	assert.Len(t, inst.Variables, 4)
	assert.Len(t, inst.Clauses, 4)
	assert.Len(t, inst.Constraints, 3)
	assert.Len(t, inst.Indicators, 2)
	assert.Len(t, inst.Rows(), 4) // BAL is an equality
	require.NotNil(t, inst.Objective)
	assert.Equal(t, Maximize, inst.Objective.Sense)
	assert.Len(t, inst.Objective.Terms, 3)
	require.Len(t, inst.Queries, 3)
	assert.Equal(t, CountProj, inst.Queries[0].Kind)
	assert.Equal(t, []VarRef{B(1), B(2)}, inst.Queries[0].Vars)
	assert.Equal(t, SolveOpt, inst.EffectiveQuery().Kind)
	assert.Equal(t, 30.0, inst.OptionNumber("time_limit", 0))
	assert.Equal(t, 1e-9, inst.OptionNumber("feas_tol", 0))
	strategy, ok := inst.Option("strategy")
	require.True(t, ok)
	assert.Equal(t, "lns fast", strategy.Raw)
	assert.False(t, strategy.IsNumber)
	v, ok := inst.Var(R(2))
	require.True(t, ok)
	assert.True(t, v.Domain.Free)
	assert.Equal(t, "slack", v.Name)
	v, ok = inst.Var(I(1))
	require.True(t, ok)
	assert.True(t, v.Domain.Binary)
	assert.NoError(t, inst.Validate())
}

func TestLoadCounterWarnings(t *testing.T) {
	src := `p wmibo 1 2 0 0 5 0 1
begin cnf
cl hard b1 0
end
`
	inst, err := loadString(src)
	require.NoError(t, err)
	require.Len(t, inst.Warnings, 2)
	assert.Equal(t, 1, inst.Warnings[0].Line)
	assert.Contains(t, inst.Warnings[0].Msg, "5 clauses, found 1")
	assert.Contains(t, inst.Warnings[1].Msg, "1 indicators, found 0")
}

func TestLoadEmptyHardClause(t *testing.T) {
	inst, err := loadString("p wmibo 1 0 0 0\nbegin cnf\ncl hard 0\nend\n")
	require.NoError(t, err)
	require.Len(t, inst.Clauses, 1)
	assert.Empty(t, inst.Clauses[0].Lits)
	assert.True(t, inst.HasEmptyHardClause())
	assert.False(t, inst.Clauses[0].Satisfied(Assignment{}))
}

func TestLoadUnknownBlockIsSkipped(t *testing.T) {
	src := `p wmibo 1 1 0 0
begin pb
anything goes here 1 2 3
end
begin cnf
cl hard b1 0
end
`
	inst, err := loadString(src)
	require.NoError(t, err)
	assert.Len(t, inst.Clauses, 1)
	require.Len(t, inst.Warnings, 1)
	assert.Equal(t, 2, inst.Warnings[0].Line)
}

func TestLoadOptions(t *testing.T) {
	src := `p wmibo 1 1 0 0
opt time_limit 10
opt seed 3
`
	inst, err := loadString(src,
		WithDefaults(map[string]string{"time_limit": "99", "int_tol": "1e-5"}),
		WithOverrides(map[string]string{"seed": "42"}))
	require.NoError(t, err)
	assert.Equal(t, 10.0, inst.OptionNumber("time_limit", 0))
	assert.Equal(t, 1e-5, inst.OptionNumber("int_tol", 0))
	assert.Equal(t, 42.0, inst.OptionNumber("seed", 0))

	_, err = loadString(src, WithOverrides(map[string]string{"node_limit": "many"}))
	assert.True(t, errors.Is(err, ErrSyntax), "got %v", err)
}

func TestLoadRepeatedOptionLastWins(t *testing.T) {
	inst, err := loadString("p wmibo 1 1 0 0\nopt mode a\nbegin opt\nopt mode b\nend\n")
	require.NoError(t, err)
	mode, _ := inst.Option("mode")
	assert.Equal(t, "b", mode.Raw)
	assert.Len(t, inst.Warnings, 1)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		kind error
		line int
	}{
		{"empty", "c nothing\n", ErrSyntax, 0},
		{"no header first", "begin cnf\nend\n", ErrSyntax, 1},
		{"version", "p wmibo 2 1 0 0\n", ErrVersion, 1},
		{"duplicate header", "p wmibo 1 1 0 0\np wmibo 1 1 0 0\n", ErrDuplicateHeader, 2},
		{"bad header arity", "p wmibo 1 1 0\n", ErrSyntax, 1},
		{"nested", "p wmibo 1 1 0 0\nbegin cnf\nbegin lin\n", ErrNestedBlock, 3},
		{"unmatched end", "p wmibo 1 1 0 0\nend\n", ErrUnmatchedEnd, 2},
		{"unterminated", "p wmibo 1 1 0 0\nbegin cnf\ncl hard b1 0\n", ErrUnterminatedBlock, 2},
		{"cl in lin", "p wmibo 1 1 0 0\nbegin lin\ncl hard b1 0\nend\n", ErrMisplacedDirective, 3},
		{"cl outside block", "p wmibo 1 1 0 0\ncl hard b1 0\n", ErrMisplacedDirective, 2},
		{"opt in cnf", "p wmibo 1 1 0 0\nbegin cnf\nopt a 1\nend\n", ErrMisplacedDirective, 3},
		{"wcl in cnf", "p wmibo 1 1 0 0\nbegin cnf\nwcl 2 soft b1 0\nend\n", ErrMisplacedDirective, 3},
		{"unknown directive", "p wmibo 1 1 0 0\nfoo bar\n", ErrSyntax, 2},
		{"missing 0", "p wmibo 1 1 0 0\nbegin cnf\ncl hard b1\nend\n", ErrSyntax, 3},
		{"bad literal", "p wmibo 1 1 0 0\nbegin cnf\ncl hard x1 0\nend\n", ErrSyntax, 3},
		{"duplicate var", "p wmibo 1 0 1 0\nvar i 1 [0,1]\nvar i 1 [0,2]\n", ErrDuplicateVariable, 3},
		{"inverted bounds", "p wmibo 1 0 1 0\nvar i 1 [3,1]\n", ErrDomain, 2},
		{"bin with bounds", "p wmibo 1 0 1 0\nvar i 1 bin [0,1]\n", ErrDomain, 2},
		{"free int", "p wmibo 1 0 1 0\nvar i 1 free\n", ErrDomain, 2},
		{"declared out of range", "p wmibo 1 0 1 0\nvar i 2 [0,1]\n", ErrIndexOutOfRange, 2},
		{"duplicate cid", "p wmibo 1 0 0 1\nvar r 1 free\nbegin lin\nlc C <= 1 : 1 r1\nend\nbegin lin\nlc C >= 0 : 1 r1\nend\n", ErrDuplicateConstraintID, 7},
		{"duplicate objective", "p wmibo 1 1 0 0\nbegin obj\nobj min : lin 1 b1\nobj max : lin 1 b1\nend\n", ErrDuplicateObjective, 4},
		{"indicator conflict", "p wmibo 1 1 0 1\nvar r 1 free\nbegin lin\nlc C <= 1 : 1 r1\nend\nbegin ind\nind b1 => C\nind ~b1 => C\nend\n", ErrIndicatorConflict, 8},
		{"unknown cid", "p wmibo 1 1 0 0\nbegin ind\nind b1 => C9\nend\n", ErrUnknownConstraintID, 3},
		{"literal out of range", "p wmibo 1 2 0 0\nbegin cnf\ncl hard b3 0\nend\n", ErrIndexOutOfRange, 3},
		{"literal zero index", "p wmibo 1 2 0 0\nbegin cnf\ncl hard ~b0 0\nend\n", ErrIndexOutOfRange, 3},
		{"literal on int", "p wmibo 1 2 1 0\nbegin cnf\ncl hard i1 0\nend\n", ErrKindMismatch, 3},
		{"term out of range", "p wmibo 1 0 0 1\nvar r 1 free\nbegin obj\nobj min : lin 1 r2\nend\n", ErrIndexOutOfRange, 4},
		{"undeclared in obj", "p wmibo 1 0 0 1\nbegin obj\nobj min : lin 1 r1\nend\n", ErrUndeclaredVariable, 3},
		{"bad query", "p wmibo 1 1 0 0\nbegin query\nquery explain everything\nend\n", ErrSyntax, 3},
		{"proj on real", "p wmibo 1 1 0 1\nbegin query\nquery count proj r1\nend\n", ErrKindMismatch, 3},
		{"non numeric time limit", "p wmibo 1 1 0 0\nopt time_limit soon\n", ErrSyntax, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inst, err := loadString(tt.src)
			require.Error(t, err)
			assert.Nil(t, inst)
			assert.True(t, errors.Is(err, tt.kind), "expected %v, got %v", tt.kind, err)
			var fe *FormatError
			require.True(t, errors.As(err, &fe))
			assert.Equal(t, tt.line, fe.Line, "wrong line in %v", err)
		})
	}
}

func TestValidationOrder(t *testing.T) {
	// Both an out-of-range literal and an unknown constraint id: the range check comes first,
	// even though the indicator appears earlier in the file.
	src := `p wmibo 1 1 0 0
begin ind
ind b1 => NOPE
end
begin cnf
cl hard b2 0
end
`
	_, err := loadString(src)
	assert.True(t, errors.Is(err, ErrIndexOutOfRange), "got %v", err)
}

func TestIndicatorRepeat(t *testing.T) {
	src := `p wmibo 1 1 0 1
var r 1 free
begin ind
ind ~b1 => C
end
begin lin
lc C <= 1 : 1 r1
end
begin ind
ind ~b1 => C
end
`
	inst, err := loadString(src)
	require.NoError(t, err)
	assert.Len(t, inst.Indicators, 1)
}

func TestValidateIsIdempotent(t *testing.T) {
	for _, path := range []string{"testdata/feas.wmibo", "testdata/soft.wmibo", "testdata/indicator.wmibo", "testdata/mixed.wmibo"} {
		inst := loadFile(t, path)
		assert.NoError(t, inst.Validate(), path)
		assert.NoError(t, inst.Validate(), path)
	}
}

package wmibo

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		line string
		want []string
	}{
		{"", nil},
		{"   \t  ", nil},
		{"c a comment", nil},
		{"  c indented comment", nil},
		{"# hash comment", nil},
		{"cl hard b1 0 # trailing", []string{"cl", "hard", "b1", "0"}},
		{"cl\thard  ~b1   0", []string{"cl", "hard", "~b1", "0"}},
		{"opt c 3", []string{"opt", "c", "3"}},
	}
	for _, tt := range tests {
		got := tokenize(tt.line)
		if len(tt.want) == 0 {
			assert.Empty(t, got, "line %q", tt.line)
			continue
		}
		assert.Equal(t, tt.want, got, "line %q", tt.line)
	}
}

func mustParse(t *testing.T, line string) directive {
	t.Helper()
	d, err := parseDirective(tokenize(line), 7)
	require.NoError(t, err, "could not parse %q", line)
	require.Equal(t, 7, d.line())
	return d
}

func TestParseHeader(t *testing.T) {
	d := mustParse(t, "p wmibo 1 3 2 1")
	h := d.(headerDirective).header
	assert.Equal(t, Header{Version: 1, NbBool: 3, NbInt: 2, NbReal: 1, Line: 7}, h)
	assert.False(t, h.HasCounters)

	h = mustParse(t, "p wmibo 1 0 0 0 4 5 6").(headerDirective).header
	assert.True(t, h.HasCounters)
	assert.Equal(t, 4, h.NbClauses)
	assert.Equal(t, 5, h.NbLinear)
	assert.Equal(t, 6, h.NbIndicator)

	for _, line := range []string{"p cnf 1 3 2 1", "p wmibo 1 -3 2 1", "p wmibo 1 x 2 1", "p wmibo 1 3 2 1 0"} {
		_, err := parseDirective(tokenize(line), 1)
		assert.True(t, errors.Is(err, ErrSyntax), "%q: got %v", line, err)
	}
}

func TestParseVar(t *testing.T) {
	tests := []struct {
		line   string
		ref    VarRef
		domain Domain
		name   string
	}{
		{"var b 2 bin", B(2), BoolDomain, ""},
		{"var b 2 [0,1]", B(2), BoolDomain, ""},
		{"var i 1 bin name=flag", I(1), BoolDomain, "flag"},
		{"var i 3 [-2,8]", I(3), Domain{Lower: -2, Upper: 8}, ""},
		{"var r 1 [0.5,1e3] name=x_1", R(1), Domain{Lower: 0.5, Upper: 1000}, "x_1"},
		{"var r 4 free", R(4), FreeDomain, ""},
		{"var r 4 [-inf,inf]", R(4), Domain{Lower: FreeDomain.Lower, Upper: FreeDomain.Upper}, ""},
	}
	for _, tt := range tests {
		d := mustParse(t, tt.line).(varDirective)
		assert.Equal(t, tt.ref, d.ref, tt.line)
		assert.Equal(t, tt.domain, d.domain, tt.line)
		assert.Equal(t, tt.name, d.name, tt.line)
	}

	errs := []struct {
		line string
		kind error
	}{
		{"var x 1 bin", ErrSyntax},
		{"var i one bin", ErrSyntax},
		{"var i 1", ErrSyntax},
		{"var i 1 [0,2] label", ErrSyntax},
		{"var i 1 [0,2] name=a name=b", ErrSyntax},
		{"var r 1 bin", ErrDomain},
		{"var b 1 [0,2]", ErrDomain},
		{"var i 1 [0,2.5]", ErrDomain},
		{"var i 1 [0,inf]", ErrDomain},
		{"var i 1 [2,0]", ErrDomain},
		{"var r 1 free [0,1]", ErrDomain},
		{"var r 1 [0;1]", ErrSyntax},
	}
	for _, tt := range errs {
		_, err := parseDirective(tokenize(tt.line), 1)
		assert.True(t, errors.Is(err, tt.kind), "%q: expected %v, got %v", tt.line, tt.kind, err)
	}
}

func TestParseClauses(t *testing.T) {
	d := mustParse(t, "cl soft ~b3 b4 0").(clauseDirective)
	assert.Equal(t, blockCnf, d.family)
	assert.Equal(t, Soft, d.clause.Kind)
	assert.Equal(t, int64(1), d.clause.Weight)
	assert.Equal(t, []Lit{Neg(3), Pos(4)}, d.clause.Lits)
	assert.Equal(t, "~b3", d.clause.Lits[0].String())

	d = mustParse(t, "wcl 12 hard b1 0").(clauseDirective)
	assert.Equal(t, blockWcnf, d.family)
	assert.Equal(t, Hard, d.clause.Kind)
	assert.Equal(t, int64(12), d.clause.Weight)

	d = mustParse(t, "wcl 0 soft 0").(clauseDirective)
	assert.Empty(t, d.clause.Lits)

	for _, line := range []string{
		"cl b1 0",
		"cl hard b1 0 b2",
		"cl hard b1 0 0",
		"wcl -1 soft b1 0",
		"wcl 1.5 soft b1 0",
		"wcl soft b1 0",
		"cl hard ~~b1 0",
		"cl hard b 0",
	} {
		_, err := parseDirective(tokenize(line), 1)
		assert.True(t, errors.Is(err, ErrSyntax), "%q: got %v", line, err)
	}
}

func TestParseLinear(t *testing.T) {
	d := mustParse(t, "lc CAP_1 >= -2.5 : 3 i1 -1 r2 0.5 b1").(linDirective)
	c := d.constr
	assert.Equal(t, "CAP_1", c.ID)
	assert.Equal(t, GtEq, c.Relation)
	assert.Equal(t, -2.5, c.RHS)
	assert.Equal(t, Expr{{3, I(1)}, {-1, R(2)}, {0.5, B(1)}}, c.Terms)

	d = mustParse(t, "lc EMPTY <= 0 :").(linDirective)
	assert.Empty(t, d.constr.Terms)

	for _, line := range []string{
		"lc C <= 4: 1 r1",
		"lc C <= 4 1 r1",
		"lc C < 4 : 1 r1",
		"lc C-1 <= 4 : 1 r1",
		"lc C <= four : 1 r1",
		"lc C <= 4 : 1",
		"lc C <= 4 : x r1",
		"lc C <= 4 : 1 q1",
		"lc C <= inf : 1 r1",
	} {
		_, err := parseDirective(tokenize(line), 1)
		assert.True(t, errors.Is(err, ErrSyntax), "%q: got %v", line, err)
	}
}

func TestRowsNormalization(t *testing.T) {
	le := mustParse(t, "lc C <= 4 : 1 r1").(linDirective).constr
	ge := mustParse(t, "lc C >= -4 : -1 r1").(linDirective).constr
	assert.Equal(t, le.Rows(), ge.Rows())

	eq := mustParse(t, "lc E = 3 : 2 i1 -1 r1").(linDirective).constr
	rows := eq.Rows()
	require.Len(t, rows, 2)
	assert.Equal(t, Row{ID: "E", Part: 0, RHS: 3, Terms: Expr{{2, I(1)}, {-1, R(1)}}}, rows[0])
	assert.Equal(t, Row{ID: "E", Part: 1, RHS: -3, Terms: Expr{{-2, I(1)}, {1, R(1)}}}, rows[1])
}

func TestParseIndicatorObjectiveQuery(t *testing.T) {
	ind := mustParse(t, "ind ~b4 => LIM").(indDirective).ind
	assert.Equal(t, Neg(4), ind.Lit)
	assert.Equal(t, "LIM", ind.CID)

	obj := mustParse(t, "obj max : lin 2 b1 -1.5 r1").(objDirective).obj
	assert.Equal(t, Maximize, obj.Sense)
	assert.Equal(t, "2 b1 -1.5 r1", obj.Terms.String())

	q := mustParse(t, "query count proj b1 b3").(queryDirective).query
	assert.Equal(t, CountProj, q.Kind)
	assert.Equal(t, "query count proj b1 b3", q.String())
	assert.Equal(t, SolveFeas, mustParse(t, "solve feas").(queryDirective).query.Kind)
	assert.Equal(t, ExplainMUS, mustParse(t, "query explain mus").(queryDirective).query.Kind)

	opt := mustParse(t, "opt strategy two words").(optDirective)
	assert.Equal(t, "strategy", opt.key)
	assert.Equal(t, "two words", opt.value.Raw)

	for _, line := range []string{
		"ind b1 -> C",
		"ind b1 => C D",
		"obj min lin 1 b1",
		"obj best : lin 1 b1",
		"solve",
		"solve all",
		"query count b1",
		"opt key",
		"begin",
		"end now",
	} {
		_, err := parseDirective(tokenize(line), 1)
		assert.True(t, errors.Is(err, ErrSyntax), "%q: got %v", line, err)
	}
}

func TestBlockTracker(t *testing.T) {
	var bt blockTracker
	require.NoError(t, bt.admit(mustParse(t, "var b 1 bin")))
	require.NoError(t, bt.admit(mustParse(t, "opt a 1")))
	require.Error(t, bt.admit(mustParse(t, "cl hard b1 0")))

	require.NoError(t, bt.begin(mustParse(t, "begin wcnf").(beginDirective)))
	assert.NoError(t, bt.admit(mustParse(t, "wcl 2 soft b1 0")))
	assert.NoError(t, bt.admit(mustParse(t, "var i 1 bin")))
	err := bt.admit(mustParse(t, "cl hard b1 0"))
	assert.True(t, errors.Is(err, ErrMisplacedDirective))
	assert.Contains(t, err.Error(), "cl must appear in a cnf block, found in wcnf")
	assert.True(t, errors.Is(bt.admit(mustParse(t, "opt a 1")), ErrMisplacedDirective))
	assert.True(t, errors.Is(bt.close(), ErrUnterminatedBlock))
	require.NoError(t, bt.end(endDirective{at: 9}))
	assert.NoError(t, bt.close())
	assert.True(t, errors.Is(bt.end(endDirective{at: 10}), ErrUnmatchedEnd))

	require.NoError(t, bt.begin(mustParse(t, "begin future").(beginDirective)))
	assert.True(t, bt.skipping())
	assert.True(t, errors.Is(bt.begin(mustParse(t, "begin cnf").(beginDirective)), ErrNestedBlock))
}

func TestFormatError(t *testing.T) {
	err := formatErrorf(12, ErrDomain, "inverted bounds %s", "[3,1]")
	assert.Equal(t, "line 12: invalid domain: inverted bounds [3,1]", err.Error())
	assert.ErrorIs(t, err, ErrDomain)
	assert.Equal(t, "syntax error: empty", formatErrorf(0, ErrSyntax, "empty").Error())
	assert.Equal(t, "line 3: check", Warning{Line: 3, Msg: "check"}.String())
}

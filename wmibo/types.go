package wmibo

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Kind is the kind of a variable: boolean, integer or real.
// Each kind has its own 1-based index namespace.
type Kind byte

const (
	// Bool variables take values in {0, 1}.
	Bool = Kind(iota)
	// Int variables take integral values within their bounds.
	Int
	// Real variables take any value within their bounds.
	Real
)

func (k Kind) String() string {
	switch k {
	case Bool:
		return "b"
	case Int:
		return "i"
	case Real:
		return "r"
	default:
		panic("invalid variable kind")
	}
}

// MarshalYAML renders k as its one-letter prefix.
func (k Kind) MarshalYAML() (interface{}, error) { return k.String(), nil }

func kindOf(b byte) (Kind, bool) {
	switch b {
	case 'b':
		return Bool, true
	case 'i':
		return Int, true
	case 'r':
		return Real, true
	default:
		return 0, false
	}
}

// A VarRef designates a variable by kind and 1-based index, e.g. i3.
type VarRef struct {
	Kind  Kind
	Index int
}

// B, I and R build references to boolean, integer and real variables.
func B(idx int) VarRef { return VarRef{Kind: Bool, Index: idx} }
func I(idx int) VarRef { return VarRef{Kind: Int, Index: idx} }
func R(idx int) VarRef { return VarRef{Kind: Real, Index: idx} }

func (v VarRef) String() string {
	return v.Kind.String() + strconv.Itoa(v.Index)
}

// MarshalYAML renders v as in the input format.
func (v VarRef) MarshalYAML() (interface{}, error) { return v.String(), nil }

// ParseVarRef parses a variable token such as "b1", "i12" or "r3".
func ParseVarRef(tok string) (VarRef, error) {
	if len(tok) < 2 {
		return VarRef{}, fmt.Errorf("invalid variable %q", tok)
	}
	kind, ok := kindOf(tok[0])
	if !ok {
		return VarRef{}, fmt.Errorf("invalid variable %q: expected b, i or r prefix", tok)
	}
	for i := 1; i < len(tok); i++ {
		if tok[i] < '0' || tok[i] > '9' {
			return VarRef{}, fmt.Errorf("invalid variable %q", tok)
		}
	}
	idx, err := strconv.Atoi(tok[1:])
	if err != nil {
		return VarRef{}, fmt.Errorf("invalid variable %q: %v", tok, err)
	}
	return VarRef{Kind: kind, Index: idx}, nil
}

// A Domain is the set of values a variable may take.
// Bounds are inclusive. Free reals have infinite bounds.
type Domain struct {
	Lower  float64 `yaml:"lower"`
	Upper  float64 `yaml:"upper"`
	Free   bool    `yaml:"free,omitempty"`
	Binary bool    `yaml:"binary,omitempty"`
}

// BoolDomain is the fixed domain of boolean variables.
var BoolDomain = Domain{Lower: 0, Upper: 1, Binary: true}

// FreeDomain is the domain of an unbounded real variable.
var FreeDomain = Domain{Lower: math.Inf(-1), Upper: math.Inf(1), Free: true}

func (d Domain) String() string {
	switch {
	case d.Free:
		return "free"
	case d.Binary:
		return "bin"
	default:
		return fmt.Sprintf("[%s,%s]", formatNumber(d.Lower), formatNumber(d.Upper))
	}
}

// Contains is true iff val lies within d, up to tol.
func (d Domain) Contains(val, tol float64) bool {
	return val >= d.Lower-tol && val <= d.Upper+tol
}

// A Variable is a declared variable.
type Variable struct {
	Ref    VarRef `yaml:"ref"`
	Domain Domain `yaml:"domain"`
	Name   string `yaml:"name,omitempty"`
	Line   int    `yaml:"line"`
}

// A Lit is a possibly negated boolean variable.
// Var is the index of the variable in the boolean namespace.
type Lit struct {
	Var     int
	Negated bool
	kind    Kind // as written; anything but Bool is rejected by validation
}

// Pos and Neg return the positive and negative literals of boolean variable idx.
func Pos(idx int) Lit { return Lit{Var: idx} }
func Neg(idx int) Lit { return Lit{Var: idx, Negated: true} }

func (l Lit) String() string {
	if l.Negated {
		return "~" + l.Ref().String()
	}
	return l.Ref().String()
}

// Ref returns the variable of l.
func (l Lit) Ref() VarRef { return VarRef{Kind: l.kind, Index: l.Var} }

// MarshalYAML renders l as in the input format.
func (l Lit) MarshalYAML() (interface{}, error) { return l.String(), nil }

// Negation returns the opposite literal.
func (l Lit) Negation() Lit { return Lit{Var: l.Var, Negated: !l.Negated, kind: l.kind} }

// True is true iff l is satisfied when its variable is bound to val.
func (l Lit) True(val bool) bool { return val != l.Negated }

// ClauseKind tells hard clauses from soft ones.
type ClauseKind byte

const (
	// Hard clauses must be satisfied.
	Hard = ClauseKind(iota)
	// Soft clauses may be violated, at the cost of their weight.
	Soft
)

func (k ClauseKind) String() string {
	switch k {
	case Hard:
		return "hard"
	case Soft:
		return "soft"
	default:
		panic("invalid clause kind")
	}
}

// MarshalYAML renders k as in the input format.
func (k ClauseKind) MarshalYAML() (interface{}, error) { return k.String(), nil }

// A Clause is a disjunction of literals. Clauses are anonymous.
// Weight is 1 for clauses declared with cl; it is kept but ignored for hard clauses.
type Clause struct {
	Kind   ClauseKind `yaml:"kind"`
	Weight int64      `yaml:"weight"`
	Lits   []Lit      `yaml:"lits,flow"`
	Line   int        `yaml:"line"`
}

// Satisfied is true iff at least one literal of c is true under a.
// Literals whose variable is unbound in a are false.
func (c Clause) Satisfied(a Assignment) bool {
	for _, lit := range c.Lits {
		if lit.True(a.Bool(lit.Var)) {
			return true
		}
	}
	return false
}

// Relation is the comparison operator of a linear constraint.
type Relation byte

const (
	// LtEq is "<=".
	LtEq = Relation(iota)
	// GtEq is ">=".
	GtEq
	// Eq is "=".
	Eq
)

func (r Relation) String() string {
	switch r {
	case LtEq:
		return "<="
	case GtEq:
		return ">="
	case Eq:
		return "="
	default:
		panic("invalid relation")
	}
}

// MarshalYAML renders r as in the input format.
func (r Relation) MarshalYAML() (interface{}, error) { return r.String(), nil }

func parseRelation(tok string) (Relation, bool) {
	switch tok {
	case "<=":
		return LtEq, true
	case ">=":
		return GtEq, true
	case "=":
		return Eq, true
	default:
		return 0, false
	}
}

// A Term is a coefficient applied to a variable of any kind.
type Term struct {
	Coeff float64 `yaml:"coeff"`
	Var   VarRef  `yaml:"var"`
}

func (t Term) String() string {
	return formatNumber(t.Coeff) + " " + t.Var.String()
}

// Expr is a linear expression, the sum of its terms.
type Expr []Term

// Eval returns the value of e under a.
// ok is false if a variable of e is unbound in a.
func (e Expr) Eval(a Assignment) (val float64, ok bool) {
	for _, t := range e {
		v, bound := a[t.Var]
		if !bound {
			return 0, false
		}
		val += t.Coeff * v
	}
	return val, true
}

func (e Expr) String() string {
	strs := make([]string, len(e))
	for i, t := range e {
		strs[i] = t.String()
	}
	return strings.Join(strs, " ")
}

// An Indicator makes constraint CID active only when Lit is true.
type Indicator struct {
	Lit  Lit    `yaml:"lit"`
	CID  string `yaml:"cid"`
	Line int    `yaml:"line"`
}

// Sense is the optimization direction.
type Sense byte

const (
	// Minimize is "min".
	Minimize = Sense(iota)
	// Maximize is "max".
	Maximize
)

func (s Sense) String() string {
	switch s {
	case Minimize:
		return "min"
	case Maximize:
		return "max"
	default:
		panic("invalid sense")
	}
}

// MarshalYAML renders s as in the input format.
func (s Sense) MarshalYAML() (interface{}, error) { return s.String(), nil }

// The Objective is the single linear objective of an instance.
type Objective struct {
	Sense Sense `yaml:"sense"`
	Terms Expr  `yaml:"terms"`
	Line  int   `yaml:"line"`
}

// QueryKind is the kind of a query directive.
type QueryKind byte

const (
	// SolveFeas asks for any feasible assignment.
	SolveFeas = QueryKind(iota)
	// SolveOpt asks for an optimal assignment.
	SolveOpt
	// CountProj asks for the number of models projected on a set of boolean variables.
	CountProj
	// ExplainMUS asks for a minimal unsatisfiable subset of the hard clauses.
	ExplainMUS
)

func (k QueryKind) String() string {
	switch k {
	case SolveFeas:
		return "solve feas"
	case SolveOpt:
		return "solve opt"
	case CountProj:
		return "query count proj"
	case ExplainMUS:
		return "query explain mus"
	default:
		panic("invalid query kind")
	}
}

// MarshalYAML renders k as in the input format.
func (k QueryKind) MarshalYAML() (interface{}, error) { return k.String(), nil }

// IsSolve is true for solve feas and solve opt.
func (k QueryKind) IsSolve() bool { return k == SolveFeas || k == SolveOpt }

// A Query is a requested operation. Vars is only set for CountProj.
type Query struct {
	Kind QueryKind `yaml:"kind"`
	Vars []VarRef  `yaml:"vars,omitempty,flow"`
	Line int       `yaml:"line,omitempty"`
}

func (q Query) String() string {
	if q.Kind != CountProj {
		return q.Kind.String()
	}
	strs := make([]string, 0, len(q.Vars)+1)
	strs = append(strs, q.Kind.String())
	for _, v := range q.Vars {
		strs = append(strs, v.String())
	}
	return strings.Join(strs, " ")
}

// An OptionValue is the value of an opt line. Number is only meaningful if IsNumber.
type OptionValue struct {
	Raw      string  `yaml:"raw"`
	Number   float64 `yaml:"number,omitempty"`
	IsNumber bool    `yaml:"is_number,omitempty"`
	Line     int     `yaml:"line,omitempty"`
}

func parseOptionValue(raw string, line int) OptionValue {
	val := OptionValue{Raw: raw, Line: line}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		val.Number = f
		val.IsNumber = true
	}
	return val
}

// A Header is the content of the p line. The trailing counters are advisory.
type Header struct {
	Version     int  `yaml:"version"`
	NbBool      int  `yaml:"nb_bool"`
	NbInt       int  `yaml:"nb_int"`
	NbReal      int  `yaml:"nb_real"`
	HasCounters bool `yaml:"has_counters,omitempty"`
	NbClauses   int  `yaml:"nb_clauses,omitempty"`
	NbLinear    int  `yaml:"nb_linear,omitempty"`
	NbIndicator int  `yaml:"nb_indicators,omitempty"`
	Line        int  `yaml:"line"`
}

// Count returns the number of variables of the given kind.
func (h Header) Count(k Kind) int {
	switch k {
	case Bool:
		return h.NbBool
	case Int:
		return h.NbInt
	case Real:
		return h.NbReal
	default:
		panic("invalid variable kind")
	}
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

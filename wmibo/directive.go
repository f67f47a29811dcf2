package wmibo

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// A directive is the parsed content of one logical line.
// The set of directives is closed: every consumer switches over all of them.
type directive interface {
	line() int
}

type (
	headerDirective struct {
		at     int
		header Header
	}
	beginDirective struct {
		at    int
		block blockKind
		name  string
	}
	endDirective struct {
		at int
	}
	varDirective struct {
		at     int
		ref    VarRef
		domain Domain
		name   string
	}
	clauseDirective struct {
		at     int
		family blockKind // cnf for cl, wcnf for wcl
		clause Clause
	}
	linDirective struct {
		at     int
		constr LinearConstraint
	}
	indDirective struct {
		at  int
		ind Indicator
	}
	objDirective struct {
		at  int
		obj Objective
	}
	optDirective struct {
		at    int
		key   string
		value OptionValue
	}
	queryDirective struct {
		at    int
		query Query
	}
	// unknownDirective is only legal inside a block unknown to v1.0.
	unknownDirective struct {
		at    int
		token string
	}
)

func (d headerDirective) line() int  { return d.at }
func (d beginDirective) line() int   { return d.at }
func (d endDirective) line() int     { return d.at }
func (d varDirective) line() int     { return d.at }
func (d clauseDirective) line() int  { return d.at }
func (d linDirective) line() int     { return d.at }
func (d indDirective) line() int     { return d.at }
func (d objDirective) line() int     { return d.at }
func (d optDirective) line() int     { return d.at }
func (d queryDirective) line() int   { return d.at }
func (d unknownDirective) line() int { return d.at }

var (
	litRE = regexp.MustCompile(`^~?[bir][0-9]+$`)
	cidRE = regexp.MustCompile(`^\w+$`)
)

// parseDirective turns the tokens of line #ln into a directive.
// tokens is never empty.
func parseDirective(tokens []string, ln int) (directive, error) {
	switch tokens[0] {
	case "p":
		return parseHeader(tokens, ln)
	case "begin":
		if len(tokens) != 2 {
			return nil, formatErrorf(ln, ErrSyntax, "expected \"begin <block>\", got %d fields", len(tokens))
		}
		return beginDirective{at: ln, block: blockNamed(tokens[1]), name: tokens[1]}, nil
	case "end":
		if len(tokens) != 1 {
			return nil, formatErrorf(ln, ErrSyntax, "unexpected tokens after \"end\"")
		}
		return endDirective{at: ln}, nil
	case "var":
		return parseVar(tokens, ln)
	case "cl":
		return parseCl(tokens, ln)
	case "wcl":
		return parseWcl(tokens, ln)
	case "lc":
		return parseLc(tokens, ln)
	case "ind":
		return parseInd(tokens, ln)
	case "obj":
		return parseObj(tokens, ln)
	case "opt":
		if len(tokens) < 3 {
			return nil, formatErrorf(ln, ErrSyntax, "expected \"opt <key> <value>\"")
		}
		raw := strings.Join(tokens[2:], " ")
		return optDirective{at: ln, key: tokens[1], value: parseOptionValue(raw, ln)}, nil
	case "solve", "query":
		return parseQuery(tokens, ln)
	default:
		return unknownDirective{at: ln, token: tokens[0]}, nil
	}
}

func parseHeader(tokens []string, ln int) (directive, error) {
	if len(tokens) != 6 && len(tokens) != 9 {
		return nil, formatErrorf(ln, ErrSyntax, "expected \"p wmibo <ver> <B> <I> <R> [<NC> <NL> <NIND>]\", got %d fields", len(tokens))
	}
	if tokens[1] != "wmibo" {
		return nil, formatErrorf(ln, ErrSyntax, "invalid format %q in header, expected \"wmibo\"", tokens[1])
	}
	vals := make([]int, len(tokens)-2)
	for i, tok := range tokens[2:] {
		val, err := strconv.Atoi(tok)
		if err != nil {
			return nil, formatErrorf(ln, ErrSyntax, "header field %q is not an integer", tok)
		}
		if i > 0 && val < 0 {
			return nil, formatErrorf(ln, ErrSyntax, "negative count %d in header", val)
		}
		vals[i] = val
	}
	if vals[0] != 1 {
		return nil, formatErrorf(ln, ErrVersion, "got version %d, only version 1 is supported", vals[0])
	}
	h := Header{Version: vals[0], NbBool: vals[1], NbInt: vals[2], NbReal: vals[3], Line: ln}
	if len(vals) == 7 {
		h.HasCounters = true
		h.NbClauses, h.NbLinear, h.NbIndicator = vals[4], vals[5], vals[6]
	}
	return headerDirective{at: ln, header: h}, nil
}

// parseNumber parses a finite real number.
func parseNumber(tok string, ln int, what string) (float64, error) {
	f, err := strconv.ParseFloat(tok, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, formatErrorf(ln, ErrSyntax, "%s %q is not a finite number", what, tok)
	}
	return f, nil
}

// parseLit parses a literal token. The kind is not checked: a literal on a
// non-boolean variable is reported by the validator.
func parseLit(tok string, ln int) (Lit, error) {
	if !litRE.MatchString(tok) {
		return Lit{}, formatErrorf(ln, ErrSyntax, "invalid literal %q", tok)
	}
	var neg bool
	if tok[0] == '~' {
		neg = true
		tok = tok[1:]
	}
	ref, err := ParseVarRef(tok)
	if err != nil {
		return Lit{}, formatErrorf(ln, ErrSyntax, "%v", err)
	}
	return Lit{Var: ref.Index, Negated: neg, kind: ref.Kind}, nil
}

func parseVarToken(tok string, ln int) (VarRef, error) {
	ref, err := ParseVarRef(tok)
	if err != nil {
		return VarRef{}, formatErrorf(ln, ErrSyntax, "%v", err)
	}
	return ref, nil
}

// parseVar parses "var b|i|r <k> <domain> [name=<ID>]".
func parseVar(tokens []string, ln int) (directive, error) {
	if len(tokens) < 4 {
		return nil, formatErrorf(ln, ErrSyntax, "expected \"var b|i|r <k> <domain> [name=<ID>]\"")
	}
	if len(tokens[1]) != 1 {
		return nil, formatErrorf(ln, ErrSyntax, "invalid variable kind %q", tokens[1])
	}
	kind, ok := kindOf(tokens[1][0])
	if !ok {
		return nil, formatErrorf(ln, ErrSyntax, "invalid variable kind %q", tokens[1])
	}
	idx, err := strconv.Atoi(tokens[2])
	if err != nil {
		return nil, formatErrorf(ln, ErrSyntax, "variable index %q is not an integer", tokens[2])
	}
	ref := VarRef{Kind: kind, Index: idx}
	domain, err := parseDomain(kind, tokens[3], ln)
	if err != nil {
		return nil, err
	}
	d := varDirective{at: ln, ref: ref, domain: domain}
	for _, tok := range tokens[4:] {
		switch {
		case strings.HasPrefix(tok, "name="):
			if d.name != "" {
				return nil, formatErrorf(ln, ErrSyntax, "name given twice for %s", ref)
			}
			d.name = strings.TrimPrefix(tok, "name=")
			if !cidRE.MatchString(d.name) {
				return nil, formatErrorf(ln, ErrSyntax, "invalid variable name %q", d.name)
			}
		case strings.HasPrefix(tok, "[") || tok == "bin" || tok == "free":
			if domain.Binary && kind != Bool {
				return nil, formatErrorf(ln, ErrDomain, "bin cannot be combined with %q for %s", tok, ref)
			}
			return nil, formatErrorf(ln, ErrDomain, "more than one domain given for %s", ref)
		default:
			return nil, formatErrorf(ln, ErrSyntax, "unexpected token %q in declaration of %s", tok, ref)
		}
	}
	return d, nil
}

// parseDomain parses "bin", "free" or "[L,U]" for a variable of the given kind.
func parseDomain(kind Kind, tok string, ln int) (Domain, error) {
	switch tok {
	case "bin":
		if kind == Real {
			return Domain{}, formatErrorf(ln, ErrDomain, "bin is not a valid domain for a real variable")
		}
		return BoolDomain, nil
	case "free":
		if kind != Real {
			return Domain{}, formatErrorf(ln, ErrDomain, "only real variables can be free")
		}
		return FreeDomain, nil
	}
	if len(tok) < 5 || tok[0] != '[' || tok[len(tok)-1] != ']' {
		return Domain{}, formatErrorf(ln, ErrSyntax, "invalid domain %q, expected bin, free or [L,U]", tok)
	}
	bounds := strings.Split(tok[1:len(tok)-1], ",")
	if len(bounds) != 2 {
		return Domain{}, formatErrorf(ln, ErrSyntax, "invalid bounds %q", tok)
	}
	lo, err := strconv.ParseFloat(strings.TrimSpace(bounds[0]), 64)
	if err != nil || math.IsNaN(lo) {
		return Domain{}, formatErrorf(ln, ErrSyntax, "invalid lower bound in %q", tok)
	}
	hi, err := strconv.ParseFloat(strings.TrimSpace(bounds[1]), 64)
	if err != nil || math.IsNaN(hi) {
		return Domain{}, formatErrorf(ln, ErrSyntax, "invalid upper bound in %q", tok)
	}
	if lo > hi {
		return Domain{}, formatErrorf(ln, ErrDomain, "inverted bounds %s", tok)
	}
	switch kind {
	case Bool:
		if lo != 0 || hi != 1 {
			return Domain{}, formatErrorf(ln, ErrDomain, "boolean variables have domain [0,1], got %s", tok)
		}
		return BoolDomain, nil
	case Int:
		if math.IsInf(lo, 0) || math.IsInf(hi, 0) || lo != math.Trunc(lo) || hi != math.Trunc(hi) {
			return Domain{}, formatErrorf(ln, ErrDomain, "integer bounds must be finite integers, got %s", tok)
		}
	}
	return Domain{Lower: lo, Upper: hi}, nil
}

// parseLits parses the literals of a clause, which must end with the sentinel 0.
func parseLits(tokens []string, ln int) ([]Lit, error) {
	if len(tokens) == 0 || tokens[len(tokens)-1] != "0" {
		for _, tok := range tokens {
			if tok == "0" {
				return nil, formatErrorf(ln, ErrSyntax, "unexpected tokens after clause terminator 0")
			}
		}
		return nil, formatErrorf(ln, ErrSyntax, "clause does not end with 0")
	}
	tokens = tokens[:len(tokens)-1]
	lits := make([]Lit, len(tokens))
	for i, tok := range tokens {
		if tok == "0" {
			return nil, formatErrorf(ln, ErrSyntax, "unexpected tokens after clause terminator 0")
		}
		lit, err := parseLit(tok, ln)
		if err != nil {
			return nil, err
		}
		lits[i] = lit
	}
	return lits, nil
}

func parseClauseKind(tok string, ln int) (ClauseKind, error) {
	switch tok {
	case "hard":
		return Hard, nil
	case "soft":
		return Soft, nil
	default:
		return 0, formatErrorf(ln, ErrSyntax, "expected hard or soft, got %q", tok)
	}
}

// parseCl parses "cl hard|soft <lit>... 0".
func parseCl(tokens []string, ln int) (directive, error) {
	if len(tokens) < 3 {
		return nil, formatErrorf(ln, ErrSyntax, "expected \"cl hard|soft <lit>... 0\"")
	}
	kind, err := parseClauseKind(tokens[1], ln)
	if err != nil {
		return nil, err
	}
	lits, err := parseLits(tokens[2:], ln)
	if err != nil {
		return nil, err
	}
	return clauseDirective{
		at:     ln,
		family: blockCnf,
		clause: Clause{Kind: kind, Weight: 1, Lits: lits, Line: ln},
	}, nil
}

// parseWcl parses "wcl <w> soft|hard <lit>... 0".
func parseWcl(tokens []string, ln int) (directive, error) {
	if len(tokens) < 4 {
		return nil, formatErrorf(ln, ErrSyntax, "expected \"wcl <w> soft|hard <lit>... 0\"")
	}
	w, err := strconv.ParseInt(tokens[1], 10, 64)
	if err != nil || w < 0 {
		return nil, formatErrorf(ln, ErrSyntax, "weight %q is not a non-negative integer", tokens[1])
	}
	kind, err := parseClauseKind(tokens[2], ln)
	if err != nil {
		return nil, err
	}
	lits, err := parseLits(tokens[3:], ln)
	if err != nil {
		return nil, err
	}
	return clauseDirective{
		at:     ln,
		family: blockWcnf,
		clause: Clause{Kind: kind, Weight: w, Lits: lits, Line: ln},
	}, nil
}

// parseTerms parses "<coef> <var> ..." pairs.
func parseTerms(tokens []string, ln int) (Expr, error) {
	if len(tokens)%2 != 0 {
		return nil, formatErrorf(ln, ErrSyntax, "odd number of tokens in linear expression")
	}
	terms := make(Expr, 0, len(tokens)/2)
	for i := 0; i < len(tokens); i += 2 {
		coeff, err := parseNumber(tokens[i], ln, "coefficient")
		if err != nil {
			return nil, err
		}
		ref, err := parseVarToken(tokens[i+1], ln)
		if err != nil {
			return nil, err
		}
		terms = append(terms, Term{Coeff: coeff, Var: ref})
	}
	return terms, nil
}

// parseLc parses "lc <CID> <=|>=|= <rhs> : <coef> <var> ...".
func parseLc(tokens []string, ln int) (directive, error) {
	if len(tokens) < 5 || tokens[4] != ":" {
		return nil, formatErrorf(ln, ErrSyntax, "expected \"lc <CID> <=|>=|= <rhs> : <coef> <var> ...\"")
	}
	if !cidRE.MatchString(tokens[1]) {
		return nil, formatErrorf(ln, ErrSyntax, "invalid constraint id %q", tokens[1])
	}
	rel, ok := parseRelation(tokens[2])
	if !ok {
		return nil, formatErrorf(ln, ErrSyntax, "invalid relation %q, expected <=, >= or =", tokens[2])
	}
	rhs, err := parseNumber(tokens[3], ln, "right-hand side")
	if err != nil {
		return nil, err
	}
	terms, err := parseTerms(tokens[5:], ln)
	if err != nil {
		return nil, err
	}
	return linDirective{at: ln, constr: LinearConstraint{ID: tokens[1], Relation: rel, RHS: rhs, Terms: terms, Line: ln}}, nil
}

// parseInd parses "ind <lit> => <CID>".
func parseInd(tokens []string, ln int) (directive, error) {
	if len(tokens) != 4 || tokens[2] != "=>" {
		return nil, formatErrorf(ln, ErrSyntax, "expected \"ind <lit> => <CID>\"")
	}
	lit, err := parseLit(tokens[1], ln)
	if err != nil {
		return nil, err
	}
	if !cidRE.MatchString(tokens[3]) {
		return nil, formatErrorf(ln, ErrSyntax, "invalid constraint id %q", tokens[3])
	}
	return indDirective{at: ln, ind: Indicator{Lit: lit, CID: tokens[3], Line: ln}}, nil
}

// parseObj parses "obj min|max : lin <coef> <var> ...".
func parseObj(tokens []string, ln int) (directive, error) {
	if len(tokens) < 4 || tokens[2] != ":" || tokens[3] != "lin" {
		return nil, formatErrorf(ln, ErrSyntax, "expected \"obj min|max : lin <coef> <var> ...\"")
	}
	var sense Sense
	switch tokens[1] {
	case "min":
		sense = Minimize
	case "max":
		sense = Maximize
	default:
		return nil, formatErrorf(ln, ErrSyntax, "invalid objective sense %q, expected min or max", tokens[1])
	}
	terms, err := parseTerms(tokens[4:], ln)
	if err != nil {
		return nil, err
	}
	return objDirective{at: ln, obj: Objective{Sense: sense, Terms: terms, Line: ln}}, nil
}

// parseQuery parses "solve feas|opt", "query count proj <vars>" and "query explain mus".
func parseQuery(tokens []string, ln int) (directive, error) {
	q := Query{Line: ln}
	switch {
	case tokens[0] == "solve" && len(tokens) == 2 && tokens[1] == "feas":
		q.Kind = SolveFeas
	case tokens[0] == "solve" && len(tokens) == 2 && tokens[1] == "opt":
		q.Kind = SolveOpt
	case tokens[0] == "query" && len(tokens) >= 3 && tokens[1] == "count" && tokens[2] == "proj":
		q.Kind = CountProj
		q.Vars = make([]VarRef, len(tokens)-3)
		for i, tok := range tokens[3:] {
			ref, err := parseVarToken(tok, ln)
			if err != nil {
				return nil, err
			}
			q.Vars[i] = ref
		}
	case tokens[0] == "query" && len(tokens) == 3 && tokens[1] == "explain" && tokens[2] == "mus":
		q.Kind = ExplainMUS
	default:
		return nil, formatErrorf(ln, ErrSyntax, "unsupported query %q", strings.Join(tokens, " "))
	}
	return queryDirective{at: ln, query: q}, nil
}

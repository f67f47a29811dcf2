package backend

import (
	"fmt"
	"math"
	"sort"

	"github.com/crillab/wmibo/wmibo"
)

// maxCoeff bounds the coefficients handed to the pseudo-boolean solvers,
// so that sums of coefficients never overflow.
const maxCoeff = 1 << 30

// A pbRow is the constraint sum(Coeffs[i] * b_Vars[i]) >= AtLeast over positive boolean variables.
type pbRow struct {
	id      string
	vars    []int
	coeffs  []int
	atLeast int
}

// A cost is a weighted soft clause. Objective terms become unit costs.
type cost struct {
	lits   []int // DIMACS-like: k for b_k, -k for ~b_k
	weight int
}

// An encoding is the pure boolean form of an instance.
type encoding struct {
	nbVars    int
	hard      [][]int // hard clauses, DIMACS-like
	hardLines []int   // line of each hard clause
	rows      []pbRow // linear constraints, indicators included
	costs     []cost  // minimized
	used      []bool  // used[k] is true iff b_k appears in hard or rows
}

// clauseOnly is true iff the hard part of e is a plain CNF formula.
func (e *encoding) clauseOnly() bool { return len(e.rows) == 0 }

func dimacs(lit wmibo.Lit) int {
	if lit.Negated {
		return -lit.Var
	}
	return lit.Var
}

// integral returns f as an int if it is an integer small enough for the solvers.
func integral(f float64) (int, bool) {
	if f != math.Trunc(f) || math.Abs(f) > maxCoeff {
		return 0, false
	}
	return int(f), true
}

// encode translates inst into its boolean form.
// Linear constraints and objective must only involve booleans with integral coefficients,
// otherwise ErrUnsupported is returned.
func encode(inst *wmibo.Instance) (*encoding, error) {
	e := &encoding{nbVars: inst.Header.NbBool, used: make([]bool, inst.Header.NbBool+1)}
	for _, c := range inst.Clauses {
		lits := make([]int, len(c.Lits))
		for i, lit := range c.Lits {
			lits[i] = dimacs(lit)
		}
		switch {
		case c.Kind == wmibo.Hard:
			e.hard = append(e.hard, lits)
			e.hardLines = append(e.hardLines, c.Line)
			for _, lit := range c.Lits {
				e.used[lit.Var] = true
			}
		case c.Weight > 0 && len(lits) > 0:
			if c.Weight > maxCoeff {
				return nil, fmt.Errorf("%w: weight %d of soft clause at line %d is too large", ErrUnsupported, c.Weight, c.Line)
			}
			e.costs = append(e.costs, cost{lits: lits, weight: int(c.Weight)})
		}
	}
	for _, c := range inst.Constraints {
		ind, gated := inst.IndicatorOf(c.ID)
		for _, row := range c.Rows() {
			r, err := encodeRow(row, ind, gated)
			if err != nil {
				return nil, fmt.Errorf("constraint %s at line %d: %w", c.ID, c.Line, err)
			}
			if r == nil {
				continue
			}
			for _, v := range r.vars {
				e.used[v] = true
			}
			e.rows = append(e.rows, *r)
		}
	}
	if inst.Objective != nil {
		for _, t := range inst.Objective.Terms {
			if t.Var.Kind != wmibo.Bool {
				return nil, fmt.Errorf("%w: objective term on %s at line %d", ErrUnsupported, t.Var, inst.Objective.Line)
			}
			coeff, ok := integral(t.Coeff)
			if !ok {
				return nil, fmt.Errorf("%w: objective coefficient %g at line %d", ErrUnsupported, t.Coeff, inst.Objective.Line)
			}
			if inst.Objective.Sense == wmibo.Maximize {
				coeff = -coeff
			}
			// c*b costs c when b is true; for c < 0, it is c plus -c when b is false.
			switch {
			case coeff > 0:
				e.costs = append(e.costs, cost{lits: []int{-t.Var.Index}, weight: coeff})
			case coeff < 0:
				e.costs = append(e.costs, cost{lits: []int{t.Var.Index}, weight: -coeff})
			}
		}
	}
	return e, nil
}

// encodeRow turns sum(terms) <= rhs, possibly gated by ind, into a pbRow.
// It returns nil if the row can never be violated.
func encodeRow(row wmibo.Row, ind wmibo.Indicator, gated bool) (*pbRow, error) {
	// -sum(terms) >= -floor(rhs), as the left-hand side only takes integral values.
	coeffs := make(map[int]int)
	for _, t := range row.Terms {
		if t.Var.Kind != wmibo.Bool {
			return nil, fmt.Errorf("%w: term on non-boolean variable %s", ErrUnsupported, t.Var)
		}
		c, ok := integral(t.Coeff)
		if !ok {
			return nil, fmt.Errorf("%w: coefficient %g is not an integer", ErrUnsupported, t.Coeff)
		}
		coeffs[t.Var.Index] -= c
	}
	if math.Abs(row.RHS) > maxCoeff {
		return nil, fmt.Errorf("%w: right-hand side %g is too large", ErrUnsupported, row.RHS)
	}
	atLeast := -int(math.Floor(row.RHS))
	if gated {
		// The row is relaxed by M when the indicator literal is false,
		// M being large enough to satisfy it whatever the other variables.
		var maxNeg int
		for _, c := range coeffs {
			if c < 0 {
				maxNeg -= c
			}
		}
		m := atLeast + maxNeg
		if m <= 0 {
			return nil, nil
		}
		v := ind.Lit.Var
		if ind.Lit.Negated {
			coeffs[v] += m
		} else {
			// m * (1 - b_v)
			coeffs[v] -= m
			atLeast -= m
		}
	}
	r := &pbRow{id: row.ID, atLeast: atLeast}
	var minSum int
	for v := range coeffs {
		if coeffs[v] == 0 {
			continue
		}
		r.vars = append(r.vars, v)
		if coeffs[v] < 0 {
			minSum += coeffs[v]
		}
	}
	if minSum >= atLeast {
		return nil, nil
	}
	sort.Ints(r.vars)
	r.coeffs = make([]int, len(r.vars))
	for i, v := range r.vars {
		r.coeffs[i] = coeffs[v]
	}
	return r, nil
}

// freeValue returns the value of d closest to 0.
func freeValue(d wmibo.Domain) float64 {
	switch {
	case d.Lower > 0:
		return d.Lower
	case d.Upper < 0:
		return d.Upper
	default:
		return 0
	}
}

// complete builds the assignment of inst from a boolean model.
// Int and real variables, which are unconstrained once encoding succeeded, get
// the value of their domain closest to 0.
func complete(inst *wmibo.Instance, model func(k int) bool) wmibo.Assignment {
	a := make(wmibo.Assignment)
	for k := 1; k <= inst.Header.NbBool; k++ {
		a.SetBool(k, model(k))
	}
	for _, kind := range []wmibo.Kind{wmibo.Int, wmibo.Real} {
		for k := 1; k <= inst.Header.Count(kind); k++ {
			ref := wmibo.VarRef{Kind: kind, Index: k}
			var val float64
			if v, ok := inst.Var(ref); ok {
				val = freeValue(v.Domain)
			}
			a[ref] = val
		}
	}
	return a
}

// Package check verifies that a solution reported by a solver is consistent
// with a WMIBO instance.
package check

import (
	"fmt"
	"io"
	"math"

	"github.com/crillab/wmibo/wmibo"
)

// Default tolerances, used when the instance does not set feas_tol or int_tol.
const (
	DefaultFeasTol = 1e-8
	DefaultIntTol  = 1e-6
	// ObjectiveTol is the maximum difference accepted between the reported objective and the computed one.
	ObjectiveTol = 1e-6
	boolTol      = 1e-9
)

// Names of the conventions a reported objective can follow.
const (
	// TotalMin is lin + penalty, i.e. the value minimized for a min objective.
	TotalMin = "total_min"
	// TotalInternal is what a minimizing solver sees: -lin + penalty for a max objective.
	TotalInternal = "total_internal"
	// TotalMaxOriginal is lin - penalty, the value maximized for a max objective.
	TotalMaxOriginal = "total_max_original"
)

// A Report is the outcome of Verify.
type Report struct {
	Status         wmibo.Status
	Failures       []string
	Warnings       []string
	Penalty        float64 // Sum of the weights of violated soft clauses
	SoftViolations int
	// LinearObjective is NaN if a variable of the objective has no value.
	LinearObjective  float64
	TotalMin         float64
	TotalInternal    float64
	TotalMaxOriginal float64

	HasReported    bool // Whether the solution had an "o" line
	Reported       float64
	BestMatch      string // Convention closest to the reported value
	BestMatchValue float64
	BestAbsError   float64
}

// OK is true iff no failure was found. Warnings do not count.
func (r *Report) OK() bool { return len(r.Failures) == 0 }

func (r *Report) failf(format string, args ...any) {
	r.Failures = append(r.Failures, fmt.Sprintf(format, args...))
}

func (r *Report) warnf(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// Verify checks sol against inst: domains of all variables, hard clauses,
// active linear constraints, and the reported objective value if any.
func Verify(inst *wmibo.Instance, sol wmibo.Solution) *Report {
	r := &Report{Status: sol.Status}
	feasTol := inst.OptionNumber("feas_tol", DefaultFeasTol)
	intTol := inst.OptionNumber("int_tol", DefaultIntTol)
	a := sol.Assignment
	checkDomains(r, inst, a, feasTol, intTol)
	checkClauses(r, inst, a)
	checkConstraints(r, inst, a, feasTol)
	checkObjective(r, inst, sol)
	return r
}

func checkDomains(r *Report, inst *wmibo.Instance, a wmibo.Assignment, feasTol, intTol float64) {
	h := inst.Header
	for k := 1; k <= h.NbBool; k++ {
		val, ok := a[wmibo.B(k)]
		switch {
		case !ok:
			r.failf("missing assignment: b%d", k)
		case math.Abs(val) > boolTol && math.Abs(val-1) > boolTol:
			r.failf("b%d is not boolean: %g", k, val)
		}
	}
	for k := 1; k <= h.NbInt; k++ {
		ref := wmibo.I(k)
		val, ok := a[ref]
		if !ok {
			r.failf("missing assignment: %s", ref)
			continue
		}
		if math.Abs(val-math.Round(val)) > intTol {
			r.failf("%s is not integral within int_tol=%g: %g", ref, intTol, val)
		}
		if !inst.Declared(ref) {
			r.warnf("%s is never declared, bounds not checked", ref)
			continue
		}
		v, _ := inst.Var(ref)
		if !v.Domain.Contains(val, intTol) {
			r.failf("%s out of bounds %s: %g", ref, v.Domain, val)
		}
	}
	for k := 1; k <= h.NbReal; k++ {
		ref := wmibo.R(k)
		val, ok := a[ref]
		if !ok {
			r.failf("missing assignment: %s", ref)
			continue
		}
		if !inst.Declared(ref) {
			r.warnf("%s is never declared, bounds not checked", ref)
			continue
		}
		v, _ := inst.Var(ref)
		if !v.Domain.Contains(val, feasTol) {
			r.failf("%s out of bounds %s (feas_tol=%g): %g", ref, v.Domain, feasTol, val)
		}
	}
}

// bound is true iff every variable of c has a value in a.
func bound(c wmibo.Clause, a wmibo.Assignment) bool {
	for _, lit := range c.Lits {
		if _, ok := a[wmibo.B(lit.Var)]; !ok {
			return false
		}
	}
	return true
}

func checkClauses(r *Report, inst *wmibo.Instance, a wmibo.Assignment) {
	for _, c := range inst.Clauses {
		if !bound(c, a) {
			r.failf("%s clause at line %d: missing boolean value", c.Kind, c.Line)
			continue
		}
		if c.Satisfied(a) {
			continue
		}
		if c.Kind == wmibo.Hard {
			r.failf("hard clause at line %d violated", c.Line)
			continue
		}
		r.Penalty += float64(c.Weight)
		r.SoftViolations++
	}
}

func checkConstraints(r *Report, inst *wmibo.Instance, a wmibo.Assignment, feasTol float64) {
	for _, c := range inst.Constraints {
		if ind, ok := inst.IndicatorOf(c.ID); ok {
			if _, bound := a[wmibo.B(ind.Lit.Var)]; !bound {
				r.failf("missing indicator variable b%d for constraint %s", ind.Lit.Var, c.ID)
				continue
			}
		}
		if !inst.Active(c.ID, a) {
			continue
		}
		lhs, ok := c.Terms.Eval(a)
		if !ok {
			r.failf("linear constraint %s: missing variable value", c.ID)
			continue
		}
		var violated bool
		switch c.Relation {
		case wmibo.LtEq:
			violated = lhs > c.RHS+feasTol
		case wmibo.GtEq:
			violated = lhs < c.RHS-feasTol
		case wmibo.Eq:
			violated = math.Abs(lhs-c.RHS) > feasTol
		}
		if violated {
			r.failf("linear %s violated: lhs=%.12g %s rhs=%.12g (feas_tol=%g)", c.ID, lhs, c.Relation, c.RHS, feasTol)
		}
	}
}

func checkObjective(r *Report, inst *wmibo.Instance, sol wmibo.Solution) {
	r.LinearObjective = inst.LinearObjective(sol.Assignment)
	if math.IsNaN(r.LinearObjective) {
		r.failf("objective: missing variable value in linear objective")
	}
	r.TotalMin = r.LinearObjective + r.Penalty
	r.TotalInternal = r.TotalMin
	if inst.Objective != nil && inst.Objective.Sense == wmibo.Maximize {
		r.TotalInternal = -r.LinearObjective + r.Penalty
	}
	r.TotalMaxOriginal = r.LinearObjective - r.Penalty
	if !sol.HasObjective || math.IsNaN(sol.Objective) {
		return
	}
	r.HasReported = true
	r.Reported = sol.Objective
	candidates := []struct {
		name string
		val  float64
	}{
		{TotalMin, r.TotalMin},
		{TotalInternal, r.TotalInternal},
		{TotalMaxOriginal, r.TotalMaxOriginal},
	}
	r.BestAbsError = math.Inf(1)
	for _, c := range candidates {
		if diff := math.Abs(c.val - sol.Objective); diff < r.BestAbsError {
			r.BestMatch, r.BestMatchValue, r.BestAbsError = c.name, c.val, diff
		}
	}
	if r.BestMatch == "" {
		// Every candidate is NaN: a failure was already reported.
		r.BestMatch, r.BestMatchValue = TotalMin, r.TotalMin
		return
	}
	if r.BestAbsError > ObjectiveTol {
		r.failf("objective mismatch: reported o=%.12g, best match %s=%.12g, |err|=%.3g > %g",
			sol.Objective, r.BestMatch, r.BestMatchValue, r.BestAbsError, ObjectiveTol)
	}
}

// Print writes a human-readable version of r on w.
func (r *Report) Print(w io.Writer, name string) error {
	p := &printer{w: w}
	p.printf("WMIBO VALIDATION REPORT\n")
	p.printf("  instance: %s\n", name)
	p.printf("  status:   %s\n", r.Status)
	if r.HasReported {
		p.printf("  o(reported): %.12g\n", r.Reported)
	}
	p.printf("  lin_obj:  %.12g\n", r.LinearObjective)
	p.printf("  penalty:  %.12g   (soft_violations=%d)\n", r.Penalty, r.SoftViolations)
	p.printf("  %s:        %.12g\n", TotalMin, r.TotalMin)
	p.printf("  %s:   %.12g\n", TotalInternal, r.TotalInternal)
	p.printf("  %s:   %.12g\n", TotalMaxOriginal, r.TotalMaxOriginal)
	if r.HasReported {
		p.printf("  best_match: %s  value=%.12g  abs_err=%.3g\n", r.BestMatch, r.BestMatchValue, r.BestAbsError)
	}
	if len(r.Warnings) > 0 {
		p.printf("\nWARNINGS:\n")
		for _, msg := range r.Warnings {
			p.printf("  - %s\n", msg)
		}
	}
	if len(r.Failures) > 0 {
		p.printf("\nFAILURES:\n")
		for _, msg := range r.Failures {
			p.printf("  - %s\n", msg)
		}
	}
	if r.OK() {
		p.printf("\nRESULT: OK\n")
	} else {
		p.printf("\nRESULT: FAIL\n")
	}
	return p.err
}

// printer remembers the first write error.
type printer struct {
	w   io.Writer
	err error
}

func (p *printer) printf(format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, args...)
}

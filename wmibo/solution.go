package wmibo

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// An Assignment binds variables to values.
// Booleans are bound to 0 or 1.
type Assignment map[VarRef]float64

// Bool returns the truth value of boolean variable idx in a.
// Unbound variables are false.
func (a Assignment) Bool(idx int) bool {
	return a[B(idx)] >= 0.5
}

// SetBool binds boolean variable idx to val.
func (a Assignment) SetBool(idx int, val bool) {
	if val {
		a[B(idx)] = 1
	} else {
		a[B(idx)] = 0
	}
}

// Status is the outcome reported by a solver.
type Status byte

const (
	// Unknown means the solver could not conclude, e.g. because it ran out of time.
	Unknown = Status(iota)
	// Optimum means an optimal assignment was found.
	Optimum
	// Satisfiable means a feasible assignment was found.
	Satisfiable
	// Infeasible means no assignment satisfies the hard constraints.
	Infeasible
	// Unsatisfiable means no assignment satisfies the hard clauses of a clause-only instance.
	Unsatisfiable
	// Unbounded means the objective can be improved without limit.
	Unbounded
)

func (s Status) String() string {
	switch s {
	case Unknown:
		return "UNKNOWN"
	case Optimum:
		return "OPTIMUM FOUND"
	case Satisfiable:
		return "SATISFIABLE"
	case Infeasible:
		return "INFEASIBLE"
	case Unsatisfiable:
		return "UNSATISFIABLE"
	case Unbounded:
		return "UNBOUNDED"
	default:
		panic("invalid status")
	}
}

// ParseStatus parses the text following "s " in a solution.
func ParseStatus(s string) (Status, error) {
	for st := Unknown; st <= Unbounded; st++ {
		if s == st.String() {
			return st, nil
		}
	}
	return Unknown, fmt.Errorf("invalid status %q", s)
}

// A Solution is what a solver returns for an instance.
// Objective is only meaningful if HasObjective is true.
type Solution struct {
	Status       Status
	Objective    float64
	HasObjective bool
	Assignment   Assignment
}

// nbValuesPerLine is the maximum number of values on a single v line.
const nbValuesPerLine = 16

// WriteSolution writes sol on w: a status line, an "o" line if sol has an
// objective value, and "v" lines for every variable of inst bound in sol.
// Only errors from w are reported.
func WriteSolution(w io.Writer, inst *Instance, sol Solution) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "s %s\n", sol.Status)
	if sol.HasObjective {
		fmt.Fprintf(bw, "o %s\n", formatNumber(sol.Objective))
	}
	for _, kind := range []Kind{Bool, Int, Real} {
		var vals []string
		for idx := 1; idx <= inst.Header.Count(kind); idx++ {
			ref := VarRef{Kind: kind, Index: idx}
			val, ok := sol.Assignment[ref]
			if !ok {
				continue
			}
			vals = append(vals, ref.String()+"="+formatValue(kind, val))
		}
		for len(vals) > 0 {
			n := len(vals)
			if n > nbValuesPerLine {
				n = nbValuesPerLine
			}
			fmt.Fprintf(bw, "v %s\n", strings.Join(vals[:n], " "))
			vals = vals[n:]
		}
	}
	return bw.Flush()
}

// FormatSolution returns what WriteSolution would write.
func FormatSolution(inst *Instance, sol Solution) string {
	var sb strings.Builder
	_ = WriteSolution(&sb, inst, sol)
	return sb.String()
}

func formatValue(kind Kind, val float64) string {
	switch kind {
	case Bool:
		if val >= 0.5 {
			return "1"
		}
		return "0"
	case Int:
		return strconv.FormatFloat(math.Round(val), 'f', 0, 64)
	default:
		return formatNumber(val)
	}
}

// ReadSolution parses the output of a solver, as written by WriteSolution.
// Lines other than s, o and v lines are ignored.
func ReadSolution(r io.Reader) (Solution, error) {
	sol := Solution{Assignment: make(Assignment)}
	sc := bufio.NewScanner(r)
	ln := 0
	for sc.Scan() {
		ln++
		line := strings.TrimSpace(sc.Text())
		switch {
		case strings.HasPrefix(line, "s "):
			st, err := ParseStatus(strings.TrimSpace(line[2:]))
			if err != nil {
				return Solution{}, fmt.Errorf("line %d: %v", ln, err)
			}
			sol.Status = st
		case strings.HasPrefix(line, "o "):
			val, err := strconv.ParseFloat(strings.TrimSpace(line[2:]), 64)
			if err != nil {
				return Solution{}, fmt.Errorf("line %d: invalid objective value %q", ln, line[2:])
			}
			sol.Objective, sol.HasObjective = val, true
		case strings.HasPrefix(line, "v "):
			for _, tok := range strings.Fields(line[2:]) {
				name, rawVal, ok := strings.Cut(tok, "=")
				if !ok {
					return Solution{}, fmt.Errorf("line %d: invalid value %q, expected <var>=<value>", ln, tok)
				}
				ref, err := ParseVarRef(name)
				if err != nil {
					return Solution{}, fmt.Errorf("line %d: %v", ln, err)
				}
				val, err := strconv.ParseFloat(rawVal, 64)
				if err != nil {
					return Solution{}, fmt.Errorf("line %d: invalid value %q for %s", ln, rawVal, ref)
				}
				sol.Assignment[ref] = val
			}
		}
	}
	if err := sc.Err(); err != nil {
		return Solution{}, fmt.Errorf("could not read solution: %w", err)
	}
	return sol, nil
}

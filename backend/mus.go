package backend

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/crillab/gophersat/explain"
	"github.com/crillab/wmibo/wmibo"
)

// MUS returns a minimal unsatisfiable subset of the hard clauses of inst,
// in file order. Linear constraints are not taken into account.
// If the hard clauses are satisfiable, ErrSatisfiable is returned.
func MUS(ctx context.Context, inst *wmibo.Instance) ([]wmibo.Clause, error) {
	var hard []wmibo.Clause
	for _, c := range inst.Clauses {
		if c.Kind != wmibo.Hard {
			continue
		}
		if len(c.Lits) == 0 {
			return []wmibo.Clause{c}, nil
		}
		hard = append(hard, c)
	}
	if len(hard) == 0 {
		return nil, ErrSatisfiable
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	pb, err := explain.ParseCNF(strings.NewReader(cnf(inst.Header.NbBool, hard)))
	if err != nil {
		return nil, fmt.Errorf("could not build explain problem: %w", err)
	}
	type result struct {
		mus *explain.Problem
		err error
	}
	done := make(chan result, 1)
	go func() {
		mus, err := pb.MUS()
		done <- result{mus, err}
	}()
	var res result
	select {
	case res = <-done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if res.err != nil {
		// explain only fails on satisfiable problems.
		return nil, ErrSatisfiable
	}
	return clausesOf(hard, res.mus.Clauses), nil
}

func clauseKey(lits []int) string {
	strs := make([]string, len(lits))
	for i, lit := range lits {
		strs[i] = strconv.Itoa(lit)
	}
	return strings.Join(strs, " ")
}

// cnf renders clauses in DIMACS format.
func cnf(nbVars int, clauses []wmibo.Clause) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "p cnf %d %d\n", nbVars, len(clauses))
	for _, c := range clauses {
		lits := make([]int, len(c.Lits))
		for i, lit := range c.Lits {
			lits[i] = dimacs(lit)
		}
		sb.WriteString(clauseKey(lits))
		sb.WriteString(" 0\n")
	}
	return sb.String()
}

// clausesOf maps the clauses of a MUS back to the clauses of the instance.
// Identical clauses are matched in file order.
func clausesOf(hard []wmibo.Clause, mus [][]int) []wmibo.Clause {
	keys := make([]string, len(hard))
	for i, c := range hard {
		lits := make([]int, len(c.Lits))
		for j, lit := range c.Lits {
			lits[j] = dimacs(lit)
		}
		keys[i] = clauseKey(lits)
	}
	wanted := make(map[string]int)
	for _, clause := range mus {
		wanted[clauseKey(clause)]++
	}
	var res []wmibo.Clause
	for i, c := range hard {
		if wanted[keys[i]] > 0 {
			wanted[keys[i]]--
			res = append(res, c)
		}
	}
	return res
}

package backend

import (
	"context"
	"fmt"

	"github.com/crillab/gophersat/maxsat"
	"github.com/crillab/gophersat/solver"
)

// constrs returns the hard part of e as pseudo-boolean constraints.
// Slices are copied, as solver.GtEq normalizes its arguments in place.
func (e *encoding) constrs() []solver.PBConstr {
	res := make([]solver.PBConstr, 0, len(e.hard)+len(e.rows))
	for _, clause := range e.hard {
		res = append(res, solver.PropClause(append([]int(nil), clause...)...))
	}
	for _, r := range e.rows {
		lits := append([]int(nil), r.vars...)
		weights := append([]int(nil), r.coeffs...)
		res = append(res, solver.GtEq(lits, weights, r.atLeast))
	}
	return res
}

// boolModel wraps a gophersat model, where model[k-1] is the value of b_k.
// Variables the solver never saw are false.
func boolModel(model []bool) func(int) bool {
	return func(k int) bool {
		return k-1 < len(model) && model[k-1]
	}
}

// solvePB returns a model of constrs, or nil if there is none.
// If ctx is done first, the search goes on in the background and ctx.Err() is returned.
func solvePB(ctx context.Context, constrs []solver.PBConstr) (func(int) bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	type result struct {
		status solver.Status
		model  []bool
	}
	done := make(chan result, 1)
	go func() {
		s := solver.New(solver.ParsePBConstrs(constrs))
		var res result
		res.status = s.Solve()
		if res.status == solver.Sat {
			res.model = s.Model()
		}
		done <- res
	}()
	select {
	case res := <-done:
		if res.status != solver.Sat {
			return nil, nil
		}
		return boolModel(res.model), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// countPB enumerates the models of e projected on vars. Each new blocking
// clause requires a fresh solver.
func countPB(ctx context.Context, e *encoding, vars []int, limit int) (nb int, exact bool, err error) {
	constrs := e.constrs()
	for limit == 0 || nb < limit {
		model, err := solvePB(ctx, constrs)
		if err != nil {
			return nb, false, err
		}
		if model == nil {
			return nb, true, nil
		}
		nb++
		if len(vars) == 0 {
			return nb, true, nil
		}
		block := make([]int, len(vars))
		for i, v := range vars {
			block[i] = v
			if model(v) {
				block[i] = -v
			}
		}
		constrs = append(constrs, solver.PropClause(block...))
	}
	return nb, false, nil
}

func varName(k int) string { return fmt.Sprintf("b%d", k) }

func maxsatLit(lit int) maxsat.Lit {
	if lit < 0 {
		return maxsat.Not(varName(-lit))
	}
	return maxsat.Var(varName(lit))
}

func maxsatLits(lits []int) []maxsat.Lit {
	res := make([]maxsat.Lit, len(lits))
	for i, lit := range lits {
		res[i] = maxsatLit(lit)
	}
	return res
}

// optimize returns a model of the hard part of e minimizing the sum of the
// violated costs, or nil if there is no model. e must have costs.
func optimize(ctx context.Context, e *encoding) (func(int) bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	constrs := make([]maxsat.Constr, 0, len(e.hard)+len(e.rows)+len(e.costs))
	for _, clause := range e.hard {
		constrs = append(constrs, maxsat.HardClause(maxsatLits(clause)...))
	}
	for _, r := range e.rows {
		constrs = append(constrs, maxsat.HardPBConstr(maxsatLits(r.vars), append([]int(nil), r.coeffs...), r.atLeast))
	}
	for _, c := range e.costs {
		constrs = append(constrs, maxsat.WeightedClause(maxsatLits(c.lits), c.weight))
	}
	done := make(chan maxsat.Model, 1)
	go func() {
		model, _ := maxsat.New(constrs...).Solve()
		done <- model
	}()
	select {
	case model := <-done:
		if model == nil {
			return nil, nil
		}
		return func(k int) bool { return model[varName(k)] }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

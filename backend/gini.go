package backend

import (
	"context"
	"time"

	"github.com/go-air/gini"
	"github.com/go-air/gini/z"
)

func giniLit(lit int) z.Lit {
	if lit < 0 {
		return z.Var(-lit).Neg()
	}
	return z.Var(lit).Pos()
}

func newGini(e *encoding) *gini.Gini {
	g := gini.NewV(e.nbVars)
	for _, clause := range e.hard {
		for _, lit := range clause {
			g.Add(giniLit(lit))
		}
		g.Add(z.LitNull)
	}
	return g
}

// giniSolve returns 1 if g is satisfiable, -1 if it is not.
// It returns ctx.Err() if ctx is done first; g must not be used afterwards.
func giniSolve(ctx context.Context, g *gini.Gini) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	deadline, ok := ctx.Deadline()
	if !ok {
		return g.Solve(), nil
	}
	res := g.GoSolve().Try(time.Until(deadline))
	if res == 0 {
		return 0, context.DeadlineExceeded
	}
	return res, nil
}

// solveGini returns a model of the hard clauses of e, or nil if there is none.
func solveGini(ctx context.Context, e *encoding) (func(int) bool, error) {
	g := newGini(e)
	res, err := giniSolve(ctx, g)
	if err != nil || res != 1 {
		return nil, err
	}
	used := e.used
	return func(k int) bool {
		return used[k] && g.Value(z.Var(k).Pos())
	}, nil
}

// countGini enumerates the models of e projected on vars, adding a blocking clause after each one.
func countGini(ctx context.Context, e *encoding, vars []int, limit int) (nb int, exact bool, err error) {
	g := newGini(e)
	for limit == 0 || nb < limit {
		res, err := giniSolve(ctx, g)
		if err != nil {
			return nb, false, err
		}
		if res != 1 {
			return nb, true, nil
		}
		nb++
		if len(vars) == 0 {
			return nb, true, nil
		}
		for _, v := range vars {
			m := z.Var(v).Pos()
			if g.Value(m) {
				m = m.Not()
			}
			g.Add(m)
		}
		g.Add(z.LitNull)
	}
	return nb, false, nil
}

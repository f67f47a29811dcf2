// Package backend answers the queries of WMIBO instances whose linear
// constraints and objective only involve boolean variables.
//
// Pure CNF problems are handled by gini, anything with pseudo-boolean rows by
// gophersat. Optimization is done by gophersat's MaxSAT solver and unsatisfiable
// cores by its explain package.
package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"sort"

	"github.com/crillab/wmibo/wmibo"
)

var (
	// ErrUnsupported is returned for instances that need a MIP solver:
	// integer or real variables in constraints or objective, or fractional coefficients.
	ErrUnsupported = errors.New("unsupported instance")
	// ErrSatisfiable is returned when a MUS is requested for satisfiable hard clauses.
	ErrSatisfiable = errors.New("hard clauses are satisfiable")
)

// Engine selects the solver used for pure CNF problems.
type Engine byte

const (
	// Auto uses gini for pure CNF problems and gophersat otherwise.
	Auto = Engine(iota)
	// Gophersat always uses gophersat.
	Gophersat
)

func (e Engine) String() string {
	switch e {
	case Auto:
		return "auto"
	case Gophersat:
		return "gophersat"
	default:
		panic("invalid engine")
	}
}

// ParseEngine parses the name of an engine.
func ParseEngine(s string) (Engine, error) {
	switch s {
	case "", "auto":
		return Auto, nil
	case "gophersat":
		return Gophersat, nil
	default:
		return Auto, fmt.Errorf("invalid engine %q, expected auto or gophersat", s)
	}
}

// Options tune the backend.
type Options struct {
	Engine Engine
	// CountLimit is the maximum number of projected models enumerated by a count query.
	// 0 means no limit.
	CountLimit int
	Logger     *slog.Logger
}

func (o Options) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.New(discardHandler{})
	}
	return o.Logger
}

// An Answer is the result of a query.
type Answer struct {
	Query wmibo.Query
	// Solution is set for solve queries.
	Solution wmibo.Solution
	// Count is set for count queries. Exact is false if the enumeration was
	// interrupted, in which case Count is a lower bound.
	Count *big.Int
	Exact bool
	// MUS is set for explain queries: hard clauses that cannot be satisfied together,
	// and no longer conflict once any one of them is removed.
	MUS []wmibo.Clause
}

// Run answers query q on inst.
// Solve queries that cannot be answered before ctx is done yield an UNKNOWN solution and no error.
func Run(ctx context.Context, inst *wmibo.Instance, q wmibo.Query, opts Options) (Answer, error) {
	ans := Answer{Query: q}
	var err error
	switch q.Kind {
	case wmibo.SolveFeas:
		ans.Solution, err = Solve(ctx, inst, opts)
	case wmibo.SolveOpt:
		ans.Solution, err = Optimize(ctx, inst, opts)
	case wmibo.CountProj:
		ans.Count, ans.Exact, err = Count(ctx, inst, q.Vars, opts)
	case wmibo.ExplainMUS:
		ans.MUS, err = MUS(ctx, inst)
	default:
		panic("invalid query kind")
	}
	return ans, err
}

// failure returns the status of an instance without solutions.
func failure(inst *wmibo.Instance) wmibo.Status {
	if len(inst.Constraints) == 0 && (inst.Objective == nil || len(inst.Objective.Terms) == 0) {
		return wmibo.Unsatisfiable
	}
	return wmibo.Infeasible
}

func unknown(ctx context.Context, err error) (wmibo.Solution, error) {
	if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
		return wmibo.Solution{Status: wmibo.Unknown}, nil
	}
	return wmibo.Solution{Status: wmibo.Unknown}, err
}

// Solve looks for any assignment satisfying the hard constraints of inst.
func Solve(ctx context.Context, inst *wmibo.Instance, opts Options) (wmibo.Solution, error) {
	if inst.HasEmptyHardClause() {
		return wmibo.Solution{Status: failure(inst)}, nil
	}
	e, err := encode(inst)
	if err != nil {
		return wmibo.Solution{Status: wmibo.Unknown}, err
	}
	var model func(int) bool
	if opts.Engine == Auto && e.clauseOnly() {
		opts.logger().Debug("solving with gini", "vars", e.nbVars, "clauses", len(e.hard))
		model, err = solveGini(ctx, e)
	} else {
		opts.logger().Debug("solving with gophersat", "vars", e.nbVars, "clauses", len(e.hard), "rows", len(e.rows))
		model, err = solvePB(ctx, e.constrs())
	}
	if err != nil {
		return unknown(ctx, err)
	}
	if model == nil {
		return wmibo.Solution{Status: failure(inst)}, nil
	}
	a := complete(inst, model)
	sol := wmibo.Solution{Status: wmibo.Satisfiable, Assignment: a}
	if inst.Objective != nil {
		sol.Objective, sol.HasObjective = inst.TotalObjective(a), true
	}
	return sol, nil
}

// Optimize looks for an assignment satisfying the hard constraints of inst
// and minimizing its objective, soft clause penalties included.
func Optimize(ctx context.Context, inst *wmibo.Instance, opts Options) (wmibo.Solution, error) {
	if inst.HasEmptyHardClause() {
		return wmibo.Solution{Status: failure(inst)}, nil
	}
	e, err := encode(inst)
	if err != nil {
		return wmibo.Solution{Status: wmibo.Unknown}, err
	}
	var model func(int) bool
	if len(e.costs) == 0 {
		// Every feasible assignment is optimal.
		model, err = solvePB(ctx, e.constrs())
	} else {
		opts.logger().Debug("optimizing with gophersat maxsat", "vars", e.nbVars, "rows", len(e.rows), "costs", len(e.costs))
		model, err = optimize(ctx, e)
	}
	if err != nil {
		return unknown(ctx, err)
	}
	if model == nil {
		return wmibo.Solution{Status: failure(inst)}, nil
	}
	a := complete(inst, model)
	return wmibo.Solution{
		Status:       wmibo.Optimum,
		Objective:    inst.TotalObjective(a),
		HasObjective: true,
		Assignment:   a,
	}, nil
}

// Count returns the number of distinct assignments of vars that can be
// extended into an assignment satisfying the hard constraints of inst.
// The count is exact unless ctx is done or opts.CountLimit is reached first.
func Count(ctx context.Context, inst *wmibo.Instance, vars []wmibo.VarRef, opts Options) (n *big.Int, exact bool, err error) {
	if inst.HasEmptyHardClause() {
		return new(big.Int), true, nil
	}
	e, err := encode(inst)
	if err != nil {
		return nil, false, err
	}
	proj := projection(vars)
	var free uint
	var used []int
	for _, v := range proj {
		if e.used[v] {
			used = append(used, v)
		} else {
			free++
		}
	}
	var nb int
	if opts.Engine == Auto && e.clauseOnly() {
		nb, exact, err = countGini(ctx, e, used, opts.CountLimit)
	} else {
		nb, exact, err = countPB(ctx, e, used, opts.CountLimit)
	}
	if err != nil && !errors.Is(err, ctx.Err()) {
		return nil, false, err
	}
	n = big.NewInt(int64(nb))
	if nb > 0 {
		n.Lsh(n, free)
	}
	opts.logger().Debug("counted models", "projection", len(proj), "free", free, "enumerated", nb, "exact", exact)
	return n, exact, nil
}

// projection returns the distinct indices of the boolean variables of vars, in increasing order.
func projection(vars []wmibo.VarRef) []int {
	seen := make(map[int]bool)
	var res []int
	for _, ref := range vars {
		if ref.Kind == wmibo.Bool && !seen[ref.Index] {
			seen[ref.Index] = true
			res = append(res, ref.Index)
		}
	}
	sort.Ints(res)
	return res
}

type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (d discardHandler) WithAttrs([]slog.Attr) slog.Handler      { return d }
func (d discardHandler) WithGroup(string) slog.Handler           { return d }

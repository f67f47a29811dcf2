package wmibo

// queryRegistry collects query directives in file order.
type queryRegistry struct {
	queries []Query
}

func (qr *queryRegistry) add(q Query) {
	qr.queries = append(qr.queries, q)
}

// EffectiveQuery returns the solve directive the instance asks for: the first
// solve line if any; otherwise solve opt if there is a non-empty objective or
// a soft clause, solve feas else.
func (inst *Instance) EffectiveQuery() Query {
	for _, q := range inst.Queries {
		if q.Kind.IsSolve() {
			return q
		}
	}
	if inst.Objective != nil && len(inst.Objective.Terms) > 0 {
		return Query{Kind: SolveOpt}
	}
	for _, c := range inst.Clauses {
		if c.Kind == Soft {
			return Query{Kind: SolveOpt}
		}
	}
	return Query{Kind: SolveFeas}
}

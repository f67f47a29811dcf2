package wmibo

import "math"

// objectiveAssembler holds the single objective of the instance, if any.
type objectiveAssembler struct {
	obj *Objective
}

func (oa *objectiveAssembler) set(obj Objective) error {
	if oa.obj != nil {
		return formatErrorf(obj.Line, ErrDuplicateObjective, "objective already given at line %d", oa.obj.Line)
	}
	oa.obj = &obj
	return nil
}

// Penalty returns the sum of the weights of the soft clauses violated by a,
// and how many soft clauses are violated.
func (inst *Instance) Penalty(a Assignment) (penalty float64, nbViolated int) {
	for _, c := range inst.Clauses {
		if c.Kind == Soft && !c.Satisfied(a) {
			penalty += float64(c.Weight)
			nbViolated++
		}
	}
	return penalty, nbViolated
}

// LinearObjective returns the value of the linear part of the objective under a.
// It is 0 when the instance has no objective, and NaN when a variable of the
// objective is unbound in a.
func (inst *Instance) LinearObjective(a Assignment) float64 {
	if inst.Objective == nil {
		return 0
	}
	val, ok := inst.Objective.Terms.Eval(a)
	if !ok {
		return math.NaN()
	}
	return val
}

// TotalObjective returns the objective value of a, soft penalties included:
// the linear part plus the penalty when minimizing, minus the penalty when maximizing.
// Instances without an objective are minimization problems.
func (inst *Instance) TotalObjective(a Assignment) float64 {
	lin := inst.LinearObjective(a)
	penalty, _ := inst.Penalty(a)
	if inst.Objective != nil && inst.Objective.Sense == Maximize {
		return lin - penalty
	}
	return lin + penalty
}

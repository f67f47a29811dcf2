package wmibo

// An Instance is a validated WMIBO problem.
// It is built by Load and must not be modified afterwards; it is then safe to
// share between goroutines.
type Instance struct {
	Header      Header                 `yaml:"header"`
	Variables   []Variable             `yaml:"variables,omitempty"` // Declared variables, in declaration order
	Clauses     []Clause               `yaml:"clauses,omitempty"`   // Hard and soft clauses, from both cnf and wcnf blocks
	Constraints []LinearConstraint     `yaml:"constraints,omitempty"`
	Indicators  []Indicator            `yaml:"indicators,omitempty"`
	Objective   *Objective             `yaml:"objective,omitempty"`
	Queries     []Query                `yaml:"queries,omitempty"`
	Options     map[string]OptionValue `yaml:"options,omitempty"`
	Warnings    []Warning              `yaml:"-"`

	vars map[VarRef]int // index in Variables
	cids map[string]int // index in Constraints
	inds map[string]int // index in Indicators
	rows []Row
}

// Var returns the variable designated by ref.
// Undeclared booleans within the header counts exist with the default domain;
// ok is false for anything else that was not declared.
func (inst *Instance) Var(ref VarRef) (v Variable, ok bool) {
	if i, found := inst.vars[ref]; found {
		return inst.Variables[i], true
	}
	if ref.Kind == Bool && inRange(&inst.Header, ref) {
		return Variable{Ref: ref, Domain: BoolDomain}, true
	}
	return Variable{}, false
}

// Declared is true iff ref was explicitly declared with a var line.
func (inst *Instance) Declared(ref VarRef) bool {
	_, ok := inst.vars[ref]
	return ok
}

// Constraint returns the linear constraint with the given ID.
func (inst *Instance) Constraint(id string) (LinearConstraint, bool) {
	i, ok := inst.cids[id]
	if !ok {
		return LinearConstraint{}, false
	}
	return inst.Constraints[i], true
}

// IndicatorOf returns the indicator bound to constraint id, if any.
func (inst *Instance) IndicatorOf(id string) (Indicator, bool) {
	i, ok := inst.inds[id]
	if !ok {
		return Indicator{}, false
	}
	return inst.Indicators[i], true
}

// Rows returns all normalized constraints, in file order.
// The returned slice must not be modified.
func (inst *Instance) Rows() []Row {
	return inst.rows
}

// Active is true iff constraint id must hold under a, i.e. it has no indicator
// or its indicator literal is true.
// Both rows of an "=" constraint share the same activation.
func (inst *Instance) Active(id string, a Assignment) bool {
	ind, ok := inst.IndicatorOf(id)
	if !ok {
		return true
	}
	return ind.Lit.True(a.Bool(ind.Lit.Var))
}

// SoftClauses returns the soft clauses, whose weights make up the implicit
// penalty part of the objective.
func (inst *Instance) SoftClauses() []Clause {
	var res []Clause
	for _, c := range inst.Clauses {
		if c.Kind == Soft {
			res = append(res, c)
		}
	}
	return res
}

// HasEmptyHardClause is true iff a hard clause has no literal, i.e. the
// instance is trivially infeasible.
func (inst *Instance) HasEmptyHardClause() bool {
	for _, c := range inst.Clauses {
		if c.Kind == Hard && len(c.Lits) == 0 {
			return true
		}
	}
	return false
}

// Option returns the value of option key.
func (inst *Instance) Option(key string) (OptionValue, bool) {
	val, ok := inst.Options[key]
	return val, ok
}

// OptionNumber returns the numeric value of option key, or def if the option
// is absent or not a number.
func (inst *Instance) OptionNumber(key string, def float64) float64 {
	if val, ok := inst.Options[key]; ok && val.IsNumber {
		return val.Number
	}
	return def
}

// index builds the lookup tables of inst from its exported fields.
func (inst *Instance) index() {
	inst.vars = make(map[VarRef]int, len(inst.Variables))
	for i, v := range inst.Variables {
		inst.vars[v.Ref] = i
	}
	inst.cids = make(map[string]int, len(inst.Constraints))
	inst.rows = inst.rows[:0]
	for i, c := range inst.Constraints {
		inst.cids[c.ID] = i
		inst.rows = append(inst.rows, c.Rows()...)
	}
	inst.inds = make(map[string]int, len(inst.Indicators))
	for i, ind := range inst.Indicators {
		inst.inds[ind.CID] = i
	}
}

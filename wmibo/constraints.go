package wmibo

// negate returns -e. Zero coefficients stay positive zeros.
func (e Expr) negate() Expr {
	res := make(Expr, len(e))
	for i, t := range e {
		res[i] = Term{Coeff: 0 - t.Coeff, Var: t.Var}
	}
	return res
}

// A LinearConstraint is a constraint as written in the file.
type LinearConstraint struct {
	ID       string   `yaml:"id"`
	Relation Relation `yaml:"relation"`
	RHS      float64  `yaml:"rhs"`
	Terms    Expr     `yaml:"terms"`
	Line     int      `yaml:"line"`
}

// A Row is a normalized constraint Terms <= RHS.
// An "=" constraint yields two rows with the same ID, Part 0 and Part 1.
type Row struct {
	ID    string  `yaml:"id"`
	Part  int     `yaml:"part"`
	RHS   float64 `yaml:"rhs"`
	Terms Expr    `yaml:"terms"`
}

// Rows returns the normalized form of c.
func (c LinearConstraint) Rows() []Row {
	switch c.Relation {
	case LtEq:
		return []Row{{ID: c.ID, RHS: c.RHS, Terms: c.Terms}}
	case GtEq:
		return []Row{{ID: c.ID, RHS: 0 - c.RHS, Terms: c.Terms.negate()}}
	case Eq:
		return []Row{
			{ID: c.ID, Part: 0, RHS: c.RHS, Terms: c.Terms},
			{ID: c.ID, Part: 1, RHS: 0 - c.RHS, Terms: c.Terms.negate()},
		}
	default:
		panic("invalid relation")
	}
}

// constraintRegistry owns linear constraints, keyed by their globally unique ID.
type constraintRegistry struct {
	byID    map[string]int // index in constrs
	constrs []LinearConstraint
}

func newConstraintRegistry() *constraintRegistry {
	return &constraintRegistry{byID: make(map[string]int)}
}

// insert registers c. IDs are unique across the whole file, whatever the block.
func (cr *constraintRegistry) insert(c LinearConstraint) error {
	if i, ok := cr.byID[c.ID]; ok {
		return formatErrorf(c.Line, ErrDuplicateConstraintID, "%q already declared at line %d", c.ID, cr.constrs[i].Line)
	}
	cr.byID[c.ID] = len(cr.constrs)
	cr.constrs = append(cr.constrs, c)
	return nil
}

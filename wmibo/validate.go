package wmibo

// Validate checks the cross-references of inst. It is run by Load, and running
// it again on a loaded instance never fails.
func (inst *Instance) Validate() error {
	if inst.vars == nil {
		inst.index()
	}
	return validate(inst)
}

// firstError keeps the error found on the earliest line.
type firstError struct {
	err  error
	line int
}

func (fe *firstError) add(err error) {
	if err == nil {
		return
	}
	line := err.(*FormatError).Line
	if fe.err == nil || line < fe.line {
		fe.err, fe.line = err, line
	}
}

func checkRef(h *Header, ref VarRef, line int) error {
	if !inRange(h, ref) {
		return formatErrorf(line, ErrIndexOutOfRange, "%s is outside %s1..%s%d", ref, ref.Kind, ref.Kind, h.Count(ref.Kind))
	}
	return nil
}

func checkBoolRef(h *Header, ref VarRef, line int) error {
	if ref.Kind != Bool {
		return formatErrorf(line, ErrKindMismatch, "%s is not a boolean variable", ref)
	}
	return checkRef(h, ref, line)
}

// validate runs the global checks, in this order, the first failure winning:
// header, variable ranges and kinds, declarations of int and real variables,
// indicator targets. Within a check, the earliest line wins.
// Unterminated blocks are reported by the builder, as they cannot be seen on
// a built instance.
func validate(inst *Instance) error {
	h := &inst.Header
	if h.Version == 0 {
		return formatErrorf(0, ErrSyntax, "missing header \"p wmibo ...\"")
	}
	if h.Version != 1 {
		return formatErrorf(h.Line, ErrVersion, "got version %d, only version 1 is supported", h.Version)
	}

	var fe firstError
	st := newSymbolTable(h)
	for _, v := range inst.Variables {
		fe.add(st.declare(v.Ref, v.Domain, v.Name, v.Line))
	}
	for _, c := range inst.Clauses {
		for _, lit := range c.Lits {
			fe.add(checkBoolRef(h, lit.Ref(), c.Line))
		}
	}
	for _, c := range inst.Constraints {
		for _, t := range c.Terms {
			fe.add(checkRef(h, t.Var, c.Line))
		}
	}
	if inst.Objective != nil {
		for _, t := range inst.Objective.Terms {
			fe.add(checkRef(h, t.Var, inst.Objective.Line))
		}
	}
	for _, ind := range inst.Indicators {
		fe.add(checkBoolRef(h, ind.Lit.Ref(), ind.Line))
	}
	for _, q := range inst.Queries {
		for _, ref := range q.Vars {
			fe.add(checkBoolRef(h, ref, q.Line))
		}
	}
	if fe.err != nil {
		return fe.err
	}

	lookup := func(terms Expr, line int) {
		for _, t := range terms {
			if t.Var.Kind != Bool {
				_, err := st.lookup(t.Var, line)
				fe.add(err)
			}
		}
	}
	for _, c := range inst.Constraints {
		lookup(c.Terms, c.Line)
	}
	if inst.Objective != nil {
		lookup(inst.Objective.Terms, inst.Objective.Line)
	}
	if fe.err != nil {
		return fe.err
	}

	for _, ind := range inst.Indicators {
		if _, ok := inst.cids[ind.CID]; !ok {
			fe.add(formatErrorf(ind.Line, ErrUnknownConstraintID, "indicator targets %q, which is never declared", ind.CID))
		}
	}
	return fe.err
}

package wmibo

// symbolTable holds declared variables.
// Counts come from the header, which is always read first.
type symbolTable struct {
	header *Header
	vars   map[VarRef]*Variable
	order  []VarRef // declaration order
}

func newSymbolTable(h *Header) *symbolTable {
	return &symbolTable{header: h, vars: make(map[VarRef]*Variable)}
}

// inRange is true iff ref designates a variable allowed by the header.
func inRange(h *Header, ref VarRef) bool {
	return ref.Index >= 1 && ref.Index <= h.Count(ref.Kind)
}

func (st *symbolTable) declare(ref VarRef, domain Domain, name string, line int) error {
	if !inRange(st.header, ref) {
		return formatErrorf(line, ErrIndexOutOfRange, "cannot declare %s: header allows %s1..%s%d", ref, ref.Kind, ref.Kind, st.header.Count(ref.Kind))
	}
	if prev, ok := st.vars[ref]; ok {
		return formatErrorf(line, ErrDuplicateVariable, "%s already declared at line %d", ref, prev.Line)
	}
	st.vars[ref] = &Variable{Ref: ref, Domain: domain, Name: name, Line: line}
	st.order = append(st.order, ref)
	return nil
}

// lookup returns the variable designated by ref.
// Undeclared booleans get the default {0,1} domain; undeclared int and real variables
// are reported as undeclared.
func (st *symbolTable) lookup(ref VarRef, line int) (Variable, error) {
	if !inRange(st.header, ref) {
		return Variable{}, formatErrorf(line, ErrIndexOutOfRange, "%s is outside %s1..%s%d", ref, ref.Kind, ref.Kind, st.header.Count(ref.Kind))
	}
	if v, ok := st.vars[ref]; ok {
		return *v, nil
	}
	if ref.Kind == Bool {
		return Variable{Ref: ref, Domain: BoolDomain}, nil
	}
	return Variable{}, formatErrorf(line, ErrUndeclaredVariable, "%s is used but never declared", ref)
}

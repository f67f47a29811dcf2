package wmibo

// blockKind is the block the parser is currently in.
type blockKind byte

const (
	blockNone = blockKind(iota)
	blockCnf
	blockWcnf
	blockLin
	blockInd
	blockObj
	blockOpt
	blockQuery
	blockUnknown // a block introduced after v1.0; its content is skipped
)

func blockNamed(name string) blockKind {
	switch name {
	case "cnf":
		return blockCnf
	case "wcnf":
		return blockWcnf
	case "lin":
		return blockLin
	case "ind":
		return blockInd
	case "obj":
		return blockObj
	case "opt":
		return blockOpt
	case "query":
		return blockQuery
	default:
		return blockUnknown
	}
}

func (b blockKind) String() string {
	switch b {
	case blockNone:
		return "no block"
	case blockCnf:
		return "cnf"
	case blockWcnf:
		return "wcnf"
	case blockLin:
		return "lin"
	case blockInd:
		return "ind"
	case blockObj:
		return "obj"
	case blockOpt:
		return "opt"
	case blockQuery:
		return "query"
	case blockUnknown:
		return "unknown"
	default:
		panic("invalid block kind")
	}
}

// blockTracker enforces block nesting and directive membership.
type blockTracker struct {
	current blockKind
	name    string // name used in the begin line
	opened  int    // line of the current begin
}

func (t *blockTracker) begin(d beginDirective) error {
	if t.current != blockNone {
		return formatErrorf(d.at, ErrNestedBlock, "begin %s inside block %s opened at line %d", d.name, t.name, t.opened)
	}
	t.current, t.name, t.opened = d.block, d.name, d.at
	return nil
}

func (t *blockTracker) end(d endDirective) error {
	if t.current == blockNone {
		return formatErrorf(d.at, ErrUnmatchedEnd, "no block to close")
	}
	t.current, t.name, t.opened = blockNone, "", 0
	return nil
}

// skipping is true when the current block is unknown to v1.0.
func (t *blockTracker) skipping() bool { return t.current == blockUnknown }

// admit checks that directive d may appear in the current block.
// It is not called for begin and end.
func (t *blockTracker) admit(d directive) error {
	var family blockKind
	var what string
	switch d := d.(type) {
	case headerDirective:
		return nil // checked by the builder
	case varDirective:
		return nil
	case optDirective:
		if t.current == blockNone || t.current == blockOpt {
			return nil
		}
		family, what = blockOpt, "opt"
	case clauseDirective:
		family = d.family
		what = "cl"
		if family == blockWcnf {
			what = "wcl"
		}
	case linDirective:
		family, what = blockLin, "lc"
	case indDirective:
		family, what = blockInd, "ind"
	case objDirective:
		family, what = blockObj, "obj"
	case queryDirective:
		family, what = blockQuery, d.query.Kind.String()
	case unknownDirective:
		return formatErrorf(d.at, ErrSyntax, "unknown directive %q", d.token)
	default:
		panic("unexpected directive")
	}
	if t.current != family {
		return formatErrorf(d.line(), ErrMisplacedDirective, "%s must appear in a %s block, found in %s", what, family, t.current)
	}
	return nil
}

// close is called at end of input.
func (t *blockTracker) close() error {
	if t.current != blockNone {
		return formatErrorf(t.opened, ErrUnterminatedBlock, "block %s is never closed", t.name)
	}
	return nil
}

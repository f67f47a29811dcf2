package wmibo

// indicatorTable maps a constraint ID to the literal that activates it.
type indicatorTable struct {
	byCID map[string]int // index in inds
	inds  []Indicator
}

func newIndicatorTable() *indicatorTable {
	return &indicatorTable{byCID: make(map[string]int)}
}

// bind records that ind.CID is only active when ind.Lit is true.
// Binding the very same literal twice is allowed; any other literal, including
// the negation of the bound one, is a conflict.
// Whether ind.CID exists is checked once the whole file is read.
func (it *indicatorTable) bind(ind Indicator) error {
	if i, ok := it.byCID[ind.CID]; ok {
		prev := it.inds[i]
		if prev.Lit != ind.Lit {
			return formatErrorf(ind.Line, ErrIndicatorConflict, "%s => %s conflicts with %s => %s at line %d", ind.Lit, ind.CID, prev.Lit, prev.CID, prev.Line)
		}
		return nil
	}
	it.byCID[ind.CID] = len(it.inds)
	it.inds = append(it.inds, ind)
	return nil
}

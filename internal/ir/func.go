package ir

import "qir/internal/source"

// Func is one procedure. Blocks, statements and values live in flat arenas
// and reference each other by index.
type Func struct {
	ID   FuncID
	Name string
	Span source.Span

	Params     []ValueID // parameters of the entry block
	NumResults int

	Blocks []Block
	Stmts  []Stmt
	Values []Value
	Entry  BlockID
}

// Stmt returns the statement with the given id.
func (f *Func) Stmt(id StmtID) *Stmt {
	return &f.Stmts[id]
}

// Block returns the block with the given id.
func (f *Func) Block(id BlockID) *Block {
	return &f.Blocks[id]
}

// Value returns the value with the given id.
func (f *Func) Value(id ValueID) *Value {
	return &f.Values[id]
}

// Terminator returns the last statement of bb, or nil for an empty block.
func (f *Func) Terminator(bb BlockID) *Stmt {
	b := &f.Blocks[bb]
	if len(b.Stmts) == 0 {
		return nil
	}
	st := &f.Stmts[b.Stmts[len(b.Stmts)-1]]
	if !st.Op.IsTerminator() {
		return nil
	}
	return st
}

// Successors lists the blocks reachable in one step from bb.
func (f *Func) Successors(bb BlockID) []BlockID {
	term := f.Terminator(bb)
	if term == nil {
		return nil
	}
	out := make([]BlockID, 0, len(term.Succs))
	for _, s := range term.Succs {
		out = append(out, s.Block)
	}
	return out
}

// Predecessors computes the predecessor lists for every block.
func (f *Func) Predecessors() [][]BlockID {
	preds := make([][]BlockID, len(f.Blocks))
	for i := range f.Blocks {
		for _, succ := range f.Successors(BlockID(i)) { //nolint:gosec // bounded by block count
			preds[succ] = append(preds[succ], BlockID(i)) //nolint:gosec // bounded by block count
		}
	}
	return preds
}

// IsFlat reports whether f is a single basic block without branches, the
// shape produced by inlining and unrolling.
func (f *Func) IsFlat() bool {
	if len(f.Blocks) != 1 {
		return false
	}
	for _, id := range f.Blocks[0].Stmts {
		switch f.Stmts[id].Op {
		case OpGoto, OpIf:
			return false
		}
	}
	return true
}

// ValueName renders v as "%name" or "%<id>".
func (f *Func) ValueName(v ValueID) string {
	if v == NoValueID || int(v) >= len(f.Values) {
		return "%?"
	}
	if name := f.Values[v].Name; name != "" {
		return "%" + name
	}
	return "%" + itoa(int(v))
}

// BlockName renders a block label.
func (f *Func) BlockName(bb BlockID) string {
	if bb == NoBlockID || int(bb) >= len(f.Blocks) {
		return "bb?"
	}
	if name := f.Blocks[bb].Name; name != "" {
		return name
	}
	return "bb" + itoa(int(bb))
}

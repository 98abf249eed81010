package schedule

import (
	"qir/internal/address"
	"qir/internal/ir"
)

// Map holds the segments of every block of one function.
type Map struct {
	fn     *ir.Func
	blocks [][]*StmtDag
}

func (m *Map) Func() *ir.Func { return m.fn }

// Block returns the segments of bb in program order.
func (m *Map) Block(bb ir.BlockID) []*StmtDag {
	if bb < 0 || int(bb) >= len(m.blocks) {
		return nil
	}
	return m.blocks[bb]
}

// Count returns the total number of segments.
func (m *Map) Count() int {
	n := 0
	for _, dags := range m.blocks {
		n += len(dags)
	}
	return n
}

// Build splits every block of fn into hazard DAGs. Only operands resolved
// to a single qubit contribute edges; a qubit-touching statement with an
// unresolved operand seals the current segment.
func Build(fn *ir.Func, res *address.Result) *Map {
	m := &Map{fn: fn, blocks: make([][]*StmtDag, len(fn.Blocks))}
	for i := range fn.Blocks {
		bb := ir.BlockID(i) //nolint:gosec // bounded by block count
		m.blocks[bb] = buildBlock(fn, res, bb)
	}
	return m
}

func buildBlock(fn *ir.Func, res *address.Result, bb ir.BlockID) []*StmtDag {
	var out []*StmtDag
	cur := newDag(bb)
	lastWriter := make(map[uint64]ir.StmtID)

	for _, id := range fn.Block(bb).Stmts {
		st := fn.Stmt(id)
		touches := st.Op.TouchesQubits()
		if !touches && !st.Op.IsTerminator() {
			continue
		}
		cur.addNode(id)

		sealed := st.Op.IsTerminator()
		for _, v := range st.Args {
			a := res.Get(fn.ID, v)
			if touches && a.ContainsAny() {
				sealed = true
			}
			if a.Kind() != address.Qubit {
				continue
			}
			q, _ := a.ID()
			if prev, ok := lastWriter[q]; ok {
				cur.addEdge(prev, id)
			}
			lastWriter[q] = id
		}

		if sealed {
			cur.term = id
			out = append(out, cur)
			cur = newDag(bb)
			clear(lastWriter)
		}
	}
	if len(cur.nodes) > 0 {
		out = append(out, cur)
	}
	return out
}

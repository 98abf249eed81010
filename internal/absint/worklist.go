package absint

import (
	"errors"

	"qir/internal/ir"
)

// ErrNoFixpoint is returned when the visit budget is exhausted.
var ErrNoFixpoint = errors.New("absint: no fixpoint within visit budget")

// DefaultVisitsPerBlock bounds visits when Options.MaxVisits is zero.
const DefaultVisitsPerBlock = 256

type Options struct {
	// MaxVisits caps block visits; zero means DefaultVisitsPerBlock per block.
	MaxVisits int
}

func (o Options) budget(fn *ir.Func) int {
	if o.MaxVisits > 0 {
		return o.MaxVisits
	}
	return DefaultVisitsPerBlock * max(len(fn.Blocks), 1)
}

// ReversePostorder lists the blocks reachable from the entry in reverse
// postorder. Unreachable blocks are omitted.
func ReversePostorder(fn *ir.Func) []ir.BlockID {
	if fn.Entry == ir.NoBlockID {
		return nil
	}
	seen := make([]bool, len(fn.Blocks))
	post := make([]ir.BlockID, 0, len(fn.Blocks))
	type frame struct {
		bb   ir.BlockID
		next int
	}
	stack := []frame{{bb: fn.Entry}}
	seen[fn.Entry] = true
	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		succs := fn.Successors(top.bb)
		if top.next < len(succs) {
			s := succs[top.next]
			top.next++
			if s >= 0 && int(s) < len(seen) && !seen[s] {
				seen[s] = true
				stack = append(stack, frame{bb: s})
			}
			continue
		}
		post = append(post, top.bb)
		stack = stack[:len(stack)-1]
	}
	for i, j := 0, len(post)-1; i < j; i, j = i+1, j-1 {
		post[i], post[j] = post[j], post[i]
	}
	return post
}

// worklist hands out pending blocks in reverse postorder so that a block is
// normally visited after its forward predecessors.
type worklist struct {
	rank    []int // position in RPO, -1 when unreachable
	pending []bool
	count   int
}

func newWorklist(fn *ir.Func) *worklist {
	w := &worklist{
		rank:    make([]int, len(fn.Blocks)),
		pending: make([]bool, len(fn.Blocks)),
	}
	for i := range w.rank {
		w.rank[i] = -1
	}
	for i, bb := range ReversePostorder(fn) {
		w.rank[bb] = i
	}
	return w
}

func (w *worklist) push(bb ir.BlockID) {
	if w.rank[bb] < 0 || w.pending[bb] {
		return
	}
	w.pending[bb] = true
	w.count++
}

func (w *worklist) pop() (ir.BlockID, bool) {
	if w.count == 0 {
		return ir.NoBlockID, false
	}
	best := ir.NoBlockID
	for i, p := range w.pending {
		if p && (best == ir.NoBlockID || w.rank[i] < w.rank[best]) {
			best = ir.BlockID(i) //nolint:gosec // bounded by block count
		}
	}
	w.pending[best] = false
	w.count--
	return best, true
}

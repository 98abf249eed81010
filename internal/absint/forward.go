package absint

import (
	"fmt"

	"qir/internal/ir"
)

// BlockTransfer maps the state at the start of bb to the state at its end.
type BlockTransfer[S any] func(bb ir.BlockID, in S) S

// Result holds per-block states of a Forward run.
type Result[S any] struct {
	In      []S
	Out     []S
	Reached []bool
}

// Forward runs a dense forward analysis starting from entry at fn.Entry.
func Forward[S any](fn *ir.Func, lat Lattice[S], entry S, transfer BlockTransfer[S], opts Options) (*Result[S], error) {
	n := len(fn.Blocks)
	res := &Result[S]{
		In:      make([]S, n),
		Out:     make([]S, n),
		Reached: make([]bool, n),
	}
	for i := range n {
		res.In[i] = lat.Bottom()
		res.Out[i] = lat.Bottom()
	}
	if fn.Entry == ir.NoBlockID {
		return res, nil
	}
	res.In[fn.Entry] = entry
	res.Reached[fn.Entry] = true

	wl := newWorklist(fn)
	wl.push(fn.Entry)
	visited := make([]bool, n)
	budget := opts.budget(fn)

	for visits := 0; ; visits++ {
		bb, ok := wl.pop()
		if !ok {
			return res, nil
		}
		if visits >= budget {
			return res, fmt.Errorf("@%s: %w", fn.Name, ErrNoFixpoint)
		}
		out := transfer(bb, res.In[bb])
		if visited[bb] && lat.Equal(out, res.Out[bb]) {
			continue
		}
		visited[bb] = true
		res.Out[bb] = out

		for _, succ := range fn.Successors(bb) {
			joined := lat.Join(res.In[succ], out)
			if res.Reached[succ] && lat.Equal(joined, res.In[succ]) {
				continue
			}
			res.In[succ] = joined
			res.Reached[succ] = true
			wl.push(succ)
		}
	}
}

// ExitBlocks lists the blocks that end in a return.
func ExitBlocks(fn *ir.Func) []ir.BlockID {
	var out []ir.BlockID
	for i := range fn.Blocks {
		bb := ir.BlockID(i) //nolint:gosec // bounded by block count
		if term := fn.Terminator(bb); term != nil && term.Op == ir.OpReturn {
			out = append(out, bb)
		}
	}
	return out
}

// Exit joins the out-states of all reached return blocks.
func (r *Result[S]) Exit(fn *ir.Func, lat Lattice[S]) S {
	acc := lat.Bottom()
	for _, bb := range ExitBlocks(fn) {
		if r.Reached[bb] {
			acc = lat.Join(acc, r.Out[bb])
		}
	}
	return acc
}

// Final joins the out-states of every reached block without successors,
// covering paths that end in unreachable as well as returns.
func (r *Result[S]) Final(fn *ir.Func, lat Lattice[S]) S {
	acc := lat.Bottom()
	for i := range fn.Blocks {
		bb := ir.BlockID(i) //nolint:gosec // bounded by block count
		if r.Reached[bb] && len(fn.Successors(bb)) == 0 {
			acc = lat.Join(acc, r.Out[bb])
		}
	}
	return acc
}

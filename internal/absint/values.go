package absint

import (
	"fmt"

	"qir/internal/ir"
)

// Env maps every value of one function to an abstract element.
type Env[V any] struct {
	vals []V
}

// Get returns the element bound to v. Out-of-range ids yield the zero V.
func (e *Env[V]) Get(v ir.ValueID) V {
	if v < 0 || int(v) >= len(e.vals) {
		var zero V
		return zero
	}
	return e.vals[v]
}

// Values returns the backing slice indexed by ir.ValueID.
func (e *Env[V]) Values() []V {
	return e.vals
}

// StmtTransfer computes the results of st from the current environment. It
// returns one element per result; non-terminators with no results return nil.
type StmtTransfer[V any] func(st *ir.Stmt, env *Env[V]) []V

// SolveValues runs a sparse forward analysis over fn. params seeds the entry
// block parameters. Values in unreachable blocks stay at Bottom.
func SolveValues[V any](fn *ir.Func, lat Lattice[V], params []V, transfer StmtTransfer[V], opts Options) (*Env[V], error) {
	env := &Env[V]{vals: make([]V, len(fn.Values))}
	for i := range env.vals {
		env.vals[i] = lat.Bottom()
	}
	if fn.Entry == ir.NoBlockID {
		return env, nil
	}
	entry := fn.Block(fn.Entry)
	if len(params) != len(entry.Params) {
		return env, fmt.Errorf("absint: @%s takes %d parameters, got %d", fn.Name, len(entry.Params), len(params))
	}
	for i, p := range entry.Params {
		env.vals[p] = params[i]
	}

	users := valueUsers(fn)
	wl := newWorklist(fn)
	visited := make([]bool, len(fn.Blocks))
	wl.push(fn.Entry)
	budget := opts.budget(fn)

	// notify re-queues already visited blocks that read v.
	notify := func(v ir.ValueID, from ir.BlockID) {
		for _, u := range users[v] {
			if u != from && visited[u] {
				wl.push(u)
			}
		}
	}

	for visits := 0; ; visits++ {
		bb, ok := wl.pop()
		if !ok {
			return env, nil
		}
		if visits >= budget {
			return env, fmt.Errorf("@%s: %w", fn.Name, ErrNoFixpoint)
		}
		visited[bb] = true

		for _, id := range fn.Block(bb).Stmts {
			st := fn.Stmt(id)
			res := transfer(st, env)
			for i, r := range st.Results {
				if i >= len(res) {
					break
				}
				joined := lat.Join(env.vals[r], res[i])
				if !lat.Equal(joined, env.vals[r]) {
					env.vals[r] = joined
					notify(r, bb)
				}
			}
		}

		term := fn.Terminator(bb)
		if term == nil {
			continue
		}
		for _, succ := range term.Succs {
			target := fn.Block(succ.Block)
			for i, p := range target.Params {
				if i >= len(succ.Args) {
					break
				}
				joined := lat.Join(env.vals[p], env.vals[succ.Args[i]])
				if !lat.Equal(joined, env.vals[p]) {
					env.vals[p] = joined
					notify(p, ir.NoBlockID)
				}
			}
			if !visited[succ.Block] {
				wl.push(succ.Block)
			}
		}
	}
}

// valueUsers lists, per value, the blocks whose statements read it.
func valueUsers(fn *ir.Func) [][]ir.BlockID {
	users := make([][]ir.BlockID, len(fn.Values))
	add := func(v ir.ValueID, bb ir.BlockID) {
		if v < 0 || int(v) >= len(users) {
			return
		}
		if n := len(users[v]); n > 0 && users[v][n-1] == bb {
			return
		}
		users[v] = append(users[v], bb)
	}
	for i := range fn.Blocks {
		blk := &fn.Blocks[i]
		for _, id := range blk.Stmts {
			st := fn.Stmt(id)
			for _, v := range st.Operands() {
				add(v, blk.ID)
			}
			for _, v := range st.Params {
				add(v, blk.ID)
			}
		}
	}
	return users
}

package constfold

import (
	"sync"

	"qir/internal/absint"
	"qir/internal/ir"
)

// Folder answers "is this value a known constant?" for every function of a
// program. Functions are folded on first use; parameters are Unknown.
type Folder struct {
	prog *ir.Program

	mu   sync.Mutex
	envs map[ir.FuncID][]Value
}

func New(prog *ir.Program) *Folder {
	return &Folder{prog: prog, envs: make(map[ir.FuncID][]Value)}
}

// Value returns the folded value of v in fn.
func (f *Folder) Value(fn *ir.Func, v ir.ValueID) Value {
	vals := f.env(fn)
	if v < 0 || int(v) >= len(vals) {
		return unknown
	}
	return vals[v]
}

// Int returns the integer constant bound to v, if any.
func (f *Folder) Int(fn *ir.Func, v ir.ValueID) (int64, bool) {
	val := f.Value(fn, v)
	return val.Int, val.Kind == Int
}

// Bool returns the boolean constant bound to v, if any.
func (f *Folder) Bool(fn *ir.Func, v ir.ValueID) (bool, bool) {
	val := f.Value(fn, v)
	return val.Bool, val.Kind == Bool
}

func (f *Folder) env(fn *ir.Func) []Value {
	f.mu.Lock()
	defer f.mu.Unlock()
	if vals, ok := f.envs[fn.ID]; ok {
		return vals
	}
	vals := Fold(fn)
	f.envs[fn.ID] = vals
	return vals
}

// Fold evaluates fn with unknown parameters and returns one Value per
// ir.ValueID. If the fixpoint budget runs out every value is Unknown.
func Fold(fn *ir.Func) []Value {
	params := make([]Value, 0, len(fn.Params))
	for range fn.Params {
		params = append(params, unknown)
	}
	step := func(st *ir.Stmt, env *absint.Env[Value]) []Value {
		return transfer(st, env.Get)
	}
	env, err := absint.SolveValues[Value](fn, lattice{}, params, step, absint.Options{})
	if err != nil {
		vals := make([]Value, len(fn.Values))
		for i := range vals {
			vals[i] = unknown
		}
		return vals
	}
	return env.Values()
}

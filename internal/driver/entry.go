package driver

import (
	"fmt"

	"qir/internal/ir"
)

// selectEntries picks the functions to analyze from: the named entry, else
// @main, else every function with a body that no other function calls.
// When every function is called (mutual recursion), all of them are roots.
func selectEntries(prog *ir.Program, name string) ([]*ir.Func, error) {
	if name != "" {
		fn, ok := prog.Lookup(name)
		if !ok || fn.Entry == ir.NoBlockID {
			return nil, fmt.Errorf("entry function @%s not found", name)
		}
		return []*ir.Func{fn}, nil
	}
	if fn, ok := prog.Lookup("main"); ok && fn.Entry != ir.NoBlockID {
		return []*ir.Func{fn}, nil
	}

	called := make(map[ir.FuncID]bool)
	var bodies []*ir.Func
	for _, fn := range prog.Funcs {
		if fn == nil || fn.Entry == ir.NoBlockID {
			continue
		}
		bodies = append(bodies, fn)
		for i := range fn.Stmts {
			if st := &fn.Stmts[i]; st.Op == ir.OpCall && st.Callee != fn.ID {
				called[st.Callee] = true
			}
		}
	}
	var roots []*ir.Func
	for _, fn := range bodies {
		if !called[fn.ID] {
			roots = append(roots, fn)
		}
	}
	if len(roots) == 0 {
		return bodies, nil
	}
	return roots, nil
}

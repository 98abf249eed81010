package ir

import (
	"errors"
	"fmt"
)

// Validate checks structural invariants of every function in p.
// All violations are reported, joined into one error.
func Validate(p *Program) error {
	if p == nil {
		return nil
	}
	var errs []error
	for _, f := range p.Funcs {
		if f == nil {
			continue
		}
		if err := validateFunc(p, f); err != nil {
			errs = append(errs, fmt.Errorf("function @%s: %w", f.Name, err))
		}
	}
	return errors.Join(errs...)
}

func validateFunc(p *Program, f *Func) error {
	if f.Entry == NoBlockID || len(f.Blocks) == 0 {
		return errors.New("declared but has no body")
	}

	var errs []error

	// 1. Every block ends with exactly one terminator.
	if err := validateTerminators(f); err != nil {
		errs = append(errs, err)
	}

	// 2. Branch targets exist and receive the right number of arguments.
	if err := validateSuccessors(f); err != nil {
		errs = append(errs, err)
	}

	// 3. Operands are defined values; each value has exactly one definition.
	if err := validateValues(f); err != nil {
		errs = append(errs, err)
	}

	// 4. Calls target defined functions with matching arity.
	if err := validateCalls(p, f); err != nil {
		errs = append(errs, err)
	}

	// 5. Return arity is consistent.
	if err := validateReturns(f); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

func validateTerminators(f *Func) error {
	var errs []error
	for i := range f.Blocks {
		bb := &f.Blocks[i]
		if len(bb.Stmts) == 0 {
			errs = append(errs, fmt.Errorf("%s: empty block", f.BlockName(bb.ID)))
			continue
		}
		for j, id := range bb.Stmts {
			st := &f.Stmts[id]
			last := j == len(bb.Stmts)-1
			switch {
			case last && !st.Op.IsTerminator():
				errs = append(errs, fmt.Errorf("%s: unterminated block", f.BlockName(bb.ID)))
			case !last && st.Op.IsTerminator():
				errs = append(errs, fmt.Errorf("%s: %s in the middle of the block", f.BlockName(bb.ID), st.Op))
			}
			if st.Block != bb.ID {
				errs = append(errs, fmt.Errorf("%s: statement s%d claims block %s", f.BlockName(bb.ID), id, f.BlockName(st.Block)))
			}
		}
	}
	return errors.Join(errs...)
}

func validateSuccessors(f *Func) error {
	var errs []error
	blockExists := func(id BlockID) bool {
		return id >= 0 && int(id) < len(f.Blocks)
	}
	for i := range f.Stmts {
		st := &f.Stmts[i]
		want := 0
		switch st.Op {
		case OpGoto:
			want = 1
		case OpIf:
			want = 2
		}
		if len(st.Succs) != want {
			errs = append(errs, fmt.Errorf("s%d: %s expects %d successors, has %d", st.ID, st.Op, want, len(st.Succs)))
			continue
		}
		for _, succ := range st.Succs {
			if !blockExists(succ.Block) {
				errs = append(errs, fmt.Errorf("s%d: target bb%d does not exist", st.ID, succ.Block))
				continue
			}
			if n := len(f.Blocks[succ.Block].Params); n != len(succ.Args) {
				errs = append(errs, fmt.Errorf("s%d: %s takes %d arguments, got %d",
					st.ID, f.BlockName(succ.Block), n, len(succ.Args)))
			}
		}
	}
	return errors.Join(errs...)
}

func validateValues(f *Func) error {
	var errs []error
	valueExists := func(id ValueID) bool {
		return id >= 0 && int(id) < len(f.Values)
	}
	defs := make([]int, len(f.Values))
	for i := range f.Blocks {
		for _, p := range f.Blocks[i].Params {
			if valueExists(p) {
				defs[p]++
			}
		}
	}
	for i := range f.Stmts {
		st := &f.Stmts[i]
		for _, r := range st.Results {
			if !valueExists(r) {
				errs = append(errs, fmt.Errorf("s%d: result %d does not exist", st.ID, r))
				continue
			}
			defs[r]++
			if f.Values[r].Def != st.ID {
				errs = append(errs, fmt.Errorf("s%d: result %s records definition s%d", st.ID, f.ValueName(r), f.Values[r].Def))
			}
		}
		check := func(ids []ValueID, what string) {
			for _, v := range ids {
				if !valueExists(v) {
					errs = append(errs, fmt.Errorf("s%d: %s %d does not exist", st.ID, what, v))
				}
			}
		}
		check(st.Args, "operand")
		check(st.Params, "parameter")
		for _, succ := range st.Succs {
			check(succ.Args, "block argument")
		}
		if st.Op == OpSlice {
			n := 1
			for _, has := range []bool{st.Slice.HasStart, st.Slice.HasStop, st.Slice.HasStep} {
				if has {
					n++
				}
			}
			if len(st.Args) != n {
				errs = append(errs, fmt.Errorf("s%d: slice expects %d operands, has %d", st.ID, n, len(st.Args)))
			}
		}
	}
	for i, n := range defs {
		if n != 1 {
			errs = append(errs, fmt.Errorf("value %s defined %d times", f.ValueName(ValueID(i)), n)) //nolint:gosec // bounded by value count
		}
	}
	return errors.Join(errs...)
}

func validateCalls(p *Program, f *Func) error {
	var errs []error
	for i := range f.Stmts {
		st := &f.Stmts[i]
		if st.Op != OpCall {
			continue
		}
		callee := p.Func(st.Callee)
		if callee == nil {
			errs = append(errs, fmt.Errorf("s%d: call to unknown function", st.ID))
			continue
		}
		if callee.Entry == NoBlockID {
			// reported on the callee itself
			continue
		}
		if len(callee.Params) != len(st.Args) {
			errs = append(errs, fmt.Errorf("s%d: @%s takes %d arguments, got %d", st.ID, callee.Name, len(callee.Params), len(st.Args)))
		}
		if callee.NumResults != len(st.Results) {
			errs = append(errs, fmt.Errorf("s%d: @%s returns %d values, call expects %d", st.ID, callee.Name, callee.NumResults, len(st.Results)))
		}
	}
	return errors.Join(errs...)
}

func validateReturns(f *Func) error {
	var errs []error
	for i := range f.Stmts {
		st := &f.Stmts[i]
		if st.Op == OpReturn && len(st.Args) != f.NumResults {
			errs = append(errs, fmt.Errorf("s%d: returns %d values, function returns %d", st.ID, len(st.Args), f.NumResults))
		}
	}
	return errors.Join(errs...)
}

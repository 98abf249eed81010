package nocloning

import (
	"slices"

	"qir/internal/address"
	"qir/internal/ir"
)

// maxAliasChain bounds how far possibleSet follows copies.
const maxAliasChain = 32

// duplicates returns the ids occurring more than once, ascending.
func duplicates(ids []uint64) []uint64 {
	seen := make(map[uint64]int, len(ids))
	for _, id := range ids {
		seen[id]++
	}
	if len(seen) == len(ids) {
		return nil
	}
	var out []uint64
	for id, n := range seen {
		if n > 1 {
			out = append(out, id)
		}
	}
	slices.Sort(out)
	return out
}

func witnesses(st *ir.Stmt, ids []uint64) []Witness {
	out := make([]Witness, len(ids))
	for i, id := range ids {
		out[i] = Witness{Qubit: id, Gate: st.Name()}
	}
	return out
}

func valueWitnesses(st *ir.Stmt, vals []ir.ValueID) []Witness {
	out := make([]Witness, len(vals))
	for i, v := range vals {
		out[i] = Witness{Gate: st.Name(), ByValue: true, Value: v}
	}
	return out
}

// repeatedUnresolved returns the operands of st passed more than once whose
// address does not flatten. One SSA value always denotes one qubit, so
// these clone even though their ids are unknown.
func repeatedUnresolved(fn *ir.Func, res *address.Result, st *ir.Stmt) []ir.ValueID {
	var out []ir.ValueID
	for i, v := range st.Args {
		if !slices.Contains(st.Args[:i], v) || slices.Contains(out, v) {
			continue
		}
		if _, ok := res.Get(fn.ID, v).Flatten(); !ok {
			out = append(out, v)
		}
	}
	slices.Sort(out)
	return out
}

// checked reports whether st is subject to the no-cloning check.
func checked(st *ir.Stmt) bool {
	return st.Op.IsGateLike()
}

// exactCheck flattens every operand of st. ok is false when an operand
// cannot be resolved.
func exactCheck(fn *ir.Func, res *address.Result, st *ir.Stmt) (dups []uint64, ok bool) {
	var ids []uint64
	for _, v := range st.Args {
		flat, ok := res.Get(fn.ID, v).Flatten()
		if !ok {
			return nil, false
		}
		ids = append(ids, flat...)
	}
	return duplicates(ids), true
}

// possibleSet returns the qubits an unresolved value may designate. Values
// read out of a resolved container by index or slice may designate any of
// its qubits.
func possibleSet(fn *ir.Func, res *address.Result, v ir.ValueID) ([]uint64, bool) {
	for range maxAliasChain {
		if v == ir.NoValueID {
			return nil, false
		}
		val := fn.Value(v)
		if val.IsParam() {
			return nil, false
		}
		st := fn.Stmt(val.Def)
		switch st.Op {
		case ir.OpIndex, ir.OpSlice:
			ids, ok := res.Get(fn.ID, st.Args[0]).Flatten()
			if ok {
				return ids, true
			}
			v = st.Args[0]
		case ir.OpAlias, ir.OpUnwrap:
			v = st.Args[0]
		case ir.OpWireApply:
			if val.Index >= len(st.Args) {
				return nil, false
			}
			v = st.Args[val.Index]
		default:
			return nil, false
		}
		if ids, ok := res.Get(fn.ID, v).Flatten(); ok && len(ids) > 0 {
			return ids, true
		}
	}
	return nil, false
}

// symbolicCheck classifies st: Must for definite duplicates, May when an
// unresolved operand may overlap another operand, None otherwise.
func symbolicCheck(fn *ir.Func, res *address.Result, st *ir.Stmt) Violation {
	var definite []uint64
	var possible [][]uint64
	for _, v := range st.Args {
		if ids, ok := res.Get(fn.ID, v).Flatten(); ok {
			definite = append(definite, ids...)
			continue
		}
		if ids, ok := possibleSet(fn, res, v); ok {
			possible = append(possible, ids)
		}
	}
	dups := duplicates(definite)
	repeated := repeatedUnresolved(fn, res, st)
	if len(dups) > 0 || len(repeated) > 0 {
		ws := append(witnesses(st, dups), valueWitnesses(st, repeated)...)
		return downgrade(res, newViolation(Must, ws))
	}

	var overlap []uint64
	for i, p := range possible {
		others := slices.Clone(definite)
		for j, q := range possible {
			if j != i {
				others = append(others, q...)
			}
		}
		overlap = append(overlap, intersect(p, others)...)
	}
	return newViolation(May, witnesses(st, overlap))
}

func intersect(a, b []uint64) []uint64 {
	in := make(map[uint64]bool, len(b))
	for _, id := range b {
		in[id] = true
	}
	var out []uint64
	for _, id := range a {
		if in[id] {
			out = append(out, id)
		}
	}
	return out
}

// downgrade turns a Must into a May when one of its qubits was handed out
// after an allocation of unknown size.
func downgrade(res *address.Result, v Violation) Violation {
	if v.Kind != Must || !res.Unreliable {
		return v
	}
	for _, w := range v.Witnesses {
		if !w.ByValue && w.Qubit >= res.UnreliableFrom {
			return Violation{Kind: May, Witnesses: v.Witnesses}
		}
	}
	return v
}

package nocloning

import (
	"cmp"
	"slices"

	"qir/internal/ir"
	"qir/internal/source"
)

// Finding is one gate that clones, or may clone, a qubit.
type Finding struct {
	Func   ir.FuncID
	Stmt   ir.StmtID
	Gate   string
	Kind   Kind
	Qubits []uint64
	// Values are operands passed twice whose qubit is unresolved.
	Values []ir.ValueID
	// Also lists further statements producing the same clone on other paths.
	Also []ir.StmtID
	Span source.Span
}

func newFinding(fn *ir.Func, st *ir.Stmt, v Violation) Finding {
	return Finding{
		Func:   fn.ID,
		Stmt:   st.ID,
		Gate:   st.Name(),
		Kind:   v.Kind,
		Qubits: v.Qubits(),
		Values: v.Values(),
		Span:   st.Span,
	}
}

func compareFinding(a, b Finding) int {
	if c := cmp.Compare(a.Stmt, b.Stmt); c != 0 {
		return c
	}
	if c := cmp.Compare(b.Kind, a.Kind); c != 0 {
		return c
	}
	if c := slices.Compare(a.Qubits, b.Qubits); c != 0 {
		return c
	}
	if c := slices.Compare(a.Values, b.Values); c != 0 {
		return c
	}
	return slices.Compare(a.Also, b.Also)
}

// Count returns the number of Must and May findings.
func Count(findings []Finding) (must, may int) {
	for _, f := range findings {
		switch f.Kind {
		case Must:
			must++
		case May:
			may++
		}
	}
	return must, may
}

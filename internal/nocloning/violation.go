package nocloning

import (
	"cmp"
	"slices"

	"qir/internal/ir"
)

// Kind classifies a violation.
type Kind uint8

const (
	None Kind = iota
	May
	Must
)

func (k Kind) String() string {
	switch k {
	case May:
		return "may"
	case Must:
		return "must"
	}
	return "none"
}

// Witness is one duplicated qubit at one gate. When ByValue is set the
// duplicate is the SSA value Value passed twice, whose qubit is unresolved.
type Witness struct {
	Qubit   uint64
	Gate    string
	ByValue bool
	Value   ir.ValueID
}

func compareWitness(a, b Witness) int {
	if a.ByValue != b.ByValue {
		if a.ByValue {
			return 1
		}
		return -1
	}
	if c := cmp.Compare(a.Qubit, b.Qubit); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Value, b.Value); c != 0 {
		return c
	}
	return cmp.Compare(a.Gate, b.Gate)
}

// Violation is the no-cloning state of one gate. Witnesses are sorted and
// unique; a None violation has no witnesses.
type Violation struct {
	Kind      Kind
	Witnesses []Witness
}

func newViolation(kind Kind, ws []Witness) Violation {
	if kind == None || len(ws) == 0 {
		return Violation{}
	}
	ws = slices.Clone(ws)
	slices.SortFunc(ws, compareWitness)
	ws = slices.Compact(ws)
	return Violation{Kind: kind, Witnesses: ws}
}

// Join merges the states of two paths. Identical Must sets stay Must; any
// other combination involving a violation is a May over the union of
// witnesses.
func Join(a, b Violation) Violation {
	if a.Kind == None && b.Kind == None {
		return Violation{}
	}
	if a.Kind == Must && b.Kind == Must && slices.Equal(a.Witnesses, b.Witnesses) {
		return a
	}
	ws := make([]Witness, 0, len(a.Witnesses)+len(b.Witnesses))
	ws = append(ws, a.Witnesses...)
	ws = append(ws, b.Witnesses...)
	return newViolation(May, ws)
}

func (v Violation) Equal(o Violation) bool {
	return v.Kind == o.Kind && slices.Equal(v.Witnesses, o.Witnesses)
}

// Qubits lists the distinct witness qubits in ascending order.
func (v Violation) Qubits() []uint64 {
	out := make([]uint64, 0, len(v.Witnesses))
	for _, w := range v.Witnesses {
		if !w.ByValue {
			out = append(out, w.Qubit)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}

// Values lists the distinct by-value witnesses in ascending order.
func (v Violation) Values() []ir.ValueID {
	var out []ir.ValueID
	for _, w := range v.Witnesses {
		if w.ByValue {
			out = append(out, w.Value)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}

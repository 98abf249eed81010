package address

import (
	"strconv"
	"strings"
)

// Kind is the shape of an Address.
type Kind uint8

const (
	// NotQubit is the least element: a classical value, or nothing known yet.
	NotQubit Kind = iota
	// Qubit is one physical qubit.
	Qubit
	// Register is a contiguous half-open range of qubits.
	Register
	// Tuple is a fixed sequence of addresses.
	Tuple
	// PartialTuple is a tuple with at least one Any element.
	PartialTuple
	// Wire is a linear handle unwrapped from a qubit.
	Wire
	// Any is the greatest element: unresolved.
	Any
)

var kindNames = [...]string{
	NotQubit:     "not-qubit",
	Qubit:        "qubit",
	Register:     "register",
	Tuple:        "tuple",
	PartialTuple: "partial-tuple",
	Wire:         "wire",
	Any:          "any",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Address describes which qubits a value designates. The zero value is
// NotQubit. Addresses are immutable; elems is never modified after
// construction.
type Address struct {
	kind  Kind
	id    uint64 // Qubit id, Wire origin, Register start
	end   uint64 // Register end (exclusive)
	elems []Address
}

// NotQubitAddr returns the bottom element.
func NotQubitAddr() Address { return Address{} }

// AnyAddr returns the top element.
func AnyAddr() Address { return Address{kind: Any} }

// QubitAddr returns the address of qubit id.
func QubitAddr(id uint64) Address { return Address{kind: Qubit, id: id} }

// WireAddr returns a wire unwrapped from qubit origin.
func WireAddr(origin uint64) Address { return Address{kind: Wire, id: origin} }

// RegisterAddr returns the range [start, end). end < start is clamped to
// an empty range.
func RegisterAddr(start, end uint64) Address {
	if end < start {
		end = start
	}
	return Address{kind: Register, id: start, end: end}
}

// TupleAddr builds a Tuple, or a PartialTuple when an element is Any or
// itself partial.
func TupleAddr(elems ...Address) Address {
	kind := Tuple
	for _, e := range elems {
		if e.kind == Any || e.kind == PartialTuple {
			kind = PartialTuple
			break
		}
	}
	cp := make([]Address, len(elems))
	copy(cp, elems)
	return Address{kind: kind, elems: cp}
}

func (a Address) Kind() Kind { return a.kind }

// ID returns the qubit of a Qubit or the origin of a Wire.
func (a Address) ID() (uint64, bool) {
	if a.kind == Qubit || a.kind == Wire {
		return a.id, true
	}
	return 0, false
}

// Range returns the bounds of a Register.
func (a Address) Range() (start, end uint64, ok bool) {
	if a.kind != Register {
		return 0, 0, false
	}
	return a.id, a.end, true
}

// Elems returns the elements of a Tuple or PartialTuple. The slice must not
// be modified.
func (a Address) Elems() []Address {
	if a.kind == Tuple || a.kind == PartialTuple {
		return a.elems
	}
	return nil
}

// Len returns the number of elements of an indexable address.
func (a Address) Len() (uint64, bool) {
	switch a.kind {
	case Register:
		return a.end - a.id, true
	case Tuple, PartialTuple:
		return uint64(len(a.elems)), true
	}
	return 0, false
}

// Elem returns element i of a Register, Tuple or PartialTuple.
func (a Address) Elem(i uint64) (Address, bool) {
	n, ok := a.Len()
	if !ok || i >= n {
		return Address{}, false
	}
	if a.kind == Register {
		return QubitAddr(a.id + i), true
	}
	return a.elems[i], true
}

// IsConcrete reports whether the address can be flattened to qubit ids.
func (a Address) IsConcrete() bool {
	_, ok := a.Flatten()
	return ok
}

// ContainsAny reports whether a is Any or an aggregate holding Any.
func (a Address) ContainsAny() bool {
	return a.kind == Any || a.kind == PartialTuple
}

// Flatten lists the qubit ids a designates, in order. Wires designate their
// origin. It fails for Any and for aggregates containing Any.
func (a Address) Flatten() ([]uint64, bool) {
	return a.appendIDs(nil)
}

func (a Address) appendIDs(out []uint64) ([]uint64, bool) {
	switch a.kind {
	case NotQubit:
		return out, true
	case Qubit, Wire:
		return append(out, a.id), true
	case Register:
		for q := a.id; q < a.end; q++ {
			out = append(out, q)
		}
		return out, true
	case Tuple:
		for _, e := range a.elems {
			var ok bool
			if out, ok = e.appendIDs(out); !ok {
				return nil, false
			}
		}
		return out, true
	}
	return nil, false
}

// Equal compares structurally.
func (a Address) Equal(b Address) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case Qubit, Wire:
		return a.id == b.id
	case Register:
		return a.id == b.id && a.end == b.end
	case Tuple, PartialTuple:
		if len(a.elems) != len(b.elems) {
			return false
		}
		for i := range a.elems {
			if !a.elems[i].Equal(b.elems[i]) {
				return false
			}
		}
	}
	return true
}

// Join is the least upper bound in the flat lattice: NotQubit is neutral,
// equal addresses are kept, anything else becomes Any.
func Join(a, b Address) Address {
	switch {
	case a.kind == NotQubit:
		return b
	case b.kind == NotQubit:
		return a
	case a.Equal(b):
		return a
	}
	return AnyAddr()
}

// Leq reports whether a is below or equal to b.
func Leq(a, b Address) bool {
	return Join(a, b).Equal(b)
}

func (a Address) String() string {
	switch a.kind {
	case NotQubit, Any:
		return a.kind.String()
	case Qubit:
		return "q" + strconv.FormatUint(a.id, 10)
	case Wire:
		return "wire(q" + strconv.FormatUint(a.id, 10) + ")"
	case Register:
		return "q[" + strconv.FormatUint(a.id, 10) + ".." + strconv.FormatUint(a.end, 10) + ")"
	}
	var sb strings.Builder
	if a.kind == PartialTuple {
		sb.WriteString("partial")
	}
	sb.WriteByte('(')
	for i, e := range a.elems {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(e.String())
	}
	sb.WriteByte(')')
	return sb.String()
}

// lattice adapts Address to absint.Lattice.
type lattice struct{}

func (lattice) Bottom() Address           { return Address{} }
func (lattice) Join(a, b Address) Address { return Join(a, b) }
func (lattice) Equal(a, b Address) bool   { return a.Equal(b) }

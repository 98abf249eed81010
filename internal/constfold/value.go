package constfold

import (
	"strconv"

	"qir/internal/ir"
)

// Kind classifies a folded value.
type Kind uint8

const (
	// Unreached is the bottom element: no definition has been evaluated.
	Unreached Kind = iota
	Int
	Bool
	Float
	None
	// Unknown is the top element: the value is not a compile-time constant.
	Unknown
)

// Value is an element of the constant lattice.
type Value struct {
	Kind  Kind
	Int   int64
	Bool  bool
	Float float64
}

func IntValue(n int64) Value { return Value{Kind: Int, Int: n} }

var unknown = Value{Kind: Unknown}

func (v Value) String() string {
	switch v.Kind {
	case Unreached:
		return "unreached"
	case Int:
		return strconv.FormatInt(v.Int, 10)
	case Bool:
		return strconv.FormatBool(v.Bool)
	case Float:
		return strconv.FormatFloat(v.Float, 'g', -1, 64)
	case None:
		return "none"
	}
	return "unknown"
}

func fromConst(c ir.Const) Value {
	switch c.Kind {
	case ir.ConstInt:
		return Value{Kind: Int, Int: c.Int}
	case ir.ConstBool:
		return Value{Kind: Bool, Bool: c.Bool}
	case ir.ConstFloat:
		return Value{Kind: Float, Float: c.Float}
	}
	return Value{Kind: None}
}

// lattice is the flat constant lattice.
type lattice struct{}

func (lattice) Bottom() Value { return Value{} }

func (lattice) Join(a, b Value) Value {
	switch {
	case a.Kind == Unreached:
		return b
	case b.Kind == Unreached:
		return a
	case a == b:
		return a
	}
	return unknown
}

func (lattice) Equal(a, b Value) bool { return a == b }

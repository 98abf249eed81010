package constfold

import (
	"math"

	"qir/internal/ir"
)

// evalBinary folds integer and float arithmetic. Integer division and
// modulo round toward negative infinity; a zero divisor is Unknown.
func evalBinary(op ir.BinOp, a, b Value) Value {
	if a.Kind == Unreached || b.Kind == Unreached {
		return Value{}
	}
	if a.Kind == Int && b.Kind == Int {
		return evalInt(op, a.Int, b.Int)
	}
	x, okA := asFloat(a)
	y, okB := asFloat(b)
	if !okA || !okB {
		return unknown
	}
	var r float64
	switch op {
	case ir.BinAdd:
		r = x + y
	case ir.BinSub:
		r = x - y
	case ir.BinMul:
		r = x * y
	case ir.BinDiv:
		if y == 0 {
			return unknown
		}
		r = x / y
	case ir.BinMod:
		if y == 0 {
			return unknown
		}
		r = x - y*math.Floor(x/y)
	default:
		return unknown
	}
	return Value{Kind: Float, Float: r}
}

func evalInt(op ir.BinOp, x, y int64) Value {
	switch op {
	case ir.BinAdd:
		r := x + y
		if (r > x) != (y > 0) {
			return unknown
		}
		return IntValue(r)
	case ir.BinSub:
		r := x - y
		if (r < x) != (y > 0) {
			return unknown
		}
		return IntValue(r)
	case ir.BinMul:
		if x == 0 || y == 0 {
			return IntValue(0)
		}
		r := x * y
		if r/y != x || (x == -1 && y == math.MinInt64) || (y == -1 && x == math.MinInt64) {
			return unknown
		}
		return IntValue(r)
	case ir.BinDiv:
		if y == 0 || (x == math.MinInt64 && y == -1) {
			return unknown
		}
		return IntValue(FloorDiv(x, y))
	case ir.BinMod:
		if y == 0 {
			return unknown
		}
		if y == -1 {
			return IntValue(0)
		}
		return IntValue(FloorMod(x, y))
	}
	return unknown
}

// FloorDiv divides rounding toward negative infinity. y must be non-zero.
func FloorDiv(x, y int64) int64 {
	q := x / y
	if (x%y != 0) && ((x < 0) != (y < 0)) {
		q--
	}
	return q
}

// FloorMod returns x - y*FloorDiv(x, y); the result has the sign of y.
func FloorMod(x, y int64) int64 {
	m := x % y
	if m != 0 && ((m < 0) != (y < 0)) {
		m += y
	}
	return m
}

func asFloat(v Value) (float64, bool) {
	switch v.Kind {
	case Int:
		return float64(v.Int), true
	case Float:
		return v.Float, true
	}
	return 0, false
}

func evalNeg(v Value) Value {
	switch v.Kind {
	case Unreached:
		return v
	case Int:
		if v.Int == math.MinInt64 {
			return unknown
		}
		return IntValue(-v.Int)
	case Float:
		return Value{Kind: Float, Float: -v.Float}
	}
	return unknown
}

// transfer evaluates one statement over the current environment.
func transfer(st *ir.Stmt, get func(ir.ValueID) Value) []Value {
	if len(st.Results) == 0 {
		return nil
	}
	switch st.Op {
	case ir.OpConst:
		return []Value{fromConst(st.Const)}
	case ir.OpBinary:
		return []Value{evalBinary(st.BinOp, get(st.Args[0]), get(st.Args[1]))}
	case ir.OpNeg:
		return []Value{evalNeg(get(st.Args[0]))}
	case ir.OpAlias:
		return []Value{get(st.Args[0])}
	}
	out := make([]Value, len(st.Results))
	for i := range out {
		out[i] = unknown
	}
	return out
}

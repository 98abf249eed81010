package ir

// Op enumerates statement kinds.
type Op uint8

const (
	OpInvalid Op = iota
	// OpConst is a literal.
	OpConst
	// OpBinary is scalar arithmetic on two operands.
	OpBinary
	// OpNeg negates a scalar.
	OpNeg
	// OpQAlloc allocates Args[0] fresh qubits.
	OpQAlloc
	// OpIndex reads element Args[1] of container Args[0].
	OpIndex
	// OpSlice takes a Python-style slice of Args[0].
	OpSlice
	// OpTuple builds a tuple of its operands.
	OpTuple
	// OpList builds a list of its operands.
	OpList
	// OpConcat concatenates two aggregates.
	OpConcat
	// OpAlias copies its operand.
	OpAlias
	// OpUnwrap turns a qubit into a wire.
	OpUnwrap
	// OpWireApply applies a gate to wires and yields the updated wires.
	OpWireApply
	// OpWrap writes wire Args[0] back into qubit Args[1].
	OpWrap
	// OpGate applies a gate to qubit operands. Aggregate operands broadcast.
	OpGate
	// OpMeasure measures qubits.
	OpMeasure
	// OpReset resets qubits to |0>.
	OpReset
	// OpCall calls a statically known function.
	OpCall
	// OpReturn leaves the function.
	OpReturn
	// OpGoto jumps to Succs[0].
	OpGoto
	// OpIf branches on Args[0] to Succs[0] or Succs[1].
	OpIf
	// OpUnreachable marks a block end that cannot be reached.
	OpUnreachable

	opCount
)

var opNames = [...]string{
	OpInvalid:     "invalid",
	OpConst:       "const",
	OpBinary:      "binary",
	OpNeg:         "neg",
	OpQAlloc:      "qalloc",
	OpIndex:       "index",
	OpSlice:       "slice",
	OpTuple:       "tuple",
	OpList:        "list",
	OpConcat:      "concat",
	OpAlias:       "alias",
	OpUnwrap:      "unwrap",
	OpWireApply:   "wapply",
	OpWrap:        "wrap",
	OpGate:        "gate",
	OpMeasure:     "measure",
	OpReset:       "reset",
	OpCall:        "call",
	OpReturn:      "return",
	OpGoto:        "goto",
	OpIf:          "if",
	OpUnreachable: "unreachable",
}

func (op Op) String() string {
	if int(op) < len(opNames) && opNames[op] != "" {
		return opNames[op]
	}
	return "unknown"
}

// AllOps lists every valid operation kind.
func AllOps() []Op {
	out := make([]Op, 0, int(opCount)-1)
	for op := OpConst; op < opCount; op++ {
		out = append(out, op)
	}
	return out
}

// IsTerminator reports whether op ends a block.
func (op Op) IsTerminator() bool {
	switch op {
	case OpReturn, OpGoto, OpIf, OpUnreachable:
		return true
	}
	return false
}

// IsGateLike reports whether op acts on the quantum state of its Args.
func (op Op) IsGateLike() bool {
	switch op {
	case OpGate, OpWireApply, OpMeasure, OpReset:
		return true
	}
	return false
}

// TouchesQubits reports whether op may observe or mutate qubits passed in Args.
func (op Op) TouchesQubits() bool {
	return op.IsGateLike() || op == OpWrap || op == OpCall
}

// BinOp is a scalar arithmetic operator.
type BinOp uint8

const (
	BinAdd BinOp = iota
	BinSub
	BinMul
	BinDiv
	BinMod
)

var binOpNames = [...]string{
	BinAdd: "add",
	BinSub: "sub",
	BinMul: "mul",
	BinDiv: "div",
	BinMod: "mod",
}

func (b BinOp) String() string {
	if int(b) < len(binOpNames) {
		return binOpNames[b]
	}
	return "unknown"
}

// ParseBinOp maps a mnemonic to a BinOp.
func ParseBinOp(s string) (BinOp, bool) {
	for i, name := range binOpNames {
		if name == s {
			return BinOp(i), true //nolint:gosec // bounded by table size
		}
	}
	return 0, false
}

package ir

import "qir/internal/source"

type FuncID int32
type BlockID int32
type StmtID int32
type ValueID int32

const (
	NoFuncID  FuncID  = -1
	NoBlockID BlockID = -1
	NoStmtID  StmtID  = -1
	NoValueID ValueID = -1
)

// Value is an SSA value: either the i-th result of one statement or the
// i-th parameter of one block.
type Value struct {
	ID    ValueID
	Name  string
	Def   StmtID  // NoStmtID for block parameters
	Block BlockID // owning block for parameters, defining block otherwise
	Index int     // result or parameter position
}

// IsParam reports whether v is a block parameter.
func (v *Value) IsParam() bool {
	return v.Def == NoStmtID
}

// Successor is a branch edge carrying block arguments.
type Successor struct {
	Block BlockID
	Args  []ValueID
}

// Block is a basic block. The last statement is its terminator.
type Block struct {
	ID     BlockID
	Name   string
	Params []ValueID
	Stmts  []StmtID
	Span   source.Span
}

// ConstKind distinguishes literal kinds.
type ConstKind uint8

const (
	ConstInt ConstKind = iota
	ConstBool
	ConstFloat
	ConstNone
)

// Const is a literal payload of OpConst.
type Const struct {
	Kind  ConstKind
	Int   int64
	Bool  bool
	Float float64
}

// SliceArgs records which optional slice operands are present in Stmt.Args
// after the container, in start/stop/step order.
type SliceArgs struct {
	HasStart bool
	HasStop  bool
	HasStep  bool
}

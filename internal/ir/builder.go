package ir

import "qir/internal/source"

// Builder constructs a Program function by function.
type Builder struct {
	prog *Program
}

// NewBuilder returns a builder over a fresh program.
func NewBuilder() *Builder {
	return &Builder{prog: NewProgram()}
}

// Program returns the program under construction.
func (b *Builder) Program() *Program {
	return b.prog
}

// Declare reserves a function name so that calls may reference it before
// its body is built.
func (b *Builder) Declare(name string) FuncID {
	return b.prog.declare(name).ID
}

// Func starts (or resumes) the body of function name. The entry block is
// created with one parameter per entry in params.
func (b *Builder) Func(name string, params ...string) *FuncBuilder {
	f := b.prog.declare(name)
	fb := &FuncBuilder{prog: b.prog, fn: f, cur: NoBlockID}
	if f.Entry == NoBlockID {
		f.Entry = fb.NewBlock("", params...)
		f.Params = f.Blocks[f.Entry].Params
	}
	fb.cur = f.Entry
	return fb
}

// FuncBuilder appends blocks and statements to one function.
type FuncBuilder struct {
	prog *Program
	fn   *Func
	cur  BlockID
	span source.Span
}

// Func returns the function under construction.
func (fb *FuncBuilder) Func() *Func {
	return fb.fn
}

// Param returns the i-th function parameter.
func (fb *FuncBuilder) Param(i int) ValueID {
	return fb.fn.Params[i]
}

// SetSpan attaches sp to every statement emitted afterwards.
func (fb *FuncBuilder) SetSpan(sp source.Span) {
	fb.span = sp
}

// NewBlock appends an empty block with named parameters.
func (fb *FuncBuilder) NewBlock(name string, params ...string) BlockID {
	id := BlockID(len(fb.fn.Blocks)) //nolint:gosec // block count fits int32
	blk := Block{ID: id, Name: name, Span: fb.span}
	for i, p := range params {
		blk.Params = append(blk.Params, fb.newValue(p, NoStmtID, id, i))
	}
	fb.fn.Blocks = append(fb.fn.Blocks, blk)
	return id
}

// BlockParams returns the parameters of bb.
func (fb *FuncBuilder) BlockParams(bb BlockID) []ValueID {
	return fb.fn.Blocks[bb].Params
}

// SetBlock makes bb the insertion block.
func (fb *FuncBuilder) SetBlock(bb BlockID) {
	fb.cur = bb
}

// CurrentBlock returns the insertion block.
func (fb *FuncBuilder) CurrentBlock() BlockID {
	return fb.cur
}

// Name assigns a textual name to v and returns it.
func (fb *FuncBuilder) Name(v ValueID, name string) ValueID {
	fb.fn.Values[v].Name = name
	return v
}

// Def returns the statement that produced v.
func (fb *FuncBuilder) Def(v ValueID) StmtID {
	return fb.fn.Values[v].Def
}

func (fb *FuncBuilder) newValue(name string, def StmtID, bb BlockID, idx int) ValueID {
	id := ValueID(len(fb.fn.Values)) //nolint:gosec // value count fits int32
	fb.fn.Values = append(fb.fn.Values, Value{ID: id, Name: name, Def: def, Block: bb, Index: idx})
	return id
}

// Emit appends st to the current block with nresults fresh results.
func (fb *FuncBuilder) Emit(st Stmt, nresults int) StmtID {
	id := StmtID(len(fb.fn.Stmts)) //nolint:gosec // statement count fits int32
	st.ID = id
	st.Block = fb.cur
	if st.Span == (source.Span{}) {
		st.Span = fb.span
	}
	st.Results = make([]ValueID, 0, nresults)
	for i := 0; i < nresults; i++ {
		st.Results = append(st.Results, fb.newValue("", id, fb.cur, i))
	}
	if st.Op != OpCall {
		st.Callee = NoFuncID
	}
	fb.fn.Stmts = append(fb.fn.Stmts, st)
	blk := &fb.fn.Blocks[fb.cur]
	blk.Stmts = append(blk.Stmts, id)
	return id
}

func (fb *FuncBuilder) value(st Stmt) ValueID {
	id := fb.Emit(st, 1)
	return fb.fn.Stmts[id].Results[0]
}

// Const emits an integer literal.
func (fb *FuncBuilder) Const(v int64) ValueID {
	return fb.value(Stmt{Op: OpConst, Const: Const{Kind: ConstInt, Int: v}})
}

// Bool emits a boolean literal.
func (fb *FuncBuilder) Bool(v bool) ValueID {
	return fb.value(Stmt{Op: OpConst, Const: Const{Kind: ConstBool, Bool: v}})
}

// Float emits a floating point literal.
func (fb *FuncBuilder) Float(v float64) ValueID {
	return fb.value(Stmt{Op: OpConst, Const: Const{Kind: ConstFloat, Float: v}})
}

// None emits the none literal.
func (fb *FuncBuilder) None() ValueID {
	return fb.value(Stmt{Op: OpConst, Const: Const{Kind: ConstNone}})
}

// Binary emits scalar arithmetic.
func (fb *FuncBuilder) Binary(op BinOp, a, b ValueID) ValueID {
	return fb.value(Stmt{Op: OpBinary, BinOp: op, Args: []ValueID{a, b}})
}

// Neg emits scalar negation.
func (fb *FuncBuilder) Neg(a ValueID) ValueID {
	return fb.value(Stmt{Op: OpNeg, Args: []ValueID{a}})
}

// QAlloc allocates n qubits.
func (fb *FuncBuilder) QAlloc(n ValueID) ValueID {
	return fb.value(Stmt{Op: OpQAlloc, Args: []ValueID{n}})
}

// Index reads container[idx].
func (fb *FuncBuilder) Index(container, idx ValueID) ValueID {
	return fb.value(Stmt{Op: OpIndex, Args: []ValueID{container, idx}})
}

// Slice emits container[start:stop:step]; pass NoValueID for omitted bounds.
func (fb *FuncBuilder) Slice(container, start, stop, step ValueID) ValueID {
	st := Stmt{Op: OpSlice, Args: []ValueID{container}}
	if start != NoValueID {
		st.Slice.HasStart = true
		st.Args = append(st.Args, start)
	}
	if stop != NoValueID {
		st.Slice.HasStop = true
		st.Args = append(st.Args, stop)
	}
	if step != NoValueID {
		st.Slice.HasStep = true
		st.Args = append(st.Args, step)
	}
	return fb.value(st)
}

// Tuple packs elems into a tuple.
func (fb *FuncBuilder) Tuple(elems ...ValueID) ValueID {
	return fb.value(Stmt{Op: OpTuple, Args: elems})
}

// List packs elems into a list.
func (fb *FuncBuilder) List(elems ...ValueID) ValueID {
	return fb.value(Stmt{Op: OpList, Args: elems})
}

// Concat concatenates two aggregates.
func (fb *FuncBuilder) Concat(a, b ValueID) ValueID {
	return fb.value(Stmt{Op: OpConcat, Args: []ValueID{a, b}})
}

// Alias copies a value.
func (fb *FuncBuilder) Alias(a ValueID) ValueID {
	return fb.value(Stmt{Op: OpAlias, Args: []ValueID{a}})
}

// Unwrap converts a qubit into a wire.
func (fb *FuncBuilder) Unwrap(q ValueID) ValueID {
	return fb.value(Stmt{Op: OpUnwrap, Args: []ValueID{q}})
}

// WireApply applies gate to wires and returns one new wire per input.
func (fb *FuncBuilder) WireApply(gate string, params []ValueID, wires ...ValueID) []ValueID {
	id := fb.Emit(Stmt{Op: OpWireApply, Gate: gate, Params: params, Args: wires}, len(wires))
	return fb.fn.Stmts[id].Results
}

// Wrap stores wire w back into qubit q.
func (fb *FuncBuilder) Wrap(w, q ValueID) StmtID {
	return fb.Emit(Stmt{Op: OpWrap, Args: []ValueID{w, q}}, 0)
}

// Gate applies gate to qubits.
func (fb *FuncBuilder) Gate(gate string, params []ValueID, qubits ...ValueID) StmtID {
	return fb.Emit(Stmt{Op: OpGate, Gate: gate, Params: params, Args: qubits}, 0)
}

// Measure measures qubits and returns the classical result.
func (fb *FuncBuilder) Measure(qubits ...ValueID) ValueID {
	return fb.value(Stmt{Op: OpMeasure, Args: qubits})
}

// Reset resets qubits.
func (fb *FuncBuilder) Reset(qubits ...ValueID) StmtID {
	return fb.Emit(Stmt{Op: OpReset, Args: qubits}, 0)
}

// Call calls the named function and returns nresults results.
func (fb *FuncBuilder) Call(callee string, nresults int, args ...ValueID) []ValueID {
	target := fb.prog.declare(callee)
	id := fb.Emit(Stmt{Op: OpCall, Callee: target.ID, Args: args}, nresults)
	return fb.fn.Stmts[id].Results
}

// Return terminates the current block.
func (fb *FuncBuilder) Return(vals ...ValueID) StmtID {
	fb.fn.NumResults = len(vals)
	return fb.Emit(Stmt{Op: OpReturn, Args: vals}, 0)
}

// Goto terminates the current block with a jump.
func (fb *FuncBuilder) Goto(target BlockID, args ...ValueID) StmtID {
	return fb.Emit(Stmt{Op: OpGoto, Succs: []Successor{{Block: target, Args: args}}}, 0)
}

// If terminates the current block with a conditional branch.
func (fb *FuncBuilder) If(cond ValueID, then BlockID, thenArgs []ValueID, els BlockID, elseArgs []ValueID) StmtID {
	return fb.Emit(Stmt{
		Op:   OpIf,
		Args: []ValueID{cond},
		Succs: []Successor{
			{Block: then, Args: thenArgs},
			{Block: els, Args: elseArgs},
		},
	}, 0)
}

// Unreachable terminates the current block.
func (fb *FuncBuilder) Unreachable() StmtID {
	return fb.Emit(Stmt{Op: OpUnreachable}, 0)
}

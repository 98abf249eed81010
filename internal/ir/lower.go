package ir

import (
	"qir/internal/diag"
	"qir/internal/source"
)

// fixedArity lists ops whose operand count is fixed.
var fixedArity = map[Op]int{
	OpBinary: 2,
	OpNeg:    1,
	OpQAlloc: 1,
	OpIndex:  2,
	OpConcat: 2,
	OpAlias:  1,
	OpUnwrap: 1,
	OpWrap:   2,
	OpConst:  0,
}

// expectedResults returns the number of results op must declare, or -1 when
// any count is allowed.
func expectedResults(op Op, nargs int) int {
	switch op {
	case OpConst, OpBinary, OpNeg, OpQAlloc, OpIndex, OpSlice, OpTuple, OpList,
		OpConcat, OpAlias, OpUnwrap, OpMeasure:
		return 1
	case OpWireApply:
		return nargs
	case OpCall:
		return -1
	}
	return 0
}

type lowering struct {
	prog *Program
	b    *Builder
	rep  diag.Reporter
}

type pendingStmt struct {
	id  StmtID
	syn *synStmt
}

func lower(funcs []*synFunc, rep diag.Reporter) *Program {
	l := &lowering{b: NewBuilder(), rep: rep}
	l.prog = l.b.Program()

	defined := make(map[string]source.Span, len(funcs))
	bodies := make([]*synFunc, 0, len(funcs))
	for _, fn := range funcs {
		if prev, dup := defined[fn.name.Text]; dup {
			diag.ReportError(rep, diag.SynDuplicateFunc, fn.name.Span, "function @"+fn.name.Text+" is already defined").
				WithNote(prev, "previous definition").Emit()
			continue
		}
		defined[fn.name.Text] = fn.name.Span
		l.b.Declare(fn.name.Text)
		bodies = append(bodies, fn)
	}
	for _, fn := range bodies {
		l.lowerFunc(fn)
	}
	return l.prog
}

func (l *lowering) errorf(code diag.Code, sp source.Span, msg string) {
	diag.ReportError(l.rep, code, sp, msg).Emit()
}

func (l *lowering) lowerFunc(syn *synFunc) {
	fb := l.b.Func(syn.name.Text)
	fn := fb.Func()
	fn.Span = syn.name.Span
	values := make(map[string]ValueID)
	define := func(tok token, v ValueID) {
		if _, dup := values[tok.Text]; dup {
			l.errorf(diag.SynDuplicateValue, tok.Span, "value %"+tok.Text+" is already defined")
			return
		}
		values[tok.Text] = v
		fb.Name(v, tok.Text)
	}

	// Function parameters live on the entry block.
	entry := &fn.Blocks[fn.Entry]
	for i, tok := range syn.params {
		v := fb.newValue("", NoStmtID, fn.Entry, i)
		entry.Params = append(entry.Params, v)
		define(tok, v)
	}
	fn.Params = entry.Params

	blocks := make(map[string]BlockID)
	if len(syn.blocks) == 0 {
		l.errorf(diag.SynUnexpectedToken, syn.name.Span, "function @"+syn.name.Text+" has an empty body")
		return
	}
	ids := make([]BlockID, len(syn.blocks))
	for i, sb := range syn.blocks {
		var id BlockID
		if i == 0 {
			id = fn.Entry
			entry.Name = sb.label.Text
			entry.Span = sb.label.Span
			if len(sb.params) > 0 {
				l.errorf(diag.SynUnexpectedToken, sb.params[0].Span, "the entry block takes the function parameters")
			}
		} else {
			fb.SetSpan(sb.label.Span)
			id = fb.NewBlock(sb.label.Text)
			blk := &fn.Blocks[id]
			for j, tok := range sb.params {
				v := fb.newValue("", NoStmtID, id, j)
				blk.Params = append(blk.Params, v)
				define(tok, v)
			}
		}
		ids[i] = id
		if sb.label.Text == "" {
			continue
		}
		if _, dup := blocks[sb.label.Text]; dup {
			l.errorf(diag.SynDuplicateBlock, sb.label.Span, "block "+sb.label.Text+" is already defined")
			continue
		}
		blocks[sb.label.Text] = id
	}

	// Emit statements with results first so that operands may refer to
	// values defined later in the text (loop back edges).
	var pending []pendingStmt
	for i, sb := range syn.blocks {
		fb.SetBlock(ids[i])
		for _, ss := range sb.stmts {
			fb.SetSpan(ss.span)
			st, ok := l.shell(ss, blocks)
			if !ok {
				continue
			}
			nres := len(ss.results)
			if want := expectedResults(st.Op, len(ss.args)); want >= 0 && want != nres {
				l.errorf(diag.SynBadArity, ss.op.Span, itoa(want)+" result(s) expected for "+ss.op.Text+", found "+itoa(nres))
				continue
			}
			id := fb.Emit(st, nres)
			for j, tok := range ss.results {
				define(tok, fn.Stmts[id].Results[j])
			}
			if st.Op == OpReturn {
				fn.NumResults = len(ss.args)
			}
			pending = append(pending, pendingStmt{id: id, syn: ss})
		}
	}

	resolve := func(toks []token) []ValueID {
		out := make([]ValueID, 0, len(toks))
		for _, tok := range toks {
			if tok.Kind != tokValue {
				l.errorf(diag.SynExpectValue, tok.Span, "expected value, found \"_\"")
				continue
			}
			v, ok := values[tok.Text]
			if !ok {
				l.errorf(diag.SynUndefinedValue, tok.Span, "use of undefined value %"+tok.Text)
				continue
			}
			out = append(out, v)
		}
		return out
	}

	for _, ps := range pending {
		st := &fn.Stmts[ps.id]
		ss := ps.syn
		if st.Op == OpSlice {
			l.resolveSlice(st, ss, values, resolve)
		} else {
			st.Args = resolve(ss.args)
		}
		st.Params = resolve(ss.params)
		for i := range st.Succs {
			st.Succs[i].Args = resolve(ss.succs[i].args)
		}
	}
}

// shell builds a statement without operands.
func (l *lowering) shell(ss *synStmt, blocks map[string]BlockID) (Stmt, bool) {
	op, ok := opByName(ss.op.Text)
	if !ok {
		l.errorf(diag.SynUnknownOp, ss.op.Span, "unknown operation \""+ss.op.Text+"\"")
		return Stmt{}, false
	}
	st := Stmt{Op: op, Gate: ss.gate.Text}
	if n, fixed := fixedArity[op]; fixed && n != len(ss.args) {
		l.errorf(diag.SynBadArity, ss.op.Span, ss.op.Text+" takes "+itoa(n)+" operand(s), found "+itoa(len(ss.args)))
		return Stmt{}, false
	}
	switch op {
	case OpBinary:
		st.BinOp, _ = ParseBinOp(ss.op.Text)
	case OpConst:
		c, err := parseLiteral(ss.lit)
		if err != nil {
			diag.ReportError(l.rep, diag.LexBadNumber, ss.lit.Span, err.Error()).Emit()
			return Stmt{}, false
		}
		st.Const = c
	case OpSlice:
		if n := len(ss.args); n != 3 && n != 4 {
			l.errorf(diag.SynBadArity, ss.op.Span, "slice takes a container and 2 or 3 bounds, found "+itoa(n)+" operand(s)")
			return Stmt{}, false
		}
	case OpCall:
		callee, ok := l.prog.Lookup(ss.callee.Text)
		if !ok {
			l.errorf(diag.SynUnknownFunc, ss.callee.Span, "call to undefined function @"+ss.callee.Text)
			return Stmt{}, false
		}
		st.Callee = callee.ID
	case OpGoto, OpIf:
		for _, succ := range ss.succs {
			bb, ok := blocks[succ.label.Text]
			if !ok {
				l.errorf(diag.SynUndefinedBlock, succ.label.Span, "jump to undefined block "+succ.label.Text)
				return Stmt{}, false
			}
			st.Succs = append(st.Succs, Successor{Block: bb})
		}
	}
	return st, true
}

func (l *lowering) resolveSlice(st *Stmt, ss *synStmt, values map[string]ValueID, resolve func([]token) []ValueID) {
	st.Args = resolve(ss.args[:1])
	present := make([]bool, 3)
	for i, tok := range ss.args[1:] {
		if tok.Kind == tokIdent {
			continue
		}
		v, ok := values[tok.Text]
		if !ok {
			l.errorf(diag.SynUndefinedValue, tok.Span, "use of undefined value %"+tok.Text)
			continue
		}
		present[i] = true
		st.Args = append(st.Args, v)
	}
	st.Slice = SliceArgs{HasStart: present[0], HasStop: present[1], HasStep: present[2]}
}

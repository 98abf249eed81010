package ir

import (
	"errors"
	"fmt"
	"strconv"

	"qir/internal/diag"
	"qir/internal/source"
)

type synFunc struct {
	name   token
	params []token
	blocks []*synBlock
}

type synBlock struct {
	label  token // Text == "" for an unlabeled entry block
	params []token
	stmts  []*synStmt
}

type synSucc struct {
	label token
	args  []token
}

type synStmt struct {
	results []token
	op      token
	gate    token
	params  []token
	args    []token // "_" placeholders are tokIdent
	callee  token
	lit     token
	succs   []synSucc
	span    source.Span
}

// countingReporter forwards diagnostics and counts errors.
type countingReporter struct {
	next   diag.Reporter
	errors int
}

func (r *countingReporter) Report(code diag.Code, sev diag.Severity, primary source.Span, msg string, notes []diag.Note) {
	if sev >= diag.SevError {
		r.errors++
	}
	if r.next != nil {
		r.next.Report(code, sev, primary, msg, notes)
	}
}

type parser struct {
	lx   *lexer
	rep  *countingReporter
	last source.Span
}

// Parse reads a textual program from file. Problems are reported to rep;
// the returned flag is false when any error was reported, in which case the
// program may be incomplete.
func Parse(file *source.File, rep diag.Reporter) (*Program, bool) {
	cr := &countingReporter{next: rep}
	p := &parser{lx: newLexer(file, cr), rep: cr}
	funcs := p.parseFile()
	prog := lower(funcs, cr)
	return prog, cr.errors == 0
}

// ParseString parses src registered under name in a fresh FileSet. Any
// error diagnostics are returned as one error.
func ParseString(name, src string) (*Program, error) {
	fs := source.NewFileSet()
	id := fs.AddVirtual(name, []byte(src))
	bag := diag.NewBag(100)
	prog, ok := Parse(fs.Get(id), diag.BagReporter{Bag: bag})
	if !ok {
		return nil, errors.New(diag.FormatShortDiagnostics(bag.Items(), fs, false))
	}
	return prog, nil
}

func (p *parser) errorf(code diag.Code, sp source.Span, format string, args ...any) {
	diag.ReportError(p.rep, code, sp, fmt.Sprintf(format, args...)).Emit()
}

func (p *parser) next() token {
	tok := p.lx.Next()
	p.last = tok.Span
	return tok
}

func (p *parser) at(k tokKind) bool {
	return p.lx.Peek().Kind == k
}

func (p *parser) accept(k tokKind) bool {
	if p.at(k) {
		p.next()
		return true
	}
	return false
}

func (p *parser) expect(k tokKind, code diag.Code) (token, bool) {
	tok := p.lx.Peek()
	if tok.Kind != k {
		p.errorf(code, tok.Span, "expected %s, found %s", k, describe(tok))
		return tok, false
	}
	return p.next(), true
}

func describe(tok token) string {
	switch tok.Kind {
	case tokIdent:
		return fmt.Sprintf("%q", tok.Text)
	case tokValue:
		return "%" + tok.Text
	case tokFunc:
		return "@" + tok.Text
	}
	return tok.Kind.String()
}

// syncLine skips to the end of the current line without consuming '}'.
func (p *parser) syncLine() {
	for {
		switch p.lx.Peek().Kind {
		case tokEOF, tokRBrace:
			return
		case tokNewline:
			p.next()
			return
		}
		p.next()
	}
}

func (p *parser) skipNewlines() {
	for p.accept(tokNewline) {
	}
}

func (p *parser) parseFile() []*synFunc {
	var funcs []*synFunc
	for {
		p.skipNewlines()
		tok := p.lx.Peek()
		if tok.Kind == tokEOF {
			return funcs
		}
		if tok.Kind != tokIdent || tok.Text != "func" {
			p.errorf(diag.SynUnexpectedToken, tok.Span, "expected 'func', found %s", describe(tok))
			p.next()
			p.syncLine()
			continue
		}
		p.next()
		if fn := p.parseFunc(); fn != nil {
			funcs = append(funcs, fn)
		}
	}
}

func (p *parser) parseFunc() *synFunc {
	name, ok := p.expect(tokFunc, diag.SynUnexpectedToken)
	if !ok {
		p.skipFuncBody()
		return nil
	}
	fn := &synFunc{name: name}
	if _, ok := p.expect(tokLParen, diag.SynUnexpectedToken); !ok {
		p.skipFuncBody()
		return nil
	}
	fn.params, ok = p.parseValueList(tokRParen)
	if !ok {
		p.skipFuncBody()
		return nil
	}
	open, ok := p.expect(tokLBrace, diag.SynUnexpectedToken)
	if !ok {
		p.skipFuncBody()
		return nil
	}

	var cur *synBlock
	for {
		p.skipNewlines()
		tok := p.lx.Peek()
		switch tok.Kind {
		case tokRBrace:
			p.next()
			return fn
		case tokEOF:
			p.errorf(diag.SynUnclosedBrace, open.Span, "function @%s is not closed", fn.name.Text)
			return fn
		}

		if p.isLabel() {
			if blk := p.parseLabel(); blk != nil {
				cur = blk
				fn.blocks = append(fn.blocks, blk)
			}
			continue
		}
		st := p.parseStmt()
		if st == nil {
			p.syncLine()
			continue
		}
		if cur == nil {
			cur = &synBlock{}
			fn.blocks = append(fn.blocks, cur)
		}
		cur.stmts = append(cur.stmts, st)
	}
}

// skipFuncBody recovers after a broken header by skipping to the closing brace.
func (p *parser) skipFuncBody() {
	depth := 0
	for {
		switch p.next().Kind {
		case tokEOF:
			return
		case tokLBrace:
			depth++
		case tokRBrace:
			depth--
			if depth <= 0 {
				return
			}
		}
	}
}

// isLabel reports whether the line at the cursor is a block label:
// "name:" or "name(%a, %b):".
func (p *parser) isLabel() bool {
	if !p.at(tokIdent) {
		return false
	}
	switch p.lx.PeekN(1).Kind {
	case tokColon, tokLParen:
		return true
	}
	return false
}

func (p *parser) parseLabel() *synBlock {
	blk := &synBlock{label: p.next()}
	if p.accept(tokLParen) {
		params, ok := p.parseValueList(tokRParen)
		if !ok {
			p.syncLine()
			return nil
		}
		blk.params = params
	}
	if _, ok := p.expect(tokColon, diag.SynExpectLabel); !ok {
		p.syncLine()
		return nil
	}
	p.expectLineEnd()
	return blk
}

// parseValueList parses "%a, %b" up to and including close.
func (p *parser) parseValueList(close tokKind) ([]token, bool) {
	var out []token
	if p.accept(close) {
		return out, true
	}
	for {
		v, ok := p.expect(tokValue, diag.SynExpectValue)
		if !ok {
			return nil, false
		}
		out = append(out, v)
		if p.accept(tokComma) {
			continue
		}
		if _, ok := p.expect(close, diag.SynUnexpectedToken); !ok {
			return nil, false
		}
		return out, true
	}
}

// parseOperands parses an optional comma separated list of values. Slice
// bounds may be written as "_".
func (p *parser) parseOperands() ([]token, bool) {
	var out []token
	if !p.atOperand() {
		return out, true
	}
	for {
		if !p.atOperand() {
			tok := p.lx.Peek()
			p.errorf(diag.SynExpectValue, tok.Span, "expected value, found %s", describe(tok))
			return nil, false
		}
		out = append(out, p.next())
		if !p.accept(tokComma) {
			return out, true
		}
	}
}

func (p *parser) atOperand() bool {
	tok := p.lx.Peek()
	return tok.Kind == tokValue || tok.Kind == tokIdent && tok.Text == "_"
}

func (p *parser) expectLineEnd() bool {
	switch tok := p.lx.Peek(); tok.Kind {
	case tokNewline:
		p.next()
		return true
	case tokEOF, tokRBrace:
		return true
	default:
		p.errorf(diag.SynUnexpectedToken, tok.Span, "expected end of line, found %s", describe(tok))
		return false
	}
}

func (p *parser) parseSucc() (synSucc, bool) {
	label, ok := p.expect(tokIdent, diag.SynExpectLabel)
	if !ok {
		return synSucc{}, false
	}
	s := synSucc{label: label}
	if p.accept(tokLParen) {
		if s.args, ok = p.parseValueList(tokRParen); !ok {
			return synSucc{}, false
		}
	}
	return s, true
}

// parseStmt parses one statement line. It returns nil after reporting an
// error; the caller resynchronizes.
func (p *parser) parseStmt() *synStmt {
	st := &synStmt{span: p.lx.Peek().Span}
	if p.at(tokValue) {
		for {
			v, ok := p.expect(tokValue, diag.SynExpectValue)
			if !ok {
				return nil
			}
			st.results = append(st.results, v)
			if !p.accept(tokComma) {
				break
			}
		}
		if _, ok := p.expect(tokEq, diag.SynUnexpectedToken); !ok {
			return nil
		}
	}

	op, ok := p.expect(tokIdent, diag.SynUnknownOp)
	if !ok {
		return nil
	}
	st.op = op

	switch op.Text {
	case "const":
		tok := p.lx.Peek()
		switch {
		case tok.Kind == tokInt, tok.Kind == tokFloat:
		case tok.Kind == tokIdent && (tok.Text == "true" || tok.Text == "false" || tok.Text == "none"):
		default:
			p.errorf(diag.SynUnexpectedToken, tok.Span, "expected literal, found %s", describe(tok))
			return nil
		}
		st.lit = p.next()
	case "gate", "wapply":
		gate, ok := p.expect(tokIdent, diag.SynUnexpectedToken)
		if !ok {
			return nil
		}
		st.gate = gate
		if p.accept(tokLParen) {
			if st.params, ok = p.parseValueList(tokRParen); !ok {
				return nil
			}
		}
		if st.args, ok = p.parseOperands(); !ok {
			return nil
		}
	case "call":
		callee, ok := p.expect(tokFunc, diag.SynUnexpectedToken)
		if !ok {
			return nil
		}
		st.callee = callee
		if _, ok := p.expect(tokLParen, diag.SynUnexpectedToken); !ok {
			return nil
		}
		if st.args, ok = p.parseValueList(tokRParen); !ok {
			return nil
		}
	case "goto":
		succ, ok := p.parseSucc()
		if !ok {
			return nil
		}
		st.succs = []synSucc{succ}
	case "if":
		cond, ok := p.expect(tokValue, diag.SynExpectValue)
		if !ok {
			return nil
		}
		st.args = []token{cond}
		for range 2 {
			if _, ok := p.expect(tokComma, diag.SynUnexpectedToken); !ok {
				return nil
			}
			succ, ok := p.parseSucc()
			if !ok {
				return nil
			}
			st.succs = append(st.succs, succ)
		}
	default:
		if _, known := opByName(op.Text); !known {
			p.errorf(diag.SynUnknownOp, op.Span, "unknown operation %q", op.Text)
			return nil
		}
		if st.args, ok = p.parseOperands(); !ok {
			return nil
		}
	}
	st.span = st.span.Cover(p.last)
	if !p.expectLineEnd() {
		return nil
	}
	return st
}

// opByName maps a statement mnemonic to its Op. Binary operators map to
// OpBinary.
func opByName(name string) (Op, bool) {
	if _, ok := ParseBinOp(name); ok {
		return OpBinary, true
	}
	if name == "binary" {
		return OpInvalid, false
	}
	for _, op := range AllOps() {
		if op.String() == name {
			return op, true
		}
	}
	return OpInvalid, false
}

func parseLiteral(tok token) (Const, error) {
	switch tok.Kind {
	case tokInt:
		n, err := strconv.ParseInt(tok.Text, 10, 64)
		if err != nil {
			return Const{}, err
		}
		return Const{Kind: ConstInt, Int: n}, nil
	case tokFloat:
		f, err := strconv.ParseFloat(tok.Text, 64)
		if err != nil {
			return Const{}, err
		}
		return Const{Kind: ConstFloat, Float: f}, nil
	}
	switch tok.Text {
	case "true":
		return Const{Kind: ConstBool, Bool: true}, nil
	case "false":
		return Const{Kind: ConstBool}, nil
	}
	return Const{Kind: ConstNone}, nil
}

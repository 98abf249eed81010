package ir

import (
	"fmt"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"qir/internal/diag"
	"qir/internal/source"
)

type tokKind uint8

const (
	tokEOF tokKind = iota
	tokNewline
	tokIdent
	tokValue // %name
	tokFunc  // @name
	tokInt
	tokFloat
	tokLParen
	tokRParen
	tokLBrace
	tokRBrace
	tokComma
	tokEq
	tokColon
)

var tokNames = [...]string{
	tokEOF:     "end of file",
	tokNewline: "newline",
	tokIdent:   "identifier",
	tokValue:   "value",
	tokFunc:    "function name",
	tokInt:     "integer",
	tokFloat:   "float",
	tokLParen:  "'('",
	tokRParen:  "')'",
	tokLBrace:  "'{'",
	tokRBrace:  "'}'",
	tokComma:   "','",
	tokEq:      "'='",
	tokColon:   "':'",
}

func (k tokKind) String() string {
	if int(k) < len(tokNames) {
		return tokNames[k]
	}
	return "token"
}

type token struct {
	Kind tokKind
	Text string // identifier text without sigil, NFC-normalized
	Span source.Span
}

type lexer struct {
	file *source.File
	off  uint32
	rep  diag.Reporter
	look []token
}

func newLexer(file *source.File, rep diag.Reporter) *lexer {
	if rep == nil {
		rep = diag.NopReporter{}
	}
	return &lexer{file: file, rep: rep}
}

func (lx *lexer) span(start uint32) source.Span {
	return source.Span{File: lx.file.ID, Start: start, End: lx.off}
}

func (lx *lexer) eof() bool {
	return int(lx.off) >= len(lx.file.Content)
}

func (lx *lexer) peekByte() byte {
	if lx.eof() {
		return 0
	}
	return lx.file.Content[lx.off]
}

func (lx *lexer) Peek() token {
	return lx.PeekN(0)
}

// PeekN returns the n-th token ahead without consuming anything.
func (lx *lexer) PeekN(n int) token {
	for len(lx.look) <= n {
		lx.look = append(lx.look, lx.scan())
	}
	return lx.look[n]
}

func (lx *lexer) Next() token {
	if len(lx.look) > 0 {
		tok := lx.look[0]
		lx.look = lx.look[1:]
		return tok
	}
	return lx.scan()
}

func (lx *lexer) scan() token {
	for {
		lx.skipSpaceAndComments()
		if lx.eof() {
			return token{Kind: tokEOF, Span: lx.span(lx.off)}
		}
		start := lx.off
		ch := lx.peekByte()
		switch {
		case ch == '\n':
			lx.off++
			return token{Kind: tokNewline, Span: lx.span(start)}
		case ch == '%' || ch == '@':
			lx.off++
			name := lx.scanName(true)
			kind := tokValue
			if ch == '@' {
				kind = tokFunc
			}
			if name == "" {
				diag.ReportError(lx.rep, diag.LexUnknownChar, lx.span(start), fmt.Sprintf("%q must be followed by a name", ch)).Emit()
				continue
			}
			return token{Kind: kind, Text: name, Span: lx.span(start)}
		case ch == '-' || isDigit(ch):
			return lx.scanNumber()
		case ch == '(':
			return lx.punct(tokLParen)
		case ch == ')':
			return lx.punct(tokRParen)
		case ch == '{':
			return lx.punct(tokLBrace)
		case ch == '}':
			return lx.punct(tokRBrace)
		case ch == ',':
			return lx.punct(tokComma)
		case ch == '=':
			return lx.punct(tokEq)
		case ch == ':':
			return lx.punct(tokColon)
		}
		if name := lx.scanName(false); name != "" {
			return token{Kind: tokIdent, Text: name, Span: lx.span(start)}
		}
		r, size := utf8.DecodeRune(lx.file.Content[lx.off:])
		lx.off += uint32(size) //nolint:gosec // rune size is at most 4
		diag.ReportError(lx.rep, diag.LexUnknownChar, lx.span(start), fmt.Sprintf("unexpected character %q", r)).Emit()
	}
}

func (lx *lexer) punct(k tokKind) token {
	start := lx.off
	lx.off++
	return token{Kind: k, Span: lx.span(start)}
}

func (lx *lexer) skipSpaceAndComments() {
	for !lx.eof() {
		ch := lx.peekByte()
		switch {
		case ch == ' ' || ch == '\t' || ch == '\r':
			lx.off++
		case ch == '/' && int(lx.off)+1 < len(lx.file.Content) && lx.file.Content[lx.off+1] == '/':
			for !lx.eof() && lx.peekByte() != '\n' {
				lx.off++
			}
		default:
			return
		}
	}
}

// scanName reads an identifier. Sigil names may also start with a digit.
func (lx *lexer) scanName(sigil bool) string {
	start := lx.off
	first := true
	for !lx.eof() {
		r, size := utf8.DecodeRune(lx.file.Content[lx.off:])
		ok := r == '_' || unicode.IsLetter(r) || (!first || sigil) && (unicode.IsDigit(r) || unicode.IsMark(r) || r == '.')
		if !ok {
			break
		}
		lx.off += uint32(size) //nolint:gosec // rune size is at most 4
		first = false
	}
	if lx.off == start {
		return ""
	}
	return norm.NFC.String(string(lx.file.Content[start:lx.off]))
}

func (lx *lexer) scanNumber() token {
	start := lx.off
	if lx.peekByte() == '-' {
		lx.off++
	}
	digits := lx.skipDigits()
	kind := tokInt
	if lx.peekByte() == '.' {
		lx.off++
		kind = tokFloat
		digits += lx.skipDigits()
	}
	if c := lx.peekByte(); c == 'e' || c == 'E' {
		lx.off++
		kind = tokFloat
		if c := lx.peekByte(); c == '+' || c == '-' {
			lx.off++
		}
		if lx.skipDigits() == 0 {
			digits = 0
		}
	}
	// swallow trailing identifier characters so "12ab" is one bad token
	bad := false
	for !lx.eof() && (isDigit(lx.peekByte()) || isLetterByte(lx.peekByte())) {
		lx.off++
		bad = true
	}
	text := string(lx.file.Content[start:lx.off])
	if digits == 0 || bad {
		diag.ReportError(lx.rep, diag.LexBadNumber, lx.span(start), fmt.Sprintf("malformed number %q", text)).Emit()
	}
	return token{Kind: kind, Text: text, Span: lx.span(start)}
}

func (lx *lexer) skipDigits() int {
	n := 0
	for !lx.eof() && isDigit(lx.peekByte()) {
		lx.off++
		n++
	}
	return n
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

func isLetterByte(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

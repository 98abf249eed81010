package ir_test

import (
	"strings"
	"testing"

	"qir/internal/diag"
	"qir/internal/ir"
	"qir/internal/source"
	"qir/internal/testkit"
)

const canonical = `func @bell() {
  %n = const 2
  %q = qalloc %n
  %i0 = const 0
  %a = index %q, %i0
  %i1 = const 1
  %b = index %q, %i1
  gate h %a
  gate cx %a, %b
  %m = measure %a, %b
  return %q
}

func @misc(%x) {
entry:
  %f = const 1.5
  %t = const true
  %nn = const none
  %neg = const -3
  %r = call @bell()
  %s1 = slice %r, _, _
  %s2 = slice %r, %x, _, %neg
  %tp = tuple %s1, %s2
  %l = list
  %c = concat %s1, %s2
  %al = alias %c
  %u = unwrap %al
  %v = unwrap %x
  %w1, %w2 = wapply cx %u, %v
  %w3 = wapply rx(%f) %w1
  wrap %w3, %al
  reset %x
  %z = const 0
  goto head(%z)
head(%i):
  if %t, body(%i), exit
body(%j):
  %one = const 1
  %k = add %j, %one
  %kn = neg %k
  goto head(%kn)
exit:
  unreachable
}
`

func TestParsePrintRoundTrip(t *testing.T) {
	prog, err := ir.ParseString("canonical.qir", canonical)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if err := ir.Validate(prog); err != nil {
		t.Fatalf("validate failed: %v", err)
	}
	if got := ir.Format(prog); got != canonical {
		t.Fatalf("round trip mismatch:\nwant:\n%s\ngot:\n%s", canonical, got)
	}
}

func TestParseStructure(t *testing.T) {
	prog, err := ir.ParseString("s.qir", canonical)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	bell, ok := prog.Lookup("bell")
	if !ok {
		t.Fatalf("@bell not found")
	}
	if !bell.IsFlat() {
		t.Fatalf("@bell should be flat")
	}
	if bell.NumResults != 1 {
		t.Fatalf("@bell returns %d values, want 1", bell.NumResults)
	}

	misc, _ := prog.Lookup("misc")
	if misc.IsFlat() {
		t.Fatalf("@misc has branches and must not be flat")
	}
	if len(misc.Blocks) != 4 {
		t.Fatalf("@misc has %d blocks, want 4", len(misc.Blocks))
	}
	preds := misc.Predecessors()
	head := misc.Blocks[1]
	if head.Name != "head" || len(preds[head.ID]) != 2 {
		t.Fatalf("head should have two predecessors, got %v", preds[head.ID])
	}

	var slice *ir.Stmt
	for i := range misc.Stmts {
		if misc.Stmts[i].Op == ir.OpSlice && len(misc.Stmts[i].Args) == 3 {
			slice = &misc.Stmts[i]
		}
	}
	if slice == nil {
		t.Fatalf("slice with start and step not found")
	}
	if !slice.Slice.HasStart || slice.Slice.HasStop || !slice.Slice.HasStep {
		t.Fatalf("unexpected slice flags %+v", slice.Slice)
	}
	_, start, stop, step := ir.SliceOperands(slice)
	if start != misc.Params[0] || stop != ir.NoValueID || step == ir.NoValueID {
		t.Fatalf("unexpected slice operands %d %d %d", start, stop, step)
	}
}

func TestParseForwardReference(t *testing.T) {
	src := `func @f() {
  goto b1
b2(%x):
  return %x
b1:
  %c = const 1
  goto b2(%c)
}
`
	prog, err := ir.ParseString("fwd.qir", src)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if err := ir.Validate(prog); err != nil {
		t.Fatalf("validate failed: %v", err)
	}
}

func TestParseNormalizesIdentifiers(t *testing.T) {
	// "é" written as e + combining acute and as the precomposed rune.
	src := "func @f() {\n  %cafe\u0301 = const 1\n  return %caf\u00e9\n}\n"
	if _, err := ir.ParseString("nfc.qir", src); err != nil {
		t.Fatalf("identifiers should compare after NFC normalization: %v", err)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		code diag.Code
	}{
		{"unknown op", "func @f() {\n  %x = frob\n  return\n}\n", diag.SynUnknownOp},
		{"undefined value", "func @f() {\n  gate h %q\n  return\n}\n", diag.SynUndefinedValue},
		{"duplicate value", "func @f() {\n  %x = const 1\n  %x = const 2\n  return\n}\n", diag.SynDuplicateValue},
		{"undefined block", "func @f() {\n  goto nowhere\n}\n", diag.SynUndefinedBlock},
		{"duplicate block", "func @f() {\n  goto a\na:\n  goto a\na:\n  return\n}\n", diag.SynDuplicateBlock},
		{"unknown func", "func @f() {\n  call @g()\n  return\n}\n", diag.SynUnknownFunc},
		{"duplicate func", "func @f() {\n  return\n}\nfunc @f() {\n  return\n}\n", diag.SynDuplicateFunc},
		{"unclosed", "func @f() {\n  return\n", diag.SynUnclosedBrace},
		{"bad arity", "func @f(%a) {\n  %x = index %a\n  return\n}\n", diag.SynBadArity},
		{"missing result", "func @f(%a) {\n  measure %a\n  return\n}\n", diag.SynBadArity},
		{"bad number", "func @f() {\n  %x = const 12ab\n  return\n}\n", diag.LexBadNumber},
		{"unknown char", "func @f() {\n  $\n  return\n}\n", diag.LexUnknownChar},
		{"blank outside slice", "func @f(%a) {\n  gate h _\n  return\n}\n", diag.SynExpectValue},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := source.NewFileSet()
			id := fs.AddVirtual("bad.qir", []byte(tt.src))
			bag := diag.NewBag(20)
			_, ok := ir.Parse(fs.Get(id), diag.BagReporter{Bag: bag})
			if ok {
				t.Fatalf("expected parse failure")
			}
			if bag.Count(tt.code) == 0 {
				t.Fatalf("expected %s, got:\n%s", tt.code.ID(), diag.FormatShortDiagnostics(bag.Items(), fs, false))
			}
		})
	}
}

func TestParseErrorSpan(t *testing.T) {
	_, err := ir.ParseString("span.qir", "func @f() {\n  gate h %q\n  return\n}\n")
	if err == nil {
		t.Fatalf("expected error")
	}
	if !strings.Contains(err.Error(), "span.qir:2:10") {
		t.Fatalf("error should point at %%q, got %q", err)
	}
}

func TestParseSpanInvariants(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("spans.qir", []byte(canonical))
	file := fs.Get(id)
	bag := diag.NewBag(16)
	prog, ok := ir.Parse(file, diag.BagReporter{Bag: bag})
	if !ok {
		t.Fatalf("parse failed: %s", diag.FormatShortDiagnostics(bag.Items(), fs, false))
	}
	if err := testkit.CheckSpanInvariants(prog, file); err != nil {
		t.Fatalf("span invariants: %v", err)
	}
}

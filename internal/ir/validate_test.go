package ir_test

import (
	"strings"
	"testing"

	"qir/internal/ir"
)

func TestValidateAcceptsBuilderOutput(t *testing.T) {
	b := ir.NewBuilder()
	b.Declare("pair")

	fb := b.Func("main")
	n := fb.Const(2)
	q := fb.QAlloc(n)
	res := fb.Call("pair", 1, q)
	fb.Gate("h", nil, res[0])
	fb.Return()

	pb := b.Func("pair", "r")
	pb.Return(pb.Param(0))

	if err := ir.Validate(b.Program()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateReportsAllProblems(t *testing.T) {
	b := ir.NewBuilder()
	fb := b.Func("broken")
	body := fb.NewBlock("body", "x")
	fb.Goto(body) // missing block argument
	fb.SetBlock(body)
	fb.Const(1) // unterminated

	b.Declare("ghost")
	cb := b.Func("caller")
	cb.Call("ghost", 0)
	cb.Return()

	err := ir.Validate(b.Program())
	if err == nil {
		t.Fatalf("expected validation errors")
	}
	msg := err.Error()
	for _, want := range []string{
		"function @broken",
		"body takes 1 arguments, got 0",
		"body: unterminated block",
		"function @ghost: declared but has no body",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("missing %q in:\n%s", want, msg)
		}
	}
}

func TestValidateCallArity(t *testing.T) {
	b := ir.NewBuilder()
	b.Declare("one")
	fb := b.Func("main")
	c := fb.Const(0)
	fb.Call("one", 2, c, c)
	fb.Return()
	ob := b.Func("one", "a")
	ob.Return(ob.Param(0))

	err := ir.Validate(b.Program())
	if err == nil {
		t.Fatalf("expected arity errors")
	}
	for _, want := range []string{"@one takes 1 arguments, got 2", "@one returns 1 values, call expects 2"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("missing %q in %v", want, err)
		}
	}
}

func TestOpTables(t *testing.T) {
	for _, op := range ir.AllOps() {
		if op.String() == "unknown" || op.String() == "invalid" {
			t.Errorf("op %d has no name", op)
		}
	}
	if !ir.OpWireApply.IsGateLike() || ir.OpWrap.IsGateLike() {
		t.Errorf("gate-like classification is wrong")
	}
	if !ir.OpWrap.TouchesQubits() || !ir.OpCall.TouchesQubits() || ir.OpIndex.TouchesQubits() {
		t.Errorf("qubit-touching classification is wrong")
	}
	if op, ok := ir.ParseBinOp("mod"); !ok || op != ir.BinMod {
		t.Errorf("ParseBinOp(mod) = %v, %v", op, ok)
	}
}

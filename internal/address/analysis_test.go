package address_test

import (
	"errors"
	"testing"

	"qir/internal/address"
	"qir/internal/diag"
	"qir/internal/ir"
)

func mustParse(t *testing.T, src string) *ir.Program {
	t.Helper()
	prog, err := ir.ParseString("t.qir", src)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return prog
}

func lookup(t *testing.T, prog *ir.Program, name string) *ir.Func {
	t.Helper()
	fn, ok := prog.Lookup(name)
	if !ok {
		t.Fatalf("@%s not found", name)
	}
	return fn
}

func valueOf(t *testing.T, fn *ir.Func, name string) ir.ValueID {
	t.Helper()
	for i := range fn.Values {
		if fn.Values[i].Name == name {
			return fn.Values[i].ID
		}
	}
	t.Fatalf("%%%s not found in @%s", name, fn.Name)
	return ir.NoValueID
}

func analyze(t *testing.T, src string, opts address.Options) (*ir.Func, *address.Result) {
	t.Helper()
	prog := mustParse(t, src)
	main := lookup(t, prog, "main")
	res, err := address.Analyze(prog, main, nil, opts)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	return main, res
}

func TestAdjacentRegistersDoNotAlias(t *testing.T) {
	fn, res := analyze(t, `func @main() {
  %n3 = const 3
  %ra = qalloc %n3
  %n4 = const 4
  %rb = qalloc %n4
  %i = const 1
  %x = index %rb, %i
  %last = const -1
  %y = index %ra, %last
  return
}
`, address.Options{})
	want := map[string]address.Address{
		"ra": address.RegisterAddr(0, 3),
		"rb": address.RegisterAddr(3, 7),
		"x":  address.QubitAddr(4),
		"y":  address.QubitAddr(2),
		"n3": address.NotQubitAddr(),
	}
	for name, w := range want {
		if got := res.Get(fn.ID, valueOf(t, fn, name)); !got.Equal(w) {
			t.Errorf("%%%s = %s, want %s", name, got, w)
		}
	}
	if res.QubitCount != 7 {
		t.Fatalf("QubitCount = %d, want 7", res.QubitCount)
	}
}

func TestAggregateRules(t *testing.T) {
	fn, res := analyze(t, `func @main() {
  %n2 = const 2
  %a = qalloc %n2
  %n3 = const 3
  %b = qalloc %n3
  %ab = concat %a, %b
  %ba = concat %b, %a
  %one = const 1
  %tail = slice %b, %one, _
  %two = const 2
  %even = slice %b, _, _, %two
  %m1 = const -1
  %rev = slice %a, _, _, %m1
  %i0 = const 0
  %q0 = index %a, %i0
  %t = tuple %q0, %tail
  %t1 = index %t, %one
  %w = unwrap %q0
  %w2 = wapply h %w
  %al = alias %b
  %l = list
  %lt = concat %l, %a
  return
}
`, address.Options{})
	tests := map[string]address.Address{
		"ab":   address.RegisterAddr(0, 5),
		"ba":   address.TupleAddr(address.QubitAddr(2), address.QubitAddr(3), address.QubitAddr(4), address.QubitAddr(0), address.QubitAddr(1)),
		"tail": address.RegisterAddr(3, 5),
		"even": address.TupleAddr(address.QubitAddr(2), address.QubitAddr(4)),
		"rev":  address.TupleAddr(address.QubitAddr(1), address.QubitAddr(0)),
		"t":    address.TupleAddr(address.QubitAddr(0), address.RegisterAddr(3, 5)),
		"t1":   address.RegisterAddr(3, 5),
		"w":    address.WireAddr(0),
		"w2":   address.WireAddr(0),
		"al":   address.RegisterAddr(2, 5),
		"l":    address.TupleAddr(),
		"lt":   address.TupleAddr(address.QubitAddr(0), address.QubitAddr(1)),
	}
	for name, want := range tests {
		if got := res.Get(fn.ID, valueOf(t, fn, name)); !got.Equal(want) {
			t.Errorf("%%%s = %s, want %s", name, got, want)
		}
	}
}

func TestBranchJoin(t *testing.T) {
	fn, res := analyze(t, `func @main(%c) {
  %n = const 2
  %r = qalloc %n
  %i0 = const 0
  %i1 = const 1
  %a = index %r, %i0
  %b = index %r, %i1
  if %c, left, right
left:
  goto join(%a, %a)
right:
  goto join(%b, %a)
join(%x, %y):
  return
}
`, address.Options{})
	if got := res.Get(fn.ID, valueOf(t, fn, "x")); got.Kind() != address.Any {
		t.Errorf("%%x = %s, want any", got)
	}
	if got := res.Get(fn.ID, valueOf(t, fn, "y")); !got.Equal(address.QubitAddr(0)) {
		t.Errorf("%%y = %s, want q0", got)
	}
	if got := res.Get(fn.ID, valueOf(t, fn, "c")); got.Kind() != address.Any {
		t.Errorf("entry parameter = %s, want any", got)
	}
}

func TestLoopAllocationIsStable(t *testing.T) {
	fn, res := analyze(t, `func @main(%c) {
  %z = const 0
  goto head(%z)
head(%i):
  if %c, body(%i), exit
body(%j):
  %one = const 1
  %q = qalloc %one
  %k = add %j, %one
  goto head(%k)
exit:
  return
}
`, address.Options{})
	if res.QubitCount != 1 {
		t.Fatalf("QubitCount = %d, want 1", res.QubitCount)
	}
	if got := res.Get(fn.ID, valueOf(t, fn, "q")); !got.Equal(address.RegisterAddr(0, 1)) {
		t.Fatalf("%%q = %s, want q[0..1)", got)
	}
}

func TestCallInLoopKeepsAllocationSite(t *testing.T) {
	fn, res := analyze(t, `func @mk(%a) {
  %two = const 2
  %s = qalloc %two
  return %s
}

func @main(%c, %x) {
  %one = const 1
  %r = qalloc %one
  %z = const 0
  %q0 = index %r, %z
  goto head(%q0)
head(%p):
  %m = call @mk(%p)
  %y = index %m, %x
  if %c, head(%y), exit
exit:
  return
}
`, address.Options{})
	if got := res.Get(fn.ID, valueOf(t, fn, "p")); got.Kind() != address.Any {
		t.Fatalf("%%p = %s, want any after the back edge", got)
	}
	if res.QubitCount != 3 {
		t.Fatalf("QubitCount = %d, want 3", res.QubitCount)
	}
	if got := res.Get(fn.ID, valueOf(t, fn, "m")); !got.Equal(address.RegisterAddr(1, 3)) {
		t.Fatalf("%%m = %s, want q[1..3)", got)
	}
}

func TestCallsAllocateFreshQubits(t *testing.T) {
	fn, res := analyze(t, `func @mk() {
  %n = const 2
  %r = qalloc %n
  return %r
}

func @main() {
  %a = call @mk()
  %b = call @mk()
  return
}
`, address.Options{})
	if got := res.Get(fn.ID, valueOf(t, fn, "a")); !got.Equal(address.RegisterAddr(0, 2)) {
		t.Errorf("%%a = %s, want q[0..2)", got)
	}
	if got := res.Get(fn.ID, valueOf(t, fn, "b")); !got.Equal(address.RegisterAddr(2, 4)) {
		t.Errorf("%%b = %s, want q[2..4)", got)
	}
	if res.MemoHits != 0 {
		t.Errorf("allocating calls must not be memoized, got %d hits", res.MemoHits)
	}
}

func TestPureCallsAreMemoized(t *testing.T) {
	fn, res := analyze(t, `func @first(%r) {
  %i = const 0
  %q = index %r, %i
  return %q
}

func @main() {
  %n = const 3
  %r = qalloc %n
  %a = call @first(%r)
  %b = call @first(%r)
  return
}
`, address.Options{})
	if res.MemoHits != 1 {
		t.Errorf("MemoHits = %d, want 1", res.MemoHits)
	}
	for _, name := range []string{"a", "b"} {
		if got := res.Get(fn.ID, valueOf(t, fn, name)); !got.Equal(address.QubitAddr(0)) {
			t.Errorf("%%%s = %s, want q0", name, got)
		}
	}
}

func TestRecursionFailsClosed(t *testing.T) {
	bag := diag.NewBag(10)
	fn, res := analyze(t, `func @rec(%q) {
  %r = call @rec(%q)
  return %r
}

func @main() {
  %n = const 1
  %a = qalloc %n
  %x = call @rec(%a)
  return
}
`, address.Options{Reporter: diag.BagReporter{Bag: bag}})
	if got := res.Get(fn.ID, valueOf(t, fn, "x")); got.Kind() != address.Any {
		t.Errorf("%%x = %s, want any", got)
	}
	if res.Cutoffs == 0 {
		t.Errorf("expected a recursion cutoff")
	}
	if bag.Count(diag.AddrRecursionLimit) == 0 {
		t.Errorf("expected %s diagnostic", diag.AddrRecursionLimit.ID())
	}
}

const outOfRange = `func @main() {
  %n = const 2
  %r = qalloc %n
  %i = const 5
  %x = index %r, %i
  return
}
`

func TestLenientFailureIsInfo(t *testing.T) {
	bag := diag.NewBag(10)
	fn, res := analyze(t, outOfRange, address.Options{Reporter: diag.BagReporter{Bag: bag}})
	if got := res.Get(fn.ID, valueOf(t, fn, "x")); got.Kind() != address.Any {
		t.Errorf("%%x = %s, want any", got)
	}
	if res.Failures != 1 {
		t.Errorf("Failures = %d, want 1", res.Failures)
	}
	if bag.Count(diag.AddrIndexOutOfRange) != 1 {
		t.Fatalf("expected one %s diagnostic, got %d", diag.AddrIndexOutOfRange.ID(), bag.Len())
	}
	if sev := bag.Items()[0].Severity; sev != diag.SevInfo {
		t.Errorf("severity = %s, want info", sev)
	}
}

func TestStrictFailureIsError(t *testing.T) {
	prog := mustParse(t, outOfRange)
	bag := diag.NewBag(10)
	_, err := address.Analyze(prog, lookup(t, prog, "main"), nil, address.Options{
		Strict:   true,
		Reporter: diag.BagReporter{Bag: bag},
	})
	if !errors.Is(err, address.ErrStructural) {
		t.Fatalf("err = %v, want ErrStructural", err)
	}
	if !bag.HasErrors() {
		t.Fatalf("strict mode must report an error diagnostic")
	}
}

func TestUnsizedAllocationIsUnreliable(t *testing.T) {
	bag := diag.NewBag(10)
	fn, res := analyze(t, `func @main(%n) {
  %k = const 2
  %b = qalloc %k
  %a = qalloc %n
  %k1 = const 1
  %c = qalloc %k1
  return
}
`, address.Options{Reporter: diag.BagReporter{Bag: bag}})
	if !res.Unreliable || res.UnreliableFrom != 2 {
		t.Fatalf("Unreliable = %v from %d, want true from 2", res.Unreliable, res.UnreliableFrom)
	}
	if got := res.Get(fn.ID, valueOf(t, fn, "a")); got.Kind() != address.Any {
		t.Errorf("%%a = %s, want any", got)
	}
	if got := res.Get(fn.ID, valueOf(t, fn, "c")); !got.Equal(address.RegisterAddr(2, 3)) {
		t.Errorf("%%c = %s, want q[2..3)", got)
	}
	if bag.Count(diag.AddrUnsizedAlloc) != 1 {
		t.Errorf("expected one %s diagnostic", diag.AddrUnsizedAlloc.ID())
	}
}

func TestEntryArguments(t *testing.T) {
	prog := mustParse(t, `func @main(%r) {
  %i = const -1
  %x = index %r, %i
  return %x
}
`)
	main := lookup(t, prog, "main")
	res, err := address.Analyze(prog, main, nil, address.Options{
		EntryArgs: []address.Address{address.RegisterAddr(10, 12)},
	})
	if err != nil {
		t.Fatal(err)
	}
	if got := res.Get(main.ID, valueOf(t, main, "x")); !got.Equal(address.QubitAddr(11)) {
		t.Fatalf("%%x = %s, want q11", got)
	}
	if _, err := address.Analyze(prog, main, nil, address.Options{EntryArgs: []address.Address{}}); err == nil {
		t.Fatalf("wrong entry argument count must fail")
	}
}

package diagfmt

import (
	"bytes"
	"testing"

	"qir/internal/address"
	"qir/internal/ir"
	"qir/internal/schedule"
)

const dumpSrc = `func @main() {
  %n = const 2
  %r = qalloc %n
  %i = const 1
  %q = index %r, %i
  gate h %q
  gate x %q
  gate h %r
  return
}
`

func analyzeMain(t *testing.T) (*ir.Program, *ir.Func, *address.Result) {
	t.Helper()
	prog, err := ir.ParseString("dump.qir", dumpSrc)
	if err != nil {
		t.Fatal(err)
	}
	fn, _ := prog.Lookup("main")
	res, err := address.Analyze(prog, fn, nil, address.Options{})
	if err != nil {
		t.Fatal(err)
	}
	return prog, fn, res
}

func TestAddressMap(t *testing.T) {
	_, fn, res := analyzeMain(t)
	var buf bytes.Buffer
	if err := AddressMap(&buf, fn, res, DumpOpts{}); err != nil {
		t.Fatal(err)
	}
	want := "@main\n  %r  q[0..2)\n  %q  q1\n"
	if got := buf.String(); got != want {
		t.Fatalf("got:\n%q\nwant:\n%q", got, want)
	}

	buf.Reset()
	if err := AddressMap(&buf, fn, res, DumpOpts{All: true}); err != nil {
		t.Fatal(err)
	}
	want = "@main\n  %n  not-qubit\n  %r  q[0..2)\n  %i  not-qubit\n  %q  q1\n"
	if got := buf.String(); got != want {
		t.Fatalf("got:\n%q\nwant:\n%q", got, want)
	}
}

func TestAddressSummary(t *testing.T) {
	_, fn, res := analyzeMain(t)
	var buf bytes.Buffer
	if err := AddressSummary(&buf, fn, res); err != nil {
		t.Fatal(err)
	}
	if got, want := buf.String(), "entry @main: 2 qubits\n"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestScheduleDump(t *testing.T) {
	prog, fn, res := analyzeMain(t)
	var buf bytes.Buffer
	if err := Schedule(&buf, prog, schedule.Build(fn, res), DumpOpts{}); err != nil {
		t.Fatal(err)
	}
	want := "@main\n" +
		"  bb0 segment 0 (depth 2, 1 edges)\n" +
		"    L0  #4   gate h %q\n" +
		"    L0  #6   gate h %r\n" +
		"    L1  #5   gate x %q  <- #4\n" +
		"    T   #7   return\n"
	if got := buf.String(); got != want {
		t.Fatalf("got:\n%s\nwant:\n%s", got, want)
	}
}

package diag

import (
	"testing"

	"qir/internal/source"
)

func TestFormatGoldenDiagnostics(t *testing.T) {
	fs := source.NewFileSet()
	fs.SetBaseDir("/workspace")

	userFile := fs.Add("/workspace/testdata/golden/bell.qir", []byte("a\nb\n"), 0)

	diags := []*Diagnostic{
		{
			Severity: SevError,
			Code:     NclMustClone,
			Message:  "first line\nsecond",
			Primary:  source.Span{File: userFile, Start: 0, End: 1},
			Notes: []Note{
				{Span: source.Span{File: userFile, Start: 2, End: 3}, Msg: "note line"},
				{Span: source.Span{File: 42, Start: 0, End: 0}, Msg: "unknown file is dropped"},
			},
		},
		{
			Severity: SevWarning,
			Code:     NclMayClone,
			Message:  "another",
			Primary:  source.Span{File: userFile, Start: 2, End: 3},
		},
	}

	expected := "error NCL4001 testdata/golden/bell.qir:1:1 first line second\n" +
		"note NCL4001 testdata/golden/bell.qir:2:1 note line\n" +
		"warning NCL4002 testdata/golden/bell.qir:2:1 another"

	if got := FormatGoldenDiagnostics(diags, fs, true); got != expected {
		t.Fatalf("unexpected golden diagnostics:\nwant:\n%s\n\ngot:\n%s", expected, got)
	}
}

func TestFormatShortDiagnosticsVirtual(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("<stdin>", []byte("x = y\n"))
	diags := []*Diagnostic{NewError(SynUndefinedValue, source.Span{File: id, Start: 4, End: 5}, "undefined value %y")}
	want := "error SYN2005 <stdin>:1:5 undefined value %y"
	if got := FormatShortDiagnostics(diags, fs, false); got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestCodeID(t *testing.T) {
	cases := map[Code]string{
		LexUnknownChar:     "LEX1001",
		SynUnexpectedToken: "SYN2001",
		IRNotFlat:          "IR3002",
		NclMayClone:        "NCL4002",
		AddrUnsizedAlloc:   "ADR5003",
		ProjConfigInvalid:  "PRJ6001",
		IOLoadFileError:    "IO7001",
		ObsTimings:         "OBS8001",
		UnknownCode:        "E0000",
	}
	for code, want := range cases {
		if got := code.ID(); got != want {
			t.Errorf("%d.ID() = %q, want %q", code, got, want)
		}
	}
	if Code(9999).Title() != codeDescription[UnknownCode] {
		t.Errorf("unknown code should fall back to the generic title")
	}
}

func TestBagLimitSortDedup(t *testing.T) {
	b := NewBag(3)
	sp := source.Span{File: 0, Start: 5, End: 6}
	r := BagReporter{Bag: b}
	r.Report(NclMayClone, SevWarning, sp, "m", nil)
	r.Report(NclMustClone, SevError, source.Span{Start: 1, End: 2}, "m", nil)
	r.Report(NclMayClone, SevWarning, sp, "m", nil)
	r.Report(NclMayClone, SevWarning, sp, "dropped", nil)

	if b.Len() != 3 {
		t.Fatalf("expected limit of 3, got %d", b.Len())
	}
	if !b.HasErrors() || !b.HasWarnings() {
		t.Fatalf("expected both errors and warnings")
	}
	b.Dedup()
	if b.Len() != 2 {
		t.Fatalf("expected dedup to leave 2 items, got %d", b.Len())
	}
	b.Sort()
	if b.Items()[0].Code != NclMustClone {
		t.Fatalf("expected earliest span first, got %s", b.Items()[0].Code.ID())
	}
}

func TestDedupReporter(t *testing.T) {
	b := NewBag(10)
	r := NewDedupReporter(BagReporter{Bag: b})
	sp := source.Span{Start: 1, End: 3}
	ReportWarning(r, NclMayClone, sp, "same").Emit()
	ReportWarning(r, NclMayClone, sp, "same").WithNote(sp, "extra").Emit()
	ReportError(r, NclMustClone, sp, "same").Emit()
	if b.Len() != 2 {
		t.Fatalf("expected 2 unique diagnostics, got %d", b.Len())
	}
}

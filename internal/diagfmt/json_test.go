package diagfmt

import (
	"bytes"
	"encoding/json"
	"testing"

	"qir/internal/diag"
	"qir/internal/source"
)

func TestJSON(t *testing.T) {
	fs, bag := kernelBag(t, "k.qir")
	bag.Add(diag.New(diag.SevInfo, diag.AddrUnsizedAlloc, source.Span{File: 42}, "no location"))

	var buf bytes.Buffer
	if err := JSON(&buf, bag, fs, JSONOpts{IncludePositions: true, IncludeNotes: true}); err != nil {
		t.Fatal(err)
	}
	var out DiagnosticsOutput
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, buf.String())
	}
	if out.Count != 2 || len(out.Diagnostics) != 2 {
		t.Fatalf("count = %d", out.Count)
	}
	first := out.Diagnostics[0]
	if first.Code != "NCL4001" || first.Severity != "ERROR" || first.Title != diag.NclMustClone.Title() {
		t.Fatalf("first = %+v", first)
	}
	loc := first.Location
	if loc == nil || loc.File != "k.qir" || loc.StartLine != 2 || loc.StartCol != 3 || loc.EndCol != 17 {
		t.Fatalf("location = %+v", loc)
	}
	if len(first.Notes) != 1 || first.Notes[0].Location == nil {
		t.Fatalf("notes = %+v", first.Notes)
	}
	if out.Diagnostics[1].Location != nil {
		t.Fatalf("unresolved span must have no location")
	}
}

func TestJSONMaxAndNotes(t *testing.T) {
	fs, bag := kernelBag(t, "k.qir")
	bag.Add(diag.New(diag.SevInfo, diag.ObsTimings, source.Span{}, "timings").
		WithNote(source.Span{}, `{"kind":"file"}`))

	out := BuildDiagnosticsOutput(bag, fs, JSONOpts{Max: 1})
	if out.Count != 1 || out.Diagnostics[0].Notes != nil || out.Diagnostics[0].Location.StartLine != 0 {
		t.Fatalf("max/positions not honored: %+v", out)
	}
	out = BuildDiagnosticsOutput(bag, fs, JSONOpts{})
	if len(out.Diagnostics[1].Notes) != 1 {
		t.Fatalf("timing notes must always be kept")
	}
}

func TestSarif(t *testing.T) {
	fs, bag := kernelBag(t, "k.qir")
	bag.Add(diag.New(diag.SevWarning, diag.NclMayClone, source.Span{File: 0, Start: 14, End: 18}, "may"))
	bag.Add(diag.New(diag.SevInfo, diag.ObsTimings, source.Span{}, "timings"))

	var buf bytes.Buffer
	err := Sarif(&buf, bag, fs, SarifRunMeta{ToolName: "qirc", ToolVersion: "0.1.0", InvocationArgs: []string{"check"}})
	if err != nil {
		t.Fatal(err)
	}
	var log sarifLog
	if err := json.Unmarshal(buf.Bytes(), &log); err != nil {
		t.Fatal(err)
	}
	if log.Version != "2.1.0" || len(log.Runs) != 1 {
		t.Fatalf("log = %+v", log)
	}
	run := log.Runs[0]
	if len(run.Results) != 2 {
		t.Fatalf("results = %d, want 2 (timings excluded)", len(run.Results))
	}
	if run.Results[1].Level != "warning" || run.Results[0].Locations[0].PhysicalLocation.Region.StartLine != 2 {
		t.Fatalf("results = %+v", run.Results)
	}
	rules := run.Tool.Driver.Rules
	if len(rules) != 2 || rules[0].ID != "NCL4001" || rules[1].ID != "NCL4002" {
		t.Fatalf("rules = %+v", rules)
	}
	if run.Invocations[0].ExecutionSuccessful {
		t.Fatalf("a run with errors is not successful")
	}
}

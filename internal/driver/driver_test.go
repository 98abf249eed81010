package driver_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"qir/internal/address"
	"qir/internal/cache"
	"qir/internal/diag"
	"qir/internal/driver"
	"qir/internal/source"
)

const branchSplit = `func @main(%c) {
  %n = const 2
  %r = qalloc %n
  %i0 = const 0
  %i1 = const 1
  %q0 = index %r, %i0
  %q1 = index %r, %i1
  if %c, yes, no
yes:
  gate cx %q0, %q0
  goto done
no:
  gate cx %q0, %q1
  goto done
done:
  gate cx %q1, %q1
  return
}
`

const clean = `func @main() {
  %n = const 2
  %r = qalloc %n
  %i0 = const 0
  %q0 = index %r, %i0
  gate h %q0
  gate h %r
  return
}
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func symbolic() driver.Options {
	return driver.Options{Mode: driver.ModeSymbolic, Schedule: true}
}

func TestAnalyzeFileReportsFindings(t *testing.T) {
	path := writeFile(t, t.TempDir(), "split.qir", branchSplit)
	_, res, err := driver.AnalyzeFile(context.Background(), path, symbolic())
	if err != nil {
		t.Fatal(err)
	}
	if res.Summary.Must != 1 || res.Summary.May != 1 {
		t.Fatalf("must=%d may=%d, want 1 and 1", res.Summary.Must, res.Summary.May)
	}
	errs, warnings := res.Counts()
	if errs != 1 || warnings != 1 {
		t.Fatalf("errors=%d warnings=%d, want 1 and 1", errs, warnings)
	}
	if res.Bag.Count(diag.NclMustClone) != 1 || res.Bag.Count(diag.NclMayClone) != 1 {
		t.Fatalf("unexpected diagnostics %d", res.Bag.Len())
	}
	if len(res.Funcs) != 1 || res.Funcs[0].Schedule == nil {
		t.Fatalf("expected one scheduled function, got %+v", res.Funcs)
	}
	if res.Summary.QubitCount != 2 || res.Summary.Segments != 4 {
		t.Fatalf("summary %+v", res.Summary)
	}
}

func TestMayAsError(t *testing.T) {
	path := writeFile(t, t.TempDir(), "split.qir", branchSplit)
	opts := symbolic()
	opts.MayAsError = true
	_, res, err := driver.AnalyzeFile(context.Background(), path, opts)
	if err != nil {
		t.Fatal(err)
	}
	if errs, _ := res.Counts(); errs != 2 {
		t.Fatalf("errors = %d, want 2", errs)
	}
}

func TestFlatModeSkipsBranchedFunctions(t *testing.T) {
	path := writeFile(t, t.TempDir(), "split.qir", branchSplit)
	_, res, err := driver.AnalyzeFile(context.Background(), path, driver.Options{Mode: driver.ModeFlat})
	if err != nil {
		t.Fatal(err)
	}
	if res.Bag.Count(diag.IRNotFlat) != 1 || res.Summary.Must != 0 {
		t.Fatalf("expected a not-flat warning and no findings, got %d diagnostics", res.Bag.Len())
	}
}

func TestStrictModeStopsAnalysis(t *testing.T) {
	path := writeFile(t, t.TempDir(), "oob.qir", `func @main() {
  %n = const 2
  %r = qalloc %n
  %i = const 9
  %x = index %r, %i
  gate cx %x, %x
  return
}
`)
	opts := symbolic()
	opts.Strict = true
	_, res, err := driver.AnalyzeFile(context.Background(), path, opts)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Analyses) != 1 || !errors.Is(res.Analyses[0].Err, address.ErrStructural) {
		t.Fatalf("analyses = %+v", res.Analyses)
	}
	if len(res.Funcs) != 0 {
		t.Fatalf("strict failure must not run later passes")
	}
	if res.Bag.Count(diag.AddrIndexOutOfRange) != 1 || !res.Bag.HasErrors() {
		t.Fatalf("expected an out-of-range error")
	}
}

func TestSyntaxErrorsAreDiagnostics(t *testing.T) {
	path := writeFile(t, t.TempDir(), "bad.qir", "func @main() {\n  %x = frobnicate\n  return\n}\n")
	_, res, err := driver.AnalyzeFile(context.Background(), path, symbolic())
	if err != nil {
		t.Fatal(err)
	}
	if !res.Bag.HasErrors() || res.Bag.Count(diag.SynUnknownOp) == 0 {
		t.Fatalf("expected a syntax error, got %d diagnostics", res.Bag.Len())
	}
	if len(res.Analyses) != 0 {
		t.Fatalf("analysis must not run on a broken file")
	}
}

func TestAnalyzeDirKeepsOrder(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.qir", branchSplit)
	writeFile(t, dir, "a.qir", clean)
	writeFile(t, dir, "sub/c.qir", clean)
	writeFile(t, dir, "notes.txt", "ignored")

	opts := symbolic()
	opts.Jobs = 2
	fs, results, err := driver.AnalyzeDir(context.Background(), dir, opts)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}
	wantBase := []string{"a.qir", "b.qir", "c.qir"}
	for i, r := range results {
		if filepath.Base(r.Path) != wantBase[i] {
			t.Errorf("result %d is %s, want %s", i, r.Path, wantBase[i])
		}
	}
	if results[1].Summary.Must != 1 || results[0].Summary.Must != 0 {
		t.Fatalf("findings attached to the wrong file")
	}
	if fs.Len() != 3 {
		t.Fatalf("FileSet has %d files, want 3", fs.Len())
	}
}

func TestCacheSkipsCleanFiles(t *testing.T) {
	dir := t.TempDir()
	cleanPath := writeFile(t, dir, "clean.qir", clean)
	dirtyPath := writeFile(t, dir, "dirty.qir", branchSplit)
	c, err := cache.Open(filepath.Join(t.TempDir(), "cache"))
	if err != nil {
		t.Fatal(err)
	}
	opts := driver.Options{Mode: driver.ModeSymbolic, Cache: c}

	for round := range 2 {
		_, res, err := driver.AnalyzeFile(context.Background(), cleanPath, opts)
		if err != nil {
			t.Fatal(err)
		}
		if res.Cached != (round == 1) {
			t.Fatalf("round %d: Cached = %v", round, res.Cached)
		}
		if res.Summary.QubitCount != 2 {
			t.Fatalf("round %d: summary %+v", round, res.Summary)
		}

		_, res, err = driver.AnalyzeFile(context.Background(), dirtyPath, opts)
		if err != nil {
			t.Fatal(err)
		}
		if res.Cached {
			t.Fatalf("round %d: a file with diagnostics must be re-analyzed", round)
		}
	}
}

func TestEvents(t *testing.T) {
	path := writeFile(t, t.TempDir(), "clean.qir", clean)
	events := make(chan driver.Event, 16)
	opts := symbolic()
	opts.Events = events
	if _, _, err := driver.AnalyzeFile(context.Background(), path, opts); err != nil {
		t.Fatal(err)
	}
	close(events)
	var last driver.Event
	n := 0
	for ev := range events {
		last = ev
		n++
	}
	if n < 2 || last.Status != driver.StatusDone {
		t.Fatalf("got %d events, last %+v", n, last)
	}
}

func TestFormatPaths(t *testing.T) {
	dir := t.TempDir()
	messy := "func @main() {\n%n = const 1   // one\n  %r = qalloc %n\n\n  return\n}\n"
	path := writeFile(t, dir, "m.qir", messy)

	fs := source.NewFileSet()
	results, err := driver.FormatPaths(context.Background(), fs, []string{dir}, driver.FormatOptions{Check: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || !results[0].Changed {
		t.Fatalf("check mode: %+v", results)
	}
	if data, _ := os.ReadFile(path); string(data) != messy {
		t.Fatalf("check mode must not write")
	}

	if _, err := driver.FormatPaths(context.Background(), fs, []string{path}, driver.FormatOptions{}); err != nil {
		t.Fatal(err)
	}
	want := "func @main() {\n  %n = const 1\n  %r = qalloc %n\n  return\n}\n"
	if data, _ := os.ReadFile(path); string(data) != want {
		t.Fatalf("formatted file:\n%s", data)
	}
}

func TestSharedCalleeReportsOnce(t *testing.T) {
	const src = `func @h(%n) {
  %q = qalloc %n
  return
}

func @a(%k) {
  call @h(%k)
  return
}

func @b(%k) {
  call @h(%k)
  return
}
`
	path := writeFile(t, t.TempDir(), "shared.qir", src)
	_, res, err := driver.AnalyzeFile(context.Background(), path, symbolic())
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Analyses) != 2 {
		t.Fatalf("analyses = %d, want one per root", len(res.Analyses))
	}
	if got := res.Bag.Count(diag.AddrUnsizedAlloc); got != 1 {
		t.Fatalf("unsized allocation reported %d times, want 1", got)
	}
}

func TestSharedCalleeCheckedInEveryContext(t *testing.T) {
	const src = `func @h(%x, %y) {
  gate cx %x, %y
  return
}

func @a() {
  %n = const 2
  %r = qalloc %n
  %i0 = const 0
  %i1 = const 1
  %q0 = index %r, %i0
  %q1 = index %r, %i1
  call @h(%q0, %q1)
  return
}

func @b() {
  %n = const 1
  %r = qalloc %n
  %i0 = const 0
  %q0 = index %r, %i0
  call @h(%q0, %q0)
  return
}
`
	path := writeFile(t, t.TempDir(), "contexts.qir", src)
	_, res, err := driver.AnalyzeFile(context.Background(), path, driver.Options{Mode: driver.ModeSymbolic})
	if err != nil {
		t.Fatal(err)
	}
	var h *driver.FuncReport
	for i := range res.Funcs {
		if res.Funcs[i].Func.Name == "h" {
			h = &res.Funcs[i]
		}
	}
	if h == nil || len(h.Contexts) != 2 {
		t.Fatalf("expected @h reached from both roots, got %+v", h)
	}
	if res.Summary.Must != 1 || res.Bag.Count(diag.NclMustClone) != 1 {
		t.Fatalf("must=%d diagnostics=%d, want the clone from @b", res.Summary.Must, res.Bag.Count(diag.NclMustClone))
	}
}

package main

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"

	"qir/internal/diag"
	"qir/internal/diagfmt"
	"qir/internal/driver"
	"qir/internal/source"
	"qir/internal/version"
)

type totals struct {
	files, cached    int
	errors, warnings int
	must, may        int
	qubits           uint64
	segments         int
}

func sumResults(results []*driver.Result) totals {
	var t totals
	for _, r := range results {
		if r == nil {
			continue
		}
		t.files++
		if r.Cached {
			t.cached++
		}
		t.errors += r.Summary.Errors
		t.warnings += r.Summary.Warnings
		t.must += r.Summary.Must
		t.may += r.Summary.May
		t.qubits += r.Summary.QubitCount
		t.segments += r.Summary.Segments
	}
	return t
}

// renderDiagnostics writes the diagnostics of every result in format.
// Pretty and short output go file by file; json and sarif emit a single
// document.
func renderDiagnostics(w io.Writer, fs *source.FileSet, results []*driver.Result, s runSettings, args []string) error {
	pathMode := diagfmt.PathModeAuto
	if s.fullPath {
		pathMode = diagfmt.PathModeAbsolute
	}
	switch s.format {
	case "pretty":
		first := true
		for _, r := range results {
			if r == nil || r.Bag.Len() == 0 {
				continue
			}
			if !first {
				fmt.Fprintln(w)
			}
			first = false
			diagfmt.Pretty(w, r.Bag, fs, diagfmt.PrettyOpts{
				Color:     colorOn(w),
				Context:   1,
				PathMode:  pathMode,
				ShowNotes: s.withNotes,
			})
		}
		return nil
	case "short":
		for _, r := range results {
			if r != nil {
				diagfmt.Short(w, r.Bag, fs, s.withNotes)
			}
		}
		return nil
	}

	merged := mergeBags(results)
	if s.format == "sarif" {
		return diagfmt.Sarif(w, merged, fs, diagfmt.SarifRunMeta{
			ToolName:       "qirc",
			ToolVersion:    version.Version,
			InvocationArgs: args,
		})
	}
	return diagfmt.JSON(w, merged, fs, diagfmt.JSONOpts{
		IncludePositions: true,
		PathMode:         pathMode,
		IncludeNotes:     s.withNotes,
	})
}

func mergeBags(results []*driver.Result) *diag.Bag {
	n := 0
	for _, r := range results {
		if r != nil {
			n += r.Bag.Len()
		}
	}
	merged := diag.NewBag(max(n, 1))
	for _, r := range results {
		if r != nil {
			merged.Merge(r.Bag)
		}
	}
	return merged
}

func printSummary(w io.Writer, t totals) {
	line := fmt.Sprintf("%d file(s): %d error(s), %d warning(s); %d definite and %d possible clone(s)",
		t.files, t.errors, t.warnings, t.must, t.may)
	if t.cached > 0 {
		line += fmt.Sprintf(", %d cached", t.cached)
	}
	fmt.Fprintln(w, line)
}

// colorOn reports whether output to w should be colored; only the real
// stdout and stderr ever are.
func colorOn(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok || (f != os.Stdout && f != os.Stderr) {
		return false
	}
	return !color.NoColor
}

package fuzztests

import (
	"errors"
	"testing"

	"qir/internal/address"
	"qir/internal/diag"
	"qir/internal/ir"
	"qir/internal/nocloning"
	"qir/internal/schedule"
	"qir/internal/source"
	"qir/internal/testkit"
)

func parse(input []byte) (*ir.Program, *source.File, bool) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("fuzz.qir", input)
	file := fs.Get(id)
	bag := diag.NewBag(128)
	prog, ok := ir.Parse(file, diag.BagReporter{Bag: bag})
	return prog, file, ok
}

// FuzzParse checks that parsing never panics and that a successfully parsed
// program prints to a fixed point.
func FuzzParse(f *testing.F) {
	addCorpusSeeds(f)
	f.Fuzz(func(t *testing.T, input []byte) {
		prog, file, ok := parse(clampInput(input))
		if !ok {
			return
		}
		if err := testkit.CheckSpanInvariants(prog, file); err != nil {
			t.Fatalf("span invariants: %v", err)
		}
		first := ir.Format(prog)
		again, err := ir.ParseString("again.qir", first)
		if err != nil {
			t.Fatalf("printed program does not parse: %v\n%s", err, first)
		}
		if second := ir.Format(again); second != first {
			t.Fatalf("printing is not stable:\nfirst:\n%s\nsecond:\n%s", first, second)
		}
	})
}

// FuzzAnalyze runs every function of a valid program as an entry through
// the address analysis, both no-cloning checkers and the scheduler.
func FuzzAnalyze(f *testing.F) {
	addCorpusSeeds(f)
	f.Fuzz(func(t *testing.T, input []byte) {
		prog, _, ok := parse(clampInput(input))
		if !ok || ir.Validate(prog) != nil {
			return
		}
		for _, entry := range prog.Funcs {
			for _, strict := range []bool{false, true} {
				opts := address.Options{Strict: strict, MaxCallDepth: 8, Reporter: diag.NopReporter{}}
				res, err := address.Analyze(prog, entry, nil, opts)
				if err != nil {
					// strict failures and entries without a fixpoint are reported, not panics
					continue
				}
				for _, id := range res.Funcs() {
					fn := prog.Func(id)
					if _, err := nocloning.CheckFlat(fn, res); err != nil && !errors.Is(err, nocloning.ErrNotFlat) {
						t.Fatalf("@%s flat: %v", fn.Name, err)
					}
					_, _ = nocloning.CheckSymbolic(fn, res, nocloning.Options{})
					if m := schedule.Build(fn, res); m == nil {
						t.Fatalf("@%s: nil schedule", fn.Name)
					}
				}
			}
		}
	})
}

package driver

import (
	"context"
	"errors"
	"fmt"

	"qir/internal/absint"
	"qir/internal/address"
	"qir/internal/cache"
	"qir/internal/diag"
	"qir/internal/ir"
	"qir/internal/nocloning"
	"qir/internal/observ"
	"qir/internal/schedule"
	"qir/internal/source"
	"qir/internal/trace"
)

// Analysis is the outcome of analyzing from one entry function.
type Analysis struct {
	Entry     *ir.Func
	Addresses *address.Result
	Err       error
}

// FuncReport holds the per-function results of a run.
type FuncReport struct {
	Func   *ir.Func
	Result *address.Result
	// Contexts holds every usable result reaching Func, Result first. The
	// no-cloning check runs once per context.
	Contexts []*address.Result
	Findings []nocloning.Finding
	Schedule *schedule.Map
}

// Result is the outcome of one file.
type Result struct {
	Path    string
	FileID  source.FileID
	Program *ir.Program
	Bag     *diag.Bag

	Analyses []Analysis
	Funcs    []FuncReport
	Timing   *observ.Report

	// Cached is set when the file was skipped on a cache hit; only Summary
	// is filled then.
	Cached  bool
	Summary cache.Summary
}

// AnalyzeFile loads path into a fresh FileSet and analyzes it.
func AnalyzeFile(ctx context.Context, path string, opts Options) (*source.FileSet, *Result, error) {
	fs := source.NewFileSet()
	id, err := fs.Load(path)
	if err != nil {
		return fs, nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	res, err := Analyze(ctx, fs, id, opts)
	return fs, res, err
}

// Analyze runs the pipeline on one loaded file. Problems in the program are
// reported as diagnostics; the error is reserved for cancellation.
func Analyze(ctx context.Context, fs *source.FileSet, id source.FileID, opts Options) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	file := fs.Get(id)
	res := &Result{
		Path:   file.Path,
		FileID: id,
		Bag:    diag.NewBag(opts.maxDiagnostics()),
	}
	res.Summary.Path = file.Path

	key := cache.Key(file.Content, opts.cacheOptions())
	if opts.Cache != nil && !opts.Schedule {
		var s cache.Summary
		if ok, err := opts.Cache.Get(key, &s); err == nil && ok && s.Errors == 0 && s.Warnings == 0 {
			res.Cached = true
			res.Summary = s
			res.Summary.Path = file.Path
			opts.emit(file.Path, StageQueued, StatusCached)
			return res, nil
		}
	}

	tracer := trace.FromContext(ctx)
	span := trace.Begin(tracer, trace.ScopeDriver, "file", trace.ParentFromContext(ctx)).
		WithExtra("path", file.Path)
	defer span.End("")
	timer := observ.NewTimer()
	// Entries sharing a callee report its diagnostics once.
	rep := diag.NewDedupReporter(diag.BagReporter{Bag: res.Bag})

	opts.emit(file.Path, StageParse, StatusWorking)
	var ok bool
	_ = timer.Track("parse", func() error {
		res.Program, ok = ir.Parse(file, rep)
		return nil
	})
	if !ok {
		return res.finish(opts, timer, key, false), nil
	}
	if err := timer.Track("validate", func() error { return ir.Validate(res.Program) }); err != nil {
		reportValidation(rep, id, err)
		return res.finish(opts, timer, key, false), nil
	}

	opts.emit(file.Path, StageAddress, StatusWorking)
	entries, err := selectEntries(res.Program, opts.Entry)
	if err != nil {
		diag.ReportError(rep, diag.IRInvalid, source.Span{File: id}, err.Error()).Emit()
		return res.finish(opts, timer, key, false), nil
	}
	_ = timer.Track("address", func() error {
		for _, entry := range entries {
			if err := ctx.Err(); err != nil {
				return err
			}
			aopts := opts.addressOptions()
			aopts.Reporter = rep
			aopts.Tracer = tracer
			aopts.Parent = span.ID()
			ares, err := address.Analyze(res.Program, entry, nil, aopts)
			if err != nil {
				reportAnalysisError(rep, entry, err)
				if !errors.Is(err, address.ErrStructural) {
					ares = nil
				}
			}
			res.Analyses = append(res.Analyses, Analysis{Entry: entry, Addresses: ares, Err: err})
		}
		return nil
	})
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	res.collectFuncs()

	if !opts.NoCheck {
		opts.emit(file.Path, StageNoCloning, StatusWorking)
		_ = timer.Track("nocloning", func() error {
			for i := range res.Funcs {
				res.check(&res.Funcs[i], rep, opts, tracer, span.ID())
			}
			return nil
		})
	}
	if opts.Schedule {
		opts.emit(file.Path, StageSchedule, StatusWorking)
		_ = timer.Track("schedule", func() error {
			for i := range res.Funcs {
				fr := &res.Funcs[i]
				fr.Schedule = schedule.Build(fr.Func, fr.Result)
				res.Summary.Segments += fr.Schedule.Count()
			}
			return nil
		})
	}
	return res.finish(opts, timer, key, true), nil
}

// collectFuncs lists every function reached by a usable analysis, each
// once, paired with the first result that covers it and with all of them.
func (r *Result) collectFuncs() {
	seen := make(map[ir.FuncID]int)
	for _, a := range r.Analyses {
		if a.Addresses == nil || a.Err != nil {
			continue
		}
		if a.Addresses.QubitCount > r.Summary.QubitCount {
			r.Summary.QubitCount = a.Addresses.QubitCount
		}
		r.Summary.Unreliable = r.Summary.Unreliable || a.Addresses.Unreliable
		for _, id := range a.Addresses.Funcs() {
			if i, ok := seen[id]; ok {
				r.Funcs[i].Contexts = append(r.Funcs[i].Contexts, a.Addresses)
				continue
			}
			seen[id] = len(r.Funcs)
			r.Funcs = append(r.Funcs, FuncReport{
				Func:     r.Program.Func(id),
				Result:   a.Addresses,
				Contexts: []*address.Result{a.Addresses},
			})
		}
	}
	r.Summary.Funcs = len(r.Funcs)
}

func (r *Result) check(fr *FuncReport, rep diag.Reporter, opts Options, tracer trace.Tracer, parent uint64) {
	nopts := nocloning.Options{MayAsError: opts.MayAsError, Tracer: tracer, Parent: parent}
	var findings []nocloning.Finding
	seen := make(map[string]bool)
	for _, ares := range fr.Contexts {
		var (
			found []nocloning.Finding
			err   error
		)
		switch opts.Mode {
		case ModeFlat:
			found, err = nocloning.CheckFlat(fr.Func, ares)
			if errors.Is(err, nocloning.ErrNotFlat) {
				diag.ReportWarning(rep, diag.IRNotFlat, fr.Func.Span,
					fmt.Sprintf("@%s has branches; flat no-cloning check skipped", fr.Func.Name)).Emit()
				return
			}
		default:
			found, err = nocloning.CheckSymbolic(fr.Func, ares, nopts)
		}
		if err != nil {
			diag.ReportError(rep, diag.AddrNoFixpoint, fr.Func.Span, err.Error()).Emit()
			return
		}
		for _, f := range found {
			key := fmt.Sprint(f.Stmt, f.Kind, f.Qubits, f.Values)
			if !seen[key] {
				seen[key] = true
				findings = append(findings, f)
			}
		}
	}
	fr.Findings = findings
	nocloning.Report(findings, fr.Func, rep, nopts)
	must, may := nocloning.Count(findings)
	r.Summary.Must += must
	r.Summary.May += may
}

func (r *Result) finish(opts Options, timer *observ.Timer, key cache.Digest, store bool) *Result {
	r.Bag.Sort()
	for _, d := range r.Bag.Items() {
		switch d.Severity {
		case diag.SevError:
			r.Summary.Errors++
		case diag.SevWarning:
			r.Summary.Warnings++
		}
	}
	report := timer.Report()
	r.Timing = &report
	if opts.Timings {
		appendTimingDiagnostic(r.Bag, source.Span{File: r.FileID}, timingPayload{Kind: "file", Path: r.Path, TotalMS: report.TotalMS, Phases: report.Phases})
	}
	status := StatusDone
	if r.Summary.Errors > 0 {
		status = StatusError
	}
	opts.emit(r.Path, StageQueued, status)
	if store && opts.Cache != nil {
		// A failed write only costs a re-analysis next time.
		_ = opts.Cache.Put(key, &r.Summary)
	}
	return r
}

func reportValidation(rep diag.Reporter, id source.FileID, err error) {
	var errs []error
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		errs = joined.Unwrap()
	} else {
		errs = []error{err}
	}
	for _, e := range errs {
		diag.ReportError(rep, diag.IRInvalid, source.Span{File: id}, e.Error()).Emit()
	}
}

func reportAnalysisError(rep diag.Reporter, entry *ir.Func, err error) {
	switch {
	case errors.Is(err, address.ErrStructural):
		// Already reported per statement.
	case errors.Is(err, absint.ErrNoFixpoint):
		diag.ReportError(rep, diag.AddrNoFixpoint, entry.Span, err.Error()).Emit()
	default:
		diag.ReportError(rep, diag.AddrInfo, entry.Span,
			"@"+entry.Name+": "+err.Error()).Emit()
	}
}

// Counts returns the number of error and warning diagnostics.
func (r *Result) Counts() (errs, warnings int) {
	return r.Summary.Errors, r.Summary.Warnings
}

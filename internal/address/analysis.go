package address

import (
	"errors"
	"fmt"
	"slices"
	"strconv"

	"qir/internal/absint"
	"qir/internal/constfold"
	"qir/internal/diag"
	"qir/internal/ir"
	"qir/internal/trace"
)

// DefaultMaxCallDepth bounds nested call analysis.
const DefaultMaxCallDepth = 64

var (
	// ErrStructural is returned in strict mode when an address could not be
	// resolved because of a shape mismatch.
	ErrStructural = errors.New("address: structural resolution failure")
	// ErrNoEntry is returned when the entry function has no body.
	ErrNoEntry = errors.New("address: entry function has no body")
)

// Oracle answers constant queries about integer operands.
type Oracle interface {
	Int(fn *ir.Func, v ir.ValueID) (int64, bool)
}

// Options configures Analyze.
type Options struct {
	// Strict turns resolution failures into errors.
	Strict bool
	// MaxCallDepth bounds nested calls; zero means DefaultMaxCallDepth.
	MaxCallDepth int
	// EntryArgs seeds the entry parameters; nil means Any for each.
	EntryArgs []Address
	Reporter  diag.Reporter
	Tracer    trace.Tracer
	// Parent is the trace span the analysis span is nested under.
	Parent uint64
}

// Result is the outcome of one Analyze run.
type Result struct {
	Entry      ir.FuncID
	QubitCount uint64
	// Unreliable is set when an allocation had an unknown size. Ids at or
	// above UnreliableFrom were handed out after it.
	Unreliable     bool
	UnreliableFrom uint64
	// Failures counts resolution failures.
	Failures int
	MemoHits int
	Cutoffs  int

	envs map[ir.FuncID][]Address
}

// Get returns the address of v in fn, joined over every analyzed context.
// Values of functions that were never reached are NotQubit.
func (r *Result) Get(fn ir.FuncID, v ir.ValueID) Address {
	env := r.envs[fn]
	if v < 0 || int(v) >= len(env) {
		return NotQubitAddr()
	}
	return env[v]
}

// Env returns the address of every value of fn, indexed by ir.ValueID.
func (r *Result) Env(fn ir.FuncID) []Address {
	return r.envs[fn]
}

// Funcs lists the analyzed functions in id order.
func (r *Result) Funcs() []ir.FuncID {
	out := make([]ir.FuncID, 0, len(r.envs))
	for id := range r.envs {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

// Analyze computes the address of every value reachable from entry. A nil
// oracle folds constants with constfold.
func Analyze(prog *ir.Program, entry *ir.Func, oracle Oracle, opts Options) (*Result, error) {
	if entry == nil || entry.Entry == ir.NoBlockID {
		return nil, ErrNoEntry
	}
	if oracle == nil {
		oracle = constfold.New(prog)
	}
	if opts.MaxCallDepth <= 0 {
		opts.MaxCallDepth = DefaultMaxCallDepth
	}
	if opts.Tracer == nil {
		opts.Tracer = trace.Nop
	}
	span := trace.Begin(opts.Tracer, trace.ScopePass, "address", opts.Parent).
		WithExtra("entry", "@"+entry.Name)

	args := opts.EntryArgs
	if args == nil {
		args = anyResults(len(entry.Params))
	}
	if len(args) != len(entry.Params) {
		span.End("bad entry arguments")
		return nil, fmt.Errorf("address: @%s takes %d arguments, got %d", entry.Name, len(entry.Params), len(args))
	}

	st := newState(prog, oracle, opts)
	root, err := st.analyzeFrame(entry, args, nil)
	if err != nil {
		span.End(err.Error())
		return nil, err
	}

	res := &Result{
		Entry:          entry.ID,
		QubitCount:     st.counter,
		Unreliable:     st.unreliable,
		UnreliableFrom: st.unreliableFrom,
		MemoHits:       st.memoHits,
		Cutoffs:        st.recursion,
		envs:           make(map[ir.FuncID][]Address),
	}
	seen := make(map[*frame]bool)
	res.Failures = st.report(root, seen)
	clear(seen)
	res.commit(root, seen)

	span.WithExtra("qubits", strconv.FormatUint(res.QubitCount, 10)).
		WithExtra("funcs", strconv.Itoa(len(res.envs)))
	if opts.Strict && res.Failures > 0 {
		span.End("structural failure")
		return res, fmt.Errorf("@%s: %d unresolved address(es): %w", entry.Name, res.Failures, ErrStructural)
	}
	span.End("")
	return res, nil
}

// analyzeFrame solves one function context to a fixpoint.
func (s *AnalysisState) analyzeFrame(fn *ir.Func, args []Address, seed *frame) (*frame, error) {
	key := makeKey(fn.ID, args)
	s.stack = append(s.stack, key)
	defer func() { s.stack = s.stack[:len(s.stack)-1] }()

	sp := trace.Begin(s.opts.Tracer, trace.ScopeModule, "func:@"+fn.Name, s.opts.Parent)
	f := newFrame(s, fn, args, seed)
	step := func(st *ir.Stmt, env *absint.Env[Address]) []Address {
		f.env = env
		return lookupTransfer(st.Op)(f, st)
	}
	env, err := absint.SolveValues[Address](fn, lattice{}, args, step, absint.Options{})
	f.env = env
	if err != nil {
		sp.End(err.Error())
		return nil, fmt.Errorf("address: %w", err)
	}
	f.results = returnAddresses(fn, env)
	sp.End("")
	return f, nil
}

// returnAddresses joins the operands of every reachable return.
func returnAddresses(fn *ir.Func, env *absint.Env[Address]) []Address {
	out := make([]Address, fn.NumResults)
	reach := absint.ReversePostorder(fn)
	for _, bb := range reach {
		term := fn.Terminator(bb)
		if term == nil || term.Op != ir.OpReturn {
			continue
		}
		for i, v := range term.Args {
			if i < len(out) {
				out[i] = Join(out[i], env.Get(v))
			}
		}
	}
	return out
}

// report re-evaluates every reachable statement of f and its callees with
// diagnostics enabled. Values are not updated.
func (s *AnalysisState) report(f *frame, seen map[*frame]bool) int {
	if f == nil || seen[f] {
		return 0
	}
	seen[f] = true
	f.reporting = true
	f.failures = 0
	for _, bb := range absint.ReversePostorder(f.fn) {
		for _, id := range f.fn.Block(bb).Stmts {
			st := f.fn.Stmt(id)
			lookupTransfer(st.Op)(f, st)
		}
	}
	f.reporting = false
	total := f.failures
	for _, site := range sortedSites(f) {
		total += s.report(site.callee, seen)
	}
	return total
}

// commit joins the environments of f and its callees into the result.
func (r *Result) commit(f *frame, seen map[*frame]bool) {
	if f == nil || seen[f] {
		return
	}
	seen[f] = true
	vals := f.env.Values()
	env, ok := r.envs[f.fn.ID]
	if !ok {
		env = make([]Address, len(vals))
		r.envs[f.fn.ID] = env
	}
	for i, a := range vals {
		env[i] = Join(env[i], a)
	}
	for _, site := range sortedSites(f) {
		r.commit(site.callee, seen)
	}
}

func sortedSites(f *frame) []*callSite {
	ids := make([]ir.StmtID, 0, len(f.calls))
	for id := range f.calls {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	out := make([]*callSite, len(ids))
	for i, id := range ids {
		out[i] = f.calls[id]
	}
	return out
}

func (s *AnalysisState) point(name, detail string) {
	trace.Point(s.opts.Tracer, trace.ScopeNode, name, detail, s.opts.Parent)
}

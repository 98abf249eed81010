package address

import (
	"strings"

	"qir/internal/absint"
	"qir/internal/ir"
)

// memoKey identifies one call context: a callee and its argument addresses.
type memoKey struct {
	callee ir.FuncID
	args   string
}

func makeKey(callee ir.FuncID, args []Address) memoKey {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = a.String()
	}
	return memoKey{callee: callee, args: strings.Join(parts, ";")}
}

// AnalysisState is the mutable state of one Analyze run. It is never shared
// between runs.
type AnalysisState struct {
	prog   *ir.Program
	oracle Oracle
	opts   Options

	counter        uint64
	unreliable     bool
	unreliableFrom uint64

	// memo holds summaries of allocation-free call contexts.
	memo  map[memoKey]*frame
	stack []memoKey

	memoHits  int
	recursion int
}

func newState(prog *ir.Program, oracle Oracle, opts Options) *AnalysisState {
	return &AnalysisState{
		prog:   prog,
		oracle: oracle,
		opts:   opts,
		memo:   make(map[memoKey]*frame),
	}
}

// allocate reserves n fresh qubit ids and returns their range.
func (s *AnalysisState) allocate(n uint64) Address {
	start := s.counter
	s.counter += n
	return RegisterAddr(start, s.counter)
}

// markUnreliable records that ids handed out from now on may not be exact.
func (s *AnalysisState) markUnreliable() {
	if !s.unreliable {
		s.unreliable = true
		s.unreliableFrom = s.counter
	}
}

func (s *AnalysisState) onStack(k memoKey) bool {
	for _, active := range s.stack {
		if active == k {
			return true
		}
	}
	return false
}

// frame is one analyzed function context.
type frame struct {
	st   *AnalysisState
	fn   *ir.Func
	args []Address
	env  *absint.Env[Address]

	// allocs and calls keep transfer results stable across fixpoint
	// iterations so re-evaluation never hands out fresh ids.
	allocs map[ir.StmtID]Address
	calls  map[ir.StmtID]*callSite

	// seed is an earlier context of the same call site. Its allocation
	// sites keep their ids when the site is re-analyzed with new arguments.
	seed *frame

	results    []Address
	allocating bool

	// reporting is set during the final pass that emits diagnostics.
	reporting bool
	failures  int
}

type callSite struct {
	key    memoKey
	callee *frame // nil when the call failed closed
	seed   *frame
	result []Address
}

// context returns the frame that last stood behind the site, if any.
func (c *callSite) context() *frame {
	if c.callee != nil {
		return c.callee
	}
	return c.seed
}

func newFrame(st *AnalysisState, fn *ir.Func, args []Address, seed *frame) *frame {
	return &frame{
		st:     st,
		fn:     fn,
		args:   args,
		seed:   seed,
		allocs: make(map[ir.StmtID]Address),
		calls:  make(map[ir.StmtID]*callSite),
	}
}

// seedFor returns the earlier context of the call at id, looking first at
// this frame and then at the frame it was seeded from.
func (f *frame) seedFor(id ir.StmtID) *frame {
	if site, ok := f.calls[id]; ok {
		if prev := site.context(); prev != nil {
			return prev
		}
	}
	if f.seed != nil {
		if site, ok := f.seed.calls[id]; ok {
			return site.context()
		}
	}
	return nil
}

// seededAlloc returns the range an earlier context handed out at id when it
// has the requested size.
func (f *frame) seededAlloc(id ir.StmtID, size uint64) (Address, bool) {
	if f.seed == nil {
		return Address{}, false
	}
	a, ok := f.seed.allocs[id]
	if !ok {
		return Address{}, false
	}
	if n, _ := a.Len(); n != size {
		return Address{}, false
	}
	return a, true
}

func (f *frame) get(v ir.ValueID) Address {
	return f.env.Get(v)
}

func anyResults(n int) []Address {
	out := make([]Address, n)
	for i := range out {
		out[i] = AnyAddr()
	}
	return out
}

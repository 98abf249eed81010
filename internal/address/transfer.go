package address

import (
	"fmt"

	"fortio.org/safecast"

	"qir/internal/diag"
	"qir/internal/ir"
)

// transferFunc computes the result addresses of one statement.
type transferFunc func(f *frame, st *ir.Stmt) []Address

// transfers is initialized in init because the call rule re-enters the
// analysis, which reads the table.
var transfers map[ir.Op]transferFunc

func init() {
	transfers = map[ir.Op]transferFunc{
		ir.OpConst:       notQubitResults,
		ir.OpBinary:      anyResultsRule,
		ir.OpNeg:         anyResultsRule,
		ir.OpQAlloc:      transferQAlloc,
		ir.OpIndex:       transferIndex,
		ir.OpSlice:       transferSlice,
		ir.OpTuple:       transferTuple,
		ir.OpList:        transferTuple,
		ir.OpConcat:      transferConcat,
		ir.OpAlias:       transferAlias,
		ir.OpUnwrap:      transferUnwrap,
		ir.OpWireApply:   transferWireApply,
		ir.OpWrap:        noResults,
		ir.OpGate:        noResults,
		ir.OpMeasure:     notQubitResults,
		ir.OpReset:       noResults,
		ir.OpCall:        transferCall,
		ir.OpReturn:      noResults,
		ir.OpGoto:        noResults,
		ir.OpIf:          noResults,
		ir.OpUnreachable: noResults,
	}
}

func lookupTransfer(op ir.Op) transferFunc {
	if fn, ok := transfers[op]; ok {
		return fn
	}
	return anyResultsRule
}

// fail records a resolution failure. Only the reporting pass emits
// diagnostics; during solving a failure just yields Any.
func (f *frame) fail(st *ir.Stmt, code diag.Code, format string, args ...any) {
	if !f.reporting {
		return
	}
	f.failures++
	rep := f.st.opts.Reporter
	if rep == nil {
		return
	}
	msg := fmt.Sprintf("@%s: %s: %s", f.fn.Name, st.Name(), fmt.Sprintf(format, args...))
	sev := diag.SevInfo
	if f.st.opts.Strict {
		sev = diag.SevError
	}
	diag.NewReportBuilder(rep, sev, code, st.Span, msg).Emit()
}

func noResults(*frame, *ir.Stmt) []Address { return nil }

func notQubitResults(_ *frame, st *ir.Stmt) []Address {
	return make([]Address, len(st.Results))
}

func anyResultsRule(_ *frame, st *ir.Stmt) []Address {
	return anyResults(len(st.Results))
}

func transferAlias(f *frame, st *ir.Stmt) []Address {
	return []Address{f.get(st.Args[0])}
}

func transferQAlloc(f *frame, st *ir.Stmt) []Address {
	if a, ok := f.allocs[st.ID]; ok {
		return []Address{a}
	}
	n, ok := f.st.oracle.Int(f.fn, st.Args[0])
	if !ok {
		f.st.markUnreliable()
		f.allocating = true
		if f.reporting && f.st.opts.Reporter != nil {
			diag.ReportInfo(f.st.opts.Reporter, diag.AddrUnsizedAlloc, st.Span,
				fmt.Sprintf("@%s: allocation size is not a known constant; later qubit ids are approximate", f.fn.Name)).Emit()
		}
		return []Address{AnyAddr()}
	}
	size, err := safecast.Conv[uint64](n)
	if err != nil {
		f.fail(st, diag.AddrShapeMismatch, "negative allocation size %d", n)
		return []Address{AnyAddr()}
	}
	a, ok := f.seededAlloc(st.ID, size)
	if !ok {
		a = f.st.allocate(size)
	}
	f.allocs[st.ID] = a
	f.allocating = true
	return []Address{a}
}

// normIndex applies Python-style negative wrapping to i for a sequence of
// length n.
func normIndex(i int64, n uint64) (uint64, bool) {
	ln, err := safecast.Conv[int64](n)
	if err != nil {
		return 0, false
	}
	if i < 0 {
		i += ln
	}
	if i < 0 || i >= ln {
		return 0, false
	}
	return uint64(i), true
}

func transferIndex(f *frame, st *ir.Stmt) []Address {
	container := f.get(st.Args[0])
	switch container.Kind() {
	case NotQubit:
		return []Address{NotQubitAddr()}
	case Any:
		return []Address{AnyAddr()}
	case Qubit, Wire:
		f.fail(st, diag.AddrShapeMismatch, "cannot index %s", container)
		return []Address{AnyAddr()}
	}
	idx, ok := f.st.oracle.Int(f.fn, st.Args[1])
	if !ok {
		return []Address{AnyAddr()}
	}
	n, _ := container.Len()
	i, ok := normIndex(idx, n)
	if !ok {
		f.fail(st, diag.AddrIndexOutOfRange, "index %d out of range for %s of length %d", idx, container.Kind(), n)
		return []Address{AnyAddr()}
	}
	elem, _ := container.Elem(i)
	return []Address{elem}
}

// sliceIndices expands a Python slice over a sequence of length n.
func sliceIndices(n int64, start, stop, step *int64) ([]int64, error) {
	st := int64(1)
	if step != nil {
		st = *step
	}
	if st == 0 {
		return nil, fmt.Errorf("slice step cannot be zero")
	}
	lower, upper := int64(0), n
	if st < 0 {
		lower, upper = -1, n-1
	}
	clamp := func(p *int64, def int64) int64 {
		if p == nil {
			return def
		}
		v := *p
		if v < 0 {
			v += n
			if v < lower {
				v = lower
			}
		} else if v > upper {
			v = upper
		}
		return v
	}
	var from, to int64
	if st > 0 {
		from, to = clamp(start, lower), clamp(stop, upper)
	} else {
		from, to = clamp(start, upper), clamp(stop, lower)
	}
	var out []int64
	for i := from; (st > 0 && i < to) || (st < 0 && i > to); i += st {
		out = append(out, i)
	}
	return out, nil
}

func transferSlice(f *frame, st *ir.Stmt) []Address {
	container := f.get(st.Args[0])
	switch container.Kind() {
	case NotQubit:
		return []Address{NotQubitAddr()}
	case Any:
		return []Address{AnyAddr()}
	case Qubit, Wire:
		f.fail(st, diag.AddrShapeMismatch, "cannot slice %s", container)
		return []Address{AnyAddr()}
	}
	_, startV, stopV, stepV := ir.SliceOperands(st)
	bound := func(v ir.ValueID) (*int64, bool) {
		if v == ir.NoValueID {
			return nil, true
		}
		n, ok := f.st.oracle.Int(f.fn, v)
		if !ok {
			return nil, false
		}
		return &n, true
	}
	start, ok1 := bound(startV)
	stop, ok2 := bound(stopV)
	step, ok3 := bound(stepV)
	if !ok1 || !ok2 || !ok3 {
		return []Address{AnyAddr()}
	}
	length, _ := container.Len()
	n, err := safecast.Conv[int64](length)
	if err != nil {
		return []Address{AnyAddr()}
	}
	idx, err := sliceIndices(n, start, stop, step)
	if err != nil {
		f.fail(st, diag.AddrShapeMismatch, "%v", err)
		return []Address{AnyAddr()}
	}
	if lo, _, ok := container.Range(); ok && (step == nil || *step == 1) {
		if len(idx) == 0 {
			return []Address{RegisterAddr(lo, lo)}
		}
		first, last := uint64(idx[0]), uint64(idx[len(idx)-1]) //nolint:gosec // indices are within [0, n)
		return []Address{RegisterAddr(lo+first, lo+last+1)}
	}
	elems := make([]Address, 0, len(idx))
	for _, i := range idx {
		e, _ := container.Elem(uint64(i)) //nolint:gosec // indices are within [0, n)
		elems = append(elems, e)
	}
	return []Address{TupleAddr(elems...)}
}

func transferTuple(f *frame, st *ir.Stmt) []Address {
	elems := make([]Address, len(st.Args))
	for i, a := range st.Args {
		elems[i] = f.get(a)
	}
	return []Address{TupleAddr(elems...)}
}

// sequence returns the elements of an address used as an operand of
// concatenation. NotQubit contributes nothing.
func sequence(a Address) ([]Address, bool) {
	switch a.Kind() {
	case NotQubit:
		return nil, true
	case Tuple, PartialTuple:
		return a.Elems(), true
	case Register:
		n, _ := a.Len()
		out := make([]Address, 0, n)
		for i := range n {
			e, _ := a.Elem(i)
			out = append(out, e)
		}
		return out, true
	}
	return nil, false
}

func transferConcat(f *frame, st *ir.Stmt) []Address {
	a, b := f.get(st.Args[0]), f.get(st.Args[1])
	if a.Kind() == Any || b.Kind() == Any {
		return []Address{AnyAddr()}
	}
	if a.Kind() == NotQubit && b.Kind() == NotQubit {
		return []Address{NotQubitAddr()}
	}
	if as, ae, ok := a.Range(); ok {
		if bs, be, ok := b.Range(); ok && ae == bs {
			return []Address{RegisterAddr(as, be)}
		}
	}
	left, okA := sequence(a)
	right, okB := sequence(b)
	if !okA || !okB {
		f.fail(st, diag.AddrShapeMismatch, "cannot concatenate %s and %s", a, b)
		return []Address{AnyAddr()}
	}
	elems := make([]Address, 0, len(left)+len(right))
	elems = append(elems, left...)
	elems = append(elems, right...)
	return []Address{TupleAddr(elems...)}
}

func transferUnwrap(f *frame, st *ir.Stmt) []Address {
	q := f.get(st.Args[0])
	switch q.Kind() {
	case Qubit:
		id, _ := q.ID()
		return []Address{WireAddr(id)}
	case NotQubit:
		return []Address{NotQubitAddr()}
	case Any:
		return []Address{AnyAddr()}
	}
	f.fail(st, diag.AddrShapeMismatch, "cannot unwrap %s", q)
	return []Address{AnyAddr()}
}

func transferWireApply(f *frame, st *ir.Stmt) []Address {
	out := make([]Address, len(st.Results))
	for i := range out {
		if i < len(st.Args) {
			out[i] = f.get(st.Args[i])
		} else {
			out[i] = AnyAddr()
		}
	}
	return out
}

func transferCall(f *frame, st *ir.Stmt) []Address {
	callee := f.st.prog.Func(st.Callee)
	if callee == nil || callee.Entry == ir.NoBlockID {
		f.fail(st, diag.AddrShapeMismatch, "call to a function without a body")
		return anyResults(len(st.Results))
	}
	if len(callee.Params) != len(st.Args) {
		f.fail(st, diag.AddrArity, "@%s takes %d arguments, got %d", callee.Name, len(callee.Params), len(st.Args))
		return anyResults(len(st.Results))
	}
	args := make([]Address, len(st.Args))
	for i, a := range st.Args {
		args[i] = f.get(a)
	}
	key := makeKey(callee.ID, args)

	if site, ok := f.calls[st.ID]; ok && site.key == key {
		if site.callee == nil {
			f.failClosed(st, callee)
		}
		return fitResults(site.result, len(st.Results))
	}
	if f.reporting {
		// The reporting pass never analyzes new contexts.
		return anyResults(len(st.Results))
	}

	site := &callSite{key: key, seed: f.seedFor(st.ID)}
	f.calls[st.ID] = site
	if f.st.onStack(key) || len(f.st.stack) >= f.st.opts.MaxCallDepth {
		f.st.recursion++
		f.st.point("call:@"+callee.Name, "fail closed")
		site.result = anyResults(len(st.Results))
		return site.result
	}
	if memo, ok := f.st.memo[key]; ok {
		f.st.memoHits++
		f.st.point("call:@"+callee.Name, "memo hit")
		site.callee = memo
		site.result = memo.results
		return fitResults(site.result, len(st.Results))
	}

	child, err := f.st.analyzeFrame(callee, args, site.seed)
	if err != nil {
		site.result = anyResults(len(st.Results))
		return site.result
	}
	if child.allocating {
		f.allocating = true
	} else {
		f.st.memo[key] = child
	}
	site.callee = child
	site.result = child.results
	return fitResults(site.result, len(st.Results))
}

func (f *frame) failClosed(st *ir.Stmt, callee *ir.Func) {
	if !f.reporting || f.st.opts.Reporter == nil {
		return
	}
	diag.ReportInfo(f.st.opts.Reporter, diag.AddrRecursionLimit, st.Span,
		fmt.Sprintf("@%s: call to @%s is recursive or exceeds depth %d; results are unresolved",
			f.fn.Name, callee.Name, f.st.opts.MaxCallDepth)).Emit()
}

func fitResults(res []Address, n int) []Address {
	if len(res) == n {
		return res
	}
	out := anyResults(n)
	copy(out, res)
	return out
}

package nocloning

import (
	"fmt"
	"maps"
	"slices"
	"strconv"

	"qir/internal/absint"
	"qir/internal/address"
	"qir/internal/ir"
	"qir/internal/trace"
)

// Options configures CheckSymbolic and Report.
type Options struct {
	// MayAsError reports May findings as errors instead of warnings.
	MayAsError bool
	Tracer     trace.Tracer
	Parent     uint64
}

// clone is one witness on the paths reaching a program point, with the
// statements that produced it.
type clone struct {
	kind  Kind
	stmts []ir.StmtID
}

func (c clone) equal(o clone) bool {
	return c.kind == o.kind && slices.Equal(c.stmts, o.stmts)
}

// state maps the witnesses seen on the paths reaching a program point to
// their verdict. reached distinguishes an unvisited block from a path
// without violations.
type state struct {
	reached bool
	clones  map[Witness]clone
}

type stateLattice struct{}

func (stateLattice) Bottom() state { return state{} }

func (stateLattice) Join(a, b state) state {
	if !a.reached {
		return b
	}
	if !b.reached {
		return a
	}
	out := state{reached: true, clones: make(map[Witness]clone, len(a.clones)+len(b.clones))}
	for w, ca := range a.clones {
		cb, ok := b.clones[w]
		if !ok {
			cb = clone{kind: None}
		}
		out.clones[w] = clone{
			kind:  Join(single(ca.kind, w), single(cb.kind, w)).Kind,
			stmts: unionStmts(ca.stmts, cb.stmts),
		}
	}
	for w, cb := range b.clones {
		if _, ok := a.clones[w]; !ok {
			out.clones[w] = clone{kind: Join(Violation{}, single(cb.kind, w)).Kind, stmts: cb.stmts}
		}
	}
	return out
}

func (stateLattice) Equal(a, b state) bool {
	return a.reached == b.reached && maps.EqualFunc(a.clones, b.clones, clone.equal)
}

func single(kind Kind, w Witness) Violation {
	return newViolation(kind, []Witness{w})
}

func unionStmts(a, b []ir.StmtID) []ir.StmtID {
	out := make([]ir.StmtID, 0, len(a)+len(b))
	out = append(out, a...)
	out = append(out, b...)
	slices.Sort(out)
	return slices.Compact(out)
}

// record adds the local violation of stmt id to a path state. Seeing a
// witness definitely at any statement of the path makes it definite there.
func (s state) record(id ir.StmtID, v Violation) {
	for _, w := range v.Witnesses {
		c := s.clones[w]
		if c.kind != Must {
			c.kind = v.Kind
		}
		c.stmts = unionStmts(c.stmts, []ir.StmtID{id})
		s.clones[w] = c
	}
}

// CheckSymbolic enumerates every Must and May finding of fn.
func CheckSymbolic(fn *ir.Func, res *address.Result, opts Options) ([]Finding, error) {
	span := trace.Begin(opts.Tracer, trace.ScopePass, "nocloning", opts.Parent).
		WithExtra("func", "@"+fn.Name)

	local := make(map[ir.StmtID]Violation)
	for i := range fn.Stmts {
		st := &fn.Stmts[i]
		if checked(st) {
			local[st.ID] = symbolicCheck(fn, res, st)
		}
	}

	transfer := func(bb ir.BlockID, in state) state {
		out := state{reached: true, clones: maps.Clone(in.clones)}
		if out.clones == nil {
			out.clones = make(map[Witness]clone)
		}
		for _, id := range fn.Block(bb).Stmts {
			if v, ok := local[id]; ok && v.Kind != None {
				out.record(id, v)
			}
		}
		return out
	}
	lat := stateLattice{}
	flow, err := absint.Forward[state](fn, lat, state{reached: true}, transfer, absint.Options{})
	if err != nil {
		span.End(err.Error())
		return nil, fmt.Errorf("nocloning: %w", err)
	}

	final := flow.Final(fn, lat)
	if !final.reached {
		// Every path loops forever: use every reached block.
		for i := range fn.Blocks {
			if flow.Reached[i] {
				final = lat.Join(final, flow.Out[i])
			}
		}
	}

	out := findings(fn, final)
	must, may := Count(out)
	span.WithExtra("must", strconv.Itoa(must)).
		WithExtra("may", strconv.Itoa(may)).
		End("")
	return out, nil
}

// findings groups the witnesses of st that share a verdict, a gate and a
// statement set into one finding at the first of those statements.
func findings(fn *ir.Func, st state) []Finding {
	type groupKey struct {
		kind  Kind
		gate  string
		stmts string
	}
	var (
		keys   []groupKey
		groups = make(map[groupKey][]Witness)
		sites  = make(map[groupKey][]ir.StmtID)
	)
	for w, c := range st.clones {
		if c.kind == None || len(c.stmts) == 0 {
			continue
		}
		k := groupKey{kind: c.kind, gate: w.Gate, stmts: fmt.Sprint(c.stmts)}
		if _, ok := groups[k]; !ok {
			keys = append(keys, k)
			sites[k] = c.stmts
		}
		groups[k] = append(groups[k], w)
	}
	out := make([]Finding, 0, len(keys))
	for _, k := range keys {
		stmts := sites[k]
		f := newFinding(fn, fn.Stmt(stmts[0]), newViolation(k.kind, groups[k]))
		f.Also = slices.Clone(stmts[1:])
		out = append(out, f)
	}
	slices.SortFunc(out, compareFinding)
	return out
}

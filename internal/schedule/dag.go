package schedule

import (
	"slices"

	"qir/internal/ir"
)

// Edge orders two statements that touch a common qubit.
type Edge struct {
	From ir.StmtID
	To   ir.StmtID
}

// StmtDag is one independently schedulable segment of a block. Nodes are in
// program order and every edge points forward, so the graph is acyclic.
type StmtDag struct {
	block    ir.BlockID
	nodes    []ir.StmtID
	edges    []Edge
	parents  map[ir.StmtID][]ir.StmtID
	children map[ir.StmtID][]ir.StmtID
	term     ir.StmtID
}

func newDag(bb ir.BlockID) *StmtDag {
	return &StmtDag{
		block:    bb,
		parents:  make(map[ir.StmtID][]ir.StmtID),
		children: make(map[ir.StmtID][]ir.StmtID),
		term:     ir.NoStmtID,
	}
}

func (d *StmtDag) addNode(s ir.StmtID) {
	d.nodes = append(d.nodes, s)
}

func (d *StmtDag) addEdge(from, to ir.StmtID) {
	if from == to || slices.Contains(d.children[from], to) {
		return
	}
	d.edges = append(d.edges, Edge{From: from, To: to})
	d.children[from] = append(d.children[from], to)
	d.parents[to] = append(d.parents[to], from)
}

// Block returns the block the segment belongs to.
func (d *StmtDag) Block() ir.BlockID { return d.block }

// Nodes lists the statements of the segment in program order.
func (d *StmtDag) Nodes() []ir.StmtID { return d.nodes }

// Edges lists the hazard edges in insertion order.
func (d *StmtDag) Edges() []Edge { return d.edges }

// Parents lists the statements s waits for.
func (d *StmtDag) Parents(s ir.StmtID) []ir.StmtID { return d.parents[s] }

// Children lists the statements waiting for s.
func (d *StmtDag) Children(s ir.StmtID) []ir.StmtID { return d.children[s] }

// Terminator returns the statement that sealed the segment, or
// ir.NoStmtID when the block ended without one.
func (d *StmtDag) Terminator() ir.StmtID { return d.term }

// Layers groups the non-terminator nodes by their earliest step: every
// node sits one layer after its latest parent.
func (d *StmtDag) Layers() [][]ir.StmtID {
	level := make(map[ir.StmtID]int, len(d.nodes))
	var layers [][]ir.StmtID
	for _, s := range d.nodes {
		if s == d.term {
			continue
		}
		l := 0
		for _, p := range d.parents[s] {
			if lp, ok := level[p]; ok && lp+1 > l {
				l = lp + 1
			}
		}
		level[s] = l
		if l == len(layers) {
			layers = append(layers, nil)
		}
		layers[l] = append(layers[l], s)
	}
	return layers
}

// TopoOrder lists the nodes layer by layer, terminator last.
func (d *StmtDag) TopoOrder() []ir.StmtID {
	out := make([]ir.StmtID, 0, len(d.nodes))
	for _, layer := range d.Layers() {
		out = append(out, layer...)
	}
	if d.term != ir.NoStmtID {
		out = append(out, d.term)
	}
	return out
}

// Depth is the length of the longest hazard chain, in statements.
func (d *StmtDag) Depth() int {
	return len(d.Layers())
}

package ir

import "qir/internal/source"

// Stmt is one IR operation.
type Stmt struct {
	ID    StmtID
	Op    Op
	Block BlockID

	// Args are the operands; for gate-like ops these are the qubit operands.
	Args []ValueID
	// Params are classical gate parameters (angles), never qubits.
	Params  []ValueID
	Results []ValueID

	Const  Const
	BinOp  BinOp
	Gate   string
	Callee FuncID
	Slice  SliceArgs
	Succs  []Successor

	Span source.Span
}

// Operands returns Args followed by successor arguments.
func (s *Stmt) Operands() []ValueID {
	if len(s.Succs) == 0 {
		return s.Args
	}
	out := make([]ValueID, 0, len(s.Args)+2*len(s.Succs))
	out = append(out, s.Args...)
	for _, succ := range s.Succs {
		out = append(out, succ.Args...)
	}
	return out
}

// Name returns a short label used in diagnostics ("cx", "measure", "call @f").
func (s *Stmt) Name() string {
	switch s.Op {
	case OpGate, OpWireApply:
		return s.Gate
	case OpBinary:
		return s.BinOp.String()
	}
	return s.Op.String()
}

package ir

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Print writes p in the textual .qir form accepted by Parse.
func Print(w io.Writer, p *Program) error {
	for i, f := range p.Funcs {
		if f == nil || f.Entry == NoBlockID {
			continue
		}
		if i > 0 {
			if _, err := io.WriteString(w, "\n"); err != nil {
				return err
			}
		}
		if err := PrintFunc(w, p, f); err != nil {
			return err
		}
	}
	return nil
}

// Format renders p into a string.
func Format(p *Program) string {
	var sb strings.Builder
	_ = Print(&sb, p) //nolint:errcheck // strings.Builder never fails
	return sb.String()
}

// PrintFunc writes one function.
func PrintFunc(w io.Writer, p *Program, f *Func) error {
	var sb strings.Builder
	fmt.Fprintf(&sb, "func @%s(%s) {\n", f.Name, joinValues(f, f.Params))
	for i := range f.Blocks {
		bb := &f.Blocks[i]
		switch {
		case bb.ID == f.Entry:
			if bb.Name != "" {
				fmt.Fprintf(&sb, "%s:\n", bb.Name)
			}
		case len(bb.Params) > 0:
			fmt.Fprintf(&sb, "%s(%s):\n", f.BlockName(bb.ID), joinValues(f, bb.Params))
		default:
			fmt.Fprintf(&sb, "%s:\n", f.BlockName(bb.ID))
		}
		for _, id := range bb.Stmts {
			sb.WriteString("  ")
			sb.WriteString(FormatStmt(p, f, &f.Stmts[id]))
			sb.WriteByte('\n')
		}
	}
	sb.WriteString("}\n")
	_, err := io.WriteString(w, sb.String())
	return err
}

// FormatStmt renders one statement without indentation.
func FormatStmt(p *Program, f *Func, st *Stmt) string {
	var sb strings.Builder
	if len(st.Results) > 0 {
		sb.WriteString(joinValues(f, st.Results))
		sb.WriteString(" = ")
	}
	switch st.Op {
	case OpConst:
		sb.WriteString("const ")
		sb.WriteString(formatConst(st.Const))
	case OpBinary:
		sb.WriteString(st.BinOp.String())
		writeArgs(&sb, f, st.Args)
	case OpSlice:
		sb.WriteString("slice ")
		sb.WriteString(formatSlice(f, st))
	case OpGate, OpWireApply:
		sb.WriteString(st.Op.String())
		sb.WriteByte(' ')
		sb.WriteString(st.Gate)
		if len(st.Params) > 0 {
			fmt.Fprintf(&sb, "(%s)", joinValues(f, st.Params))
		}
		writeArgs(&sb, f, st.Args)
	case OpCall:
		name := "?"
		if callee := p.Func(st.Callee); callee != nil {
			name = callee.Name
		}
		fmt.Fprintf(&sb, "call @%s(%s)", name, joinValues(f, st.Args))
	case OpGoto:
		sb.WriteString("goto ")
		sb.WriteString(formatSucc(f, st.Succs[0]))
	case OpIf:
		fmt.Fprintf(&sb, "if %s, %s, %s", f.ValueName(st.Args[0]), formatSucc(f, st.Succs[0]), formatSucc(f, st.Succs[1]))
	default:
		sb.WriteString(st.Op.String())
		writeArgs(&sb, f, st.Args)
	}
	return sb.String()
}

func writeArgs(sb *strings.Builder, f *Func, args []ValueID) {
	if len(args) == 0 {
		return
	}
	sb.WriteByte(' ')
	sb.WriteString(joinValues(f, args))
}

func joinValues(f *Func, vals []ValueID) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = f.ValueName(v)
	}
	return strings.Join(parts, ", ")
}

func formatSucc(f *Func, s Successor) string {
	if len(s.Args) == 0 {
		return f.BlockName(s.Block)
	}
	return fmt.Sprintf("%s(%s)", f.BlockName(s.Block), joinValues(f, s.Args))
}

func formatSlice(f *Func, st *Stmt) string {
	container, start, stop, step := SliceOperands(st)
	name := func(v ValueID) string {
		if v == NoValueID {
			return "_"
		}
		return f.ValueName(v)
	}
	parts := []string{name(container), name(start), name(stop)}
	if st.Slice.HasStep {
		parts = append(parts, name(step))
	}
	return strings.Join(parts, ", ")
}

func formatConst(c Const) string {
	switch c.Kind {
	case ConstBool:
		return strconv.FormatBool(c.Bool)
	case ConstFloat:
		s := strconv.FormatFloat(c.Float, 'g', -1, 64)
		if !strings.ContainsAny(s, ".eIN") {
			s += ".0"
		}
		return s
	case ConstNone:
		return "none"
	default:
		return strconv.FormatInt(c.Int, 10)
	}
}

// SliceOperands splits the operands of a slice statement into container and
// optional bounds; missing bounds are NoValueID.
func SliceOperands(st *Stmt) (container, start, stop, step ValueID) {
	start, stop, step = NoValueID, NoValueID, NoValueID
	container = st.Args[0]
	next := 1
	take := func(present bool) ValueID {
		if !present || next >= len(st.Args) {
			return NoValueID
		}
		v := st.Args[next]
		next++
		return v
	}
	start = take(st.Slice.HasStart)
	stop = take(st.Slice.HasStop)
	step = take(st.Slice.HasStep)
	return container, start, stop, step
}

package testkit

import (
	"fmt"

	"fortio.org/safecast"

	"qir/internal/ir"
	"qir/internal/source"
)

// CheckSpanInvariants runs a minimal set of span invariants on a program
// parsed from sf:
// 1) every function and statement span is non-empty and within the content
// 2) statements of a function start after its name and before the next function
// 3) statement spans inside a block appear in source order
func CheckSpanInvariants(prog *ir.Program, sf *source.File) error {
	if prog == nil || sf == nil {
		return fmt.Errorf("nil program or file")
	}
	lenContent, err := safecast.Conv[uint32](len(sf.Content))
	if err != nil {
		return fmt.Errorf("len content overflow: %w", err)
	}
	within := func(what string, sp source.Span) error {
		if sp.End <= sp.Start {
			return fmt.Errorf("%s span is empty: %v", what, sp)
		}
		if sp.File != sf.ID {
			return fmt.Errorf("%s span points to different file id: got=%d want=%d", what, sp.File, sf.ID)
		}
		if sp.End > lenContent {
			return fmt.Errorf("%s span end beyond content: %d > %d", what, sp.End, lenContent)
		}
		return nil
	}

	for i, fn := range prog.Funcs {
		if err := within("function @"+fn.Name, fn.Span); err != nil {
			return err
		}
		limit := lenContent
		if i+1 < len(prog.Funcs) {
			limit = prog.Funcs[i+1].Span.Start
			if limit <= fn.Span.Start {
				return fmt.Errorf("function @%s does not precede @%s", fn.Name, prog.Funcs[i+1].Name)
			}
		}
		for bi := range fn.Blocks {
			blk := &fn.Blocks[bi]
			var prev source.Span
			for k, sid := range blk.Stmts {
				st := fn.Stmt(sid)
				what := fmt.Sprintf("@%s %s stmt #%d", fn.Name, fn.BlockName(blk.ID), sid)
				if err := within(what, st.Span); err != nil {
					return err
				}
				if st.Span.Start < fn.Span.End || st.Span.End > limit {
					return fmt.Errorf("%s span %v is outside function @%s", what, st.Span, fn.Name)
				}
				if k > 0 && st.Span.Start < prev.End {
					return fmt.Errorf("%s span %v overlaps previous %v", what, st.Span, prev)
				}
				prev = st.Span
			}
		}
	}
	return nil
}

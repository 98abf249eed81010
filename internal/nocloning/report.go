package nocloning

import (
	"fmt"
	"strconv"
	"strings"

	"qir/internal/diag"
	"qir/internal/ir"
)

// Report emits one diagnostic per finding. Must findings are errors; May
// findings are warnings unless opts.MayAsError is set.
func Report(findings []Finding, fn *ir.Func, rep diag.Reporter, opts Options) {
	if rep == nil {
		return
	}
	for _, f := range findings {
		var b *diag.ReportBuilder
		switch f.Kind {
		case Must:
			b = diag.ReportError(rep, diag.NclMustClone, f.Span,
				fmt.Sprintf("@%s: %s uses %s more than once", fn.Name, f.Gate, operandList(fn, f)))
		case May:
			sev := diag.SevWarning
			if opts.MayAsError {
				sev = diag.SevError
			}
			b = diag.NewReportBuilder(rep, sev, diag.NclMayClone, f.Span,
				fmt.Sprintf("@%s: %s may use %s more than once", fn.Name, f.Gate, operandList(fn, f)))
		default:
			continue
		}
		for _, id := range f.Also {
			b.WithNote(fn.Stmt(id).Span, "the same clone happens here on another path")
		}
		b.Emit()
	}
}

func operandList(fn *ir.Func, f Finding) string {
	if len(f.Values) == 0 {
		return qubitList(f.Qubits)
	}
	names := make([]string, len(f.Values))
	for i, v := range f.Values {
		names[i] = fn.ValueName(v)
	}
	vals := "value " + strings.Join(names, ", ")
	if len(f.Qubits) == 0 {
		return vals
	}
	return qubitList(f.Qubits) + " and " + vals
}

func qubitList(ids []uint64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = "q" + strconv.FormatUint(id, 10)
	}
	word := "qubit "
	if len(ids) != 1 {
		word = "qubits "
	}
	return word + strings.Join(parts, ", ")
}

package nocloning

import (
	"errors"
	"fmt"

	"qir/internal/address"
	"qir/internal/ir"
)

// ErrNotFlat is returned by CheckFlat for functions with branches.
var ErrNotFlat = errors.New("nocloning: function is not a flat kernel")

// CheckFlat reports every gate-like statement of a flat kernel whose
// operands contain the same qubit twice. Statements with an unresolved
// operand are skipped unless that operand is passed twice.
func CheckFlat(fn *ir.Func, res *address.Result) ([]Finding, error) {
	if !fn.IsFlat() {
		return nil, fmt.Errorf("@%s: %w", fn.Name, ErrNotFlat)
	}
	var out []Finding
	for _, id := range fn.Blocks[0].Stmts {
		st := fn.Stmt(id)
		if !checked(st) {
			continue
		}
		var ws []Witness
		if dups, ok := exactCheck(fn, res, st); ok {
			ws = witnesses(st, dups)
		} else {
			ws = valueWitnesses(st, repeatedUnresolved(fn, res, st))
		}
		if len(ws) == 0 {
			continue
		}
		v := downgrade(res, newViolation(Must, ws))
		out = append(out, newFinding(fn, st, v))
	}
	return out, nil
}

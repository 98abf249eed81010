// Package nocloning checks that no gate-like statement receives the same
// qubit twice.
//
// Two checkers share one local test. CheckFlat works on flat kernels and
// reports exact duplicates. CheckSymbolic runs a forward dataflow over
// arbitrary bounded control flow and classifies every finding as Must
// (duplicate on every path reaching the end of the function) or May
// (duplicate on some path, or possible overlap of unresolved operands).
//
// Findings are data. Report turns them into diagnostics; whether May
// findings are errors is up to the caller.
package nocloning

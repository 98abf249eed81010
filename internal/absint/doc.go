// Package absint runs monotone forward analyses over an ir.Func until a
// fixpoint is reached.
//
// Two drivers share one worklist:
//
//   - SolveValues propagates a per-value lattice through SSA form. Each
//     value has a single definition, so one environment indexed by
//     ir.ValueID is enough; block parameters are the only join points.
//   - Forward propagates a per-block state along CFG edges, for analyses
//     whose facts are not attached to values.
//
// Termination relies on the lattice having finite height and on transfer
// functions being monotone. Both drivers also stop after MaxVisits block
// visits and return ErrNoFixpoint.
package absint

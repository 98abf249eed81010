// Package trace is the structured logging layer of qirc.
//
// Passes open spans with Begin and close them with End; instant facts
// (memoized call summaries, recursion cut-offs) are emitted with Point.
// A Tracer travels through the driver in a context.Context:
//
//	ctx = trace.WithTracer(ctx, tracer)
//	span := trace.Begin(trace.FromContext(ctx), trace.ScopePass, "address", 0)
//	defer span.End("")
//
// Levels filter by scope: phase keeps driver and pass events, detail adds
// per-function events, debug adds call sites and statements. Storage is a
// stream (text or NDJSON), an in-memory ring dumped on crash, or both.
package trace

package trace

import "context"

type ctxKey struct{}

type spanCtxKey struct{}

// FromContext returns the tracer stored in ctx, or Nop.
func FromContext(ctx context.Context) Tracer {
	if ctx == nil {
		return Nop
	}
	if t, ok := ctx.Value(ctxKey{}).(Tracer); ok {
		return t
	}
	return Nop
}

// WithTracer stores t in ctx.
func WithTracer(ctx context.Context, t Tracer) context.Context {
	if t == nil {
		t = Nop
	}
	return context.WithValue(ctx, ctxKey{}, t)
}

// ParentFromContext returns the span ID set by WithParent, or 0.
func ParentFromContext(ctx context.Context) uint64 {
	if ctx == nil {
		return 0
	}
	id, _ := ctx.Value(spanCtxKey{}).(uint64)
	return id
}

// WithParent records span as the parent for spans started from ctx.
func WithParent(ctx context.Context, span *Span) context.Context {
	return context.WithValue(ctx, spanCtxKey{}, span.ID())
}

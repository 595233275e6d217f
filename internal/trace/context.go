package trace

import "context"

type carrierKey struct{}

// carrier is the per-context tracing state: the tracer and the innermost
// span opened with StartSpan.
type carrier struct {
	tracer Tracer
	span   *Span
}

func load(ctx context.Context) carrier {
	var c carrier
	if ctx != nil {
		c, _ = ctx.Value(carrierKey{}).(carrier)
	}
	if c.tracer == nil {
		c.tracer = Nop
	}
	return c
}

// FromContext returns the tracer attached to ctx, or Nop.
func FromContext(ctx context.Context) Tracer {
	return load(ctx).tracer
}

// WithTracer returns a context carrying t with no open span.
func WithTracer(ctx context.Context, t Tracer) context.Context {
	if t == nil {
		t = Nop
	}
	return context.WithValue(ctx, carrierKey{}, carrier{tracer: t})
}

// SpanFromContext returns the innermost recorded span, or nil.
func SpanFromContext(ctx context.Context) *Span {
	return load(ctx).span
}

package trace

import "context"

type carrierKey struct{}

// carrier is what a context holds: the tracer and the innermost open span.
type carrier struct {
	tracer Tracer
	span   uint64
}

func carried(ctx context.Context) carrier {
	if ctx != nil {
		if c, ok := ctx.Value(carrierKey{}).(carrier); ok {
			return c
		}
	}
	return carrier{tracer: Nop}
}

// FromContext returns the tracer carried by ctx, or Nop.
func FromContext(ctx context.Context) Tracer {
	return carried(ctx).tracer
}

// WithTracer returns a context carrying t. The current span is kept.
func WithTracer(ctx context.Context, t Tracer) context.Context {
	if t == nil {
		t = Nop
	}
	c := carried(ctx)
	c.tracer = t
	return context.WithValue(ctx, carrierKey{}, c)
}

// WithSpan returns a context whose children nest under s. A span that was
// not emitted (id 0) leaves ctx unchanged.
func WithSpan(ctx context.Context, s *Span) context.Context {
	if s.ID() == 0 {
		return ctx
	}
	c := carried(ctx)
	c.span = s.ID()
	return context.WithValue(ctx, carrierKey{}, c)
}

// SpanID returns the innermost span carried by ctx, 0 at the root.
func SpanID(ctx context.Context) uint64 {
	return carried(ctx).span
}

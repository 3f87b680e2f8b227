package trace

import "context"

type ctxKey struct{}

// FromContext returns the Tracer stored in ctx, or Nop.
func FromContext(ctx context.Context) Tracer {
	if ctx == nil {
		return Nop
	}
	if t, ok := ctx.Value(ctxKey{}).(Tracer); ok {
		return t
	}
	return Nop
}

// WithTracer attaches t to ctx.
func WithTracer(ctx context.Context, t Tracer) context.Context {
	if t == nil {
		t = Nop
	}
	return context.WithValue(ctx, ctxKey{}, t)
}

type spanCtxKey struct{}

// ParentSpan returns the span id stored by WithSpan, or 0.
func ParentSpan(ctx context.Context) uint64 {
	if ctx == nil {
		return 0
	}
	if id, ok := ctx.Value(spanCtxKey{}).(uint64); ok {
		return id
	}
	return 0
}

// WithSpan records s as the parent for spans begun under ctx.
func WithSpan(ctx context.Context, s *Span) context.Context {
	return context.WithValue(ctx, spanCtxKey{}, s.ID())
}

type unitCtxKey struct{}

type unitTag struct {
	name  string
	epoch uint64
}

// WithUnit tags events begun under ctx with the unit being analysed. The
// epoch is reset: a new unit starts unpublished.
func WithUnit(ctx context.Context, unit string) context.Context {
	return context.WithValue(ctx, unitCtxKey{}, unitTag{name: unit})
}

// WithEpoch records the snapshot epoch queries under ctx run against.
func WithEpoch(ctx context.Context, epoch uint64) context.Context {
	tag := unitFromContext(ctx)
	tag.epoch = epoch
	return context.WithValue(ctx, unitCtxKey{}, tag)
}

// UnitFromContext returns the unit and epoch set by WithUnit and WithEpoch.
func UnitFromContext(ctx context.Context) (unit string, epoch uint64) {
	tag := unitFromContext(ctx)
	return tag.name, tag.epoch
}

func unitFromContext(ctx context.Context) unitTag {
	if ctx == nil {
		return unitTag{}
	}
	tag, _ := ctx.Value(unitCtxKey{}).(unitTag)
	return tag
}

package trace

import (
	"bytes"
	"context"
	"runtime"
	"strconv"
	"sync/atomic"
	"time"
)

var (
	globalSeq   atomic.Uint64
	globalSpans atomic.Uint64
)

// NextSeq returns a monotonically increasing sequence number.
func NextSeq() uint64 { return globalSeq.Add(1) }

// NextSpanID returns a unique span id.
func NextSpanID() uint64 { return globalSpans.Add(1) }

// goroutineID parses the current goroutine id from the stack header
// ("goroutine 123 [running]:").
func goroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	line := buf[:n]
	const prefix = "goroutine "
	if !bytes.HasPrefix(line, []byte(prefix)) {
		return 0
	}
	line = line[len(prefix):]
	end := bytes.IndexByte(line, ' ')
	if end < 0 {
		return 0
	}
	gid, err := strconv.ParseUint(string(line[:end]), 10, 64)
	if err != nil {
		return 0
	}
	return gid
}

// Span tracks one begin/end pair.
type Span struct {
	tracer   Tracer
	id       uint64
	parentID uint64
	gid      uint64
	scope    Scope
	name     string
	tag      unitTag
	started  time.Time
	extra    map[string]string
}

// Begin emits a SpanBegin event and returns the span. parent is 0 for roots.
// A disabled tracer or filtered scope yields an inert span.
func Begin(t Tracer, scope Scope, name string, parent uint64) *Span {
	return begin(t, scope, name, parent, unitTag{})
}

// BeginCtx begins a span with the tracer, parent span and unit tag carried
// by ctx.
func BeginCtx(ctx context.Context, scope Scope, name string) *Span {
	return begin(FromContext(ctx), scope, name, ParentSpan(ctx), unitFromContext(ctx))
}

func begin(t Tracer, scope Scope, name string, parent uint64, tag unitTag) *Span {
	if t == nil || !t.Enabled() || !t.Level().ShouldEmit(scope) {
		return &Span{tracer: Nop}
	}
	s := &Span{
		tracer:   t,
		id:       NextSpanID(),
		parentID: parent,
		gid:      goroutineID(),
		scope:    scope,
		name:     name,
		tag:      tag,
		started:  time.Now(),
	}
	t.Emit(&Event{
		Time:     s.started,
		Seq:      NextSeq(),
		Kind:     KindSpanBegin,
		Scope:    scope,
		SpanID:   s.id,
		ParentID: parent,
		GID:      s.gid,
		Unit:     tag.name,
		Epoch:    tag.epoch,
		Name:     name,
	})
	return s
}

// End emits the SpanEnd event and returns the span duration.
func (s *Span) End(detail string) time.Duration {
	if s == nil || s.tracer == nil || !s.tracer.Enabled() {
		return 0
	}
	dur := time.Since(s.started)
	s.tracer.Emit(&Event{
		Time:     time.Now(),
		Seq:      NextSeq(),
		Kind:     KindSpanEnd,
		Scope:    s.scope,
		SpanID:   s.id,
		ParentID: s.parentID,
		GID:      s.gid,
		Unit:     s.tag.name,
		Epoch:    s.tag.epoch,
		Name:     s.name,
		Detail:   detail,
		Extra:    s.extra,
	})
	return dur
}

// WithExtra attaches a key/value pair to the end event.
func (s *Span) WithExtra(key, value string) *Span {
	if s == nil || s.tracer == nil || !s.tracer.Enabled() {
		return s
	}
	if s.extra == nil {
		s.extra = make(map[string]string, 2)
	}
	s.extra[key] = value
	return s
}

// ID returns the span id (0 for inert spans).
func (s *Span) ID() uint64 {
	if s == nil {
		return 0
	}
	return s.id
}

// Point emits an instant event. extra is read as alternating key/value pairs.
func Point(t Tracer, scope Scope, name, detail string, extra ...string) {
	point(t, 0, unitTag{}, scope, name, detail, extra)
}

// PointCtx emits an instant event under the span and unit carried by ctx.
func PointCtx(ctx context.Context, scope Scope, name, detail string, extra ...string) {
	point(FromContext(ctx), ParentSpan(ctx), unitFromContext(ctx), scope, name, detail, extra)
}

func point(t Tracer, parent uint64, tag unitTag, scope Scope, name, detail string, extra []string) {
	if t == nil || !t.Enabled() || !t.Level().ShouldEmit(scope) {
		return
	}
	ev := &Event{
		Time:     time.Now(),
		Seq:      NextSeq(),
		Kind:     KindPoint,
		Scope:    scope,
		ParentID: parent,
		GID:      goroutineID(),
		Unit:     tag.name,
		Epoch:    tag.epoch,
		Name:     name,
		Detail:   detail,
	}
	if len(extra) >= 2 {
		ev.Extra = make(map[string]string, len(extra)/2)
		for i := 0; i+1 < len(extra); i += 2 {
			ev.Extra[extra[i]] = extra[i+1]
		}
	}
	t.Emit(ev)
}

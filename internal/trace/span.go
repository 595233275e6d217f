package trace

import (
	"context"
	"sync/atomic"
	"time"
)

var (
	seqCounter  atomic.Uint64
	spanCounter atomic.Uint64
	laneCounter atomic.Uint64
)

func nextSeq() uint64 { return seqCounter.Add(1) }

// Span tracks one timed operation. A span that is filtered out by the
// tracer level records nothing but still measures its duration.
type Span struct {
	tracer  Tracer
	id      uint64
	parent  uint64
	lane    uint64
	depth   int
	scope   Scope
	name    string
	started time.Time
	extra   map[string]string
}

// Begin opens a span below parent, which may be nil. Root spans start a
// new lane; children stay on their parent's lane, so concurrent builds
// render as separate rows.
func Begin(t Tracer, scope Scope, name string, parent *Span) *Span {
	now := time.Now()
	if t == nil || !t.Enabled() || !t.Level().ShouldEmit(scope) {
		return &Span{started: now}
	}
	s := &Span{
		tracer:  t,
		id:      spanCounter.Add(1),
		scope:   scope,
		name:    name,
		started: now,
	}
	if parent != nil && parent.id != 0 {
		s.parent, s.lane, s.depth = parent.id, parent.lane, parent.depth+1
	} else {
		s.lane = laneCounter.Add(1)
	}
	t.Emit(s.event(KindSpanBegin, now, ""))
	return s
}

// StartSpan opens a span below the one carried by ctx and returns a
// context carrying the new span. Filtered spans leave ctx untouched.
func StartSpan(ctx context.Context, scope Scope, name string) (*Span, context.Context) {
	c := load(ctx)
	s := Begin(c.tracer, scope, name, c.span)
	if s.id == 0 {
		return s, ctx
	}
	c.span = s
	return s, context.WithValue(ctx, carrierKey{}, c)
}

func (s *Span) event(kind Kind, at time.Time, detail string) *Event {
	return &Event{
		Time:     at,
		Seq:      nextSeq(),
		Kind:     kind,
		Scope:    s.scope,
		SpanID:   s.id,
		ParentID: s.parent,
		Lane:     s.lane,
		Depth:    s.depth,
		Name:     s.name,
		Detail:   detail,
	}
}

// End closes the span and returns its duration.
func (s *Span) End(detail string) time.Duration {
	if s == nil {
		return 0
	}
	now := time.Now()
	if s.id != 0 {
		ev := s.event(KindSpanEnd, now, detail)
		ev.Extra = s.extra
		s.tracer.Emit(ev)
	}
	return now.Sub(s.started)
}

// WithExtra attaches a key/value pair to the end event.
func (s *Span) WithExtra(key, value string) *Span {
	if s == nil || s.id == 0 {
		return s
	}
	if s.extra == nil {
		s.extra = make(map[string]string, 2)
	}
	s.extra[key] = value
	return s
}

func (s *Span) ID() uint64 {
	if s == nil {
		return 0
	}
	return s.id
}

// Point emits an instant event inside the span carried by ctx.
func Point(ctx context.Context, scope Scope, name, detail string) {
	c := load(ctx)
	if !c.tracer.Enabled() || !c.tracer.Level().ShouldEmit(scope) {
		return
	}
	ev := &Event{
		Time:   time.Now(),
		Seq:    nextSeq(),
		Kind:   KindPoint,
		Scope:  scope,
		Name:   name,
		Detail: detail,
	}
	if p := c.span; p != nil {
		ev.ParentID, ev.Lane, ev.Depth = p.id, p.lane, p.depth+1
	}
	c.tracer.Emit(ev)
}

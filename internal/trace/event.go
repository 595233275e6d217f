package trace

import "time"

// Kind distinguishes span boundaries from instant events.
type Kind uint8

const (
	KindSpanBegin Kind = iota + 1
	KindSpanEnd
	KindPoint
	KindHeartbeat
)

func (k Kind) String() string {
	switch k {
	case KindSpanBegin:
		return "begin"
	case KindSpanEnd:
		return "end"
	case KindPoint:
		return "point"
	case KindHeartbeat:
		return "heartbeat"
	default:
		return "unknown"
	}
}

// Scope indicates the granularity of an event.
// Lower values are coarser.
type Scope uint8

const (
	ScopeCommand Scope = iota + 1 // a CLI command
	ScopeBuild                    // one shader build or reload
	ScopeStage                    // cache lookup, compile, cache store
	ScopeDetail                   // watcher registrations and events
)

func (s Scope) String() string {
	switch s {
	case ScopeCommand:
		return "command"
	case ScopeBuild:
		return "build"
	case ScopeStage:
		return "stage"
	case ScopeDetail:
		return "detail"
	default:
		return "unknown"
	}
}

// Event is one record of the timeline. Seq is assigned when the event is
// created, so every tracer sees the same number.
type Event struct {
	Time     time.Time
	Seq      uint64
	Kind     Kind
	Scope    Scope
	SpanID   uint64 // zero for points and heartbeats
	ParentID uint64
	Lane     uint64 // shared by a root span and everything below it
	Depth    int
	Name     string // "build", "cache.lookup", "watch.event", ...
	Detail   string
	Extra    map[string]string
}

// admits reports whether a tracer at level l records ev. Heartbeats
// bypass the level so idle sessions stay visible.
func admits(l Level, ev *Event) bool {
	return ev.Kind == KindHeartbeat || l.ShouldEmit(ev.Scope)
}

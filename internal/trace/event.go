package trace

import (
	"path/filepath"
	"strings"
	"time"
)

// Kind is the type of a trace event.
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

// Scope is the granularity of an event. Lower values are coarser.
type Scope uint8

const (
	ScopeDriver Scope = iota + 1 // CLI command
	ScopePass                    // load, check, query passes
	ScopeUnit                    // one analysed unit
	ScopeQuery                   // a single engine query
	ScopeError                   // inconsistencies, emitted from LevelError up
)

func (s Scope) String() string {
	switch s {
	case ScopeDriver:
		return "driver"
	case ScopePass:
		return "pass"
	case ScopeUnit:
		return "unit"
	case ScopeQuery:
		return "query"
	case ScopeError:
		return "error"
	default:
		return "unknown"
	}
}

// Event is a single trace record. Unit and Epoch name the analysed unit
// and the snapshot epoch the event belongs to; both are empty for
// command-level events.
type Event struct {
	Time     time.Time
	Seq      uint64 // global, monotonic
	Kind     Kind
	Scope    Scope
	SpanID   uint64
	ParentID uint64 // 0 for roots
	GID      uint64
	Unit     string
	Epoch    uint64
	Name     string
	Detail   string
	Extra    map[string]string
}

// InUnit reports whether ev belongs to unit. A unit matches by path, by
// base name or by base name without extension, so "sample" selects
// "units/sample.toml".
func (ev *Event) InUnit(unit string) bool {
	if ev.Unit == "" || unit == "" {
		return false
	}
	if ev.Unit == unit {
		return true
	}
	base := filepath.Base(ev.Unit)
	return base == unit || strings.TrimSuffix(base, filepath.Ext(base)) == unit
}

package trace

import "time"

// Kind represents the type of trace event.
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

// Scope indicates the granularity of an event. Lower values are coarser.
type Scope uint8

const (
	// ScopeDriver covers CLI commands and whole runs.
	ScopeDriver Scope = iota + 1
	// ScopePass covers analysis passes (parse, address, nocloning, schedule).
	ScopePass
	// ScopeModule covers one function within a pass.
	ScopeModule
	// ScopeNode covers single statements and call sites.
	ScopeNode
)

func (s Scope) String() string {
	switch s {
	case ScopeDriver:
		return "driver"
	case ScopePass:
		return "pass"
	case ScopeModule:
		return "module"
	case ScopeNode:
		return "node"
	default:
		return "unknown"
	}
}

// Event is a single trace record.
type Event struct {
	Time     time.Time
	Seq      uint64 // assigned by the tracer that stores the event
	Kind     Kind
	Scope    Scope
	SpanID   uint64
	ParentID uint64 // 0 for roots
	GID      uint64
	Name     string // "address", "func:@main", "call:@f"
	Detail   string
	Extra    map[string]string
}

package trace

import (
	"bytes"
	"runtime"
	"strconv"
	"sync/atomic"
	"time"
)

var spanIDs atomic.Uint64

// NextSpanID returns a process-unique span ID.
func NextSpanID() uint64 {
	return spanIDs.Add(1)
}

// goroutineID parses the current goroutine number from runtime.Stack.
func goroutineID() uint64 {
	buf := make([]byte, 64)
	buf = buf[:runtime.Stack(buf, false)]
	const prefix = "goroutine "
	if !bytes.HasPrefix(buf, []byte(prefix)) {
		return 0
	}
	buf = buf[len(prefix):]
	end := bytes.IndexByte(buf, ' ')
	if end < 0 {
		return 0
	}
	gid, err := strconv.ParseUint(string(buf[:end]), 10, 64)
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
	started  time.Time
	extra    map[string]string
}

var nopSpan = &Span{tracer: Nop}

// Begin emits a begin event and returns the span. When t is disabled for
// scope the returned span is inert.
func Begin(t Tracer, scope Scope, name string, parent uint64) *Span {
	if t == nil || !t.Enabled() || !t.Level().ShouldEmit(scope) {
		return nopSpan
	}
	s := &Span{
		tracer:   t,
		id:       NextSpanID(),
		parentID: parent,
		gid:      goroutineID(),
		scope:    scope,
		name:     name,
		started:  time.Now(),
	}
	t.Emit(&Event{
		Time:     s.started,
		Kind:     KindSpanBegin,
		Scope:    scope,
		SpanID:   s.id,
		ParentID: parent,
		GID:      s.gid,
		Name:     name,
	})
	return s
}

// End emits the end event with detail and returns the elapsed time.
func (s *Span) End(detail string) time.Duration {
	if s == nil || s.tracer == nil || !s.tracer.Enabled() {
		return 0
	}
	dur := time.Since(s.started)
	extra := s.extra
	if extra == nil {
		extra = make(map[string]string, 1)
	}
	extra["dur"] = dur.Round(time.Microsecond).String()
	s.tracer.Emit(&Event{
		Time:     time.Now(),
		Kind:     KindSpanEnd,
		Scope:    s.scope,
		SpanID:   s.id,
		ParentID: s.parentID,
		GID:      s.gid,
		Name:     s.name,
		Detail:   detail,
		Extra:    extra,
	})
	return dur
}

// WithExtra attaches a key-value pair to the end event.
func (s *Span) WithExtra(key, value string) *Span {
	if s == nil || s.tracer == nil || !s.tracer.Enabled() {
		return s
	}
	if s.extra == nil {
		s.extra = make(map[string]string)
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

// Point emits an instant event under parent.
func Point(t Tracer, scope Scope, name, detail string, parent uint64) {
	if t == nil || !t.Enabled() || !t.Level().ShouldEmit(scope) {
		return
	}
	t.Emit(&Event{
		Time:     time.Now(),
		Kind:     KindPoint,
		Scope:    scope,
		ParentID: parent,
		GID:      goroutineID(),
		Name:     name,
		Detail:   detail,
	})
}

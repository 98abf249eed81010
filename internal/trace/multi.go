package trace

import "errors"

// MultiTracer fans out events to several tracers.
type MultiTracer struct {
	tracers []Tracer
	level   Level
}

func NewMultiTracer(level Level, tracers ...Tracer) *MultiTracer {
	return &MultiTracer{tracers: tracers, level: level}
}

// Emit hands every tracer its own copy so per-tracer sequence numbers do not
// interfere.
func (t *MultiTracer) Emit(ev *Event) {
	for _, tr := range t.tracers {
		cp := *ev
		tr.Emit(&cp)
	}
}

func (t *MultiTracer) Flush() error {
	var errs []error
	for _, tr := range t.tracers {
		errs = append(errs, tr.Flush())
	}
	return errors.Join(errs...)
}

func (t *MultiTracer) Close() error {
	var errs []error
	for _, tr := range t.tracers {
		errs = append(errs, tr.Close())
	}
	return errors.Join(errs...)
}

func (t *MultiTracer) Level() Level {
	return t.level
}

func (t *MultiTracer) Enabled() bool {
	return t.level > LevelOff
}

// Ring returns the first ring tracer among the children, if any.
func (t *MultiTracer) Ring() (*RingTracer, bool) {
	for _, tr := range t.tracers {
		if r, ok := tr.(*RingTracer); ok {
			return r, true
		}
	}
	return nil, false
}

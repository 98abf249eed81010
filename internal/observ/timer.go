package observ

import (
	"fmt"
	"strings"
	"time"
)

// Phase is one timed step of a run.
type Phase struct {
	Name  string
	Start time.Time
	Dur   time.Duration
	Note  string
}

// Timer records the phases of one run. It is not safe for concurrent use;
// parallel runs keep one Timer per file.
type Timer struct {
	phases []Phase
}

func NewTimer() *Timer { return &Timer{phases: make([]Phase, 0, 8)} }

// Begin starts a phase and returns its index.
func (t *Timer) Begin(name string) int {
	t.phases = append(t.phases, Phase{Name: name, Start: time.Now()})
	return len(t.phases) - 1
}

// End finishes the phase at idx.
func (t *Timer) End(idx int, note string) {
	if idx < 0 || idx >= len(t.phases) {
		return
	}
	p := &t.phases[idx]
	p.Dur = time.Since(p.Start)
	p.Note = note
}

// Track times fn as one phase. A failing fn leaves its error as the note.
func (t *Timer) Track(name string, fn func() error) error {
	idx := t.Begin(name)
	err := fn()
	note := ""
	if err != nil {
		note = err.Error()
	}
	t.End(idx, note)
	return err
}

// Summary renders the phases as an aligned table.
func (t *Timer) Summary() string {
	report := t.Report()
	var sb strings.Builder
	sb.WriteString("timings:\n")
	for _, p := range report.Phases {
		fmt.Fprintf(&sb, "  %-20s %8.2f ms", p.Name, p.DurationMS)
		if p.Note != "" {
			sb.WriteString("  // " + p.Note)
		}
		sb.WriteByte('\n')
	}
	fmt.Fprintf(&sb, "  %-20s %8.2f ms\n", "total", report.TotalMS)
	return sb.String()
}

// PhaseReport is the serializable form of a Phase.
type PhaseReport struct {
	Name       string  `json:"name" msgpack:"name"`
	DurationMS float64 `json:"duration_ms" msgpack:"duration_ms"`
	Note       string  `json:"note,omitempty" msgpack:"note,omitempty"`
}

// Report aggregates a Timer.
type Report struct {
	TotalMS float64       `json:"total_ms" msgpack:"total_ms"`
	Phases  []PhaseReport `json:"phases" msgpack:"phases"`
}

func (t *Timer) Report() Report {
	if len(t.phases) == 0 {
		return Report{}
	}
	report := Report{Phases: make([]PhaseReport, len(t.phases))}
	var total time.Duration
	for i, phase := range t.phases {
		total += phase.Dur
		report.Phases[i] = PhaseReport{
			Name:       phase.Name,
			DurationMS: durationToMillis(phase.Dur),
			Note:       phase.Note,
		}
	}
	report.TotalMS = durationToMillis(total)
	return report
}

func durationToMillis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

package trace

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

// Tracer receives trace events. Implementations must be safe for
// concurrent use because the driver analyzes files in parallel.
type Tracer interface {
	Emit(ev *Event)
	Flush() error
	Close() error
	Level() Level
	Enabled() bool
}

// StorageMode selects where events go.
type StorageMode uint8

const (
	ModeStream StorageMode = iota + 1
	ModeRing
	ModeBoth
)

func (m StorageMode) String() string {
	switch m {
	case ModeStream:
		return "stream"
	case ModeRing:
		return "ring"
	case ModeBoth:
		return "both"
	default:
		return "unknown"
	}
}

func ParseMode(s string) (StorageMode, error) {
	switch strings.ToLower(s) {
	case "stream":
		return ModeStream, nil
	case "ring":
		return ModeRing, nil
	case "both":
		return ModeBoth, nil
	default:
		return ModeStream, fmt.Errorf("invalid storage mode: %q (expected: stream|ring|both)", s)
	}
}

type Config struct {
	Level      Level
	Mode       StorageMode
	Format     Format
	Output     io.Writer // takes precedence over OutputPath
	OutputPath string    // "-" or "" for stderr
	RingSize   int
	Heartbeat  time.Duration // 0 disables
}

// New builds the tracer described by cfg. A disabled level yields Nop.
func New(cfg Config) (Tracer, error) {
	if cfg.Level == LevelOff {
		return Nop, nil
	}
	if cfg.RingSize <= 0 {
		cfg.RingSize = 4096
	}
	format := cfg.Format
	if format == FormatAuto {
		format = FormatText
		if strings.HasSuffix(cfg.OutputPath, ".ndjson") || strings.HasSuffix(cfg.OutputPath, ".jsonl") {
			format = FormatNDJSON
		}
	}

	switch cfg.Mode {
	case ModeStream, 0:
		w, err := openOutput(cfg)
		if err != nil {
			return nil, err
		}
		return NewStreamTracer(w, cfg.Level, format), nil
	case ModeRing:
		return NewRingTracer(cfg.RingSize, cfg.Level), nil
	case ModeBoth:
		w, err := openOutput(cfg)
		if err != nil {
			return nil, err
		}
		return NewMultiTracer(cfg.Level,
			NewStreamTracer(w, cfg.Level, format),
			NewRingTracer(cfg.RingSize, cfg.Level),
		), nil
	}
	return nil, fmt.Errorf("unknown storage mode: %v", cfg.Mode)
}

func openOutput(cfg Config) (io.Writer, error) {
	if cfg.Output != nil {
		return cfg.Output, nil
	}
	if cfg.OutputPath == "" || cfg.OutputPath == "-" {
		return os.Stderr, nil
	}
	f, err := os.Create(cfg.OutputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open trace output: %w", err)
	}
	return f, nil
}

func isStdStream(w io.Writer) bool {
	return w == os.Stderr || w == os.Stdout
}

// RingOf returns the ring buffer behind t, if t keeps one.
func RingOf(t Tracer) (*RingTracer, bool) {
	switch tr := t.(type) {
	case *RingTracer:
		return tr, true
	case *MultiTracer:
		return tr.Ring()
	}
	return nil, false
}

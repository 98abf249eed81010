// Package prof starts and stops the Go runtime profilers behind the
// --cpu-profile, --mem-profile and --runtime-trace flags.
package prof

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"runtime/pprof"
	"runtime/trace"
)

// Config names the output files; empty paths are skipped.
type Config struct {
	CPU   string
	Mem   string
	Trace string
}

// Session holds the profilers started by Start.
type Session struct {
	cfg       Config
	cpuFile   *os.File
	traceFile *os.File
	stopped   bool
}

// Start enables the profilers named in cfg. On error nothing is left
// running.
func Start(cfg Config) (*Session, error) {
	s := &Session{cfg: cfg}
	if cfg.CPU != "" {
		f, err := os.Create(cfg.CPU)
		if err != nil {
			return nil, fmt.Errorf("cpu profile: %w", err)
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("cpu profile: %w", err)
		}
		s.cpuFile = f
	}
	if cfg.Trace != "" {
		f, err := os.Create(cfg.Trace)
		if err != nil {
			_ = s.Stop()
			return nil, fmt.Errorf("runtime trace: %w", err)
		}
		if err := trace.Start(f); err != nil {
			_ = f.Close()
			_ = s.Stop()
			return nil, fmt.Errorf("runtime trace: %w", err)
		}
		s.traceFile = f
	}
	return s, nil
}

// Stop ends every active profile and writes the heap profile. It is safe to
// call more than once.
func (s *Session) Stop() error {
	if s == nil || s.stopped {
		return nil
	}
	s.stopped = true
	var errs []error
	if s.traceFile != nil {
		trace.Stop()
		errs = append(errs, s.traceFile.Close())
	}
	if s.cpuFile != nil {
		pprof.StopCPUProfile()
		errs = append(errs, s.cpuFile.Close())
	}
	if s.cfg.Mem != "" {
		errs = append(errs, writeHeap(s.cfg.Mem))
	}
	return errors.Join(errs...)
}

func writeHeap(path string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("heap profile: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); err == nil {
			err = closeErr
		}
	}()
	runtime.GC()
	return pprof.WriteHeapProfile(f)
}

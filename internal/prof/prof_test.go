package prof

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSession(t *testing.T) {
	dir := t.TempDir()
	cfg := Config{
		CPU:   filepath.Join(dir, "cpu.pprof"),
		Mem:   filepath.Join(dir, "mem.pprof"),
		Trace: filepath.Join(dir, "trace.out"),
	}
	s, err := Start(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Stop(); err != nil {
		t.Fatal(err)
	}
	if err := s.Stop(); err != nil {
		t.Fatalf("second Stop: %v", err)
	}
	for _, path := range []string{cfg.CPU, cfg.Mem, cfg.Trace} {
		info, err := os.Stat(path)
		if err != nil || info.Size() == 0 {
			t.Errorf("%s: missing or empty (%v)", filepath.Base(path), err)
		}
	}
}

func TestStartFailureLeavesNothingRunning(t *testing.T) {
	dir := t.TempDir()
	_, err := Start(Config{
		CPU:   filepath.Join(dir, "cpu.pprof"),
		Trace: filepath.Join(dir, "missing", "trace.out"),
	})
	if err == nil {
		t.Fatal("expected an error")
	}
	// The CPU profiler must be free again.
	s, err := Start(Config{CPU: filepath.Join(dir, "again.pprof")})
	if err != nil {
		t.Fatalf("profiler still running: %v", err)
	}
	_ = s.Stop()
}

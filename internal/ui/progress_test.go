package ui

import (
	"strings"
	"testing"

	"qir/internal/driver"
)

func TestApplyEvent(t *testing.T) {
	m := NewProgressModel("check", []string{"a.qir", "b.qir"}, nil).(*progressModel)

	m.applyEvent(driver.Event{File: "a.qir", Stage: driver.StageAddress, Status: driver.StatusWorking})
	if got := m.items[0].status; got != "addressing" {
		t.Fatalf("status = %q, want addressing", got)
	}
	if got := m.percent(); got != 0.15 {
		t.Fatalf("percent = %v, want 0.15", got)
	}

	m.applyEvent(driver.Event{File: "a.qir", Status: driver.StatusDone})
	m.applyEvent(driver.Event{File: "b.qir", Status: driver.StatusCached})
	if m.finished() != 2 || m.percent() != 1 {
		t.Fatalf("finished=%d percent=%v", m.finished(), m.percent())
	}

	// A late queued event must not reset a finished file.
	m.applyEvent(driver.Event{File: "a.qir", Status: driver.StatusQueued})
	if m.items[0].status != "done" {
		t.Fatalf("status = %q after late event", m.items[0].status)
	}
	m.applyEvent(driver.Event{File: "unknown.qir", Status: driver.StatusError})

	m.done = true
	view := m.View()
	if !strings.Contains(view, "a.qir") || !strings.Contains(view, "cached") {
		t.Fatalf("view:\n%s", view)
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in    string
		width int
		want  string
	}{
		{"short", 10, "short"},
		{"a/very/long/path.qir", 10, "a/very/..."},
		{"abcdef", 3, "abc"},
		{"anything", 0, "anything"},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.width); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.width, got, tt.want)
		}
	}
}

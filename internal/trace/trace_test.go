package trace

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
)

func TestLevelFiltersScopes(t *testing.T) {
	tests := []struct {
		level Level
		scope Scope
		want  bool
	}{
		{LevelOff, ScopeDriver, false},
		{LevelError, ScopeDriver, true},
		{LevelError, ScopePass, false},
		{LevelPhase, ScopePass, true},
		{LevelPhase, ScopeModule, false},
		{LevelDetail, ScopeModule, true},
		{LevelDetail, ScopeNode, false},
		{LevelDebug, ScopeNode, true},
	}
	for _, tt := range tests {
		if got := tt.level.ShouldEmit(tt.scope); got != tt.want {
			t.Errorf("%s.ShouldEmit(%s) = %v, want %v", tt.level, tt.scope, got, tt.want)
		}
	}
}

func TestParseLevelAndMode(t *testing.T) {
	if l, err := ParseLevel("DETAIL"); err != nil || l != LevelDetail {
		t.Fatalf("ParseLevel(DETAIL) = %v, %v", l, err)
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Fatalf("expected error for unknown level")
	}
	if m, err := ParseMode("both"); err != nil || m != ModeBoth {
		t.Fatalf("ParseMode(both) = %v, %v", m, err)
	}
}

func TestSpanEmitsBeginAndEnd(t *testing.T) {
	ring := NewRingTracer(8, LevelPhase)
	span := Begin(ring, ScopePass, "address", 0).WithExtra("funcs", "3")
	Point(ring, ScopeNode, "call:@f", "memo hit", span.ID())
	span.End("ok")

	events := ring.Snapshot()
	if len(events) != 2 {
		t.Fatalf("expected begin+end (node point filtered), got %d", len(events))
	}
	if events[0].Kind != KindSpanBegin || events[1].Kind != KindSpanEnd {
		t.Fatalf("unexpected kinds %s, %s", events[0].Kind, events[1].Kind)
	}
	if events[1].Extra["funcs"] != "3" || events[1].Extra["dur"] == "" {
		t.Fatalf("end event lost extras: %v", events[1].Extra)
	}
	if events[0].Seq >= events[1].Seq {
		t.Fatalf("sequence numbers must increase")
	}
}

func TestRingWrapsAround(t *testing.T) {
	ring := NewRingTracer(3, LevelDebug)
	for _, name := range []string{"a", "b", "c", "d", "e"} {
		Point(ring, ScopeNode, name, "", 0)
	}
	var names []string
	for _, ev := range ring.Snapshot() {
		names = append(names, ev.Name)
	}
	if got := strings.Join(names, ","); got != "c,d,e" {
		t.Fatalf("snapshot = %s, want c,d,e", got)
	}
}

func TestStreamNDJSON(t *testing.T) {
	var buf bytes.Buffer
	tr, err := New(Config{Level: LevelDebug, Mode: ModeStream, Format: FormatNDJSON, Output: &buf})
	if err != nil {
		t.Fatal(err)
	}
	Point(tr, ScopeModule, "func:@main", "2 blocks", 7)
	var got map[string]any
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("invalid json %q: %v", buf.String(), err)
	}
	if got["name"] != "func:@main" || got["kind"] != "point" || got["parent_id"] != float64(7) {
		t.Fatalf("unexpected event %v", got)
	}
}

func TestTextFormatSortsExtras(t *testing.T) {
	ev := &Event{Seq: 1, Kind: KindSpanEnd, Scope: ScopePass, Name: "schedule", Extra: map[string]string{"b": "2", "a": "1"}}
	got := string(FormatEvent(ev, FormatText))
	if !strings.Contains(got, "<- schedule {a=1, b=2}") {
		t.Fatalf("unexpected text %q", got)
	}
}

func TestMultiTracerAndContext(t *testing.T) {
	var buf bytes.Buffer
	tr, err := New(Config{Level: LevelPhase, Mode: ModeBoth, Output: &buf})
	if err != nil {
		t.Fatal(err)
	}
	ctx := WithTracer(context.Background(), tr)
	span := Begin(FromContext(ctx), ScopeDriver, "check", 0)
	ctx = WithParent(ctx, span)
	if ParentFromContext(ctx) != span.ID() {
		t.Fatalf("parent not propagated")
	}
	span.End("")

	ring, ok := RingOf(tr)
	if !ok || len(ring.Snapshot()) != 2 {
		t.Fatalf("ring should hold both events")
	}
	if strings.Count(buf.String(), "\n") != 2 {
		t.Fatalf("stream should hold both events, got %q", buf.String())
	}
	if FromContext(context.Background()) != Nop {
		t.Fatalf("empty context must yield Nop")
	}
}

package trace

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"
)

// Format represents the output format for trace events.
type Format uint8

const (
	FormatAuto   Format = iota // pick from the output path
	FormatText                 // human-readable text
	FormatNDJSON               // newline-delimited JSON
)

// ParseFormat converts a flag value to a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "", "auto":
		return FormatAuto, nil
	case "text":
		return FormatText, nil
	case "ndjson", "json":
		return FormatNDJSON, nil
	}
	return FormatAuto, fmt.Errorf("invalid trace format: %q (expected: auto|text|ndjson)", s)
}

// FormatEvent renders ev in the given format. The result ends with a newline.
func FormatEvent(ev *Event, format Format) []byte {
	if format == FormatNDJSON {
		return formatNDJSON(ev)
	}
	return formatText(ev)
}

type jsonEvent struct {
	Time     string            `json:"time"`
	Seq      uint64            `json:"seq"`
	Kind     string            `json:"kind"`
	Scope    string            `json:"scope"`
	SpanID   uint64            `json:"span_id,omitempty"`
	ParentID uint64            `json:"parent_id,omitempty"`
	GID      uint64            `json:"gid,omitempty"`
	Name     string            `json:"name"`
	Detail   string            `json:"detail,omitempty"`
	Extra    map[string]string `json:"extra,omitempty"`
}

func formatNDJSON(ev *Event) []byte {
	j := jsonEvent{
		Time:     ev.Time.Format(time.RFC3339Nano),
		Seq:      ev.Seq,
		Kind:     ev.Kind.String(),
		Scope:    ev.Scope.String(),
		SpanID:   ev.SpanID,
		ParentID: ev.ParentID,
		GID:      ev.GID,
		Name:     ev.Name,
		Detail:   ev.Detail,
		Extra:    ev.Extra,
	}
	data, err := json.Marshal(j)
	if err != nil {
		data = []byte(fmt.Sprintf(`{"seq":%d,"name":%q,"error":%q}`, ev.Seq, ev.Name, err.Error()))
	}
	return append(data, '\n')
}

// formatText renders "#seq scope  -> name (detail) {k=v}".
// Extra keys are sorted so output is stable.
func formatText(ev *Event) []byte {
	var sb strings.Builder
	fmt.Fprintf(&sb, "#%-5d %-6s ", ev.Seq, ev.Scope)
	if ev.ParentID > 0 {
		sb.WriteString("  ")
	}
	switch ev.Kind {
	case KindSpanBegin:
		sb.WriteString("-> ")
	case KindSpanEnd:
		sb.WriteString("<- ")
	case KindPoint:
		sb.WriteString("*  ")
	case KindHeartbeat:
		sb.WriteString("~  ")
	}
	sb.WriteString(ev.Name)
	if ev.Detail != "" {
		sb.WriteString(" (")
		sb.WriteString(ev.Detail)
		sb.WriteString(")")
	}
	if len(ev.Extra) > 0 {
		keys := make([]string, 0, len(ev.Extra))
		for k := range ev.Extra {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		sb.WriteString(" {")
		for i, k := range keys {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(k)
			sb.WriteByte('=')
			sb.WriteString(ev.Extra[k])
		}
		sb.WriteString("}")
	}
	sb.WriteByte('\n')
	return []byte(sb.String())
}

package diag

import (
	"fmt"
	"sort"
)

// Bag collects diagnostics up to a fixed limit.
type Bag struct {
	items []*Diagnostic
	max   int
}

func NewBag(max int) *Bag {
	if max < 0 {
		max = 0
	}
	return &Bag{
		items: make([]*Diagnostic, 0, min(max, 64)),
		max:   max,
	}
}

// Add appends d unless the limit is reached. It reports whether d was kept.
func (b *Bag) Add(d *Diagnostic) bool {
	if d == nil || len(b.items) >= b.max {
		return false
	}
	b.items = append(b.items, d)
	return true
}

func (b *Bag) Cap() int {
	return b.max
}

// HasErrors reports whether any diagnostic is at least SevError.
func (b *Bag) HasErrors() bool {
	for _, d := range b.items {
		if d.Severity >= SevError {
			return true
		}
	}
	return false
}

// HasWarnings reports whether any diagnostic is at least SevWarning.
func (b *Bag) HasWarnings() bool {
	for _, d := range b.items {
		if d.Severity >= SevWarning {
			return true
		}
	}
	return false
}

func (b *Bag) Len() int {
	return len(b.items)
}

// Items returns the internal slice. Callers must not modify it.
func (b *Bag) Items() []*Diagnostic {
	return b.items
}

// Count returns how many diagnostics carry code.
func (b *Bag) Count(code Code) int {
	n := 0
	for _, d := range b.items {
		if d.Code == code {
			n++
		}
	}
	return n
}

// Merge appends all diagnostics of other, growing the limit when needed.
func (b *Bag) Merge(other *Bag) {
	if other == nil {
		return
	}
	if total := len(b.items) + len(other.items); total > b.max {
		b.max = total
	}
	b.items = append(b.items, other.items...)
}

// Filter keeps only diagnostics for which keep returns true.
func (b *Bag) Filter(keep func(*Diagnostic) bool) {
	out := b.items[:0]
	for _, d := range b.items {
		if keep(d) {
			out = append(out, d)
		}
	}
	b.items = out
}

// Transform applies fn to every diagnostic in place.
func (b *Bag) Transform(fn func(*Diagnostic)) {
	for _, d := range b.items {
		fn(d)
	}
}

// Sort orders diagnostics by file, start, end, severity (desc) and code
// so output is deterministic.
func (b *Bag) Sort() {
	sort.SliceStable(b.items, func(i, j int) bool {
		di, dj := b.items[i], b.items[j]
		if di.Primary.File != dj.Primary.File {
			return di.Primary.File < dj.Primary.File
		}
		if di.Primary.Start != dj.Primary.Start {
			return di.Primary.Start < dj.Primary.Start
		}
		if di.Primary.End != dj.Primary.End {
			return di.Primary.End < dj.Primary.End
		}
		if di.Severity != dj.Severity {
			return di.Severity > dj.Severity
		}
		if di.Code != dj.Code {
			return di.Code < dj.Code
		}
		return di.Message < dj.Message
	})
}

// Dedup drops repeated diagnostics with the same code, span and message.
func (b *Bag) Dedup() {
	seen := make(map[string]bool)
	out := make([]*Diagnostic, 0, len(b.items))
	for _, d := range b.items {
		key := fmt.Sprintf("%s:%s:%s", d.Code.ID(), d.Primary.String(), d.Message)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, d)
	}
	b.items = out
}

package diagfmt

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"qir/internal/diag"
	"qir/internal/source"
)

// Pretty prints diagnostics in human-readable form, in bag order (call
// bag.Sort() first). Each entry reads
//
//	<path>:<line>:<col>: <SEV> <CODE>: <message>
//
// followed by the source lines around the primary span, underlined with
// ^~~~, and then the notes when opts.ShowNotes is set.
func Pretty(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts PrettyOpts) {
	p := newPainter(opts.Color)
	for i, d := range bag.Items() {
		if i > 0 {
			fmt.Fprintln(w)
		}
		prettyOne(w, d, fs, opts, p)
	}
}

type painter struct {
	sev  map[diag.Severity]*color.Color
	code *color.Color
	dim  *color.Color
	note *color.Color
}

func newPainter(enabled bool) painter {
	mk := func(attrs ...color.Attribute) *color.Color {
		c := color.New(attrs...)
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
		return c
	}
	return painter{
		sev: map[diag.Severity]*color.Color{
			diag.SevError:   mk(color.FgRed, color.Bold),
			diag.SevWarning: mk(color.FgYellow, color.Bold),
			diag.SevInfo:    mk(color.FgCyan, color.Bold),
		},
		code: mk(color.Bold),
		dim:  mk(color.FgBlue),
		note: mk(color.FgGreen),
	}
}

func (p painter) severity(s diag.Severity) *color.Color {
	if c, ok := p.sev[s]; ok {
		return c
	}
	return p.code
}

func prettyOne(w io.Writer, d *diag.Diagnostic, fs *source.FileSet, opts PrettyOpts, p painter) {
	sevColor := p.severity(d.Severity)
	loc, ok := resolve(fs, d.Primary, opts.PathMode)
	if ok {
		fmt.Fprintf(w, "%s:%d:%d: ", loc.path, loc.start.Line, loc.start.Col)
	}
	fmt.Fprintf(w, "%s %s: %s\n", sevColor.Sprint(d.Severity.String()), p.code.Sprint(d.Code.ID()), d.Message)
	if ok {
		printSnippet(w, loc, opts, p, sevColor)
	}
	if !opts.ShowNotes && d.Code != diag.ObsTimings {
		return
	}
	for _, n := range d.Notes {
		if nloc, ok := resolve(fs, n.Span, opts.PathMode); ok && !n.Span.Empty() {
			fmt.Fprintf(w, "  %s %s:%d:%d: %s\n", p.note.Sprint("note:"), nloc.path, nloc.start.Line, nloc.start.Col, n.Msg)
			continue
		}
		fmt.Fprintf(w, "  %s %s\n", p.note.Sprint("note:"), n.Msg)
	}
}

func printSnippet(w io.Writer, loc location, opts PrettyOpts, p painter, mark *color.Color) {
	lastLine := uint32(len(loc.file.LineIdx)) + 1 //nolint:gosec // bounded by content length
	ctx := uint32(max(opts.Context, 0))           //nolint:gosec // non-negative
	first := uint32(1)
	if loc.start.Line > ctx+1 {
		first = loc.start.Line - ctx
	}
	last := min(loc.start.Line+ctx, lastLine)
	gutter := len(fmt.Sprint(last))

	for n := first; n <= last; n++ {
		text := loc.file.GetLine(n)
		if opts.Width > 0 {
			text = runewidth.Truncate(text, int(opts.Width), "...")
		}
		fmt.Fprintf(w, "%s %s\n", p.dim.Sprintf("%*d |", gutter, n), text)
		if n != loc.start.Line {
			continue
		}
		endCol := uint32(len(text)) + 1 //nolint:gosec // one line
		if loc.end.Line == loc.start.Line && loc.end.Col <= endCol {
			endCol = loc.end.Col
		}
		pad, width := underline(text, int(loc.start.Col)-1, int(endCol)-1)
		fmt.Fprintf(w, "%s %s%s\n", p.dim.Sprintf("%*s |", gutter, ""), pad, mark.Sprint("^"+strings.Repeat("~", width-1)))
	}
}

// underline returns the indentation that lines a marker up under byte
// offset from, and the display width of line[from:to], at least 1. Tabs
// are kept so the marker stays aligned whatever the tab width.
func underline(line string, from, to int) (string, int) {
	from = min(max(from, 0), len(line))
	to = min(max(to, from), len(line))
	var pad strings.Builder
	for _, r := range line[:from] {
		if r == '\t' {
			pad.WriteByte('\t')
			continue
		}
		pad.WriteString(strings.Repeat(" ", runewidth.RuneWidth(r)))
	}
	return pad.String(), max(runewidth.StringWidth(line[from:to]), 1)
}

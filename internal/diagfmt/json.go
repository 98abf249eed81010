package diagfmt

import (
	"encoding/json"
	"io"

	"qir/internal/diag"
	"qir/internal/source"
)

// LocationJSON is a position in a file.
type LocationJSON struct {
	File      string `json:"file"`
	StartByte uint32 `json:"start_byte"`
	EndByte   uint32 `json:"end_byte"`
	StartLine uint32 `json:"start_line,omitempty"`
	StartCol  uint32 `json:"start_col,omitempty"`
	EndLine   uint32 `json:"end_line,omitempty"`
	EndCol    uint32 `json:"end_col,omitempty"`
}

type NoteJSON struct {
	Message  string        `json:"message"`
	Location *LocationJSON `json:"location,omitempty"`
}

type DiagnosticJSON struct {
	Severity string        `json:"severity"`
	Code     string        `json:"code"`
	Title    string        `json:"title"`
	Message  string        `json:"message"`
	Location *LocationJSON `json:"location,omitempty"`
	Notes    []NoteJSON    `json:"notes,omitempty"`
}

// DiagnosticsOutput is the root of the JSON output.
type DiagnosticsOutput struct {
	Diagnostics []DiagnosticJSON `json:"diagnostics"`
	Count       int              `json:"count"`
}

// makeLocation returns nil for spans that do not resolve in fs.
func makeLocation(span source.Span, fs *source.FileSet, pathMode PathMode, includePositions bool) *LocationJSON {
	loc, ok := resolve(fs, span, pathMode)
	if !ok {
		return nil
	}
	out := &LocationJSON{
		File:      loc.path,
		StartByte: span.Start,
		EndByte:   span.End,
	}
	if includePositions {
		out.StartLine = loc.start.Line
		out.StartCol = loc.start.Col
		out.EndLine = loc.end.Line
		out.EndCol = loc.end.Col
	}
	return out
}

// BuildDiagnosticsOutput builds the JSON structure without encoding it.
func BuildDiagnosticsOutput(bag *diag.Bag, fs *source.FileSet, opts JSONOpts) DiagnosticsOutput {
	items := bag.Items()
	n := len(items)
	if opts.Max > 0 && opts.Max < n {
		n = opts.Max
	}
	diagnostics := make([]DiagnosticJSON, 0, n)
	for _, d := range items[:n] {
		dj := DiagnosticJSON{
			Severity: d.Severity.String(),
			Code:     d.Code.ID(),
			Title:    d.Code.Title(),
			Message:  d.Message,
			Location: makeLocation(d.Primary, fs, opts.PathMode, opts.IncludePositions),
		}
		// Timing payloads live in notes; they are useless without them.
		if (opts.IncludeNotes || d.Code == diag.ObsTimings) && len(d.Notes) > 0 {
			dj.Notes = make([]NoteJSON, len(d.Notes))
			for j, note := range d.Notes {
				dj.Notes[j] = NoteJSON{
					Message:  note.Msg,
					Location: makeLocation(note.Span, fs, opts.PathMode, opts.IncludePositions),
				}
			}
		}
		diagnostics = append(diagnostics, dj)
	}
	return DiagnosticsOutput{Diagnostics: diagnostics, Count: len(diagnostics)}
}

// JSON writes diagnostics as one indented JSON document.
func JSON(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts JSONOpts) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(BuildDiagnosticsOutput(bag, fs, opts))
}

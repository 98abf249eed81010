package diagfmt

import (
	"qir/internal/source"
)

type location struct {
	path       string
	start, end source.LineCol
	file       *source.File
}

// resolve maps span to a printable location. Spans that point outside the
// FileSet or past the end of their file do not resolve.
func resolve(fs *source.FileSet, span source.Span, mode PathMode) (location, bool) {
	if fs == nil || int(span.File) >= fs.Len() {
		return location{}, false
	}
	f := fs.Get(span.File)
	if int(span.End) > len(f.Content) || span.Start > span.End {
		return location{}, false
	}
	start, end := fs.Resolve(span)
	return location{
		path:  formatPath(fs, f, mode),
		start: start,
		end:   end,
		file:  f,
	}, true
}

func formatPath(fs *source.FileSet, f *source.File, mode PathMode) string {
	switch mode {
	case PathModeRelative:
		return f.FormatPath("relative", fs.BaseDir())
	default:
		return f.FormatPath(mode.String(), "")
	}
}

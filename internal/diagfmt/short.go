package diagfmt

import (
	"fmt"
	"io"

	"qir/internal/diag"
	"qir/internal/source"
)

// Short writes one line per diagnostic.
func Short(w io.Writer, bag *diag.Bag, fs *source.FileSet, includeNotes bool) {
	if out := diag.FormatShortDiagnostics(bag.Items(), fs, includeNotes); out != "" {
		fmt.Fprintln(w, out)
	}
}

package driver

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"qir/internal/diag"
	"qir/internal/ir"
	"qir/internal/source"
)

// ErrParse is returned by FormatFile when the input has syntax errors.
var ErrParse = errors.New("parse failed")

// FormatOptions configures FormatPaths.
type FormatOptions struct {
	// Check reports files that would change without writing them.
	Check bool
	// Stdout returns the formatted text instead of writing files.
	Stdout         bool
	MaxDiagnostics int
}

// FormatResult is the outcome for one file.
type FormatResult struct {
	Path      string
	Changed   bool
	Formatted []byte
	Bag       *diag.Bag
	Err       error
}

// FormatFile parses one file and prints it in canonical form.
func FormatFile(fs *source.FileSet, id source.FileID, maxDiagnostics int) ([]byte, *diag.Bag, error) {
	if maxDiagnostics <= 0 {
		maxDiagnostics = 100
	}
	bag := diag.NewBag(maxDiagnostics)
	file := fs.Get(id)
	prog, ok := ir.Parse(file, diag.BagReporter{Bag: bag})
	if !ok {
		bag.Sort()
		return nil, bag, fmt.Errorf("%s: %w", file.Path, ErrParse)
	}
	var buf bytes.Buffer
	if err := ir.Print(&buf, prog); err != nil {
		return nil, bag, err
	}
	return buf.Bytes(), bag, nil
}

// FormatPaths formats files and directories (recursively collecting .qir
// files). All files share fs so diagnostics can be rendered afterwards.
func FormatPaths(ctx context.Context, fs *source.FileSet, paths []string, opts FormatOptions) ([]FormatResult, error) {
	var files []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			files = append(files, p)
			continue
		}
		found, err := ListFiles(p)
		if err != nil {
			return nil, err
		}
		files = append(files, found...)
	}
	if len(files) == 0 {
		return nil, errors.New("format: no .qir files found")
	}

	results := make([]FormatResult, 0, len(files))
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		result := FormatResult{Path: path}
		id, err := fs.Load(path)
		if err != nil {
			result.Err = err
			results = append(results, result)
			continue
		}
		formatted, bag, err := FormatFile(fs, id, opts.MaxDiagnostics)
		result.Bag = bag
		if err != nil {
			result.Err = err
			results = append(results, result)
			continue
		}
		result.Changed = !bytes.Equal(formatted, fs.Get(id).Content)
		switch {
		case opts.Check:
		case opts.Stdout:
			result.Formatted = formatted
		case result.Changed:
			if err := writeFileAtomic(path, formatted); err != nil {
				result.Err = err
			}
		}
		results = append(results, result)
	}
	return results, nil
}

func writeFileAtomic(path string, data []byte) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".qirfmt-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := os.Chmod(tmp.Name(), info.Mode().Perm()); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}

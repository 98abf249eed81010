package source

import (
	"path/filepath"
	"slices"
	"strings"
)

// normalizeCRLF replaces every \r\n with \n and leaves lone \r untouched.
func normalizeCRLF(content []byte) ([]byte, bool) {
	if !slices.Contains(content, '\r') {
		return content, false
	}

	out := make([]byte, 0, len(content))
	changed := false

	i := 0
	for i < len(content) {
		if content[i] == '\r' && i+1 < len(content) && content[i+1] == '\n' {
			out = append(out, '\n')
			i += 2
			changed = true
		} else {
			out = append(out, content[i])
			i++
		}
	}
	return out, changed
}

func removeBOM(content []byte) ([]byte, bool) {
	if len(content) < 3 {
		return content, false
	}

	if content[0] == 0xEF && content[1] == 0xBB && content[2] == 0xBF {
		return content[3:], true
	}

	return content, false
}

func buildLineIndex(content []byte) []uint32 {
	out := make([]uint32, 0, 16)
	for i, b := range content {
		if b == '\n' {
			out = append(out, uint32(i)) //nolint:gosec // bounded by content length checked in Add
		}
	}
	return out
}

func toLineCol(lineIdx []uint32, off uint32) LineCol {
	// count newlines strictly before off
	line, _ := slices.BinarySearch(lineIdx, off)
	var startOff uint32
	if line > 0 {
		startOff = lineIdx[line-1] + 1
	}
	return LineCol{Line: uint32(line) + 1, Col: off - startOff + 1} //nolint:gosec // line <= len(lineIdx)
}

func normalizePath(p string) string {
	return filepath.ToSlash(filepath.Clean(p))
}

// AbsolutePath returns the slash-normalized absolute form of path.
func AbsolutePath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	return normalizePath(abs), nil
}

// RelativePath returns path relative to baseDir. Paths that escape baseDir
// fall back to their absolute form.
func RelativePath(path, baseDir string) (string, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	absBase, err := filepath.Abs(baseDir)
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(absBase, absPath)
	if err != nil {
		return "", err
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return normalizePath(absPath), nil
	}
	return normalizePath(rel), nil
}

// BaseName returns the last element of path.
func BaseName(path string) string {
	return filepath.Base(path)
}

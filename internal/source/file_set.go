package source

import (
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"

	"fortio.org/safecast"
)

// FileSet manages a collection of source files and resolves spans to positions.
type FileSet struct {
	files   []File
	index   map[string]FileID // path -> latest id
	baseDir string
}

// NewFileSet creates a new empty FileSet.
func NewFileSet() *FileSet {
	return &FileSet{
		files: make([]File, 0),
		index: make(map[string]FileID),
	}
}

// NewFileSetWithBase creates a FileSet whose relative paths are computed against baseDir.
func NewFileSetWithBase(baseDir string) *FileSet {
	fs := NewFileSet()
	fs.baseDir = baseDir
	return fs
}

// SetBaseDir sets the directory used for relative path rendering.
func (fileSet *FileSet) SetBaseDir(dir string) {
	fileSet.baseDir = dir
}

// BaseDir returns the base directory, defaulting to the working directory.
func (fileSet *FileSet) BaseDir() string {
	if fileSet.baseDir == "" {
		if wd, err := os.Getwd(); err == nil {
			return wd
		}
	}
	return fileSet.baseDir
}

// Len reports how many files were added.
func (fileSet *FileSet) Len() int {
	return len(fileSet.files)
}

// Add stores a file from normalized bytes, computes LineIdx and Hash, and returns a new FileID.
// It always creates a new FileID even if a file with the same path already exists.
func (fileSet *FileSet) Add(path string, content []byte, flags FileFlags) FileID {
	if _, err := safecast.Conv[uint32](len(content)); err != nil {
		panic(fmt.Errorf("file %s too large: %w", path, err))
	}
	lenFiles, err := safecast.Conv[uint32](len(fileSet.files))
	if err != nil {
		panic(fmt.Errorf("len files overflow: %w", err))
	}
	normalizedPath := normalizePath(path)
	id := FileID(lenFiles)
	fileSet.files = append(fileSet.files, File{
		ID:      id,
		Path:    normalizedPath,
		Content: content,
		LineIdx: buildLineIndex(content),
		Hash:    sha256.Sum256(content),
		Flags:   flags,
	})
	fileSet.index[normalizedPath] = id
	return id
}

// Load reads a file from disk, normalizes CRLF/BOM, and calls Add.
func (fileSet *FileSet) Load(path string) (FileID, error) {
	// #nosec G304 -- path is provided by the caller
	content, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}

	content, hadBOM := removeBOM(content)
	content, hadCRLF := normalizeCRLF(content)

	flags := FileFlags(0)
	if hadBOM {
		flags |= FileHadBOM
	}
	if hadCRLF {
		flags |= FileNormalizedCRLF
	}
	return fileSet.Add(path, content, flags), nil
}

// AddVirtual adds a virtual file (stdin, test, or generated) with the FileVirtual flag.
func (fileSet *FileSet) AddVirtual(name string, content []byte) FileID {
	return fileSet.Add(name, content, FileVirtual)
}

// Get returns the file metadata for the given ID.
func (fileSet *FileSet) Get(id FileID) *File {
	return &fileSet.files[id]
}

// GetByPath returns the latest file loaded under path.
func (fileSet *FileSet) GetByPath(path string) (*File, bool) {
	if id, ok := fileSet.index[normalizePath(path)]; ok {
		return &fileSet.files[id], true
	}
	return nil, false
}

// Resolve converts a span into line and column positions.
func (fileSet *FileSet) Resolve(span Span) (start, end LineCol) {
	f := &fileSet.files[span.File]
	return toLineCol(f.LineIdx, span.Start), toLineCol(f.LineIdx, span.End)
}

// GetLine returns the 1-based line lineNum without its trailing newline.
func (f *File) GetLine(lineNum uint32) string {
	if lineNum == 0 {
		return ""
	}
	n := uint32(len(f.LineIdx)) //nolint:gosec // bounded by content length
	if lineNum > n+1 {
		return ""
	}
	var start uint32
	if lineNum > 1 {
		start = f.LineIdx[lineNum-2] + 1
	}
	end := uint32(len(f.Content)) //nolint:gosec // checked in Add
	if lineNum-1 < n {
		end = f.LineIdx[lineNum-1]
	}
	if start > end {
		return ""
	}
	return string(f.Content[start:end])
}

// FormatPath renders the file path in one of "absolute", "relative", "basename" or "auto".
func (f *File) FormatPath(mode, baseDir string) string {
	switch mode {
	case "absolute":
		if abs, err := AbsolutePath(f.Path); err == nil {
			return abs
		}
		return f.Path
	case "relative":
		if baseDir == "" {
			if wd, err := os.Getwd(); err == nil {
				baseDir = wd
			}
		}
		if rel, err := RelativePath(f.Path, baseDir); err == nil {
			return rel
		}
		return f.Path
	case "basename":
		return BaseName(f.Path)
	case "auto":
		if len(f.Path) < 40 || !filepath.IsAbs(f.Path) {
			return f.Path
		}
		return BaseName(f.Path)
	default:
		return f.Path
	}
}

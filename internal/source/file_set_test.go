package source

import (
	"os"
	"path/filepath"
	"testing"
)

func TestResolveLineCol(t *testing.T) {
	fs := NewFileSet()
	id := fs.AddVirtual("mem.qir", []byte("ab\ncde\n\nf"))

	tests := []struct {
		off  uint32
		want LineCol
	}{
		{0, LineCol{1, 1}},
		{1, LineCol{1, 2}},
		{2, LineCol{1, 3}}, // the newline itself
		{3, LineCol{2, 1}},
		{5, LineCol{2, 3}},
		{7, LineCol{3, 1}},
		{8, LineCol{4, 1}},
	}
	for _, tt := range tests {
		start, _ := fs.Resolve(Span{File: id, Start: tt.off, End: tt.off})
		if start != tt.want {
			t.Errorf("offset %d: got %+v, want %+v", tt.off, start, tt.want)
		}
	}
}

func TestGetLine(t *testing.T) {
	fs := NewFileSet()
	f := fs.Get(fs.AddVirtual("mem.qir", []byte("first\nsecond\nthird")))

	want := map[uint32]string{0: "", 1: "first", 2: "second", 3: "third", 4: ""}
	for line, text := range want {
		if got := f.GetLine(line); got != text {
			t.Errorf("line %d: got %q, want %q", line, got, text)
		}
	}
}

func TestLoadNormalizesCRLFAndBOM(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "k.qir")
	if err := os.WriteFile(path, []byte("\xEF\xBB\xBFa\r\nb\r\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	fs := NewFileSet()
	id, err := fs.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	f := fs.Get(id)
	if string(f.Content) != "a\nb\n" {
		t.Fatalf("content not normalized: %q", f.Content)
	}
	if f.Flags&FileHadBOM == 0 || f.Flags&FileNormalizedCRLF == 0 {
		t.Fatalf("flags not recorded: %b", f.Flags)
	}
	if got, ok := fs.GetByPath(path); !ok || got.ID != id {
		t.Fatalf("GetByPath did not find %s", path)
	}
}

func TestRelativePathOutsideBaseFallsBackToAbsolute(t *testing.T) {
	tmp := t.TempDir()
	baseDir := filepath.Join(tmp, "base")
	target := filepath.Join(tmp, "other", "file.qir")

	got, err := RelativePath(target, baseDir)
	if err != nil {
		t.Fatalf("RelativePath returned error: %v", err)
	}
	if want := normalizePath(target); got != want {
		t.Fatalf("expected absolute fallback %q, got %q", want, got)
	}
}

func TestRelativePathInsideBaseStaysRelative(t *testing.T) {
	tmp := t.TempDir()
	target := filepath.Join(tmp, "nested", "file.qir")

	got, err := RelativePath(target, tmp)
	if err != nil {
		t.Fatalf("RelativePath returned error: %v", err)
	}
	if want := "nested/file.qir"; got != want {
		t.Fatalf("expected relative path %q, got %q", want, got)
	}
}

package diagfmt

import (
	"bytes"
	"strings"
	"testing"

	"qir/internal/diag"
	"qir/internal/source"
)

const kernel = "func @f() {\n  gate cx %a, %a\n}\n"

func kernelBag(t *testing.T, path string) (*source.FileSet, *diag.Bag) {
	t.Helper()
	fs := source.NewFileSet()
	id := fs.AddVirtual(path, []byte(kernel))
	bag := diag.NewBag(10)
	d := diag.New(diag.SevError, diag.NclMustClone, source.Span{File: id, Start: 14, End: 28},
		"@f: cx uses qubit q0 more than once")
	bag.Add(d.WithNote(source.Span{File: id, Start: 22, End: 24}, "first use"))
	return fs, bag
}

func TestPrettyLayout(t *testing.T) {
	fs, bag := kernelBag(t, "k.qir")
	var buf bytes.Buffer
	Pretty(&buf, bag, fs, PrettyOpts{ShowNotes: true})

	want := "k.qir:2:3: ERROR NCL4001: @f: cx uses qubit q0 more than once\n" +
		"2 |   gate cx %a, %a\n" +
		"  |   ^~~~~~~~~~~~~\n" +
		"  note: k.qir:2:11: first use\n"
	if got := buf.String(); got != want {
		t.Fatalf("got:\n%s\nwant:\n%s", got, want)
	}
}

func TestPrettyContext(t *testing.T) {
	fs, bag := kernelBag(t, "k.qir")
	var buf bytes.Buffer
	Pretty(&buf, bag, fs, PrettyOpts{Context: 1})
	out := buf.String()
	for _, want := range []string{"1 | func @f() {", "3 | }"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}
	if strings.Contains(out, "note:") {
		t.Errorf("notes printed without ShowNotes:\n%s", out)
	}
}

func TestPrettyColor(t *testing.T) {
	fs, bag := kernelBag(t, "k.qir")
	var plain, colored bytes.Buffer
	Pretty(&plain, bag, fs, PrettyOpts{})
	Pretty(&colored, bag, fs, PrettyOpts{Color: true})
	if strings.Contains(plain.String(), "\x1b[") {
		t.Fatalf("escape codes without color")
	}
	if !strings.Contains(colored.String(), "\x1b[") {
		t.Fatalf("no escape codes with color")
	}
}

func TestPrettyUnresolvedSpan(t *testing.T) {
	fs := source.NewFileSet()
	bag := diag.NewBag(1)
	bag.Add(diag.New(diag.SevWarning, diag.IOLoadFileError, source.Span{File: 7}, "failed to load file"))
	var buf bytes.Buffer
	Pretty(&buf, bag, fs, PrettyOpts{})
	if got, want := buf.String(), "WARNING IO7001: failed to load file\n"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestPathModes(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		mode     PathMode
		contains string
	}{
		{"absolute", "/home/user/project/src/k.qir", PathModeAbsolute, "/home/user/project/src/k.qir:2:3"},
		{"relative", "/home/user/project/src/k.qir", PathModeRelative, "src/k.qir:2:3"},
		{"basename", "/home/user/project/src/k.qir", PathModeBasename, "\nk.qir:2:3"},
		{"auto short", "k.qir", PathModeAuto, "k.qir:2:3"},
		{"auto long", "/very/long/absolute/path/to/some/nested/directory/k.qir", PathModeAuto, "\nk.qir:2:3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs, bag := kernelBag(t, tt.path)
			fs.SetBaseDir("/home/user/project")
			var buf bytes.Buffer
			buf.WriteByte('\n')
			Pretty(&buf, bag, fs, PrettyOpts{PathMode: tt.mode})
			if !strings.Contains(buf.String(), tt.contains) {
				t.Errorf("expected %q in:\n%s", tt.contains, buf.String())
			}
		})
	}
}

func TestUnderline(t *testing.T) {
	tests := []struct {
		line     string
		from, to int
		pad      string
		width    int
	}{
		{"  ab", 2, 4, "  ", 2},
		{"日本x", 6, 7, "    ", 1},
		{"\tx", 1, 2, "\t", 1},
		{"ab", 5, 9, "  ", 1},
		{"abc", 1, 1, " ", 1},
	}
	for _, tt := range tests {
		pad, width := underline(tt.line, tt.from, tt.to)
		if pad != tt.pad || width != tt.width {
			t.Errorf("underline(%q, %d, %d) = %q, %d; want %q, %d", tt.line, tt.from, tt.to, pad, width, tt.pad, tt.width)
		}
	}
}

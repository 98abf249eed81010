package fuzztests

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"
)

const (
	maxSeedBytes = 64 << 10
	maxFuzzInput = 1 << 16
)

// inlineSeeds cover shapes that testdata does not: syntax errors, recursion
// and symbolic indices.
var inlineSeeds = []string{
	"",
	"func @main() {\n  return\n}\n",
	"func @main() {\n  %x = frob\n  return\n}\n",
	"func @main() {\n  return\n",
	"func @f(%r) {\n  %x = call @f(%r)\n  return %x\n}\nfunc @main() {\n  %n = const 1\n  %q = qalloc %n\n  %y = call @f(%q)\n  return\n}\n",
	"func @main(%i) {\n  %n = const 4\n  %q = qalloc %n\n  %a = index %q, %i\n  %z = const 0\n  %b = index %q, %z\n  gate cx %a, %b\n  return\n}\n",
	"func @main() {\n  %n = const -1\n  %q = qalloc %n\n  return\n}\n",
}

func addCorpusSeeds(f *testing.F) {
	addTestdataSeeds(f)
	for _, s := range inlineSeeds {
		f.Add([]byte(s))
	}
}

func addTestdataSeeds(f *testing.F) {
	root := filepath.Join("..", "..", "testdata")
	if _, err := os.Stat(root); err != nil {
		return
	}
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil || d.IsDir() || filepath.Ext(path) != ".qir" {
			return nil
		}
		// #nosec G304 -- path comes from repository testdata walk
		src, err := os.ReadFile(path)
		if err != nil {
			return nil
		}
		f.Add(clampSeed(src))
		return nil
	})
}

func clampSeed(src []byte) []byte {
	if len(src) <= maxSeedBytes {
		return append([]byte(nil), src...)
	}
	return append([]byte(nil), src[:maxSeedBytes]...)
}

func clampInput(input []byte) []byte {
	if len(input) > maxFuzzInput {
		return append([]byte(nil), input[:maxFuzzInput]...)
	}
	return append([]byte(nil), input...)
}

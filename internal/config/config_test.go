package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"qir/internal/config"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
}

func TestDiscoverWalksUp(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, config.FileName), `
[analysis]
strict = true
entry = "@kernel"

[nocloning]
mode = "flat"
`)
	target := filepath.Join(root, "src", "deep", "k.qir")
	writeFile(t, target, "")

	cfg, err := config.Discover(target)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Root != root {
		t.Errorf("Root = %q, want %q", cfg.Root, root)
	}
	if !cfg.Analysis.Strict || cfg.Analysis.Entry != "kernel" || cfg.NoCloning.Mode != "flat" {
		t.Errorf("unexpected config %+v", cfg)
	}
	if cfg.Analysis.MaxCallDepth != 64 || cfg.Output.Format != "pretty" {
		t.Errorf("defaults not kept: %+v", cfg)
	}
}

func TestDiscoverWithoutFile(t *testing.T) {
	cfg, err := config.Discover(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Path != "" || cfg.NoCloning.Mode != "symbolic" {
		t.Fatalf("expected defaults, got %+v", cfg)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	tests := map[string]string{
		"bad mode":    "[nocloning]\nmode = \"exact\"\n",
		"bad format":  "[output]\nformat = \"xml\"\n",
		"negative":    "[analysis]\nmax_call_depth = -1\n",
		"unknown key": "[analysis]\nstrictness = true\n",
		"constraint":  "[tool]\nrequires = \"banana\"\n",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), config.FileName)
			writeFile(t, path, content)
			if _, err := config.Load(path); !errors.Is(err, config.ErrInvalid) {
				t.Fatalf("err = %v, want ErrInvalid", err)
			}
		})
	}
}

func TestCheckVersion(t *testing.T) {
	cfg := config.Default()
	if err := cfg.CheckVersion("0.1.0"); err != nil {
		t.Fatalf("empty requirement rejected: %v", err)
	}
	cfg.Tool.Requires = ">= 0.2, < 1.0"
	if err := cfg.CheckVersion("0.3.1"); err != nil {
		t.Fatalf("0.3.1 rejected: %v", err)
	}
	if err := cfg.CheckVersion("0.1.0"); !errors.Is(err, config.ErrVersionMismatch) {
		t.Fatalf("err = %v, want ErrVersionMismatch", err)
	}
	if err := cfg.CheckVersion("not-a-version"); err == nil || errors.Is(err, config.ErrVersionMismatch) {
		t.Fatalf("unparsable version must fail differently, got %v", err)
	}
}

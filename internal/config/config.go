// Package config loads qir.toml project configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/Masterminds/semver/v3"
)

// FileName is the configuration file looked up from the target upwards.
const FileName = "qir.toml"

var (
	// ErrInvalid wraps every validation failure of a loaded file.
	ErrInvalid = errors.New("invalid configuration")
	// ErrVersionMismatch is returned when [tool].requires rejects the
	// running version.
	ErrVersionMismatch = errors.New("tool version does not satisfy requirement")
)

type Config struct {
	// Path is the file the configuration came from; empty for defaults.
	Path string `toml:"-"`
	// Root is the directory holding Path.
	Root string `toml:"-"`

	Analysis  Analysis  `toml:"analysis"`
	NoCloning NoCloning `toml:"nocloning"`
	Output    Output    `toml:"output"`
	Tool      Tool      `toml:"tool"`
}

type Analysis struct {
	Strict       bool   `toml:"strict"`
	MaxCallDepth int    `toml:"max_call_depth"`
	Entry        string `toml:"entry"`
}

type NoCloning struct {
	Mode       string `toml:"mode"`
	MayAsError bool   `toml:"may_as_error"`
}

type Output struct {
	Format         string `toml:"format"`
	MaxDiagnostics int    `toml:"max_diagnostics"`
}

type Tool struct {
	Requires string `toml:"requires"`
}

// Default returns the configuration used when no qir.toml exists.
func Default() *Config {
	return &Config{
		Analysis:  Analysis{MaxCallDepth: 64},
		NoCloning: NoCloning{Mode: "symbolic"},
		Output:    Output{Format: "pretty", MaxDiagnostics: 100},
	}
}

// Find walks up from start looking for qir.toml. start may be a file.
func Find(start string) (string, bool, error) {
	if start == "" {
		start = "."
	}
	dir, err := filepath.Abs(start)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	if info, err := os.Stat(dir); err == nil && !info.IsDir() {
		dir = filepath.Dir(dir)
	}
	for {
		candidate := filepath.Join(dir, FileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// Discover loads the qir.toml governing start, or the defaults when there
// is none.
func Discover(start string) (*Config, error) {
	path, ok, err := Find(start)
	if err != nil {
		return nil, err
	}
	if !ok {
		return Default(), nil
	}
	return Load(path)
}

// Load decodes path over the defaults and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()
	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("%s: unknown keys %s: %w", path, strings.Join(keys, ", "), ErrInvalid)
	}
	if meta.IsDefined("analysis", "entry") {
		cfg.Analysis.Entry = strings.TrimPrefix(strings.TrimSpace(cfg.Analysis.Entry), "@")
	}
	cfg.Path = path
	cfg.Root = filepath.Dir(path)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks enumerated values and bounds.
func (c *Config) Validate() error {
	var errs []error
	switch c.NoCloning.Mode {
	case "flat", "symbolic":
	default:
		errs = append(errs, fmt.Errorf("[nocloning].mode must be flat or symbolic, got %q", c.NoCloning.Mode))
	}
	switch c.Output.Format {
	case "pretty", "short", "json":
	default:
		errs = append(errs, fmt.Errorf("[output].format must be pretty, short or json, got %q", c.Output.Format))
	}
	if c.Analysis.MaxCallDepth < 0 {
		errs = append(errs, errors.New("[analysis].max_call_depth must not be negative"))
	}
	if c.Output.MaxDiagnostics < 0 {
		errs = append(errs, errors.New("[output].max_diagnostics must not be negative"))
	}
	if c.Tool.Requires != "" {
		if _, err := semver.NewConstraint(c.Tool.Requires); err != nil {
			errs = append(errs, fmt.Errorf("[tool].requires: %w", err))
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
}

// CheckVersion reports whether version satisfies [tool].requires. An empty
// requirement accepts every version.
func (c *Config) CheckVersion(version string) error {
	if strings.TrimSpace(c.Tool.Requires) == "" {
		return nil
	}
	constraint, err := semver.NewConstraint(c.Tool.Requires)
	if err != nil {
		return fmt.Errorf("[tool].requires: %w", err)
	}
	v, err := semver.NewVersion(version)
	if err != nil {
		return fmt.Errorf("tool version %q: %w", version, err)
	}
	if ok, reasons := constraint.Validate(v); !ok {
		msgs := make([]string, len(reasons))
		for i, r := range reasons {
			msgs[i] = r.Error()
		}
		return fmt.Errorf("%s (%s): %w", version, strings.Join(msgs, "; "), ErrVersionMismatch)
	}
	return nil
}

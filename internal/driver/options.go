package driver

import (
	"fmt"

	"qir/internal/address"
	"qir/internal/cache"
	"qir/internal/config"
	"qir/internal/version"
)

// Mode selects the no-cloning checker.
type Mode string

const (
	ModeFlat     Mode = "flat"
	ModeSymbolic Mode = "symbolic"
)

func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeFlat, ModeSymbolic:
		return Mode(s), nil
	}
	return "", fmt.Errorf("invalid mode %q (expected: flat|symbolic)", s)
}

type Options struct {
	Mode         Mode
	Strict       bool
	MayAsError   bool
	MaxCallDepth int
	// Entry names the function to analyze; empty means @main or every
	// function no other function calls.
	Entry string

	// NoCheck skips the no-cloning pass.
	NoCheck bool
	// Schedule builds dependency DAGs for every analyzed function.
	Schedule bool

	MaxDiagnostics int
	Jobs           int
	Timings        bool

	// Cache skips files whose last clean run is recorded. Nil disables it.
	Cache *cache.Disk
	// Events receives progress updates when non-nil. The driver never
	// closes it.
	Events chan<- Event
}

// FromConfig derives options from a loaded qir.toml.
func FromConfig(cfg *config.Config) Options {
	mode := Mode(cfg.NoCloning.Mode)
	if mode == "" {
		mode = ModeSymbolic
	}
	return Options{
		Mode:           mode,
		Strict:         cfg.Analysis.Strict,
		MayAsError:     cfg.NoCloning.MayAsError,
		MaxCallDepth:   cfg.Analysis.MaxCallDepth,
		Entry:          cfg.Analysis.Entry,
		MaxDiagnostics: cfg.Output.MaxDiagnostics,
	}
}

func (o *Options) maxDiagnostics() int {
	if o.MaxDiagnostics <= 0 {
		return 100
	}
	return o.MaxDiagnostics
}

func (o *Options) addressOptions() address.Options {
	return address.Options{Strict: o.Strict, MaxCallDepth: o.MaxCallDepth}
}

// cacheOptions lists everything besides content that changes a result.
func (o *Options) cacheOptions() string {
	return fmt.Sprintf("v=%s mode=%s strict=%t may=%t depth=%d entry=%s nocheck=%t",
		version.Version, o.Mode, o.Strict, o.MayAsError, o.MaxCallDepth, o.Entry, o.NoCheck)
}

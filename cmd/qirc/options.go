package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"qir/internal/cache"
	"qir/internal/config"
	"qir/internal/diag"
	"qir/internal/driver"
	"qir/internal/version"
)

// addAnalysisFlags registers the flags shared by commands that analyze.
// Each one overrides qir.toml only when set explicitly.
func addAnalysisFlags(cmd *cobra.Command) {
	cmd.Flags().String("mode", "symbolic", "no-cloning checker (flat|symbolic)")
	cmd.Flags().Bool("strict", false, "treat resolution failures as errors")
	cmd.Flags().Bool("may-as-error", false, "report possible clones as errors")
	cmd.Flags().String("entry", "", "function to analyze from (default: @main or every uncalled function)")
	cmd.Flags().Int("max-call-depth", 64, "bound on nested call analysis")
	cmd.Flags().String("format", "pretty", "diagnostic format (pretty|short|json|sarif)")
	cmd.Flags().Bool("with-notes", false, "include diagnostic notes")
	cmd.Flags().Bool("fullpath", false, "emit absolute file paths")
}

// loadConfig reads the --config file, or the qir.toml governing target, and
// checks its version requirement.
func loadConfig(cmd *cobra.Command, target string) (*config.Config, error) {
	path, err := cmd.Root().PersistentFlags().GetString("config")
	if err != nil {
		return nil, err
	}
	var cfg *config.Config
	if path != "" {
		cfg, err = config.Load(path)
	} else {
		cfg, err = config.Discover(target)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", diag.ProjConfigInvalid.ID(), err)
	}
	if err := cfg.CheckVersion(version.Version); err != nil {
		return nil, fmt.Errorf("%s: %w", diag.ProjVersionMismatch.ID(), err)
	}
	return cfg, nil
}

type runSettings struct {
	opts      driver.Options
	format    string
	withNotes bool
	fullPath  bool
	quiet     bool
}

// resolveSettings merges the configuration with explicitly set flags.
func resolveSettings(cmd *cobra.Command, cfg *config.Config) (runSettings, error) {
	s := runSettings{opts: driver.FromConfig(cfg), format: cfg.Output.Format}
	flags := cmd.Flags()
	root := cmd.Root().PersistentFlags()
	var errs []error
	get := func(err error) {
		if err != nil {
			errs = append(errs, err)
		}
	}

	if flags.Lookup("mode") != nil {
		if flags.Changed("mode") {
			raw, err := flags.GetString("mode")
			get(err)
			mode, err := driver.ParseMode(raw)
			get(err)
			s.opts.Mode = mode
		}
		if flags.Changed("strict") {
			v, err := flags.GetBool("strict")
			get(err)
			s.opts.Strict = v
		}
		if flags.Changed("may-as-error") {
			v, err := flags.GetBool("may-as-error")
			get(err)
			s.opts.MayAsError = v
		}
		if flags.Changed("entry") {
			v, err := flags.GetString("entry")
			get(err)
			s.opts.Entry = trimSigil(v)
		}
		if flags.Changed("max-call-depth") {
			v, err := flags.GetInt("max-call-depth")
			get(err)
			s.opts.MaxCallDepth = v
		}
		if flags.Changed("format") {
			v, err := flags.GetString("format")
			get(err)
			s.format = v
		}
		var err error
		s.withNotes, err = flags.GetBool("with-notes")
		get(err)
		s.fullPath, err = flags.GetBool("fullpath")
		get(err)
	}

	if flags.Changed("max-diagnostics") {
		v, err := root.GetInt("max-diagnostics")
		get(err)
		s.opts.MaxDiagnostics = v
	}
	var err error
	s.opts.Jobs, err = root.GetInt("jobs")
	get(err)
	s.opts.Timings, err = root.GetBool("timings")
	get(err)
	s.quiet, err = root.GetBool("quiet")
	get(err)

	useCache, err := root.GetBool("cache")
	get(err)
	if useCache {
		dir, err := cache.DefaultDir("qir")
		get(err)
		if err == nil {
			s.opts.Cache, err = cache.Open(dir)
			get(err)
		}
	}

	switch s.format {
	case "pretty", "short", "json", "sarif":
	default:
		errs = append(errs, fmt.Errorf("unknown format %q (expected pretty|short|json|sarif)", s.format))
	}
	return s, errors.Join(errs...)
}

func trimSigil(name string) string {
	if len(name) > 0 && name[0] == '@' {
		return name[1:]
	}
	return name
}

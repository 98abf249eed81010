package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"qir/internal/driver"
	"qir/internal/source"
)

func newCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check [flags] <file.qir|directory>",
		Short: "Check gates for cloned qubits",
		Long:  `Resolve qubit addresses and report gates whose operands may or must denote the same qubit. Exits non-zero when errors are found.`,
		Args:  cobra.ExactArgs(1),
		RunE:  runCheck,
	}
	addAnalysisFlags(cmd)
	return cmd
}

func runCheck(cmd *cobra.Command, args []string) error {
	defer dumpTraceOnPanic(cmd)
	failed, err := checkOnce(cmd, args[0], true)
	if err != nil {
		return err
	}
	if failed {
		return errReported
	}
	return nil
}

// checkOnce runs one full check of target and prints the results. It
// reports whether any error diagnostic was produced.
func checkOnce(cmd *cobra.Command, target string, allowUI bool) (bool, error) {
	cfg, err := loadConfig(cmd, target)
	if err != nil {
		return false, err
	}
	s, err := resolveSettings(cmd, cfg)
	if err != nil {
		return false, err
	}
	title := ""
	if allowUI && !s.quiet && s.format == "pretty" {
		title = "qirc check"
	}
	fs, results, err := analyzeTarget(cmd, target, s.opts, title)
	if err != nil {
		return false, err
	}
	if err := renderDiagnostics(cmd.OutOrStdout(), fs, results, s, os.Args); err != nil {
		return false, fmt.Errorf("failed to format diagnostics: %w", err)
	}
	t := sumResults(results)
	if !s.quiet && (s.format == "pretty" || s.format == "short") {
		printSummary(cmd.ErrOrStderr(), t)
	}
	return t.errors > 0, nil
}

// analyzeTarget runs the driver on a file or a directory. A non-empty title
// enables the progress view for directories when --ui allows it.
func analyzeTarget(cmd *cobra.Command, target string, opts driver.Options, title string) (*source.FileSet, []*driver.Result, error) {
	info, err := os.Stat(target)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to stat path: %w", err)
	}
	ctx := cmd.Context()
	if !info.IsDir() {
		fs, res, err := driver.AnalyzeFile(ctx, target, opts)
		if err != nil {
			return fs, nil, err
		}
		return fs, []*driver.Result{res}, nil
	}

	rawUI, err := cmd.Root().PersistentFlags().GetString("ui")
	if err != nil {
		return nil, nil, err
	}
	mode, err := readUIMode(rawUI)
	if err != nil {
		return nil, nil, err
	}
	if title != "" && shouldUseTUI(mode) {
		return analyzeDirWithUI(ctx, title, target, opts)
	}
	return driver.AnalyzeDir(ctx, target, opts)
}

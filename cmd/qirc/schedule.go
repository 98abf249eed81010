package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"qir/internal/diagfmt"
)

func newScheduleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schedule [flags] <file.qir|directory>",
		Short: "Print the dependency segments of every block",
		Args:  cobra.ExactArgs(1),
		RunE:  runSchedule,
	}
	addAnalysisFlags(cmd)
	return cmd
}

func runSchedule(cmd *cobra.Command, args []string) error {
	defer dumpTraceOnPanic(cmd)
	cfg, err := loadConfig(cmd, args[0])
	if err != nil {
		return err
	}
	s, err := resolveSettings(cmd, cfg)
	if err != nil {
		return err
	}
	s.opts.NoCheck = true
	s.opts.Schedule = true
	s.opts.Cache = nil

	fs, results, err := analyzeTarget(cmd, args[0], s.opts, "")
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	dump := diagfmt.DumpOpts{Color: colorOn(out)}
	for i, r := range results {
		if len(results) > 1 {
			if i > 0 {
				fmt.Fprintln(out)
			}
			fmt.Fprintf(out, "== %s ==\n", r.Path)
		}
		for _, fr := range r.Funcs {
			if fr.Schedule == nil {
				continue
			}
			if err := diagfmt.Schedule(out, r.Program, fr.Schedule, dump); err != nil {
				return err
			}
		}
	}

	if err := renderDiagnostics(cmd.ErrOrStderr(), fs, results, s, os.Args); err != nil {
		return fmt.Errorf("failed to format diagnostics: %w", err)
	}
	if sumResults(results).errors > 0 {
		return errReported
	}
	return nil
}

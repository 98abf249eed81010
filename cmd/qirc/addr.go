package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"qir/internal/diagfmt"
)

func newAddrCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "addr [flags] <file.qir|directory>",
		Short: "Print the qubit address of every value",
		Args:  cobra.ExactArgs(1),
		RunE:  runAddr,
	}
	addAnalysisFlags(cmd)
	cmd.Flags().Bool("all", false, "also list values that are not qubits")
	return cmd
}

func runAddr(cmd *cobra.Command, args []string) error {
	defer dumpTraceOnPanic(cmd)
	cfg, err := loadConfig(cmd, args[0])
	if err != nil {
		return err
	}
	s, err := resolveSettings(cmd, cfg)
	if err != nil {
		return err
	}
	all, err := cmd.Flags().GetBool("all")
	if err != nil {
		return err
	}
	s.opts.NoCheck = true
	s.opts.Cache = nil

	fs, results, err := analyzeTarget(cmd, args[0], s.opts, "")
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	dump := diagfmt.DumpOpts{Color: colorOn(out), All: all}
	for i, r := range results {
		if len(results) > 1 {
			if i > 0 {
				fmt.Fprintln(out)
			}
			fmt.Fprintf(out, "== %s ==\n", r.Path)
		}
		for _, a := range r.Analyses {
			if a.Addresses == nil {
				continue
			}
			if err := diagfmt.AddressSummary(out, a.Entry, a.Addresses); err != nil {
				return err
			}
			for _, id := range a.Addresses.Funcs() {
				if err := diagfmt.AddressMap(out, r.Program.Func(id), a.Addresses, dump); err != nil {
					return err
				}
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

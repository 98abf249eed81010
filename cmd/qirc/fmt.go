package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"qir/internal/diagfmt"
	"qir/internal/driver"
	"qir/internal/source"
)

func newFmtCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fmt [flags] <path> [path...]",
		Short: "Print .qir files in canonical form",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runFmt,
	}
	cmd.Flags().Bool("check", false, "list files that are not formatted and fail")
	cmd.Flags().String("format", "text", "output format (text|json)")
	cmd.Flags().Bool("stdout", false, "print formatted code to stdout instead of rewriting files")
	return cmd
}

func runFmt(cmd *cobra.Command, args []string) error {
	check, err := cmd.Flags().GetBool("check")
	if err != nil {
		return err
	}
	outputFormat, err := cmd.Flags().GetString("format")
	if err != nil {
		return err
	}
	writeToStdout, err := cmd.Flags().GetBool("stdout")
	if err != nil {
		return err
	}
	if writeToStdout && check {
		return errors.New("fmt: --stdout cannot be used with --check")
	}
	if writeToStdout && outputFormat != "text" {
		return errors.New("fmt: --stdout is only supported with text output")
	}
	maxDiagnostics, err := cmd.Root().PersistentFlags().GetInt("max-diagnostics")
	if err != nil {
		return err
	}
	quiet, err := cmd.Root().PersistentFlags().GetBool("quiet")
	if err != nil {
		return err
	}

	fs := source.NewFileSet()
	results, err := driver.FormatPaths(cmd.Context(), fs, args, driver.FormatOptions{
		Check:          check,
		MaxDiagnostics: maxDiagnostics,
		Stdout:         writeToStdout,
	})
	if err != nil {
		return err
	}

	out, errOut := cmd.OutOrStdout(), cmd.ErrOrStderr()
	var hasErrors, hasChanges bool
	switch outputFormat {
	case "text":
		for _, res := range results {
			if res.Err != nil {
				hasErrors = true
				reportFmtError(errOut, fs, res)
				continue
			}
			switch {
			case writeToStdout:
				if _, err := out.Write(res.Formatted); err != nil {
					return err
				}
			case check && res.Changed:
				hasChanges = true
				if !quiet {
					fmt.Fprintln(out, res.Path)
				}
			case res.Changed && !quiet:
				fmt.Fprintf(out, "reformatted %s\n", res.Path)
			}
		}
	case "json":
		if err := renderFmtJSON(out, results, check); err != nil {
			return err
		}
		for _, res := range results {
			hasErrors = hasErrors || res.Err != nil
			hasChanges = hasChanges || res.Changed
		}
	default:
		return fmt.Errorf("fmt: unsupported output format %q", outputFormat)
	}

	if hasErrors {
		return errors.New("fmt: failed to format some files")
	}
	if check && hasChanges {
		return errors.New("fmt: formatting changes required")
	}
	return nil
}

func reportFmtError(w io.Writer, fs *source.FileSet, res driver.FormatResult) {
	if res.Bag != nil && res.Bag.Len() > 0 {
		diagfmt.Pretty(w, res.Bag, fs, diagfmt.PrettyOpts{Color: colorOn(w)})
		return
	}
	fmt.Fprintf(w, "fmt: %s: %v\n", res.Path, res.Err)
}

func renderFmtJSON(w io.Writer, results []driver.FormatResult, check bool) error {
	type jsonResult struct {
		Path     string `json:"path"`
		Changed  bool   `json:"changed"`
		Error    string `json:"error,omitempty"`
		CheckRun bool   `json:"check"`
	}
	payload := make([]jsonResult, 0, len(results))
	for _, res := range results {
		jr := jsonResult{Path: res.Path, Changed: res.Changed, CheckRun: check}
		if res.Err != nil {
			jr.Error = res.Err.Error()
		}
		payload = append(payload, jr)
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(payload)
}

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"qir/internal/version"
)

// errReported is returned by commands whose failure was already printed,
// so main only sets the exit code.
var errReported = errors.New("reported")

// newRootCmd builds the command tree. finish stops the tracer and the
// profilers; cobra skips post-run hooks when a command fails, so the caller
// runs it after Execute.
func newRootCmd() (root *cobra.Command, finish func()) {
	var cleanups []func()
	finish = func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
		cleanups = nil
	}
	root = &cobra.Command{
		Use:           "qirc",
		Short:         "Qubit identity analyses for quantum circuit IR",
		Long:          `qirc resolves which physical qubits IR values denote, checks gates for cloned qubits and builds per-block dependency schedules`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			colorFlag, err := cmd.Root().PersistentFlags().GetString("color")
			if err != nil {
				return err
			}
			useColor, err := colorEnabled(colorFlag)
			if err != nil {
				return err
			}
			color.NoColor = !useColor

			stopProfiles, err := setupProfiling(cmd)
			if err != nil {
				return err
			}
			cleanups = append(cleanups, stopProfiles)
			stopTrace, err := setupTracing(cmd)
			if err != nil {
				return err
			}
			cleanups = append(cleanups, stopTrace)
			return nil
		},
	}

	root.AddCommand(newAddrCmd())
	root.AddCommand(newCheckCmd())
	root.AddCommand(newScheduleCmd())
	root.AddCommand(newFmtCmd())
	root.AddCommand(newWatchCmd())
	root.AddCommand(newVersionCmd())

	flags := root.PersistentFlags()
	flags.String("color", "auto", "colorize output (auto|on|off)")
	flags.Bool("quiet", false, "suppress non-essential output")
	flags.Bool("timings", false, "show timing information")
	flags.Int("max-diagnostics", 100, "maximum number of diagnostics per file")
	flags.String("config", "", "path to qir.toml (default: discovered from the target upwards)")
	flags.Int("jobs", 0, "max parallel workers for directories (0=auto)")
	flags.String("ui", "auto", "progress UI for directories (auto|on|off)")
	flags.Bool("cache", false, "skip files whose last clean result is cached")
	flags.String("trace", "", "trace output file (- for stderr)")
	flags.String("trace-level", "off", "trace level (off|error|phase|detail|debug)")
	flags.String("trace-mode", "stream", "trace storage (stream|ring|both)")
	flags.Int("trace-ring-size", 4096, "events kept by the ring tracer")
	flags.Duration("trace-heartbeat", 0, "emit a heartbeat event at this interval (0 disables)")
	flags.String("cpu-profile", "", "write a CPU profile to this file")
	flags.String("mem-profile", "", "write a heap profile to this file on exit")
	flags.String("runtime-trace", "", "write a Go runtime trace to this file")
	return root, finish
}

// main builds the CLI and exits with status 1 when a command fails.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	root, finish := newRootCmd()
	err := root.ExecuteContext(ctx)
	finish()
	stop()
	if err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintf(os.Stderr, "qirc: %v\n", err)
		}
		os.Exit(1)
	}
}

func colorEnabled(flag string) (bool, error) {
	switch flag {
	case "on":
		return true, nil
	case "off":
		return false, nil
	case "auto", "":
		return os.Getenv("NO_COLOR") == "" && isTerminal(os.Stdout), nil
	}
	return false, fmt.Errorf("invalid --color value %q (expected auto|on|off)", flag)
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

func toMillis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

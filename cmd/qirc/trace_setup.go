package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"qir/internal/trace"
)

// setupTracing inspects trace-related flags and attaches a tracer to the
// command context. It returns a cleanup function.
func setupTracing(cmd *cobra.Command) (func(), error) {
	root := cmd.Root()

	traceOutput, err := root.PersistentFlags().GetString("trace")
	if err != nil {
		return nil, fmt.Errorf("failed to get trace flag: %w", err)
	}
	levelStr, err := root.PersistentFlags().GetString("trace-level")
	if err != nil {
		return nil, fmt.Errorf("failed to get trace-level flag: %w", err)
	}
	modeStr, err := root.PersistentFlags().GetString("trace-mode")
	if err != nil {
		return nil, fmt.Errorf("failed to get trace-mode flag: %w", err)
	}
	ringSize, err := root.PersistentFlags().GetInt("trace-ring-size")
	if err != nil {
		return nil, fmt.Errorf("failed to get trace-ring-size flag: %w", err)
	}
	heartbeatInterval, err := root.PersistentFlags().GetDuration("trace-heartbeat")
	if err != nil {
		return nil, fmt.Errorf("failed to get trace-heartbeat flag: %w", err)
	}

	level, err := trace.ParseLevel(levelStr)
	if err != nil {
		return nil, fmt.Errorf("invalid trace level: %w", err)
	}
	// An output path alone turns tracing on at phase level.
	if level == trace.LevelOff && traceOutput != "" {
		level = trace.LevelPhase
	}
	if level == trace.LevelOff {
		cmd.SetContext(trace.WithTracer(cmd.Context(), trace.Nop))
		return func() {}, nil
	}

	mode, err := trace.ParseMode(modeStr)
	if err != nil {
		return nil, fmt.Errorf("invalid trace mode: %w", err)
	}
	tracer, err := trace.New(trace.Config{
		Level:      level,
		Mode:       mode,
		OutputPath: traceOutput,
		RingSize:   ringSize,
		Heartbeat:  heartbeatInterval,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create tracer: %w", err)
	}
	ctx := trace.WithTracer(cmd.Context(), tracer)
	cmd.SetContext(ctx)

	var heartbeat *trace.Heartbeat
	if heartbeatInterval > 0 {
		heartbeat = trace.StartHeartbeat(tracer, heartbeatInterval)
	}

	return func() {
		if heartbeat != nil {
			heartbeat.Stop()
		}
		if err := tracer.Flush(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "trace: flush error: %v\n", err)
		}
		if err := tracer.Close(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "trace: close error: %v\n", err)
		}
	}, nil
}

// dumpTraceOnPanic writes the ring buffer to stderr before re-panicking.
// Deferred at the top of commands that run analyses.
func dumpTraceOnPanic(cmd *cobra.Command) {
	r := recover()
	if r == nil {
		return
	}
	if ring, ok := trace.RingOf(trace.FromContext(cmd.Context())); ok {
		fmt.Fprintf(os.Stderr, "qirc: panic: %v; last trace events:\n", r)
		_ = ring.Dump(os.Stderr, trace.FormatText)
	}
	panic(r)
}

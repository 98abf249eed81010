package main

import (
	"context"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"qir/internal/driver"
	"qir/internal/source"
	"qir/internal/ui"
)

type dirOutcome struct {
	fs      *source.FileSet
	results []*driver.Result
	err     error
}

// analyzeDirWithUI runs driver.AnalyzeDir while a progress view renders
// its events on stderr.
func analyzeDirWithUI(ctx context.Context, title, dir string, opts driver.Options) (*source.FileSet, []*driver.Result, error) {
	files, err := driver.ListFiles(dir)
	if err != nil {
		return nil, nil, err
	}
	events := make(chan driver.Event, 256)
	outcomeCh := make(chan dirOutcome, 1)

	go func() {
		opts.Events = events
		fs, results, err := driver.AnalyzeDir(ctx, dir, opts)
		outcomeCh <- dirOutcome{fs: fs, results: results, err: err}
		close(events)
	}()

	model := ui.NewProgressModel(title, files, events)
	program := tea.NewProgram(model, tea.WithOutput(os.Stderr), tea.WithContext(ctx))
	_, uiErr := program.Run()
	// The view may quit early; keep the driver from blocking on sends.
	go func() {
		for range events {
		}
	}()
	outcome := <-outcomeCh
	if uiErr != nil && outcome.err == nil && ctx.Err() == nil {
		return outcome.fs, outcome.results, uiErr
	}
	return outcome.fs, outcome.results, outcome.err
}

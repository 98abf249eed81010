package main

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"qir/internal/config"
	"qir/internal/driver"
)

func newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch [flags] <directory>",
		Short: "Re-run check whenever a .qir file changes",
		Args:  cobra.ExactArgs(1),
		RunE:  runWatch,
	}
	addAnalysisFlags(cmd)
	cmd.Flags().Duration("debounce", 200*time.Millisecond, "quiet period before re-checking")
	return cmd
}

func runWatch(cmd *cobra.Command, args []string) error {
	dir := args[0]
	debounce, err := cmd.Flags().GetDuration("debounce")
	if err != nil {
		return err
	}
	if info, err := os.Stat(dir); err != nil {
		return fmt.Errorf("failed to stat path: %w", err)
	} else if !info.IsDir() {
		return fmt.Errorf("watch: %s is not a directory", dir)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	defer w.Close()
	if err := watchTree(w, dir); err != nil {
		return fmt.Errorf("watch: %w", err)
	}

	errOut := cmd.ErrOrStderr()
	rerun := func() {
		start := time.Now()
		status := "clean"
		failed, err := checkOnce(cmd, dir, false)
		switch {
		case err != nil:
			fmt.Fprintf(errOut, "watch: %v\n", err)
			status = "failed"
		case failed:
			status = "errors"
		}
		fmt.Fprintf(errOut, "watch: %s in %.1f ms, waiting for changes\n", status, toMillis(time.Since(start)))
	}
	rerun()

	ctx := cmd.Context()
	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					_ = watchTree(w, ev.Name)
				}
			}
			if !relevantChange(ev) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(debounce)
			} else {
				timer.Reset(debounce)
			}
			fire = timer.C
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(errOut, "watch: %v\n", err)
		case <-fire:
			fire = nil
			rerun()
		}
	}
}

// watchTree adds dir and every directory below it; fsnotify is not
// recursive.
func watchTree(w *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return w.Add(path)
	})
}

func relevantChange(ev fsnotify.Event) bool {
	if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}
	return strings.HasSuffix(ev.Name, driver.Ext) || filepath.Base(ev.Name) == config.FileName
}

package main

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	docfilter "github.com/halvar/go-docfilter"
)

// debounceDelay coalesces the bursts of write events editors emit when
// saving a file.
const debounceDelay = 200 * time.Millisecond

// watchAndRun filters the input once, then re-filters whenever it
// changes, until ctx is cancelled. The input's directory is watched
// rather than the file itself so editors that replace the file on save
// (write to temp, rename over) keep triggering events.
func watchAndRun(ctx context.Context, svc *docfilter.Service, f *cliFlags, logger *slog.Logger) error {
	if f.input == "" {
		return ErrNoInput
	}

	if err := runOnce(ctx, svc, f, logger); err != nil {
		// A failed pass in watch mode is reported, not fatal; the next
		// save may fix it.
		logger.Warn("filtering failed", slog.String("error", err.Error()))
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("starting watcher: %w", err)
	}
	defer func() { _ = w.Close() }()

	dir := filepath.Dir(f.input)
	if err := w.Add(dir); err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}
	logger.Info("watching", slog.String("file", f.input))

	target := filepath.Clean(f.input)

	var debounce *time.Timer
	var debounceCh <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			if debounce != nil {
				debounce.Stop()
			}
			logger.Info("watcher stopped")
			return nil

		case <-debounceCh:
			if err := runOnce(ctx, svc, f, logger); err != nil {
				logger.Warn("filtering failed", slog.String("error", err.Error()))
			} else {
				logger.Info("re-filtered", slog.String("file", f.input))
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if debounce == nil {
				debounce = time.NewTimer(debounceDelay)
				debounceCh = debounce.C
			} else {
				debounce.Reset(debounceDelay)
			}

		case werr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watcher error", slog.String("error", werr.Error()))
		}
	}
}

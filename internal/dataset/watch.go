package dataset

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watch calls fn after the local dataset at path is created, rewritten or
// renamed into place. Bursts of events within debounce collapse into one
// call. The parent directory is watched so editors that replace the file
// atomically are still seen. Watch blocks until ctx is done.
func Watch(ctx context.Context, path string, debounce time.Duration, logger *zap.Logger, fn func()) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	target := filepath.Clean(path)
	if err := w.Add(filepath.Dir(target)); err != nil {
		return err
	}

	var fire <-chan time.Time
	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
				continue
			}
			logger.Debug("dataset changed", zap.String("path", target), zap.Stringer("op", ev.Op))
			if timer != nil {
				timer.Stop()
			}
			timer = time.NewTimer(debounce)
			fire = timer.C

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("dataset watch error", zap.String("path", target), zap.Error(err))

		case <-fire:
			fire = nil
			fn()
		}
	}
}

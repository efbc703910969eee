// Package watch re-syncs content when Markdown sources change on disk.
package watch

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/coursepress/internal/apperr"
)

// DefaultDebounce is the quiet period after the last change before a sync.
const DefaultDebounce = 500 * time.Millisecond

// SyncFunc runs one sync.
type SyncFunc func(ctx context.Context) error

// Options tunes the watcher.
type Options struct {
	Extension string
	Debounce  time.Duration
}

// Watch starts an fsnotify watcher on root and calls sync once changes have
// settled, until ctx is cancelled. New directories are added to the watch
// list as they appear. A sync that collides with a running one is retried
// after another debounce period.
func Watch(ctx context.Context, root string, opts Options, sync SyncFunc, logger *slog.Logger) error {
	if opts.Extension == "" {
		opts.Extension = ".md"
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := addDirsRecursive(w, root); err != nil {
		return err
	}
	logger.Info("watcher: started", slog.String("root", root), slog.Duration("debounce", opts.Debounce))

	var timer *time.Timer
	var fire <-chan time.Time
	schedule := func() {
		if timer == nil {
			timer = time.NewTimer(opts.Debounce)
			fire = timer.C
			return
		}
		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(opts.Debounce)
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-fire:
			err := sync(ctx)
			switch {
			case errors.Is(err, apperr.ErrSyncInProgress):
				logger.Debug("watcher: sync busy, rescheduling")
				schedule()
			case err != nil:
				logger.Warn("watcher: sync failed", slog.String("error", err.Error()))
			default:
				logger.Debug("watcher: synced")
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(ev.Name); statErr == nil && info.IsDir() {
					if addErr := addDirsRecursive(w, ev.Name); addErr != nil {
						logger.Warn("watcher: add new dir failed",
							slog.String("path", ev.Name),
							slog.String("error", addErr.Error()))
					}
					// The directory may already hold sources.
					schedule()
					continue
				}
			}
			if !relevant(ev, opts.Extension) {
				continue
			}
			logger.Debug("watcher: change", slog.String("path", ev.Name), slog.String("op", ev.Op.String()))
			schedule()

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

func relevant(ev fsnotify.Event, ext string) bool {
	if !strings.HasSuffix(ev.Name, ext) || strings.HasPrefix(filepath.Base(ev.Name), ".") {
		return false
	}
	return ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) != 0
}

// addDirsRecursive adds root and all its subdirectories to the watcher.
func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.Add(path)
		}
		return nil
	})
}

package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/fragmentloader/internal/logfields"
)

const watchDebounce = 300 * time.Millisecond

// watchAndRun runs fn once, then again after every burst of changes under
// dir, until ctx is done. Failures of fn are logged, not returned.
func watchAndRun(ctx context.Context, dir string, fn func() error) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("fsnotify: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	if err := addDirsRecursive(watcher, dir); err != nil {
		return err
	}

	runLogged := func() {
		if err := fn(); err != nil {
			slog.Warn("Check failed", logfields.Error(err))
		}
	}
	runLogged()
	slog.Info("Watching for changes", logfields.Path(dir))

	rerun, trigger := newDebouncer(watchDebounce)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-rerun:
			runLogged()
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			handleFileEvent(watcher, ev, trigger)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("watcher error", logfields.Error(err))
		}
	}
}

// newDebouncer returns a channel that receives once per quiet period after
// one or more trigger calls.
func newDebouncer(wait time.Duration) (<-chan struct{}, func()) {
	var mu sync.Mutex
	var timer *time.Timer
	fire := make(chan struct{}, 1)

	trigger := func() {
		mu.Lock()
		defer mu.Unlock()
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(wait, func() {
			select {
			case fire <- struct{}{}:
			default:
			}
		})
	}
	return fire, trigger
}

func handleFileEvent(watcher *fsnotify.Watcher, ev fsnotify.Event, trigger func()) {
	if shouldIgnoreEvent(ev.Name) {
		return
	}
	if ev.Op&fsnotify.Create == fsnotify.Create {
		if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
			_ = addDirsRecursive(watcher, ev.Name)
		}
	}
	slog.Debug("File change detected", logfields.Path(ev.Name), logfields.Event(ev.Op.String()))
	trigger()
}

func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if err := w.Add(path); err != nil {
				slog.Warn("watch add failed", logfields.Path(path), logfields.Error(err))
			}
		}
		return nil
	})
}

// shouldIgnoreEvent reports hidden files and editor swap/backup files.
func shouldIgnoreEvent(path string) bool {
	base := filepath.Base(path)
	switch {
	case strings.HasPrefix(base, "."):
		return true
	case strings.HasSuffix(base, "~"), strings.HasSuffix(base, ".swp"), strings.HasSuffix(base, ".swx"):
		return true
	case strings.HasPrefix(base, "#") && strings.HasSuffix(base, "#"):
		return true
	}
	return false
}

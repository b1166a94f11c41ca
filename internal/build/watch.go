package build

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period after a change before a rebuild
// fires. Editors often produce bursts of write/rename events for one save.
const DefaultDebounce = 200 * time.Millisecond

// Watch watches a single source file and invokes rebuild after each change,
// debounced by the given interval. The watch runs until ctx is cancelled or
// the underlying watcher fails. The directory is watched rather than the
// file itself so that rename-based saves keep working.
func Watch(ctx context.Context, path string, debounce time.Duration, rebuild func()) error {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return err
	}

	timer := time.NewTimer(debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			timer.Reset(debounce)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return err
		case <-timer.C:
			rebuild()
		}
	}
}

package scan

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher re-runs a callback after file events under root settle. Events
// are debounced so a burst of writes (editor save, git checkout) triggers
// one re-scan, not dozens.
type Watcher struct {
	root         string
	watcher      *fsnotify.Watcher
	debounceTime time.Duration
	onChange     func()
}

// NewWatcher watches root recursively, skipping the same directories the
// scanner skips.
func NewWatcher(root string, onChange func()) (*Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		root:         root,
		watcher:      watcher,
		debounceTime: 500 * time.Millisecond,
		onChange:     onChange,
	}

	if err := w.addDirectoriesRecursively(root); err != nil {
		watcher.Close()
		return nil, err
	}

	return w, nil
}

func (w *Watcher) addDirectoriesRecursively(dir string) error {
	return filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			return nil
		}
		if path != w.root && SkipDirs[info.Name()] {
			return filepath.SkipDir
		}
		return w.watcher.Add(path)
	})
}

// Run blocks until the context is cancelled, invoking the callback after
// each debounced batch of relevant events.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	var debounceTimer *time.Timer

	for {
		var timerCh <-chan time.Time
		if debounceTimer != nil {
			timerCh = debounceTimer.C
		}

		select {
		case <-ctx.Done():
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			return ctx.Err()

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}
			// New directories need to be watched too.
			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					_ = w.addDirectoriesRecursively(event.Name)
				}
			}
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.NewTimer(w.debounceTime)

		case <-timerCh:
			debounceTimer = nil
			w.onChange()

		case _, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
		}
	}
}

// relevant filters events down to .py files and directory changes outside
// the skip list.
func (w *Watcher) relevant(event fsnotify.Event) bool {
	base := filepath.Base(event.Name)
	if SkipDirs[base] {
		return false
	}
	for _, part := range strings.Split(filepath.ToSlash(event.Name), "/") {
		if SkipDirs[part] {
			return false
		}
	}
	if strings.HasSuffix(event.Name, ".py") {
		return true
	}
	info, err := os.Stat(event.Name)
	return err == nil && info.IsDir()
}

// Package watcher monitors the notebook file and triggers a
// synchronization callback after each settled burst of writes.
package watcher

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// DefaultDebounceInterval batches rapid editor writes together.
const DefaultDebounceInterval = 2 * time.Second

// Watcher observes a single file through fsnotify. Editors commonly
// save by writing a temporary file and renaming it over the target,
// so the watch is placed on the parent directory and events are
// filtered by file name.
type Watcher struct {
	path     string
	debounce time.Duration
	onChange func(context.Context) error
	log      *logrus.Entry

	mu      sync.Mutex
	dirty   bool
	lastHit time.Time
}

// New creates a watcher for path. onChange runs after writes to the
// file have been quiet for the debounce interval.
func New(path string, debounce time.Duration, log *logrus.Logger, onChange func(context.Context) error) (*Watcher, error) {
	if path == "" {
		return nil, fmt.Errorf("watch path cannot be empty")
	}
	if onChange == nil {
		return nil, fmt.Errorf("change callback cannot be nil")
	}
	if debounce <= 0 {
		debounce = DefaultDebounceInterval
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving watch path: %w", err)
	}
	return &Watcher{
		path:     abs,
		debounce: debounce,
		onChange: onChange,
		log:      log.WithField("component", "watcher"),
	}, nil
}

// Run blocks until ctx is cancelled, invoking the callback once per
// settled burst of changes. Callback errors are logged and watching
// continues.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating file watcher: %w", err)
	}
	defer fw.Close()

	dir := filepath.Dir(w.path)
	if err := fw.Add(dir); err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}
	w.log.WithField("path", w.path).Info("watching notebook for changes")

	ticker := time.NewTicker(w.debounce / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}
			w.log.WithFields(logrus.Fields{"op": event.Op.String(), "file": event.Name}).Debug("file event")
			w.markDirty()

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.log.WithError(err).Warn("watch error")

		case <-ticker.C:
			if !w.takeSettled() {
				continue
			}
			if err := w.onChange(ctx); err != nil {
				w.log.WithError(err).Error("change handler failed")
			}
		}
	}
}

// relevant reports whether the event concerns the watched file.
func (w *Watcher) relevant(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
		return false
	}
	name, err := filepath.Abs(event.Name)
	if err != nil {
		return false
	}
	return name == w.path
}

func (w *Watcher) markDirty() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.dirty = true
	w.lastHit = time.Now()
}

// takeSettled reports whether a dirty burst has been quiet long enough
// to process, and clears the flag if so.
func (w *Watcher) takeSettled() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.dirty || time.Since(w.lastHit) < w.debounce {
		return false
	}
	w.dirty = false
	return true
}

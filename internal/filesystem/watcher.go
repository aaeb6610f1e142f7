package filesystem

import (
	"fmt"
	"sync"

	"thumbgrid/internal/logging"
	"thumbgrid/internal/metrics"

	"github.com/fsnotify/fsnotify"
)

// Watcher observes one folder at a time, the folder the grid is currently
// showing. Any mutation inside it invokes the invalidate callback; callers
// use it to clear the bitmap cache and refresh the listing.
type Watcher struct {
	watcher    *fsnotify.Watcher
	invalidate func(path string)

	mu  sync.Mutex
	dir string

	done chan struct{}
}

// NewWatcher creates a watcher delivering mutation paths to invalidate.
// The event loop starts immediately; close with Close.
func NewWatcher(invalidate func(path string)) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	w := &Watcher{
		watcher:    fsw,
		invalidate: invalidate,
		done:       make(chan struct{}),
	}
	go w.loop()
	return w, nil
}

// SetDir switches the watched folder. The previous folder, if any, stops
// being watched; events already in flight for it may still invalidate,
// which is harmless (a spurious cache clear, never a stale serve).
func (w *Watcher) SetDir(dir string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.dir == dir {
		return nil
	}
	if w.dir != "" {
		if err := w.watcher.Remove(w.dir); err != nil {
			logging.Debug("failed to unwatch %s: %v", w.dir, err)
		}
		w.dir = ""
	}
	if err := w.watcher.Add(dir); err != nil {
		metrics.WatcherErrorsTotal.Inc()
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	w.dir = dir
	logging.Debug("watching folder %s", dir)
	return nil
}

// Close stops the event loop and releases the watcher.
func (w *Watcher) Close() error {
	close(w.done)
	return w.watcher.Close()
}

func (w *Watcher) loop() {
	for {
		select {
		case <-w.done:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handle(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logging.Warn("file watcher error: %v", err)
			metrics.WatcherErrorsTotal.Inc()
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	metrics.WatcherEventsTotal.WithLabelValues(eventType(event.Op)).Inc()

	// Chmod alone cannot change pixels; everything else can.
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}

	logging.Debug("folder mutation: %s %s", eventType(event.Op), event.Name)
	if w.invalidate != nil {
		w.invalidate(event.Name)
	}
}

func eventType(op fsnotify.Op) string {
	switch {
	case op&fsnotify.Create != 0:
		return "create"
	case op&fsnotify.Write != 0:
		return "write"
	case op&fsnotify.Remove != 0:
		return "remove"
	case op&fsnotify.Rename != 0:
		return "rename"
	case op&fsnotify.Chmod != 0:
		return "chmod"
	default:
		return "unknown"
	}
}

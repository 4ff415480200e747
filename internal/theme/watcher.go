package theme

import (
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher watches a theme's directory and reloads the theme when any CSS
// file in it changes, since partials it imports live alongside it.
type Watcher struct {
	mu     sync.Mutex
	logger *slog.Logger

	// Theme being watched
	theme   *Theme
	watcher *fsnotify.Watcher

	debounce time.Duration
	pending  *time.Timer

	// Callback for changes
	onChangeCallback func(css string)

	done    chan struct{}
	running bool
}

// NewWatcher creates a new theme watcher.
func NewWatcher(theme *Theme, logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		logger:   logger,
		theme:    theme,
		debounce: 150 * time.Millisecond,
	}
}

// SetDebounce sets how long to wait after the last change before reloading.
func (w *Watcher) SetDebounce(d time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.debounce = d
}

// SetChangeCallback sets the callback to invoke when the theme changes.
// The callback receives the new CSS content.
func (w *Watcher) SetChangeCallback(callback func(css string)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onChangeCallback = callback
}

// Start begins watching the theme. Bundled themes have no files and are
// not watched.
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return nil
	}

	if w.theme == nil || w.theme.Bundled {
		w.logger.Debug("not watching bundled theme")
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(filepath.Dir(w.theme.Path)); err != nil {
		watcher.Close()
		return err
	}

	w.watcher = watcher
	w.done = make(chan struct{})
	w.running = true
	go w.watch(watcher, w.done)

	w.logger.Debug("theme watcher started", "path", w.theme.Path)
	return nil
}

// Stop stops watching the theme.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.running {
		return
	}
	w.running = false
	close(w.done)
	if w.pending != nil {
		w.pending.Stop()
	}
	_ = w.watcher.Close()
	w.logger.Debug("theme watcher stopped")
}

// IsRunning returns whether the watcher is currently running.
func (w *Watcher) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

func (w *Watcher) watch(watcher *fsnotify.Watcher, done chan struct{}) {
	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Ext(event.Name) != ".css" {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				w.schedule()
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("theme watcher error", "error", err)

		case <-done:
			return
		}
	}
}

func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.running {
		return
	}
	if w.pending != nil {
		w.pending.Stop()
	}
	w.pending = time.AfterFunc(w.debounce, w.reload)
}

// reload re-reads the theme and reports changed CSS.
func (w *Watcher) reload() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	theme := w.theme
	callback := w.onChangeCallback
	changed, err := theme.Reload()
	css := theme.CSS
	w.mu.Unlock()

	if err != nil {
		w.logger.Warn("failed to reload theme", "path", theme.Path, "error", err)
		return
	}
	if changed {
		w.logger.Info("theme file changed, reloading", "path", theme.Path)
		if callback != nil {
			callback(css)
		}
	}
}

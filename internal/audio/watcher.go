package audio

import (
	"log/slog"
	"os"
	"sync"
	"time"
)

// Watcher polls the chime file and drops it from the player's cache when it
// changes, so the next chime plays the new sound.
type Watcher struct {
	mu     sync.RWMutex
	logger *slog.Logger
	player *Player

	// Path being watched and its last modification time
	path    string
	modTime time.Time

	// Polling interval
	pollInterval time.Duration

	// Control channels
	stopCh chan struct{}
	doneCh chan struct{}

	running bool
}

// NewWatcher creates a new chime file watcher.
func NewWatcher(player *Player, logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}

	return &Watcher{
		logger:       logger,
		player:       player,
		pollInterval: 2 * time.Second,
	}
}

// SetPollInterval sets the polling interval for file changes.
func (w *Watcher) SetPollInterval(interval time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pollInterval = interval
}

// Watch replaces the watched path. The built-in chime has no file and is
// never watched.
func (w *Watcher) Watch(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.path = path
	w.modTime = time.Time{}
	if path == builtinChime {
		return
	}
	if info, err := os.Stat(path); err == nil {
		w.modTime = info.ModTime()
	}
}

// Unwatch stops watching path if it is the watched one.
func (w *Watcher) Unwatch(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.path == path {
		w.path = builtinChime
		w.modTime = time.Time{}
	}
}

// Start begins polling.
func (w *Watcher) Start() error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.stopCh = make(chan struct{})
	w.doneCh = make(chan struct{})
	interval := w.pollInterval
	w.mu.Unlock()

	go w.watchLoop(interval)
	return nil
}

// Stop stops polling.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	close(w.stopCh)
	w.mu.Unlock()

	// Wait for goroutine to finish
	<-w.doneCh
}

// watchLoop is the main polling loop.
func (w *Watcher) watchLoop(interval time.Duration) {
	defer close(w.doneCh)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.checkForChanges()
		}
	}
}

// checkForChanges reports whether the chime file changed and invalidates it.
func (w *Watcher) checkForChanges() bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.path == builtinChime {
		return false
	}

	info, err := os.Stat(w.path)
	if err != nil {
		return false
	}
	if !info.ModTime().After(w.modTime) {
		return false
	}

	w.modTime = info.ModTime()
	w.player.InvalidateCache(w.path)
	w.logger.Debug("chime file changed, cache invalidated", "path", w.path)
	return true
}

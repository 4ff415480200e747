package audio

import (
	"log/slog"
	"sync"
	"time"

	"github.com/jmylchreest/chatportraits/internal/config"
	"github.com/jmylchreest/chatportraits/internal/portrait"
)

// minGap is the shortest interval between two chimes. Portraits arriving in
// a burst share one chime.
const minGap = 150 * time.Millisecond

// Manager plays the chime when a portrait is shown.
type Manager struct {
	mu      sync.RWMutex
	logger  *slog.Logger
	player  *Player
	watcher *Watcher

	enabled bool
	chime   string // expanded path; empty plays the built-in chime

	play     func(path string) error
	preload  func(path string) error
	async    func(fn func())
	now      func() time.Time
	lastPlay time.Time
	onError  func(err error)
}

// NewManager creates a new audio manager.
func NewManager(cfg *config.DaemonConfig, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}

	player := NewPlayer(logger)
	m := &Manager{
		logger:  logger,
		player:  player,
		watcher: NewWatcher(player, logger),
		play:    player.Play,
		preload: player.Preload,
		async:   func(fn func()) { go fn() },
		now:     time.Now,
	}
	m.applyConfig(cfg)
	return m
}

// SetErrorHandler sets the callback for playback failures.
func (m *Manager) SetErrorHandler(fn func(err error)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onError = fn
}

// applyConfig loads audio settings from the configuration.
func (m *Manager) applyConfig(cfg *config.DaemonConfig) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.enabled = cfg.Audio.Enabled
	m.chime = cfg.ChimePath()
	// Config uses 0-100, player uses 0.0-1.0
	m.player.SetVolume(float64(cfg.Audio.Volume) / 100.0)
}

// Start preloads the chime and starts the file watcher.
func (m *Manager) Start() error {
	m.mu.RLock()
	enabled, chime := m.enabled, m.chime
	m.mu.RUnlock()

	if enabled {
		m.warm(chime)
	}
	m.watcher.Watch(chime)
	if err := m.watcher.Start(); err != nil {
		return err
	}

	m.logger.Info("audio manager started", "enabled", enabled, "chime", chimeName(chime))
	return nil
}

// Stop shuts down the audio manager.
func (m *Manager) Stop() {
	m.watcher.Stop()
	m.player.Close()
	m.logger.Debug("audio manager stopped")
}

// warm decodes chime into the player cache off the caller's goroutine.
func (m *Manager) warm(chime string) {
	preload := m.preload
	m.async(func() {
		if err := preload(chime); err != nil {
			m.logger.Warn("failed to preload chime", "path", chime, "error", err)
		}
	})
}

// OnShown plays the chime for a newly shown portrait. It is registered with
// portrait.Manager.OnShown and so runs on the portrait loop; decoding and
// playback happen off the loop.
func (m *Manager) OnShown(info portrait.ItemInfo) {
	m.mu.Lock()
	if !m.enabled {
		m.mu.Unlock()
		return
	}
	now := m.now()
	if !m.lastPlay.IsZero() && now.Sub(m.lastPlay) < minGap {
		m.mu.Unlock()
		m.logger.Debug("chime suppressed", "id", info.ID)
		return
	}
	m.lastPlay = now
	chime, play, onError := m.chime, m.play, m.onError
	m.mu.Unlock()

	m.async(func() {
		if err := play(chime); err != nil && onError != nil {
			onError(err)
		}
	})
}

// UpdateConfig applies a hot-reloaded configuration.
func (m *Manager) UpdateConfig(cfg *config.DaemonConfig) {
	m.mu.RLock()
	oldChime, wasEnabled := m.chime, m.enabled
	m.mu.RUnlock()

	m.applyConfig(cfg)

	m.mu.RLock()
	chime, enabled := m.chime, m.enabled
	m.mu.RUnlock()

	if chime != oldChime {
		m.watcher.Unwatch(oldChime)
		m.player.InvalidateCache(oldChime)
		m.watcher.Watch(chime)
	}
	if enabled && (chime != oldChime || !wasEnabled) {
		m.warm(chime)
	}
	m.logger.Debug("audio manager config updated", "chime", chimeName(chime))
}

func chimeName(path string) string {
	if path == builtinChime {
		return "built-in"
	}
	return path
}

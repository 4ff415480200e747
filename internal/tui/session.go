package tui

import (
	"context"
	"log/slog"
	"time"

	"github.com/jmylchreest/chatportraits/internal/channel"
	"github.com/jmylchreest/chatportraits/internal/daemon"
	"github.com/jmylchreest/chatportraits/internal/portrait"
)

// Session is a headless portrait client: a manager and coordinator on a
// serial loop, rendering into a terminal Host and joined to the broadcast
// channel.
type Session struct {
	loop        *portrait.SerialLoop
	manager     *portrait.Manager
	coordinator *portrait.Coordinator
	ch          channel.Channel
	logger      *slog.Logger

	changes  chan struct{}
	warnings chan string
	retry    time.Duration
}

// NewSession wires a session around ch.
func NewSession(settings portrait.Settings, ch channel.Channel, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Session{
		loop:     portrait.NewSerialLoop(logger),
		ch:       ch,
		logger:   logger,
		changes:  make(chan struct{}, 1),
		warnings: make(chan string, 8),
		retry:    5 * time.Second,
	}
	s.manager = portrait.NewManager(NewHost(s.loop), s.loop, settings, logger)
	s.manager.OnShown(func(portrait.ItemInfo) { s.notify() })
	s.manager.OnRemoved(func(portrait.ItemInfo) { s.notify() })
	s.coordinator = portrait.NewCoordinator(s.manager, s.loop, settings, ch, s, logger)
	return s
}

// Controller returns the session's coordinator.
func (s *Session) Controller() Controller {
	return s.coordinator
}

// Manager returns the session's manager. Observers must be registered
// before Start.
func (s *Session) Manager() *portrait.Manager {
	return s.manager
}

// Changes receives a value whenever the active set gains or loses an item.
func (s *Session) Changes() <-chan struct{} {
	return s.changes
}

// Warnings receives user-visible warnings.
func (s *Session) Warnings() <-chan string {
	return s.warnings
}

// Warn implements portrait.Warner.
func (s *Session) Warn(_, summary, body string) {
	msg := summary
	if body != "" {
		msg += ": " + body
	}
	select {
	case s.warnings <- msg:
	default:
	}
}

func (s *Session) notify() {
	select {
	case s.changes <- struct{}{}:
	default:
	}
}

// Start runs the loop and the channel listener until ctx is cancelled or
// Stop is called.
func (s *Session) Start(ctx context.Context) {
	go s.loop.Run(ctx)
	go daemon.Listen(ctx, s.ch, s.coordinator, s.retry, func(err error) {
		s.Warn("channel", "Broadcast channel failed", err.Error())
	}, s.logger)
}

// Stop closes the channel and stops the loop.
func (s *Session) Stop() {
	if err := s.ch.Close(); err != nil {
		s.logger.Debug("failed to close channel", "error", err)
	}
	s.loop.Stop()
}

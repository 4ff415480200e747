package channel

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jmylchreest/chatportraits/internal/config"
)

var (
	// ErrNotConnected is returned by Publish while the backend has no live
	// connection.
	ErrNotConnected = errors.New("channel not connected")
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("channel closed")
)

// Handler receives one frame from the channel.
type Handler func(payload []byte)

// Channel is a broadcast pub/sub channel.
type Channel interface {
	// Publish sends payload to the channel's peers.
	Publish(ctx context.Context, payload []byte) error
	// Run delivers received frames to h until ctx is cancelled or the
	// channel is closed. Backends that reconnect do so inside Run.
	Run(ctx context.Context, h Handler) error
	// Close releases the channel's resources.
	Close() error
}

// Open creates the channel selected by cfg.
func Open(cfg config.ChannelConfig, clientID string, logger *slog.Logger) (Channel, error) {
	if logger == nil {
		logger = slog.Default()
	}

	switch config.Backend(cfg.Backend) {
	case config.BackendWebsocket:
		return NewWebSocket(cfg.URL, cfg.Room, clientID, logger)
	case config.BackendRedis:
		return NewRedis(cfg.RedisAddr, cfg.RedisChannel, logger)
	case config.BackendNone, "":
		return NewNop(), nil
	default:
		return nil, fmt.Errorf("unknown channel backend %q", cfg.Backend)
	}
}

// Nop is a channel that drops every frame and never delivers any.
type Nop struct {
	done chan struct{}
}

// NewNop creates a Nop channel.
func NewNop() *Nop {
	return &Nop{done: make(chan struct{})}
}

// Publish implements Channel.
func (n *Nop) Publish(ctx context.Context, payload []byte) error {
	select {
	case <-n.done:
		return ErrClosed
	default:
		return nil
	}
}

// Run implements Channel.
func (n *Nop) Run(ctx context.Context, h Handler) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-n.done:
		return nil
	}
}

// Close implements Channel.
func (n *Nop) Close() error {
	select {
	case <-n.done:
	default:
		close(n.done)
	}
	return nil
}

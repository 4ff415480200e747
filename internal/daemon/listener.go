package daemon

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jmylchreest/chatportraits/internal/channel"
)

// Receiver handles one frame from the broadcast channel.
// portrait.Coordinator implements it.
type Receiver interface {
	Receive(payload []byte) error
}

// Listen feeds frames from ch to r until ctx is cancelled or ch is closed.
// When Run fails it is restarted after retry; onError, if set, is told about
// each failure. Malformed frames are rejected by r and never end the loop.
func Listen(ctx context.Context, ch channel.Channel, r Receiver, retry time.Duration, onError func(error), logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}

	handle := func(payload []byte) {
		// Receive logs its own rejections.
		_ = r.Receive(payload)
	}

	for {
		err := ch.Run(ctx, handle)
		if ctx.Err() != nil {
			return
		}
		if err == nil || errors.Is(err, channel.ErrClosed) {
			logger.Debug("broadcast channel closed")
			return
		}

		logger.Warn("broadcast channel failed", "error", err, "retry_in", retry)
		if onError != nil {
			onError(err)
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(retry):
		}
	}
}

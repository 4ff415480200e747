package channel

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// Redis is a channel backed by redis pub/sub. Redis delivers every message
// to all subscribers, including the publisher.
type Redis struct {
	client  *redis.Client
	channel string
	logger  *slog.Logger
}

// NewRedis creates a redis channel publishing on channel at addr.
func NewRedis(addr, channel string, logger *slog.Logger) (*Redis, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if addr == "" {
		return nil, errors.New("redis address is required")
	}
	if channel == "" {
		return nil, errors.New("redis channel is required")
	}
	return &Redis{
		client:  redis.NewClient(&redis.Options{Addr: addr}),
		channel: channel,
		logger:  logger.With("backend", "redis", "channel", channel),
	}, nil
}

// Ping checks the server is reachable.
func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Publish implements Channel.
func (r *Redis) Publish(ctx context.Context, payload []byte) error {
	if err := r.client.Publish(ctx, r.channel, payload).Err(); err != nil {
		if errors.Is(err, redis.ErrClosed) {
			return ErrClosed
		}
		return fmt.Errorf("redis publish: %w", err)
	}
	return nil
}

// Run implements Channel. The go-redis subscription reconnects on its own.
func (r *Redis) Run(ctx context.Context, h Handler) error {
	sub := r.client.Subscribe(ctx, r.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("redis subscribe: %w", err)
	}
	r.logger.Info("subscribed to redis channel")

	msgs := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-msgs:
			if !ok {
				return nil
			}
			h([]byte(msg.Payload))
		}
	}
}

// Close implements Channel.
func (r *Redis) Close() error {
	if err := r.client.Close(); err != nil && !errors.Is(err, redis.ErrClosed) {
		return err
	}
	return nil
}

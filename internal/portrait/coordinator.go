package portrait

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// Publisher sends encoded events to every peer on the shared channel.
type Publisher interface {
	Publish(ctx context.Context, payload []byte) error
}

// Warner surfaces non-fatal, user-visible warnings.
type Warner interface {
	Warn(key, summary, body string)
}

// Coordinator turns local triggers into broadcast events and feeds both local
// and received events into the Manager on its loop. Its methods are safe to
// call from any goroutine.
type Coordinator struct {
	manager   *Manager
	loop      Loop
	settings  Settings
	publisher Publisher
	warner    Warner
	logger    *slog.Logger
	now       func() time.Time

	publishTimeout time.Duration
}

// NewCoordinator creates a Coordinator. publisher and warner may be nil.
func NewCoordinator(manager *Manager, loop Loop, settings Settings, publisher Publisher, warner Warner, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{
		manager:        manager,
		loop:           loop,
		settings:       settings,
		publisher:      publisher,
		warner:         warner,
		logger:         logger,
		now:            time.Now,
		publishTimeout: 3 * time.Second,
	}
}

// SetPublishTimeout bounds each Publish call made by Trigger.
func (c *Coordinator) SetPublishTimeout(d time.Duration) {
	if d > 0 {
		c.publishTimeout = d
	}
}

// SetClock replaces the clock used for id generation.
func (c *Coordinator) SetClock(now func() time.Time) {
	c.now = now
}

// BuildEvent builds the event for slot from the current settings. The
// duration is floored at MinDuration so peers never see a non-positive one.
func (c *Coordinator) BuildEvent(slot int) (Event, error) {
	image := c.settings.SlotImage(slot)
	if image == "" {
		return Event{}, fmt.Errorf("slot %d: %w", slot, ErrConfigurationMissing)
	}

	who := c.settings.Identity()
	return Event{
		ID:         NewID(who.UserID, c.now(), slot),
		UserID:     who.UserID,
		UserName:   who.UserName,
		ImageRef:   image,
		Lane:       ResolveLane(c.settings.SideMode(), who.Elevated),
		WidthPx:    c.settings.WidthPx(),
		DurationMs: max(c.settings.DurationMs(), int(MinDuration.Milliseconds())),
	}, nil
}

// Trigger broadcasts the portrait configured for slot and renders it locally.
// A slot without an image produces a warning and nothing else. A failed
// publish is logged; the local render still happens.
func (c *Coordinator) Trigger(ctx context.Context, slot int) (Event, error) {
	ev, err := c.BuildEvent(slot)
	if err != nil {
		if errors.Is(err, ErrConfigurationMissing) && c.warner != nil {
			c.warner.Warn("slot-missing",
				"No portrait image",
				fmt.Sprintf("No image set for slot %d.", slot),
			)
		}
		c.logger.Warn("trigger aborted", "slot", slot, "error", err)
		return Event{}, err
	}

	if c.publisher != nil {
		payload, err := ev.Encode()
		if err != nil {
			return Event{}, fmt.Errorf("encode event: %w", err)
		}
		pubCtx, cancel := context.WithTimeout(ctx, c.publishTimeout)
		err = c.publisher.Publish(pubCtx, payload)
		cancel()
		if err != nil {
			c.logger.Warn("failed to broadcast portrait", "id", ev.ID, "error", err)
		}
	}

	c.render(ev, "local")
	return ev, nil
}

// Receive handles a payload from the channel. Malformed payloads are
// rejected and logged; they never reach the Manager.
func (c *Coordinator) Receive(payload []byte) error {
	ev, err := DecodeEvent(payload)
	if err != nil {
		c.logger.Warn("rejected portrait payload", "error", err, "bytes", len(payload))
		return err
	}
	c.render(ev, "remote")
	return nil
}

// Dismiss dismisses id on the loop.
func (c *Coordinator) Dismiss(ctx context.Context, id string) (bool, error) {
	return Call(ctx, c.loop, func() bool {
		return c.manager.Dismiss(id)
	})
}

// DismissAll dismisses every active item on the loop.
func (c *Coordinator) DismissAll(ctx context.Context) (int, error) {
	return Call(ctx, c.loop, c.manager.DismissAll)
}

// Active returns a snapshot of the active set taken on the loop.
func (c *Coordinator) Active(ctx context.Context) ([]ItemInfo, error) {
	return Call(ctx, c.loop, c.manager.Active)
}

func (c *Coordinator) render(ev Event, origin string) {
	c.loop.Post(func() {
		created, err := c.manager.Create(ev)
		if err != nil {
			c.logger.Warn("failed to render portrait", "id", ev.ID, "origin", origin, "error", err)
			return
		}
		if created {
			c.logger.Info("portrait shown", "id", ev.ID, "user", ev.UserName, "lane", ev.Lane, "origin", origin)
		}
	})
}

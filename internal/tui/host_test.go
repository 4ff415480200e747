package tui

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/chatportraits/internal/channel"
	"github.com/jmylchreest/chatportraits/internal/portrait"
	"github.com/jmylchreest/chatportraits/internal/portrait/portraittest"
)

func TestHost_TransitionsEndAfterDelay(t *testing.T) {
	loop := portraittest.NewLoop(testNow)
	host := NewHost(loop)

	mount, err := host.Mount()
	require.NoError(t, err)
	again, _ := host.Mount()
	assert.Same(t, mount, again)
	assert.True(t, mount.Connected())

	el, err := mount.NewElement(portrait.ElementSpec{ID: "x", Lane: portrait.LaneLeft, WidthPx: 320, Top: 120})
	require.NoError(t, err)
	assert.Equal(t, 120, el.Top())
	assert.Equal(t, portrait.ItemHeight(320), el.Height())

	ends := 0
	el.OnTransitionEnd(func() { ends++ })

	// Before Attach the pose applies without a transition.
	el.SetPose(portrait.Pose{Opacity: 0})
	assert.Equal(t, 0, loop.Pending())

	el.Attach()
	el.SetPose(portrait.Pose{Opacity: 1})
	assert.Equal(t, 1, loop.Pending())

	// A replaced transition does not signal.
	el.SetPose(portrait.Pose{Opacity: 0.5})
	loop.Advance(transitionDelay)
	assert.Equal(t, 1, ends)
	assert.Equal(t, 0, loop.Pending())
}

func TestHost_RemoveCancelsTransition(t *testing.T) {
	loop := portraittest.NewLoop(testNow)
	mount, _ := NewHost(loop).Mount()
	el, _ := mount.NewElement(portrait.ElementSpec{ID: "x", WidthPx: 100})

	ends := 0
	el.OnTransitionEnd(func() { ends++ })
	el.Attach()
	el.SetPose(portrait.Pose{})
	el.Remove()
	el.Remove()

	loop.Advance(time.Second)
	assert.Equal(t, 0, ends)
	assert.Equal(t, 0, el.Height())
}

func TestHost_ManagerLifecycle(t *testing.T) {
	loop := portraittest.NewLoop(testNow)
	settings := portraittest.NewSettings()
	m := portrait.NewManager(NewHost(loop), loop, settings, nil)

	ev := portrait.Event{ID: "p1", UserID: "u1", ImageRef: "img", Lane: portrait.LaneLeft, WidthPx: 320, DurationMs: 1000}
	created, err := m.Create(ev)
	require.NoError(t, err)
	require.True(t, created)

	// Second item packs below the first.
	ev2 := ev
	ev2.ID = "p2"
	_, err = m.Create(ev2)
	require.NoError(t, err)
	info, ok := m.Get("p2")
	require.True(t, ok)
	assert.Equal(t, 120+portrait.ItemHeight(320)+portrait.Spacing, info.Top)

	// Expiry, then the exit transition removes the items.
	loop.Advance(time.Second)
	assert.Equal(t, 2, m.Len())
	loop.Advance(transitionDelay)
	assert.Equal(t, 0, m.Len())
}

func TestSession_TriggerAndChanges(t *testing.T) {
	settings := portraittest.NewSettings()
	s := NewSession(settings, channel.NewNop(), nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.Start(ctx)
	defer s.Stop()

	ev, err := s.Controller().Trigger(ctx, 0)
	require.NoError(t, err)

	select {
	case <-s.Changes():
	case <-time.After(2 * time.Second):
		t.Fatal("no change notification")
	}

	items, err := s.Controller().Active(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, ev.ID, items[0].ID)
	assert.Equal(t, "Alice", items[0].UserName)
}

func TestSession_EmptySlotWarns(t *testing.T) {
	s := NewSession(portraittest.NewSettings(), channel.NewNop(), nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.Start(ctx)
	defer s.Stop()

	_, err := s.Controller().Trigger(ctx, 5)
	require.Error(t, err)

	select {
	case w := <-s.Warnings():
		assert.NotEmpty(t, w)
	case <-time.After(2 * time.Second):
		t.Fatal("no warning")
	}
}

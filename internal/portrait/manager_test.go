package portrait_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/chatportraits/internal/portrait"
	"github.com/jmylchreest/chatportraits/internal/portrait/portraittest"
)

var epoch = time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC)

type fixture struct {
	host     *portraittest.Host
	loop     *portraittest.Loop
	settings *portraittest.Settings
	manager  *portrait.Manager
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		host:     portraittest.NewHost(),
		loop:     portraittest.NewLoop(epoch),
		settings: portraittest.NewSettings(),
	}
	f.manager = portrait.NewManager(f.host, f.loop, f.settings, nil)
	f.manager.SetClock(f.loop.Now)
	return f
}

func event(id string, lane portrait.Lane) portrait.Event {
	return portrait.Event{
		ID:         id,
		UserID:     "u1",
		UserName:   "Alice",
		ImageRef:   "portraits/smile.webp",
		Lane:       lane,
		WidthPx:    320,
		DurationMs: 4000,
	}
}

func (f *fixture) create(t *testing.T, ev portrait.Event) *portraittest.Element {
	t.Helper()
	created, err := f.manager.Create(ev)
	require.NoError(t, err)
	require.True(t, created)
	el := f.host.Element(ev.ID)
	require.NotNil(t, el)
	return el
}

func TestManager_CreateOnEmptyLaneUsesBaseline(t *testing.T) {
	f := newFixture(t)

	el := f.create(t, event("a", portrait.LaneLeft))

	assert.Equal(t, 120, el.Top())
	assert.Equal(t, 24, el.Inset())
	assert.Equal(t, portrait.LaneLeft, el.Spec.Lane)
	assert.Equal(t, []string{portrait.ClassItem, "left"}, el.Spec.Classes)
	assert.Equal(t, "Alice", el.Spec.Label)
	assert.True(t, el.Attached())
}

func TestManager_SecondCreateStacksBelow(t *testing.T) {
	f := newFixture(t)

	f.create(t, event("a", portrait.LaneLeft))
	el := f.create(t, event("b", portrait.LaneLeft))

	assert.GreaterOrEqual(t, el.Top(), 120+384+12)
	assert.Equal(t, 516, el.Top())
}

func TestManager_LanesPackIndependently(t *testing.T) {
	f := newFixture(t)
	f.settings.BaselineRight = 200

	f.create(t, event("a", portrait.LaneLeft))
	el := f.create(t, event("b", portrait.LaneRight))

	assert.Equal(t, 200, el.Top())
}

func TestManager_EntrySequence(t *testing.T) {
	f := newFixture(t)

	left := f.create(t, event("a", portrait.LaneLeft))
	right := f.create(t, event("b", portrait.LaneRight))

	assert.Equal(t, []string{"pose", "attach", "reflow", "pose"}, left.Calls)
	assert.Equal(t, portrait.Pose{Opacity: 0, OffsetX: -16}, left.Poses[0])
	assert.Equal(t, portrait.Pose{Opacity: 1}, left.Poses[1])
	assert.Equal(t, portrait.Pose{Opacity: 0, OffsetX: 16}, right.Poses[0])

	info, ok := f.manager.Get("a")
	require.True(t, ok)
	assert.Equal(t, portrait.StateSettled, info.State)
}

func TestManager_CreateIsIdempotent(t *testing.T) {
	f := newFixture(t)

	f.create(t, event("x", portrait.LaneLeft))
	created, err := f.manager.Create(event("x", portrait.LaneLeft))

	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, 1, f.manager.Len())
	assert.Len(t, f.host.Current().Elements(), 1)
	assert.Equal(t, 1, f.loop.Pending())
}

func TestManager_ExpiresAfterDuration(t *testing.T) {
	f := newFixture(t)
	el := f.create(t, event("a", portrait.LaneLeft))

	f.loop.Advance(3999 * time.Millisecond)
	assert.Len(t, el.Poses, 2)

	f.loop.Advance(time.Millisecond)
	assert.Equal(t, portrait.Pose{Opacity: 0, OffsetY: -6}, el.LastPose())

	info, ok := f.manager.Get("a")
	require.True(t, ok, "item stays active until the exit transition ends")
	assert.Equal(t, portrait.StateDismissing, info.State)

	el.FireTransitionEnd()
	assert.Equal(t, 0, f.manager.Len())
	assert.True(t, el.Removed())
}

func TestManager_ZeroDurationIsFloored(t *testing.T) {
	f := newFixture(t)
	ev := event("a", portrait.LaneLeft)
	ev.DurationMs = 0
	el := f.create(t, ev)

	deadline, ok := f.loop.NextDeadline()
	require.True(t, ok)
	assert.Equal(t, epoch.Add(portrait.MinDuration), deadline)

	f.loop.Advance(599 * time.Millisecond)
	assert.Len(t, el.Poses, 2)

	f.loop.Advance(time.Millisecond)
	assert.Len(t, el.Poses, 3)
}

func TestManager_DismissCancelsTimer(t *testing.T) {
	f := newFixture(t)
	el := f.create(t, event("x", portrait.LaneLeft))

	f.loop.Advance(1000 * time.Millisecond)
	assert.True(t, f.manager.Dismiss("x"))

	assert.Equal(t, portrait.Pose{Opacity: 0, OffsetY: -6}, el.LastPose())
	assert.Equal(t, 0, f.loop.Pending())

	el.FireTransitionEnd()
	f.loop.Advance(10 * time.Second)

	assert.Equal(t, 1, el.RemoveCount())
	assert.Len(t, el.Poses, 3)
}

func TestManager_DismissIsIdempotent(t *testing.T) {
	f := newFixture(t)
	el := f.create(t, event("x", portrait.LaneLeft))

	assert.True(t, f.manager.Dismiss("x"))
	assert.False(t, f.manager.Dismiss("x"))
	assert.False(t, f.manager.Dismiss("unknown"))

	assert.Len(t, el.Poses, 3)
	assert.Equal(t, 1, el.Subscribers())

	el.FireTransitionEnd()
	assert.False(t, f.manager.Dismiss("x"))
	assert.Equal(t, 1, el.RemoveCount())
}

func TestManager_TransitionEndHandledOnce(t *testing.T) {
	f := newFixture(t)
	el := f.create(t, event("x", portrait.LaneLeft))

	var removed []string
	f.manager.OnRemoved(func(info portrait.ItemInfo) {
		removed = append(removed, info.ID)
	})

	f.manager.Dismiss("x")
	el.FireTransitionEnd()
	el.FireTransitionEnd()

	assert.Equal(t, 1, el.RemoveCount())
	assert.Equal(t, []string{"x"}, removed)
	assert.Equal(t, 0, el.Subscribers())
}

func TestManager_DismissingItemStillBlocksLane(t *testing.T) {
	f := newFixture(t)
	f.create(t, event("a", portrait.LaneLeft))
	f.manager.Dismiss("a")

	el := f.create(t, event("b", portrait.LaneLeft))
	assert.Equal(t, 516, el.Top())
}

func TestManager_RemovedItemFreesLane(t *testing.T) {
	f := newFixture(t)
	a := f.create(t, event("a", portrait.LaneLeft))
	f.manager.Dismiss("a")
	a.FireTransitionEnd()

	el := f.create(t, event("b", portrait.LaneLeft))
	assert.Equal(t, 120, el.Top())
}

func TestManager_DraggedItemPacksAtCurrentPosition(t *testing.T) {
	f := newFixture(t)
	a := f.create(t, event("a", portrait.LaneLeft))

	h := a.Pointer()
	require.NotNil(t, h)
	require.True(t, h.Press(portrait.PointerEvent{PointerID: 1, X: 0, Y: 0, Modifier: true}))
	h.Move(portrait.PointerEvent{PointerID: 1, X: 40, Y: 800})
	h.Release(portrait.PointerEvent{PointerID: 1})

	info, _ := f.manager.Get("a")
	assert.True(t, info.Dragged)
	assert.Equal(t, 920, info.Top)
	assert.Equal(t, 64, info.Inset)

	b := f.create(t, event("b", portrait.LaneLeft))
	assert.Equal(t, 120, b.Top())
}

func TestManager_UnmeasuredHeightAssumesAspectRatio(t *testing.T) {
	f := newFixture(t)
	f.host.AutoHeight = false

	f.create(t, event("a", portrait.LaneLeft))
	b := f.create(t, event("b", portrait.LaneLeft))

	assert.Equal(t, 516, b.Top())
}

func TestManager_InvalidLaneFallsBackToRight(t *testing.T) {
	f := newFixture(t)
	el := f.create(t, event("a", portrait.Lane("middle")))

	assert.Equal(t, portrait.LaneRight, el.Spec.Lane)
	info, _ := f.manager.Get("a")
	assert.Equal(t, portrait.LaneRight, info.Lane)
}

func TestManager_StaleMountIsReacquired(t *testing.T) {
	f := newFixture(t)
	old := f.create(t, event("a", portrait.LaneLeft))
	first := f.host.Current()

	first.Detach()
	el := f.create(t, event("b", portrait.LaneLeft))

	assert.Len(t, f.host.Mounts(), 2)
	assert.NotSame(t, first, f.host.Current())
	assert.True(t, old.Removed())
	assert.Equal(t, 120, el.Top(), "items on the detached mount no longer occupy the lane")
	assert.Equal(t, 1, f.manager.Len())
	assert.Equal(t, 1, f.loop.Pending())
}

func TestManager_MountFailure(t *testing.T) {
	f := newFixture(t)
	f.host.Err = portrait.ErrNoMount

	created, err := f.manager.Create(event("a", portrait.LaneLeft))
	assert.False(t, created)
	assert.True(t, errors.Is(err, portrait.ErrNoMount))
	assert.Equal(t, 0, f.manager.Len())

	f.host.Err = nil
	f.create(t, event("a", portrait.LaneLeft))
	assert.Equal(t, 1, f.manager.Len())
}

func TestManager_DismissAll(t *testing.T) {
	f := newFixture(t)
	a := f.create(t, event("a", portrait.LaneLeft))
	b := f.create(t, event("b", portrait.LaneRight))
	f.manager.Dismiss("a")

	assert.Equal(t, 1, f.manager.DismissAll())
	assert.Equal(t, 0, f.loop.Pending())

	a.FireTransitionEnd()
	b.FireTransitionEnd()
	assert.Equal(t, 0, f.manager.Len())
}

func TestManager_ActiveSnapshot(t *testing.T) {
	f := newFixture(t)
	f.create(t, event("r1", portrait.LaneRight))
	f.create(t, event("l1", portrait.LaneLeft))
	f.create(t, event("l2", portrait.LaneLeft))

	active := f.manager.Active()
	require.Len(t, active, 3)
	assert.Equal(t, "l1", active[0].ID)
	assert.Equal(t, "l2", active[1].ID)
	assert.Equal(t, "r1", active[2].ID)
	assert.Equal(t, epoch, active[0].CreatedAt)
	assert.Equal(t, epoch.Add(4*time.Second), active[0].ExpiresAt)
	assert.Equal(t, 384, active[0].Height)
}

func TestManager_Callbacks(t *testing.T) {
	f := newFixture(t)

	var shown []string
	f.manager.OnShown(func(info portrait.ItemInfo) {
		shown = append(shown, info.ID)
	})

	f.create(t, event("a", portrait.LaneLeft))
	_, _ = f.manager.Create(event("a", portrait.LaneLeft))

	assert.Equal(t, []string{"a"}, shown)
}

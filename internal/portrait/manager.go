package portrait

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"
)

// MinDuration is the shortest time an item stays on screen. Shorter
// configured durations would expire before the entry transition has painted.
const MinDuration = 600 * time.Millisecond

// ItemState is the lifecycle state of an active item.
type ItemState int

const (
	StateEntering ItemState = iota
	StateSettled
	StateDismissing
	StateRemoved
)

// String returns the lowercase state name.
func (s ItemState) String() string {
	switch s {
	case StateEntering:
		return "entering"
	case StateSettled:
		return "settled"
	case StateDismissing:
		return "dismissing"
	case StateRemoved:
		return "removed"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s ItemState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *ItemState) UnmarshalText(text []byte) error {
	for c := StateEntering; c <= StateRemoved; c++ {
		if c.String() == string(text) {
			*s = c
			return nil
		}
	}
	return fmt.Errorf("unknown item state %q", text)
}

// ItemInfo is a read-only snapshot of an active item.
type ItemInfo struct {
	ID        string    `json:"id" yaml:"id"`
	UserID    string    `json:"user_id" yaml:"user_id"`
	UserName  string    `json:"user_name" yaml:"user_name"`
	ImageRef  string    `json:"image_ref" yaml:"image_ref"`
	Lane      Lane      `json:"lane" yaml:"lane"`
	WidthPx   int       `json:"width_px" yaml:"width_px"`
	Top       int       `json:"top" yaml:"top"`
	Inset     int       `json:"inset" yaml:"inset"`
	Height    int       `json:"height" yaml:"height"`
	State     ItemState `json:"state" yaml:"state"`
	Dragged   bool      `json:"dragged,omitempty" yaml:"dragged,omitempty"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
	ExpiresAt time.Time `json:"expires_at" yaml:"expires_at"`
}

// item is an entry in the active set.
type item struct {
	event     Event
	el        Element
	timer     Timer
	state     ItemState
	dragged   bool
	createdAt time.Time
	expiresAt time.Time
}

// Manager owns the active set: it creates items, packs them into lanes,
// schedules their dismissal and removes them once their exit transition
// finishes. All methods must be called on the loop.
type Manager struct {
	host     Host
	loop     Loop
	settings Settings
	logger   *slog.Logger
	now      func() time.Time

	mount Mount
	items map[string]*item

	onShown   []func(ItemInfo)
	onRemoved []func(ItemInfo)
}

// NewManager creates a Manager rendering through host and scheduling on loop.
func NewManager(host Host, loop Loop, settings Settings, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		host:     host,
		loop:     loop,
		settings: settings,
		logger:   logger,
		now:      time.Now,
		items:    make(map[string]*item),
	}
}

// SetClock replaces the clock used for CreatedAt/ExpiresAt bookkeeping.
func (m *Manager) SetClock(now func() time.Time) {
	m.now = now
}

// OnShown registers fn to run after an item has been created.
func (m *Manager) OnShown(fn func(ItemInfo)) {
	m.onShown = append(m.onShown, fn)
}

// OnRemoved registers fn to run after an item has been removed.
func (m *Manager) OnRemoved(fn func(ItemInfo)) {
	m.onRemoved = append(m.onRemoved, fn)
}

// Create renders ev. It reports false without error when an item with the
// same id is already active, which absorbs broadcast echoes and duplicate
// deliveries.
func (m *Manager) Create(ev Event) (bool, error) {
	if _, exists := m.items[ev.ID]; exists {
		m.logger.Debug("ignoring duplicate portrait", "id", ev.ID, "error", ErrDuplicateDelivery)
		return false, nil
	}

	mount, err := m.ensureMount()
	if err != nil {
		return false, err
	}

	lane := ev.Lane
	if !lane.Valid() {
		lane = LaneRight
	}
	y := m.ComputeY(lane, ev.WidthPx)

	el, err := mount.NewElement(ElementSpec{
		ID:       ev.ID,
		UserID:   ev.UserID,
		Lane:     lane,
		Classes:  []string{ClassItem, string(lane)},
		WidthPx:  ev.WidthPx,
		Top:      y,
		Inset:    m.settings.DefaultInset(),
		ImageRef: ev.ImageRef,
		Label:    ev.UserName,
	})
	if err != nil {
		return false, fmt.Errorf("create element for %s: %w", ev.ID, err)
	}

	ev.Lane = lane
	it := &item{
		event:     ev,
		el:        el,
		state:     StateEntering,
		createdAt: m.now(),
	}
	m.items[ev.ID] = it

	el.OnPointer(NewDrag(el, lane, func() {
		it.dragged = true
	}))

	// Two-phase entry: commit the starting pose with a reflow, then move to
	// the resting pose so the host animates between them.
	el.SetPose(entryPose(lane))
	el.Attach()
	el.Reflow()
	el.SetPose(settledPose())
	it.state = StateSettled

	d := max(MinDuration, time.Duration(ev.DurationMs)*time.Millisecond)
	it.expiresAt = it.createdAt.Add(d)
	it.timer = m.loop.AfterFunc(d, func() {
		m.expire(ev.ID, it)
	})

	m.logger.Debug("showed portrait",
		"id", ev.ID,
		"lane", lane,
		"top", y,
		"duration", d,
		"active", len(m.items),
	)

	info := it.info()
	for _, fn := range m.onShown {
		fn(info)
	}
	return true, nil
}

// expire is the dismiss timer callback. A timer that was stopped after its
// callback was already queued must not dismiss a newer item with the same id.
func (m *Manager) expire(id string, it *item) {
	cur, ok := m.items[id]
	if !ok || cur != it || cur.state != StateSettled {
		return
	}
	m.Dismiss(id)
}

// Dismiss starts the exit transition for id. The item stays in the active
// set, and keeps its place in the lane, until the transition has ended.
// It reports false when id is unknown or already dismissing.
func (m *Manager) Dismiss(id string) bool {
	it, ok := m.items[id]
	if !ok || it.state >= StateDismissing {
		return false
	}

	if it.timer != nil {
		it.timer.Stop()
	}
	it.state = StateDismissing

	var (
		unsubscribe func()
		handled     bool
	)
	unsubscribe = it.el.OnTransitionEnd(func() {
		if handled {
			return
		}
		handled = true
		if unsubscribe != nil {
			unsubscribe()
		}
		m.remove(id, it)
	})
	it.el.SetPose(exitPose())

	m.logger.Debug("dismissing portrait", "id", id)
	return true
}

// DismissAll dismisses every settled item and returns how many were dismissed.
func (m *Manager) DismissAll() int {
	n := 0
	for _, id := range m.ids() {
		if m.Dismiss(id) {
			n++
		}
	}
	return n
}

// remove deletes a dismissed item once its exit transition has finished.
func (m *Manager) remove(id string, it *item) {
	if it.state == StateRemoved {
		return
	}
	it.state = StateRemoved
	if m.items[id] == it {
		delete(m.items, id)
	}
	info := it.info()
	it.el.Remove()

	m.logger.Debug("removed portrait", "id", id, "active", len(m.items))

	for _, fn := range m.onRemoved {
		fn(info)
	}
}

// ComputeY returns the packing position for a new item of widthPx in lane,
// based on the current tops and heights of the lane's active items.
func (m *Manager) ComputeY(lane Lane, widthPx int) int {
	spans := make([]Span, 0, len(m.items))
	for _, it := range m.items {
		if it.event.Lane != lane || it.state == StateRemoved {
			continue
		}
		spans = append(spans, Span{Top: it.el.Top(), Height: it.el.Height()})
	}
	return ComputeY(m.settings.Baseline(lane), widthPx, spans)
}

// ensureMount returns a connected mount, re-acquiring it when the previous
// one was detached. Items on a detached mount are discarded.
func (m *Manager) ensureMount() (Mount, error) {
	if m.mount != nil && m.mount.Connected() {
		return m.mount, nil
	}
	if m.mount != nil {
		m.logger.Warn("mount point detached, re-acquiring",
			"error", ErrStaleMount,
			"discarded", len(m.items),
		)
		m.reset()
	}

	mount, err := m.host.Mount()
	if err != nil {
		return nil, fmt.Errorf("acquire mount: %w", err)
	}
	m.mount = mount
	return mount, nil
}

// reset drops the mount and every item without running exit transitions.
func (m *Manager) reset() {
	for id, it := range m.items {
		if it.timer != nil {
			it.timer.Stop()
		}
		it.state = StateRemoved
		it.el.Remove()
		delete(m.items, id)
	}
	m.mount = nil
}

// Active returns snapshots of all items, ordered by lane and then top.
func (m *Manager) Active() []ItemInfo {
	infos := make([]ItemInfo, 0, len(m.items))
	for _, it := range m.items {
		infos = append(infos, it.info())
	}
	slices.SortFunc(infos, func(a, b ItemInfo) int {
		if c := strings.Compare(string(a.Lane), string(b.Lane)); c != 0 {
			return c
		}
		if a.Top != b.Top {
			return a.Top - b.Top
		}
		return strings.Compare(a.ID, b.ID)
	})
	return infos
}

// Get returns the snapshot for id.
func (m *Manager) Get(id string) (ItemInfo, bool) {
	it, ok := m.items[id]
	if !ok {
		return ItemInfo{}, false
	}
	return it.info(), true
}

// Len returns the number of items in the active set.
func (m *Manager) Len() int {
	return len(m.items)
}

func (m *Manager) ids() []string {
	ids := make([]string, 0, len(m.items))
	for id := range m.items {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

func (it *item) info() ItemInfo {
	return ItemInfo{
		ID:        it.event.ID,
		UserID:    it.event.UserID,
		UserName:  it.event.UserName,
		ImageRef:  it.event.ImageRef,
		Lane:      it.event.Lane,
		WidthPx:   it.event.WidthPx,
		Top:       it.el.Top(),
		Inset:     it.el.Inset(),
		Height:    it.el.Height(),
		State:     it.state,
		Dragged:   it.dragged,
		CreatedAt: it.createdAt,
		ExpiresAt: it.expiresAt,
	}
}

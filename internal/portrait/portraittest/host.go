package portraittest

import (
	"sync"

	"github.com/jmylchreest/chatportraits/internal/portrait"
)

// Host is a portrait.Host that hands out in-memory mounts.
type Host struct {
	mu sync.Mutex

	// Err, when set, is returned by Mount.
	Err error
	// AutoHeight makes new elements report the packing height of their
	// width. When false elements report 0 until SetHeight is called.
	AutoHeight bool

	mounts []*Mount
}

// NewHost creates a host whose elements measure like real portrait frames.
func NewHost() *Host {
	return &Host{AutoHeight: true}
}

// Mount implements portrait.Host.
func (h *Host) Mount() (portrait.Mount, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.Err != nil {
		return nil, h.Err
	}
	m := &Mount{host: h, connected: true}
	h.mounts = append(h.mounts, m)
	return m, nil
}

// Mounts returns every mount handed out so far.
func (h *Host) Mounts() []*Mount {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]*Mount(nil), h.mounts...)
}

// Current returns the most recent mount, or nil.
func (h *Host) Current() *Mount {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.mounts) == 0 {
		return nil
	}
	return h.mounts[len(h.mounts)-1]
}

// Element returns the newest element with id across all mounts.
func (h *Host) Element(id string) *Element {
	for _, m := range h.Mounts() {
		if el := m.Element(id); el != nil {
			return el
		}
	}
	return nil
}

// Mount is an in-memory mount point.
type Mount struct {
	host      *Host
	mu        sync.Mutex
	connected bool
	elements  []*Element
}

// Connected implements portrait.Mount.
func (m *Mount) Connected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connected
}

// Detach marks the mount stale.
func (m *Mount) Detach() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connected = false
}

// NewElement implements portrait.Mount.
func (m *Mount) NewElement(spec portrait.ElementSpec) (portrait.Element, error) {
	el := &Element{
		Spec:  spec,
		top:   spec.Top,
		inset: spec.Inset,
		subs:  make(map[int]func()),
	}
	if m.host.AutoHeight {
		el.height = portrait.ItemHeight(spec.WidthPx)
	}
	m.mu.Lock()
	m.elements = append(m.elements, el)
	m.mu.Unlock()
	return el, nil
}

// Elements returns every element created on the mount.
func (m *Mount) Elements() []*Element {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*Element(nil), m.elements...)
}

// Element returns the newest element with id, or nil.
func (m *Mount) Element(id string) *Element {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.elements) - 1; i >= 0; i-- {
		if m.elements[i].Spec.ID == id {
			return m.elements[i]
		}
	}
	return nil
}

// Element is an in-memory portrait element that records what was done to it.
type Element struct {
	Spec portrait.ElementSpec

	// Calls lists the lifecycle calls in order: "pose", "attach",
	// "reflow", "remove".
	Calls []string
	// Poses lists every pose applied.
	Poses []portrait.Pose
	// Captured holds the pointer ids currently captured.
	Captured map[int]bool

	top, inset, height int
	attached, removed  bool
	removeCount        int

	subs    map[int]func()
	nextSub int
	pointer portrait.PointerHandler
}

func (e *Element) Top() int { return e.top }
func (e *Element) SetTop(y int) { e.top = y }
func (e *Element) Inset() int { return e.inset }
func (e *Element) SetInset(x int) { e.inset = x }
func (e *Element) Height() int { return e.height }
func (e *Element) SetHeight(h int) { e.height = h }
func (e *Element) Attached() bool { return e.attached }
func (e *Element) Removed() bool { return e.removed }
func (e *Element) RemoveCount() int { return e.removeCount }
func (e *Element) Subscribers() int { return len(e.subs) }

// CapturePointer implements portrait.Draggable.
func (e *Element) CapturePointer(id int) {
	if e.Captured == nil {
		e.Captured = make(map[int]bool)
	}
	e.Captured[id] = true
}

// ReleasePointer implements portrait.Draggable.
func (e *Element) ReleasePointer(id int) {
	delete(e.Captured, id)
}

// SetPose implements portrait.Element.
func (e *Element) SetPose(p portrait.Pose) {
	e.Calls = append(e.Calls, "pose")
	e.Poses = append(e.Poses, p)
}

// LastPose returns the most recently applied pose.
func (e *Element) LastPose() portrait.Pose {
	if len(e.Poses) == 0 {
		return portrait.Pose{}
	}
	return e.Poses[len(e.Poses)-1]
}

// Attach implements portrait.Element.
func (e *Element) Attach() {
	e.Calls = append(e.Calls, "attach")
	e.attached = true
}

// Reflow implements portrait.Element.
func (e *Element) Reflow() {
	e.Calls = append(e.Calls, "reflow")
}

// OnTransitionEnd implements portrait.Element.
func (e *Element) OnTransitionEnd(fn func()) func() {
	id := e.nextSub
	e.nextSub++
	e.subs[id] = fn
	return func() { delete(e.subs, id) }
}

// FireTransitionEnd signals the end of the current transition to every
// subscriber.
func (e *Element) FireTransitionEnd() {
	subs := make([]func(), 0, len(e.subs))
	for i := 0; i < e.nextSub; i++ {
		if fn, ok := e.subs[i]; ok {
			subs = append(subs, fn)
		}
	}
	for _, fn := range subs {
		fn()
	}
}

// OnPointer implements portrait.Element.
func (e *Element) OnPointer(h portrait.PointerHandler) {
	e.pointer = h
}

// Pointer returns the registered pointer handler.
func (e *Element) Pointer() portrait.PointerHandler {
	return e.pointer
}

// Remove implements portrait.Element.
func (e *Element) Remove() {
	e.Calls = append(e.Calls, "remove")
	e.removed = true
	e.attached = false
	e.removeCount++
}

package tui

import (
	"time"

	"github.com/jmylchreest/chatportraits/internal/portrait"
)

// transitionDelay stands in for the entry and exit animations, which a
// terminal does not draw.
const transitionDelay = 250 * time.Millisecond

// Host is a portrait.Host whose elements are rows in the lane view. It
// tracks geometry only. Every method runs on the loop it was created with.
type Host struct {
	loop       portrait.Loop
	transition time.Duration
	mount      *mount
}

// NewHost creates a terminal host scheduling transitions on loop.
func NewHost(loop portrait.Loop) *Host {
	return &Host{loop: loop, transition: transitionDelay}
}

// Mount implements portrait.Host. The terminal never goes away, so the
// mount stays connected for the life of the host.
func (h *Host) Mount() (portrait.Mount, error) {
	if h.mount == nil {
		h.mount = &mount{host: h}
	}
	return h.mount, nil
}

type mount struct {
	host *Host
}

func (m *mount) Connected() bool { return true }

func (m *mount) NewElement(spec portrait.ElementSpec) (portrait.Element, error) {
	return &element{
		host:  m.host,
		spec:  spec,
		top:   spec.Top,
		inset: spec.Inset,
		subs:  make(map[int]func()),
	}, nil
}

// element is a portrait row.
type element struct {
	host *Host
	spec portrait.ElementSpec

	top, inset int
	pose       portrait.Pose

	attached bool
	removed  bool
	timer    portrait.Timer
	subs     map[int]func()
	nextSub  int
}

func (e *element) Top() int { return e.top }
func (e *element) SetTop(y int) { e.top = y }
func (e *element) Inset() int { return e.inset }
func (e *element) SetInset(x int) { e.inset = x }
func (e *element) CapturePointer(int) {}
func (e *element) ReleasePointer(int) {}
func (e *element) OnPointer(portrait.PointerHandler) {}
func (e *element) Attach() { e.attached = true }
func (e *element) Reflow() {}

func (e *element) Height() int {
	if e.removed {
		return 0
	}
	return portrait.ItemHeight(e.spec.WidthPx)
}

func (e *element) SetPose(p portrait.Pose) {
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
	e.pose = p
	if !e.attached || e.removed {
		return
	}
	e.timer = e.host.loop.AfterFunc(e.host.transition, e.signal)
}

func (e *element) signal() {
	e.timer = nil
	var subs []func()
	for i := 0; i < e.nextSub; i++ {
		if fn, ok := e.subs[i]; ok {
			subs = append(subs, fn)
		}
	}
	for _, fn := range subs {
		fn()
	}
}

func (e *element) OnTransitionEnd(fn func()) func() {
	id := e.nextSub
	e.nextSub++
	e.subs[id] = fn
	return func() { delete(e.subs, id) }
}

func (e *element) Remove() {
	if e.removed {
		return
	}
	e.removed = true
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
	e.subs = make(map[int]func())
}

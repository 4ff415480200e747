package display

import (
	"log/slog"
	"time"

	"github.com/diamondburned/gotk4-adwaita/pkg/adw"
	layershell "github.com/diamondburned/gotk4-layer-shell/pkg/gtk4layershell"
	"github.com/diamondburned/gotk4/pkg/gdk/v4"
	"github.com/diamondburned/gotk4/pkg/gtk/v4"

	"github.com/jmylchreest/chatportraits/internal/config"
	"github.com/jmylchreest/chatportraits/internal/portrait"
)

// transitionDuration is the length of entry and exit transitions.
const transitionDuration = 250 * time.Millisecond

// Element is a portrait rendered as a layer-shell window.
type Element struct {
	mount  *Mount
	spec   portrait.ElementSpec
	logger *slog.Logger

	// Widgets
	window  *gtk.Window
	box     *gtk.Box
	picture *gtk.Picture
	nameLbl *gtk.Label

	// Layout
	top, inset int
	pose       portrait.Pose

	// Transition state
	anim     *adw.TimedAnimation
	animGen  int
	subs     *transitionSubs
	attached bool
	removed  bool

	// Pointer state
	pointer      portrait.PointerHandler
	captured     map[int]bool
	pressButton  int
	startX       float64
	startY       float64
	pressClaimed bool
}

func newElement(m *Mount, spec portrait.ElementSpec) *Element {
	e := &Element{
		mount:    m,
		spec:     spec,
		logger:   m.host.logger.With("id", spec.ID),
		top:      spec.Top,
		inset:    spec.Inset,
		pose:     portrait.Pose{Opacity: 1},
		subs:     newTransitionSubs(),
		captured: make(map[int]bool),
	}

	e.window = gtk.NewWindow()
	e.window.SetApplication(m.host.app)
	e.window.SetDecorated(false)
	e.window.SetResizable(false)
	e.window.SetName(spec.ID)
	e.window.AddCSSClass("portrait-window")
	e.window.SetDefaultSize(spec.WidthPx, -1)

	// Initialize layer-shell
	layershell.InitForWindow(e.window)
	layershell.SetLayer(e.window, layershell.LayerShellLayerTop)
	layershell.SetExclusiveZone(e.window, 0) // Don't reserve space
	layershell.SetKeyboardMode(e.window, layershell.LayerShellKeyboardModeNone)
	layershell.SetNamespace(e.window, "chatportraits")
	layershell.SetMonitor(e.window, m.monitor)

	layershell.SetAnchor(e.window, layershell.LayerShellEdgeTop, true)
	if spec.Lane == portrait.LaneLeft {
		layershell.SetAnchor(e.window, layershell.LayerShellEdgeLeft, true)
	} else {
		layershell.SetAnchor(e.window, layershell.LayerShellEdgeRight, true)
	}

	e.buildUI()
	e.applyThemeClasses()
	e.connectSignals()
	e.applyGeometry()

	return e
}

// buildUI constructs the portrait frame: the image with the user's name
// beneath it.
func (e *Element) buildUI() {
	e.box = gtk.NewBox(gtk.OrientationVertical, 4)
	e.box.AddCSSClass("portrait-frame")

	e.picture = gtk.NewPictureForFilename(imagePath(e.spec.ImageRef))
	e.picture.AddCSSClass("portrait-image")
	e.picture.SetContentFit(gtk.ContentFitCover)
	e.picture.SetCanShrink(true)
	e.picture.SetSizeRequest(e.spec.WidthPx, portrait.ItemHeight(e.spec.WidthPx))
	e.picture.SetAlternativeText(e.spec.Label)
	e.box.Append(e.picture)

	if e.spec.Label != "" {
		e.nameLbl = gtk.NewLabel(e.spec.Label)
		e.nameLbl.AddCSSClass("portrait-name")
		e.nameLbl.SetEllipsize(3) // PANGO_ELLIPSIZE_END
		e.nameLbl.SetMaxWidthChars(24)
		e.box.Append(e.nameLbl)
	}

	e.window.SetChild(e.box)
}

// applyThemeClasses adds CSS classes for theming.
func (e *Element) applyThemeClasses() {
	for _, class := range e.spec.Classes {
		e.box.AddCSSClass(class)
	}
	e.box.AddCSSClass(e.mount.host.colorSchemeClass())
	if e.spec.UserID != "" {
		if user := sanitizeClassName(e.spec.UserID); user != "" {
			e.box.AddCSSClass("user-" + user)
		}
	}
}

// connectSignals sets up pointer handlers: a drag gesture that feeds the
// portrait drag handler, and a click gesture for the configured mouse actions.
func (e *Element) connectSignals() {
	drag := gtk.NewGestureDrag()
	drag.SetButton(gdk.BUTTON_PRIMARY)
	drag.ConnectDragBegin(func(x, y float64) {
		e.pressClaimed = false
		if e.pointer == nil {
			drag.SetState(gtk.EventSequenceDenied)
			return
		}
		e.pressButton = int(drag.CurrentButton())
		e.startX, e.startY = x, y
		held := drag.CurrentEventState()&e.mount.host.modifierMask() != 0
		portrait.Guard(e.logger, "pointer-press", func() {
			e.pressClaimed = e.pointer.Press(e.pointerEvent(x, y, held))
		})
		if e.pressClaimed {
			drag.SetState(gtk.EventSequenceClaimed)
		} else {
			drag.SetState(gtk.EventSequenceDenied)
		}
	})
	drag.ConnectDragUpdate(func(offsetX, offsetY float64) {
		if !e.pressClaimed {
			return
		}
		portrait.Guard(e.logger, "pointer-move", func() {
			e.pointer.Move(e.pointerEvent(e.startX+offsetX, e.startY+offsetY, true))
		})
	})
	drag.ConnectDragEnd(func(offsetX, offsetY float64) {
		if !e.pressClaimed {
			return
		}
		portrait.Guard(e.logger, "pointer-release", func() {
			e.pointer.Release(e.pointerEvent(e.startX+offsetX, e.startY+offsetY, true))
		})
	})
	e.window.AddController(drag)

	click := gtk.NewGestureClick()
	click.SetButton(0) // All buttons
	click.ConnectReleased(func(nPress int, x, y float64) {
		if e.pressClaimed || len(e.captured) > 0 {
			return
		}
		button := click.CurrentButton()
		portrait.Guard(e.logger, "click", func() {
			e.handleClick(button)
		})
	})
	e.window.AddController(click)
}

// pointerEvent builds a portrait pointer event in the surface-independent
// frame from surface-local coordinates.
func (e *Element) pointerEvent(x, y float64, modifier bool) portrait.PointerEvent {
	ax, ay := absolute(e.spec.Lane, e.top, e.inset, x, y)
	return portrait.PointerEvent{
		PointerID: e.pressButton,
		X:         ax,
		Y:         ay,
		Modifier:  modifier,
	}
}

// handleClick processes mouse button clicks.
func (e *Element) handleClick(button uint) {
	actions := e.mount.host.getActions()
	if actions == nil {
		return
	}

	switch e.mount.host.mouseAction(button) {
	case config.MouseActionDismiss:
		actions.Dismiss(e.spec.ID)
	case config.MouseActionCloseAll:
		actions.DismissAll()
	case config.MouseActionNone:
		// Do nothing
	}
}

// applyGeometry pushes the current layout and pose to the surface.
func (e *Element) applyGeometry() {
	m := placement(e.spec.Lane, e.top, e.inset, e.pose)
	layershell.SetMargin(e.window, layershell.LayerShellEdgeTop, m.Top)
	if e.spec.Lane == portrait.LaneLeft {
		layershell.SetMargin(e.window, layershell.LayerShellEdgeLeft, m.Edge)
	} else {
		layershell.SetMargin(e.window, layershell.LayerShellEdgeRight, m.Edge)
	}
	e.window.SetOpacity(e.pose.Opacity)
}

// Top implements portrait.Draggable.
func (e *Element) Top() int { return e.top }

// SetTop implements portrait.Draggable.
func (e *Element) SetTop(y int) {
	e.top = y
	e.applyGeometry()
}

// Inset implements portrait.Draggable.
func (e *Element) Inset() int { return e.inset }

// SetInset implements portrait.Draggable.
func (e *Element) SetInset(x int) {
	e.inset = x
	e.applyGeometry()
}

// CapturePointer implements portrait.Draggable. The claimed drag gesture
// already holds an implicit grab; this records it.
func (e *Element) CapturePointer(id int) {
	e.captured[id] = true
}

// ReleasePointer implements portrait.Draggable.
func (e *Element) ReleasePointer(id int) {
	delete(e.captured, id)
	e.pressClaimed = false
}

// Height implements portrait.Element.
func (e *Element) Height() int {
	if e.removed {
		return 0
	}
	return e.window.Height()
}

// SetPose implements portrait.Element.
func (e *Element) SetPose(to portrait.Pose) {
	e.stopAnimation()
	if !e.attached || e.removed {
		e.pose = to
		e.applyGeometry()
		return
	}

	from := e.pose
	gen := e.animGen
	target := adw.NewCallbackAnimationTarget(func(value float64) {
		e.pose = lerpPose(from, to, value)
		e.applyGeometry()
	})

	anim := adw.NewTimedAnimation(e.window, 0, 1, uint(transitionDuration.Milliseconds()), target)
	anim.SetEasing(adw.EaseOutCubic)
	anim.ConnectDone(func() {
		if gen != e.animGen {
			return
		}
		e.anim = nil
		e.subs.signal(e.logger)
	})
	e.anim = anim
	anim.Play()
}

// stopAnimation abandons the in-flight transition without signalling it.
func (e *Element) stopAnimation() {
	e.animGen++
	if e.anim != nil {
		e.anim.Pause()
		e.anim = nil
	}
}


// Attach implements portrait.Element.
func (e *Element) Attach() {
	if e.attached || e.removed {
		return
	}
	e.attached = true
	e.window.Present()
}

// Reflow implements portrait.Element. It commits the current pose to the
// surface so the next SetPose animates from it.
func (e *Element) Reflow() {
	e.applyGeometry()
	e.window.QueueResize()
}

// OnTransitionEnd implements portrait.Element.
func (e *Element) OnTransitionEnd(fn func()) func() {
	return e.subs.add(fn)
}

// OnPointer implements portrait.Element.
func (e *Element) OnPointer(h portrait.PointerHandler) {
	e.pointer = h
}

// Remove implements portrait.Element.
func (e *Element) Remove() {
	if e.removed {
		return
	}
	e.removed = true
	e.stopAnimation()
	e.subs.reset()
	e.window.Destroy()
	e.logger.Debug("destroyed portrait surface")
}

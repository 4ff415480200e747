package portrait

// Host supplies the mount point portraits are rendered into.
type Host interface {
	// Mount returns the current mount point, creating it if needed.
	// It returns ErrNoMount when nothing can be mounted yet.
	Mount() (Mount, error)
}

// Mount is the container elements are attached to.
type Mount interface {
	// Connected reports whether the mount is still attached to its
	// surface. A disconnected mount must not be used again.
	Connected() bool
	// NewElement creates a detached element for spec.
	NewElement(spec ElementSpec) (Element, error)
}

// ElementSpec describes a portrait element to create.
type ElementSpec struct {
	ID       string // exposed as a queryable attribute
	UserID   string
	Lane     Lane
	Classes  []string
	WidthPx  int
	Top      int
	Inset    int
	ImageRef string
	Label    string
}

// Pose is the animated visual state of an element: opacity plus a transform
// offset relative to its laid-out position.
type Pose struct {
	Opacity float64
	OffsetX int
	OffsetY int
}

// Element is a rendered portrait.
type Element interface {
	Draggable

	// Height returns the rendered height, or 0 when not yet measurable.
	Height() int

	// SetPose transitions the element towards p. Transition-end listeners
	// fire when the transition completes. A transition replaced by a newer
	// SetPose does not signal. Before Attach the pose applies immediately.
	SetPose(p Pose)
	// Attach inserts the element into its mount.
	Attach()
	// Reflow forces a layout pass so the pose applied before it is
	// committed as the transition's starting point.
	Reflow()
	// OnTransitionEnd subscribes fn to transition-end signals. Hosts may
	// signal more than once per transition. The returned func unsubscribes.
	OnTransitionEnd(fn func()) (unsubscribe func())
	// OnPointer routes pointer events for the element to h.
	OnPointer(h PointerHandler)
	// Remove detaches and destroys the element.
	Remove()
}

// PointerEvent is a pointer press, move or release on an element.
// Coordinates are in a frame that does not move with the element.
type PointerEvent struct {
	PointerID int
	X, Y      float64
	Modifier  bool // drag modifier held
}

// PointerHandler receives pointer events for an element.
type PointerHandler interface {
	// Press reports whether the event was consumed; consumed presses must
	// not trigger default actions or propagate.
	Press(ev PointerEvent) bool
	Move(ev PointerEvent)
	Release(ev PointerEvent)
}

// Standard CSS classes applied to elements.
const (
	ClassItem = "portrait-item"
)

// entryPose is the starting pose for lane: transparent and pushed slightly
// towards the lane's screen edge.
func entryPose(lane Lane) Pose {
	offset := 16
	if lane == LaneLeft {
		offset = -16
	}
	return Pose{Opacity: 0, OffsetX: offset}
}

// settledPose is the resting pose.
func settledPose() Pose {
	return Pose{Opacity: 1}
}

// exitPose fades the element out while lifting it slightly.
func exitPose() Pose {
	return Pose{Opacity: 0, OffsetY: -6}
}

package portrait

// Draggable is the part of an element the drag handler moves.
type Draggable interface {
	Top() int
	SetTop(y int)
	// Inset is the distance from the lane's screen edge: the left inset on
	// the left lane, the right inset on the right lane.
	Inset() int
	SetInset(x int)
	CapturePointer(pointerID int)
	ReleasePointer(pointerID int)
}

// DragState is the drag handler state.
type DragState int

const (
	DragIdle DragState = iota
	DragDragging
)

// Drag moves one element while the drag modifier is held at press time.
// It only ever touches the element it was created for and never repacks
// siblings.
type Drag struct {
	el      Draggable
	lane    Lane
	onStart func()

	state          DragState
	startX, startY float64
	baseTop        int
	baseInset      int
}

// NewDrag creates a handler for el in lane. onStart, if set, runs each time a
// drag begins.
func NewDrag(el Draggable, lane Lane, onStart func()) *Drag {
	return &Drag{el: el, lane: lane, onStart: onStart}
}

// State returns the current state.
func (d *Drag) State() DragState {
	return d.state
}

// Press implements PointerHandler.
func (d *Drag) Press(ev PointerEvent) bool {
	if !ev.Modifier {
		return false
	}
	d.state = DragDragging
	d.el.CapturePointer(ev.PointerID)
	d.startX, d.startY = ev.X, ev.Y
	d.baseTop = d.el.Top()
	d.baseInset = d.el.Inset()
	if d.onStart != nil {
		d.onStart()
	}
	return true
}

// Move implements PointerHandler.
func (d *Drag) Move(ev PointerEvent) {
	if d.state != DragDragging {
		return
	}
	dx := int(ev.X - d.startX)
	dy := int(ev.Y - d.startY)

	d.el.SetTop(d.baseTop + dy)
	if d.lane == LaneLeft {
		d.el.SetInset(max(0, d.baseInset+dx))
	} else {
		d.el.SetInset(max(0, d.baseInset-dx))
	}
}

// Release implements PointerHandler.
func (d *Drag) Release(ev PointerEvent) {
	if d.state != DragDragging {
		return
	}
	d.state = DragIdle
	d.el.ReleasePointer(ev.PointerID)
}

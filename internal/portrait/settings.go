package portrait

// SideMode selects the lane a local trigger is rendered into.
type SideMode string

const (
	SideAuto  SideMode = "auto"
	SideLeft  SideMode = "left"
	SideRight SideMode = "right"
)

// Identity is the local user as seen by peers.
type Identity struct {
	UserID   string
	UserName string
	Elevated bool // game master / host role
}

// Settings is the read-only configuration surface the core needs.
type Settings interface {
	WidthPx() int
	DurationMs() int
	SideMode() SideMode
	Baseline(lane Lane) int
	// DefaultInset is the edge distance new elements start at.
	DefaultInset() int
	// SlotImage returns the image for slot, or "" when unset or out of range.
	SlotImage(slot int) string
	Identity() Identity
}

// ResolveLane maps a side mode to a lane. Auto puts elevated users on the
// left and everyone else on the right.
func ResolveLane(mode SideMode, elevated bool) Lane {
	switch mode {
	case SideLeft:
		return LaneLeft
	case SideRight:
		return LaneRight
	default:
		if elevated {
			return LaneLeft
		}
		return LaneRight
	}
}

package display

import (
	"strings"

	"github.com/jmylchreest/chatportraits/internal/portrait"
)

// margins is the layer-shell placement of a portrait surface.
type margins struct {
	Top  int
	Edge int // left margin on the left lane, right margin on the right lane
}

// placement returns the margins for an element laid out at top/inset and
// displaced by pose. A positive pose offset moves the surface right/down.
func placement(lane portrait.Lane, top, inset int, pose portrait.Pose) margins {
	m := margins{Top: top + pose.OffsetY}
	if lane == portrait.LaneLeft {
		m.Edge = inset + pose.OffsetX
	} else {
		m.Edge = inset - pose.OffsetX
	}
	return m
}

// absolute converts surface-local pointer coordinates to a frame that does
// not move with the surface. Only differences between absolute positions are
// meaningful: on the right lane the frame's origin depends on the output width.
func absolute(lane portrait.Lane, top, inset int, x, y float64) (float64, float64) {
	ax := float64(inset) + x
	if lane == portrait.LaneRight {
		ax = x - float64(inset)
	}
	return ax, float64(top) + y
}

// lerpPose interpolates between two poses; t is clamped to [0, 1].
func lerpPose(from, to portrait.Pose, t float64) portrait.Pose {
	t = min(max(t, 0), 1)
	lerp := func(a, b int) int {
		return a + int(float64(b-a)*t+copysignHalf(float64(b-a)*t))
	}
	return portrait.Pose{
		Opacity: from.Opacity + (to.Opacity-from.Opacity)*t,
		OffsetX: lerp(from.OffsetX, to.OffsetX),
		OffsetY: lerp(from.OffsetY, to.OffsetY),
	}
}

// copysignHalf returns ±0.5 matching the sign of v, for round-half-away.
func copysignHalf(v float64) float64 {
	if v < 0 {
		return -0.5
	}
	return 0.5
}

// sanitizeClassName converts a string to a valid CSS class name.
// Replaces spaces and special characters with hyphens, lowercases.
func sanitizeClassName(name string) string {
	var result strings.Builder
	prevHyphen := false

	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			result.WriteRune(r)
			prevHyphen = false
		case r == '-' || r == '_' || r == ' ' || r == '.' || r == '/':
			if !prevHyphen && result.Len() > 0 {
				result.WriteRune('-')
				prevHyphen = true
			}
		}
	}

	return strings.TrimSuffix(result.String(), "-")
}

// imagePath turns an image reference into a local filename.
func imagePath(ref string) string {
	return strings.TrimPrefix(ref, "file://")
}

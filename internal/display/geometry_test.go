package display

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jmylchreest/chatportraits/internal/portrait"
)

func TestPlacement(t *testing.T) {
	entryLeft := portrait.Pose{Opacity: 0, OffsetX: -16}
	entryRight := portrait.Pose{Opacity: 0, OffsetX: 16}
	exit := portrait.Pose{Opacity: 0, OffsetY: -6}

	assert.Equal(t, margins{Top: 120, Edge: 8}, placement(portrait.LaneLeft, 120, 24, entryLeft))
	assert.Equal(t, margins{Top: 120, Edge: 8}, placement(portrait.LaneRight, 120, 24, entryRight))
	assert.Equal(t, margins{Top: 114, Edge: 24}, placement(portrait.LaneLeft, 120, 24, exit))
	assert.Equal(t, margins{Top: 516, Edge: 24}, placement(portrait.LaneRight, 516, 24, portrait.Pose{Opacity: 1}))
}

func TestAbsolute_StableWhileSurfaceMoves(t *testing.T) {
	// The pointer stays put on screen while the surface moves under it by
	// 10px: its local coordinates shift by -10 on the left lane.
	x1, y1 := absolute(portrait.LaneLeft, 100, 24, 50, 60)
	x2, y2 := absolute(portrait.LaneLeft, 110, 34, 40, 50)
	assert.Equal(t, x1, x2)
	assert.Equal(t, y1, y2)

	// On the right lane a larger inset moves the surface left, so local x
	// grows.
	x1, _ = absolute(portrait.LaneRight, 100, 24, 50, 60)
	x2, _ = absolute(portrait.LaneRight, 100, 34, 60, 60)
	assert.Equal(t, x1, x2)
}

func TestLerpPose(t *testing.T) {
	from := portrait.Pose{Opacity: 0, OffsetX: -16}
	to := portrait.Pose{Opacity: 1}

	assert.Equal(t, from, lerpPose(from, to, 0))
	assert.Equal(t, to, lerpPose(from, to, 1))
	assert.Equal(t, to, lerpPose(from, to, 2))
	assert.Equal(t, portrait.Pose{Opacity: 0.5, OffsetX: -8}, lerpPose(from, to, 0.5))

	mid := lerpPose(portrait.Pose{Opacity: 1}, portrait.Pose{OffsetY: -6}, 0.25)
	assert.Equal(t, -2, mid.OffsetY)
	assert.InDelta(t, 0.75, mid.Opacity, 1e-9)
}

func TestSanitizeClassName(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Alice", "alice"},
		{"The GM", "the-gm"},
		{"user_42", "user-42"},
		{"--weird..name--", "weird-name"},
		{"émoji🎲", "moji"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, sanitizeClassName(tt.input), tt.input)
	}
}

func TestImagePath(t *testing.T) {
	assert.Equal(t, "/srv/a.png", imagePath("file:///srv/a.png"))
	assert.Equal(t, "portraits/a.png", imagePath("portraits/a.png"))
}

package portrait

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestItemHeight(t *testing.T) {
	assert.Equal(t, 384, ItemHeight(320))
	assert.Equal(t, 120, ItemHeight(100))
	assert.Equal(t, 1, ItemHeight(1))
}

func TestComputeY_EmptyLaneReturnsBaseline(t *testing.T) {
	for _, baseline := range []int{0, 40, 120, 900} {
		assert.Equal(t, baseline, ComputeY(baseline, 320, nil))
	}
}

func TestComputeY_StacksBelowExisting(t *testing.T) {
	y := ComputeY(120, 320, []Span{{Top: 120, Height: 384}})
	assert.Equal(t, 516, y)
}

func TestComputeY_FillsGapAboveFirstItem(t *testing.T) {
	// 120 + 120 + 12 = 252 fits before an item at 400.
	y := ComputeY(120, 100, []Span{{Top: 400, Height: 384}})
	assert.Equal(t, 120, y)
}

func TestComputeY_GapTooSmall(t *testing.T) {
	// A 384px item needs 396px; the gap above 400 is only 280px.
	y := ComputeY(120, 320, []Span{{Top: 400, Height: 384}})
	assert.Equal(t, 400+384+Spacing, y)
}

func TestComputeY_FillsGapBetweenItems(t *testing.T) {
	spans := []Span{
		{Top: 120, Height: 120},
		{Top: 600, Height: 120},
	}
	// First free slot is 252; 252+120+12 = 384 <= 600.
	assert.Equal(t, 252, ComputeY(120, 100, spans))
}

func TestComputeY_UnsortedInput(t *testing.T) {
	sorted := []Span{{Top: 120, Height: 384}, {Top: 516, Height: 384}}
	unsorted := []Span{{Top: 516, Height: 384}, {Top: 120, Height: 384}}

	assert.Equal(t, ComputeY(120, 320, sorted), ComputeY(120, 320, unsorted))
	assert.Equal(t, []Span{{Top: 516, Height: 384}, {Top: 120, Height: 384}}, unsorted, "input must not be reordered")
}

func TestComputeY_ZeroHeightUsesItemHeight(t *testing.T) {
	y := ComputeY(120, 320, []Span{{Top: 120, Height: 0}})
	assert.Equal(t, 516, y)
}

func TestComputeY_ItemsAboveBaselineIgnored(t *testing.T) {
	// Dragged far above the baseline, the item no longer blocks it.
	y := ComputeY(500, 100, []Span{{Top: 0, Height: 120}})
	assert.Equal(t, 500, y)
}

func TestComputeY_Deterministic(t *testing.T) {
	spans := []Span{{Top: 200, Height: 50}, {Top: 120, Height: 60}, {Top: 600, Height: 384}}
	first := ComputeY(120, 200, spans)
	for range 10 {
		assert.Equal(t, first, ComputeY(120, 200, spans))
	}
}

func TestComputeY_NoOverlapProperty(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))

	for run := range 50 {
		baseline := rng.IntN(300)
		var spans []Span
		for range 12 {
			w := 40 + rng.IntN(400)
			y := ComputeY(baseline, w, spans)
			h := ItemHeight(w)

			assert.GreaterOrEqual(t, y, baseline)
			for _, s := range spans {
				overlaps := y < s.Top+s.Height+Spacing && s.Top < y+h+Spacing
				assert.False(t, overlaps, "run %d: [%d,%d) overlaps %+v", run, y, y+h, s)
			}
			spans = append(spans, Span{Top: y, Height: h})
		}
	}
}

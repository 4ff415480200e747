package portrait

import (
	"math"
	"slices"
)

const (
	// Spacing is the vertical gap kept between packed items.
	Spacing = 12

	// AspectRatio is the assumed height/width ratio of a portrait frame.
	AspectRatio = 1.2
)

// Span is the vertical extent of an item already placed in a lane.
type Span struct {
	Top    int
	Height int
}

// ItemHeight returns the packing height assumed for an item of the given width.
func ItemHeight(widthPx int) int {
	return int(math.Round(float64(widthPx) * AspectRatio))
}

// ComputeY returns the lowest y >= baseline at which an item of widthPx fits
// without overlapping any span. Spans need not be sorted; ComputeY sorts a
// copy by top. Spans with a zero height are assumed to be as tall as the new
// item.
func ComputeY(baseline, widthPx int, spans []Span) int {
	itemHeight := ItemHeight(widthPx)

	sorted := make([]Span, len(spans))
	copy(sorted, spans)
	for i := range sorted {
		if sorted[i].Height <= 0 {
			sorted[i].Height = itemHeight
		}
	}
	slices.SortStableFunc(sorted, func(a, b Span) int {
		return a.Top - b.Top
	})

	y := baseline
	for _, s := range sorted {
		if y+itemHeight+Spacing <= s.Top {
			break
		}
		y = max(y, s.Top+s.Height+Spacing)
	}
	return y
}

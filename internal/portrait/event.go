package portrait

import (
	"encoding/json"
	"fmt"
)

// Lane is one of the two screen-side tracks portraits are packed into.
type Lane string

const (
	LaneLeft  Lane = "left"
	LaneRight Lane = "right"
)

// Lanes returns both lanes in a stable order.
func Lanes() []Lane {
	return []Lane{LaneLeft, LaneRight}
}

// Valid reports whether l is a known lane.
func (l Lane) Valid() bool {
	return l == LaneLeft || l == LaneRight
}

// ParseLane converts a string to a Lane.
func ParseLane(s string) (Lane, error) {
	l := Lane(s)
	if !l.Valid() {
		return "", fmt.Errorf("invalid lane %q, must be %q or %q", s, LaneLeft, LaneRight)
	}
	return l, nil
}

// Event is the wire payload broadcast for every trigger. It is immutable
// once built; the same value is rendered locally and sent to peers.
type Event struct {
	ID         string `json:"id"`
	UserID     string `json:"userId"`
	UserName   string `json:"userName"`
	ImageRef   string `json:"imageRef"`
	Lane       Lane   `json:"lane"`
	WidthPx    int    `json:"widthPx"`
	DurationMs int    `json:"durationMs"`
}

// Validate checks the fields a receiver needs to render the event.
func (e Event) Validate() error {
	switch {
	case e.ID == "":
		return fmt.Errorf("%w: empty id", ErrMalformedPayload)
	case e.UserID == "":
		return fmt.Errorf("%w: empty userId", ErrMalformedPayload)
	case e.ImageRef == "":
		return fmt.Errorf("%w: empty imageRef", ErrMalformedPayload)
	case !e.Lane.Valid():
		return fmt.Errorf("%w: invalid lane %q", ErrMalformedPayload, e.Lane)
	case e.WidthPx <= 0:
		return fmt.Errorf("%w: widthPx must be positive, got %d", ErrMalformedPayload, e.WidthPx)
	case e.DurationMs <= 0:
		return fmt.Errorf("%w: durationMs must be positive, got %d", ErrMalformedPayload, e.DurationMs)
	}
	return nil
}

// Encode marshals the event for the broadcast channel.
func (e Event) Encode() ([]byte, error) {
	return json.Marshal(e)
}

// wireEvent mirrors Event with pointer fields so absent keys can be told
// apart from zero values.
type wireEvent struct {
	ID         *string `json:"id"`
	UserID     *string `json:"userId"`
	UserName   *string `json:"userName"`
	ImageRef   *string `json:"imageRef"`
	Lane       *Lane   `json:"lane"`
	WidthPx    *int    `json:"widthPx"`
	DurationMs *int    `json:"durationMs"`
}

// DecodeEvent parses and validates a payload received from the channel.
// Every field must be present; unknown fields are ignored.
func DecodeEvent(data []byte) (Event, error) {
	var w wireEvent
	if err := json.Unmarshal(data, &w); err != nil {
		return Event{}, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	missing := func(name string) (Event, error) {
		return Event{}, fmt.Errorf("%w: missing field %q", ErrMalformedPayload, name)
	}
	switch {
	case w.ID == nil:
		return missing("id")
	case w.UserID == nil:
		return missing("userId")
	case w.UserName == nil:
		return missing("userName")
	case w.ImageRef == nil:
		return missing("imageRef")
	case w.Lane == nil:
		return missing("lane")
	case w.WidthPx == nil:
		return missing("widthPx")
	case w.DurationMs == nil:
		return missing("durationMs")
	}

	e := Event{
		ID:         *w.ID,
		UserID:     *w.UserID,
		UserName:   *w.UserName,
		ImageRef:   *w.ImageRef,
		Lane:       *w.Lane,
		WidthPx:    *w.WidthPx,
		DurationMs: *w.DurationMs,
	}
	if err := e.Validate(); err != nil {
		return Event{}, err
	}
	return e, nil
}

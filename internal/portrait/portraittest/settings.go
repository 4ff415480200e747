package portraittest

import (
	"context"
	"sync"

	"github.com/jmylchreest/chatportraits/internal/portrait"
)

// Settings is a mutable portrait.Settings.
type Settings struct {
	Width         int
	Duration      int
	Mode          portrait.SideMode
	BaselineLeft  int
	BaselineRight int
	Inset         int
	Slots         []string
	Who           portrait.Identity
}

// NewSettings returns settings matching the shipped defaults, with slot 0
// configured.
func NewSettings() *Settings {
	return &Settings{
		Width:         320,
		Duration:      4000,
		Mode:          portrait.SideAuto,
		BaselineLeft:  120,
		BaselineRight: 120,
		Inset:         24,
		Slots:         []string{"portraits/smile.webp", "", "", "", "", "", "", "", "", ""},
		Who:           portrait.Identity{UserID: "u1", UserName: "Alice"},
	}
}

func (s *Settings) WidthPx() int { return s.Width }
func (s *Settings) DurationMs() int { return s.Duration }
func (s *Settings) SideMode() portrait.SideMode { return s.Mode }
func (s *Settings) DefaultInset() int { return s.Inset }
func (s *Settings) Identity() portrait.Identity { return s.Who }

// Baseline implements portrait.Settings.
func (s *Settings) Baseline(lane portrait.Lane) int {
	if lane == portrait.LaneLeft {
		return s.BaselineLeft
	}
	return s.BaselineRight
}

// SlotImage implements portrait.Settings.
func (s *Settings) SlotImage(slot int) string {
	if slot < 0 || slot >= len(s.Slots) {
		return ""
	}
	return s.Slots[slot]
}

// Warning is a recorded Warner call.
type Warning struct {
	Key, Summary, Body string
}

// Warner records warnings.
type Warner struct {
	mu       sync.Mutex
	warnings []Warning
}

// Warn implements portrait.Warner.
func (w *Warner) Warn(key, summary, body string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.warnings = append(w.warnings, Warning{Key: key, Summary: summary, Body: body})
}

// Warnings returns the recorded warnings.
func (w *Warner) Warnings() []Warning {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]Warning(nil), w.warnings...)
}

// Publisher records published payloads.
type Publisher struct {
	mu       sync.Mutex
	Err      error
	payloads [][]byte
}

// Publish implements portrait.Publisher. The payload is recorded even when
// Err is set.
func (p *Publisher) Publish(_ context.Context, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.payloads = append(p.payloads, append([]byte(nil), payload...))
	return p.Err
}

// Payloads returns the recorded payloads.
func (p *Publisher) Payloads() [][]byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([][]byte(nil), p.payloads...)
}

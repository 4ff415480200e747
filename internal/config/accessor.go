package config

import (
	"sync/atomic"

	"github.com/jmylchreest/chatportraits/internal/portrait"
)

// Accessor exposes a DaemonConfig as portrait.Settings. The underlying config
// can be swapped at any time, so reads always see the latest reload.
type Accessor struct {
	cfg atomic.Pointer[DaemonConfig]
}

// NewAccessor creates an Accessor serving cfg.
func NewAccessor(cfg *DaemonConfig) *Accessor {
	a := &Accessor{}
	a.Store(cfg)
	return a
}

// Load returns the current config. Callers must not modify it.
func (a *Accessor) Load() *DaemonConfig {
	return a.cfg.Load()
}

// Store replaces the current config.
func (a *Accessor) Store(cfg *DaemonConfig) {
	if cfg == nil {
		cfg = DefaultDaemonConfig()
		cfg.normalize()
	}
	a.cfg.Store(cfg)
}

// WidthPx implements portrait.Settings.
func (a *Accessor) WidthPx() int {
	return a.Load().Portrait.WidthPx
}

// DurationMs implements portrait.Settings.
func (a *Accessor) DurationMs() int {
	return a.Load().Portrait.Duration.Milliseconds()
}

// SideMode implements portrait.Settings.
func (a *Accessor) SideMode() portrait.SideMode {
	return portrait.SideMode(a.Load().Portrait.SideMode)
}

// Baseline implements portrait.Settings.
func (a *Accessor) Baseline(lane portrait.Lane) int {
	p := a.Load().Portrait
	if lane == portrait.LaneLeft {
		return p.BaselineLeft
	}
	return p.BaselineRight
}

// DefaultInset implements portrait.Settings.
func (a *Accessor) DefaultInset() int {
	return a.Load().Portrait.DefaultInset
}

// SlotImage implements portrait.Settings.
func (a *Accessor) SlotImage(slot int) string {
	return a.Load().SlotImage(slot)
}

// Identity implements portrait.Settings.
func (a *Accessor) Identity() portrait.Identity {
	id := a.Load().Identity
	return portrait.Identity{
		UserID:   id.UserID,
		UserName: id.UserName,
		Elevated: Role(id.Role) == RoleElevated,
	}
}

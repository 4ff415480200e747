package config

import (
	"fmt"
	"slices"
	"strconv"
	"time"

	"github.com/jmylchreest/chatportraits/internal/portrait"
)

// SlotCount is the number of portrait slots.
const SlotCount = 10

// Duration is a time.Duration that can be unmarshaled from human-readable strings.
// Supports formats like "4s", "500ms", "1m", or integer milliseconds.
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler for TOML parsing.
func (d *Duration) UnmarshalText(text []byte) error {
	s := string(text)

	// Integer values are milliseconds
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		*d = Duration(time.Duration(ms) * time.Millisecond)
		return nil
	}

	dur, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: must be like '4s', '500ms', '1m' or milliseconds: %w", s, err)
	}
	*d = Duration(dur)
	return nil
}

// MarshalText implements encoding.TextMarshaler for TOML output.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Milliseconds returns the duration in milliseconds.
func (d Duration) Milliseconds() int {
	return int(time.Duration(d).Milliseconds())
}

// Duration returns the underlying time.Duration.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// DaemonConfig is the configuration for portraitd.
// Loaded from ~/.config/chatportraits/portraitd.toml
type DaemonConfig struct {
	Portrait PortraitConfig `toml:"portrait"`
	Slots    []SlotConfig   `toml:"slots"`
	Identity IdentityConfig `toml:"identity"`
	Channel  ChannelConfig  `toml:"channel"`
	Drag     DragConfig     `toml:"drag"`
	Display  DisplayConfig  `toml:"display"`
	Audio    AudioConfig    `toml:"audio"`
	Theme    ThemeConfig    `toml:"theme"`
	Mouse    MouseConfig    `toml:"mouse"`
}

// PortraitConfig controls the size, lifetime and placement of portraits.
type PortraitConfig struct {
	WidthPx       int            `toml:"width_px"`
	Duration      Duration       `toml:"duration"`  // e.g. "4s" or 4000
	SideMode      string         `toml:"side_mode"` // "auto", "left", "right"
	BaselineLeft  int            `toml:"baseline_left"`
	BaselineRight int            `toml:"baseline_right"`
	DefaultInset  int            `toml:"default_inset"` // distance from the screen edge
	CustomOffsets map[string]int `toml:"custom_offsets,omitempty"`
}

// SlotConfig is one trigger slot. Slots are numbered by position; missing
// trailing slots are unset.
type SlotConfig struct {
	Image string `toml:"image"` // path or URI; empty = unset
}

// IdentityConfig is how the local user appears to peers.
type IdentityConfig struct {
	UserID   string `toml:"user_id"`   // defaults to the login name
	UserName string `toml:"user_name"` // defaults to user_id
	Role     string `toml:"role"`      // "elevated" or "regular"
}

// Role is the local user's role.
type Role string

const (
	RoleElevated Role = "elevated"
	RoleRegular  Role = "regular"
)

// ChannelConfig selects the broadcast channel backend.
type ChannelConfig struct {
	Backend        string   `toml:"backend"` // "websocket", "redis", "none"
	URL            string   `toml:"url"`     // websocket relay URL
	Room           string   `toml:"room"`
	RedisAddr      string   `toml:"redis_addr"`
	RedisChannel   string   `toml:"redis_channel"`
	PublishTimeout Duration `toml:"publish_timeout"`
}

// Backend names a channel backend.
type Backend string

const (
	BackendWebsocket Backend = "websocket"
	BackendRedis     Backend = "redis"
	BackendNone      Backend = "none"
)

// ValidBackends returns all valid backend values.
func ValidBackends() []Backend {
	return []Backend{BackendWebsocket, BackendRedis, BackendNone}
}

// DragConfig contains drag settings.
type DragConfig struct {
	Modifier string `toml:"modifier"` // "alt", "shift", "ctrl", "super"
}

// Modifier is the key that must be held to start a drag.
type Modifier string

const (
	ModifierAlt   Modifier = "alt"
	ModifierShift Modifier = "shift"
	ModifierCtrl  Modifier = "ctrl"
	ModifierSuper Modifier = "super"
)

// ValidModifiers returns all valid modifier values.
func ValidModifiers() []Modifier {
	return []Modifier{ModifierAlt, ModifierShift, ModifierCtrl, ModifierSuper}
}

// DisplayConfig contains display-related settings.
type DisplayConfig struct {
	Monitor int `toml:"monitor"` // 0 = first monitor, 1+ = specific monitor
}

// AudioConfig contains audio settings.
type AudioConfig struct {
	Enabled bool   `toml:"enabled"`
	Volume  int    `toml:"volume"` // 0-100
	Chime   string `toml:"chime"`  // sound file; empty = built-in tone
}

// ThemeConfig contains theme settings.
type ThemeConfig struct {
	Name        string `toml:"name"`         // Theme name without .css extension
	ColorScheme string `toml:"color_scheme"` // "system", "light", or "dark"
}

// ColorScheme represents the color scheme preference.
type ColorScheme string

const (
	ColorSchemeSystem ColorScheme = "system"
	ColorSchemeLight  ColorScheme = "light"
	ColorSchemeDark   ColorScheme = "dark"
)

// ValidColorSchemes returns all valid color scheme values.
func ValidColorSchemes() []ColorScheme {
	return []ColorScheme{ColorSchemeSystem, ColorSchemeLight, ColorSchemeDark}
}

// MouseConfig contains mouse button action mappings.
type MouseConfig struct {
	Left   string `toml:"left"`   // "dismiss", "close-all", "none"
	Middle string `toml:"middle"` // "dismiss", "close-all", "none"
	Right  string `toml:"right"`  // "dismiss", "close-all", "none"
}

// MouseAction represents a mouse button action.
type MouseAction string

const (
	MouseActionDismiss  MouseAction = "dismiss"
	MouseActionCloseAll MouseAction = "close-all"
	MouseActionNone     MouseAction = "none"
)

// DefaultDaemonConfig returns a new DaemonConfig with default values.
func DefaultDaemonConfig() *DaemonConfig {
	return &DaemonConfig{
		Portrait: PortraitConfig{
			WidthPx:       320,
			Duration:      Duration(4 * time.Second),
			SideMode:      string(portrait.SideAuto),
			BaselineLeft:  120,
			BaselineRight: 120,
			DefaultInset:  24,
		},
		Identity: IdentityConfig{
			Role: string(RoleRegular),
		},
		Channel: ChannelConfig{
			Backend:        string(BackendWebsocket),
			URL:            "ws://127.0.0.1:8787/ws",
			Room:           "default",
			RedisAddr:      "127.0.0.1:6379",
			RedisChannel:   "chatportraits",
			PublishTimeout: Duration(3 * time.Second),
		},
		Drag: DragConfig{
			Modifier: string(ModifierAlt),
		},
		Display: DisplayConfig{
			Monitor: 0,
		},
		Audio: AudioConfig{
			Enabled: false,
			Volume:  60,
		},
		Theme: ThemeConfig{
			Name:        "default",
			ColorScheme: string(ColorSchemeSystem),
		},
		Mouse: MouseConfig{
			Left:   string(MouseActionDismiss),
			Middle: string(MouseActionNone),
			Right:  string(MouseActionCloseAll),
		},
	}
}

// normalize fills values that depend on the environment or on other fields.
func (c *DaemonConfig) normalize() {
	if len(c.Slots) < SlotCount {
		c.Slots = append(c.Slots, make([]SlotConfig, SlotCount-len(c.Slots))...)
	}
	if c.Identity.UserID == "" {
		c.Identity.UserID = defaultUserID()
	}
	if c.Identity.UserName == "" {
		c.Identity.UserName = c.Identity.UserID
	}
}

// Validate checks if the configuration is valid.
func (c *DaemonConfig) Validate() error {
	p := c.Portrait
	if p.WidthPx < 32 || p.WidthPx > 2000 {
		return fmt.Errorf("width_px must be between 32 and 2000, got %d", p.WidthPx)
	}
	if p.Duration.Milliseconds() <= 0 {
		return fmt.Errorf("duration must be at least 1ms, got %s", p.Duration.Duration())
	}
	if !slices.Contains([]portrait.SideMode{portrait.SideAuto, portrait.SideLeft, portrait.SideRight}, portrait.SideMode(p.SideMode)) {
		return fmt.Errorf("invalid side_mode %q, must be auto, left or right", p.SideMode)
	}
	if p.BaselineLeft < 0 || p.BaselineRight < 0 {
		return fmt.Errorf("baselines must not be negative, got left=%d right=%d", p.BaselineLeft, p.BaselineRight)
	}
	if p.DefaultInset < 0 {
		return fmt.Errorf("default_inset must not be negative, got %d", p.DefaultInset)
	}

	if len(c.Slots) > SlotCount {
		return fmt.Errorf("at most %d slots are supported, got %d", SlotCount, len(c.Slots))
	}

	if r := Role(c.Identity.Role); r != RoleElevated && r != RoleRegular {
		return fmt.Errorf("invalid role %q, must be %q or %q", c.Identity.Role, RoleElevated, RoleRegular)
	}

	switch Backend(c.Channel.Backend) {
	case BackendWebsocket:
		if c.Channel.URL == "" {
			return fmt.Errorf("channel url is required for the websocket backend")
		}
	case BackendRedis:
		if c.Channel.RedisAddr == "" || c.Channel.RedisChannel == "" {
			return fmt.Errorf("redis_addr and redis_channel are required for the redis backend")
		}
	case BackendNone:
	default:
		return fmt.Errorf("invalid channel backend %q, must be one of: %v", c.Channel.Backend, ValidBackends())
	}

	if !slices.Contains(ValidModifiers(), Modifier(c.Drag.Modifier)) {
		return fmt.Errorf("invalid drag modifier %q, must be one of: %v", c.Drag.Modifier, ValidModifiers())
	}

	if c.Display.Monitor < 0 {
		return fmt.Errorf("monitor must not be negative, got %d", c.Display.Monitor)
	}

	// Validate volume
	if c.Audio.Volume < 0 || c.Audio.Volume > 100 {
		return fmt.Errorf("volume must be between 0 and 100, got %d", c.Audio.Volume)
	}

	if !slices.Contains(ValidColorSchemes(), ColorScheme(c.Theme.ColorScheme)) {
		return fmt.Errorf("invalid color_scheme %q, must be one of: %v", c.Theme.ColorScheme, ValidColorSchemes())
	}

	// Validate mouse actions
	validActions := map[string]bool{
		string(MouseActionDismiss):  true,
		string(MouseActionCloseAll): true,
		string(MouseActionNone):     true,
	}
	for _, action := range []string{c.Mouse.Left, c.Mouse.Middle, c.Mouse.Right} {
		if !validActions[action] {
			return fmt.Errorf("invalid mouse action %q", action)
		}
	}

	return nil
}

// SlotImage returns the image configured for slot with ~ expanded, or "".
func (c *DaemonConfig) SlotImage(slot int) string {
	if slot < 0 || slot >= len(c.Slots) {
		return ""
	}
	return expandPath(c.Slots[slot].Image)
}

// ChimePath returns the chime sound file with ~ expanded.
func (c *DaemonConfig) ChimePath() string {
	return expandPath(c.Audio.Chime)
}

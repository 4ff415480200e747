package display

import (
	"log/slog"
	"sync"
	"unsafe"

	"github.com/diamondburned/gotk4-adwaita/pkg/adw"
	"github.com/diamondburned/gotk4/pkg/core/glib"
	"github.com/diamondburned/gotk4/pkg/gdk/v4"
	"github.com/diamondburned/gotk4/pkg/gtk/v4"

	"github.com/jmylchreest/chatportraits/internal/config"
	"github.com/jmylchreest/chatportraits/internal/portrait"
)

// Actions receives the mouse-bound actions of portrait surfaces. It is
// invoked on the GTK main loop.
type Actions interface {
	Dismiss(id string) bool
	DismissAll() int
}

// Host is a portrait.Host that mounts portraits on a GTK monitor.
type Host struct {
	app      *gtk.Application
	settings *config.Accessor
	logger   *slog.Logger

	mu      sync.Mutex
	actions Actions
}

// NewHost creates a host for app. settings is read each time a mount or
// element is created, so hot-reloaded values apply to new portraits.
func NewHost(app *gtk.Application, settings *config.Accessor, logger *slog.Logger) *Host {
	if logger == nil {
		logger = slog.Default()
	}
	return &Host{
		app:      app,
		settings: settings,
		logger:   logger,
	}
}

// SetActions sets the handler for mouse-bound actions.
func (h *Host) SetActions(a Actions) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.actions = a
}

func (h *Host) getActions() Actions {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.actions
}

// Mount implements portrait.Host.
func (h *Host) Mount() (portrait.Mount, error) {
	display := gdk.DisplayGetDefault()
	if display == nil {
		return nil, &DisplayError{Message: "no display available", Cause: portrait.ErrNoMount}
	}

	monitor := h.selectMonitor(display)
	if monitor == nil {
		return nil, &DisplayError{Message: "no monitor available", Cause: portrait.ErrNoMount}
	}

	h.logger.Debug("mounted portrait surface",
		"monitor", monitor.Connector(),
		"width", monitor.Geometry().Width(),
		"height", monitor.Geometry().Height(),
	)
	return &Mount{host: h, display: display, monitor: monitor}, nil
}

// selectMonitor returns the monitor to display portraits on based on config.
// Config values:
// - 0: first monitor
// - 1+: specific monitor (1-indexed)
//
// A configured monitor that is not available falls back to the first one.
func (h *Host) selectMonitor(display *gdk.Display) *gdk.Monitor {
	monitors := display.Monitors()
	if monitors == nil || monitors.NItems() == 0 {
		h.logger.Warn("no monitors list available")
		return nil
	}

	monitorNum := h.settings.Load().Display.Monitor
	if monitorNum == 0 {
		return wrapMonitor(monitors.Item(0))
	}

	// Convert to 0-indexed
	index := uint(monitorNum - 1)
	if index >= monitors.NItems() {
		h.logger.Warn("configured monitor not available, using first",
			"configured", monitorNum,
			"available", monitors.NItems(),
		)
		return wrapMonitor(monitors.Item(0))
	}
	return wrapMonitor(monitors.Item(index))
}

// wrapMonitor wraps a glib.Object as a gdk.Monitor.
// This is necessary because gotk4 doesn't expose the wrapMonitor function.
func wrapMonitor(obj *glib.Object) *gdk.Monitor {
	if obj == nil {
		return nil
	}
	// The gdk.Monitor struct embeds a *glib.Object, so we can create
	// one by casting the native pointer. This is how gotk4 does it internally.
	type monitor struct {
		_ [0]func()
		*glib.Object
	}
	m := &monitor{Object: obj}
	return (*gdk.Monitor)(unsafe.Pointer(m))
}

// colorSchemeClass returns "light" or "dark" based on config or system preference.
func (h *Host) colorSchemeClass() string {
	switch config.ColorScheme(h.settings.Load().Theme.ColorScheme) {
	case config.ColorSchemeLight:
		return "light"
	case config.ColorSchemeDark:
		return "dark"
	default:
		if adw.StyleManagerGetDefault().Dark() {
			return "dark"
		}
		return "light"
	}
}

// modifierMask returns the GDK modifier that starts a drag.
func (h *Host) modifierMask() gdk.ModifierType {
	switch config.Modifier(h.settings.Load().Drag.Modifier) {
	case config.ModifierShift:
		return gdk.ShiftMask
	case config.ModifierCtrl:
		return gdk.ControlMask
	case config.ModifierSuper:
		return gdk.SuperMask
	default:
		return gdk.AltMask
	}
}

// mouseAction returns the configured action for a mouse button.
func (h *Host) mouseAction(button uint) config.MouseAction {
	mouse := h.settings.Load().Mouse
	switch button {
	case gdk.BUTTON_PRIMARY:
		return config.MouseAction(mouse.Left)
	case gdk.BUTTON_MIDDLE:
		return config.MouseAction(mouse.Middle)
	case gdk.BUTTON_SECONDARY:
		return config.MouseAction(mouse.Right)
	default:
		return config.MouseActionNone
	}
}

// Mount is the monitor portraits are placed on. It goes stale when the
// monitor is unplugged or the display closes.
type Mount struct {
	host    *Host
	display *gdk.Display
	monitor *gdk.Monitor
}

// Connected implements portrait.Mount.
func (m *Mount) Connected() bool {
	if m.display.IsClosed() {
		return false
	}
	return m.monitor.IsValid()
}

// NewElement implements portrait.Mount.
func (m *Mount) NewElement(spec portrait.ElementSpec) (portrait.Element, error) {
	if !m.Connected() {
		return nil, &DisplayError{Message: "create portrait surface", Cause: portrait.ErrStaleMount}
	}
	return newElement(m, spec), nil
}

package dbus

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"

	"github.com/jmylchreest/chatportraits/internal/config"
	"github.com/jmylchreest/chatportraits/internal/portrait"
)

// callTimeout bounds how long a method call waits on the portrait loop.
const callTimeout = 5 * time.Second

// Controller is the portrait control surface the server exposes.
// portrait.Coordinator implements it.
type Controller interface {
	Trigger(ctx context.Context, slot int) (portrait.Event, error)
	Dismiss(ctx context.Context, id string) (bool, error)
	DismissAll(ctx context.Context) (int, error)
	Active(ctx context.Context) ([]portrait.ItemInfo, error)
}

// ControlServer implements the io.github.jmylchreest.ChatPortraits D-Bus
// interface.
type ControlServer struct {
	conn       *dbus.Conn
	controller Controller
	logger     *slog.Logger

	mu      sync.Mutex
	running bool
}

// NewControlServer creates a server forwarding calls to controller.
func NewControlServer(controller Controller, logger *slog.Logger) *ControlServer {
	if logger == nil {
		logger = slog.Default()
	}
	return &ControlServer{
		controller: controller,
		logger:     logger,
	}
}

// Start connects to the session bus and exports the control service.
func (s *ControlServer) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return fmt.Errorf("server already running")
	}

	conn, err := dbus.SessionBus()
	if err != nil {
		return fmt.Errorf("failed to connect to session bus: %w", err)
	}
	s.conn = conn

	// Export the control object
	if err := conn.Export(s, ObjectPath, Interface); err != nil {
		return fmt.Errorf("failed to export object: %w", err)
	}

	// Export introspection data
	node := &introspect.Node{
		Name: ObjectPath,
		Interfaces: []introspect.Interface{
			introspect.IntrospectData,
			{
				Name:    Interface,
				Methods: controlMethods(),
				Signals: controlSignals(),
			},
		},
	}
	if err := conn.Export(introspect.NewIntrospectable(node), ObjectPath,
		"org.freedesktop.DBus.Introspectable"); err != nil {
		return fmt.Errorf("failed to export introspectable: %w", err)
	}

	// Request the bus name
	reply, err := conn.RequestName(BusName, dbus.NameFlagDoNotQueue)
	if err != nil {
		return fmt.Errorf("failed to request bus name: %w", err)
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		return fmt.Errorf("bus name %s already taken", BusName)
	}

	s.running = true
	s.logger.Info("D-Bus control server started", "interface", Interface, "path", ObjectPath)
	return nil
}

// Stop releases the bus name.
func (s *ControlServer) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}
	s.running = false

	if s.conn != nil {
		if _, err := s.conn.ReleaseName(BusName); err != nil {
			s.logger.Warn("failed to release bus name", "error", err)
		}
		// Don't close the connection as it's shared (SessionBus)
	}

	s.logger.Info("D-Bus control server stopped")
	return nil
}

// TriggerSlot broadcasts and renders the portrait configured for slot.
// D-Bus method: TriggerSlot(i) -> s
func (s *ControlServer) TriggerSlot(slot int32) (string, *dbus.Error) {
	s.logger.Debug("TriggerSlot called", "slot", slot)
	if slot < 0 || slot >= config.SlotCount {
		return "", dbus.NewError(ErrorInvalidArgs, []any{fmt.Sprintf("slot %d out of range 0-%d", slot, config.SlotCount-1)})
	}

	ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
	defer cancel()
	ev, err := s.controller.Trigger(ctx, int(slot))
	if err != nil {
		return "", toDBusError(err)
	}
	return ev.ID, nil
}

// Dismiss starts the exit transition of the portrait with id.
// D-Bus method: Dismiss(s) -> b
func (s *ControlServer) Dismiss(id string) (bool, *dbus.Error) {
	s.logger.Debug("Dismiss called", "id", id)

	ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
	defer cancel()
	ok, err := s.controller.Dismiss(ctx, id)
	if err != nil {
		return false, toDBusError(err)
	}
	return ok, nil
}

// DismissAll dismisses every active portrait.
// D-Bus method: DismissAll() -> u
func (s *ControlServer) DismissAll() (uint32, *dbus.Error) {
	s.logger.Debug("DismissAll called")

	ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
	defer cancel()
	n, err := s.controller.DismissAll(ctx)
	if err != nil {
		return 0, toDBusError(err)
	}
	return uint32(n), nil
}

// ListActive returns the active portraits as a JSON array.
// D-Bus method: ListActive() -> s
func (s *ControlServer) ListActive() (string, *dbus.Error) {
	s.logger.Debug("ListActive called")

	ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
	defer cancel()
	items, err := s.controller.Active(ctx)
	if err != nil {
		return "", toDBusError(err)
	}
	data, err := json.Marshal(items)
	if err != nil {
		return "", toDBusError(err)
	}
	return string(data), nil
}

// controlMethods returns the D-Bus method introspection data.
func controlMethods() []introspect.Method {
	return []introspect.Method{
		{
			Name: "TriggerSlot",
			Args: []introspect.Arg{
				{Name: "slot", Type: "i", Direction: "in"},
				{Name: "id", Type: "s", Direction: "out"},
			},
		},
		{
			Name: "Dismiss",
			Args: []introspect.Arg{
				{Name: "id", Type: "s", Direction: "in"},
				{Name: "dismissed", Type: "b", Direction: "out"},
			},
		},
		{
			Name: "DismissAll",
			Args: []introspect.Arg{
				{Name: "count", Type: "u", Direction: "out"},
			},
		},
		{
			Name: "ListActive",
			Args: []introspect.Arg{
				{Name: "items", Type: "s", Direction: "out"},
			},
		},
	}
}

// controlSignals returns the D-Bus signal introspection data.
func controlSignals() []introspect.Signal {
	return []introspect.Signal{
		{
			Name: SignalShown,
			Args: []introspect.Arg{
				{Name: "id", Type: "s"},
				{Name: "user_name", Type: "s"},
				{Name: "lane", Type: "s"},
			},
		},
		{
			Name: SignalRemoved,
			Args: []introspect.Arg{
				{Name: "id", Type: "s"},
			},
		},
	}
}

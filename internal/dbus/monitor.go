package dbus

import (
	"fmt"
	"log/slog"

	"github.com/godbus/dbus/v5"

	"github.com/jmylchreest/chatportraits/internal/portrait"
)

// EventKind distinguishes the signals portraitd emits.
type EventKind string

const (
	EventShown   EventKind = "shown"
	EventRemoved EventKind = "removed"
)

// Event is a portrait signal observed on the bus.
type Event struct {
	Kind     EventKind     `json:"kind"`
	ID       string        `json:"id"`
	UserName string        `json:"user_name,omitempty"`
	Lane     portrait.Lane `json:"lane,omitempty"`
}

// EventHandler is called for each observed signal.
type EventHandler func(ev Event)

// Monitor passively observes portraitd's signals.
type Monitor struct {
	conn   *dbus.Conn
	logger *slog.Logger
	ch     chan *dbus.Signal

	onEvent EventHandler
}

// NewMonitor creates a new signal monitor.
func NewMonitor(logger *slog.Logger) *Monitor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Monitor{
		logger: logger,
	}
}

// SetEventHandler sets the callback for observed signals.
func (m *Monitor) SetEventHandler(handler EventHandler) {
	m.onEvent = handler
}

// Start subscribes to portraitd's signals on a private session bus
// connection.
func (m *Monitor) Start() error {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return fmt.Errorf("failed to connect to session bus: %w", err)
	}
	m.conn = conn

	err = conn.AddMatchSignal(
		dbus.WithMatchObjectPath(dbus.ObjectPath(ObjectPath)),
		dbus.WithMatchInterface(Interface),
	)
	if err != nil {
		conn.Close()
		return fmt.Errorf("failed to add match rule: %w", err)
	}

	m.ch = make(chan *dbus.Signal, 100)
	conn.Signal(m.ch)
	go m.processSignals()

	m.logger.Info("started D-Bus signal monitor", "interface", Interface)
	return nil
}

// processSignals reads signals until the connection closes.
func (m *Monitor) processSignals() {
	for sig := range m.ch {
		ev, ok := parseSignal(sig)
		if !ok {
			m.logger.Debug("ignoring signal", "name", sig.Name)
			continue
		}
		if m.onEvent != nil {
			m.onEvent(ev)
		}
	}
}

// parseSignal converts a control interface signal to an Event.
func parseSignal(sig *dbus.Signal) (Event, bool) {
	if sig == nil || len(sig.Body) == 0 {
		return Event{}, false
	}
	id, ok := sig.Body[0].(string)
	if !ok {
		return Event{}, false
	}

	switch sig.Name {
	case Interface + "." + SignalShown:
		if len(sig.Body) < 3 {
			return Event{}, false
		}
		user, _ := sig.Body[1].(string)
		lane, _ := sig.Body[2].(string)
		return Event{Kind: EventShown, ID: id, UserName: user, Lane: portrait.Lane(lane)}, true
	case Interface + "." + SignalRemoved:
		return Event{Kind: EventRemoved, ID: id}, true
	default:
		return Event{}, false
	}
}

// Stop stops the monitor.
func (m *Monitor) Stop() error {
	if m.conn != nil {
		m.conn.RemoveSignal(m.ch)
		err := m.conn.Close()
		close(m.ch)
		return err
	}
	return nil
}

package dbus

import (
	"fmt"
	"log/slog"

	"github.com/godbus/dbus/v5"
)

const (
	notificationsName = "org.freedesktop.Notifications"
	notificationsPath = "/org/freedesktop/Notifications"
)

// Toaster sends desktop toasts to the session's notification daemon.
type Toaster struct {
	conn   *dbus.Conn
	logger *slog.Logger
}

// NewToaster connects to the session bus.
func NewToaster(logger *slog.Logger) (*Toaster, error) {
	if logger == nil {
		logger = slog.Default()
	}
	conn, err := dbus.SessionBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to session bus: %w", err)
	}
	return &Toaster{conn: conn, logger: logger}, nil
}

// Send shows t and returns the notification id assigned by the daemon.
// D-Bus method: Notify(susssasa{sv}i) -> u
func (t *Toaster) Send(toast Toast) (uint32, error) {
	obj := t.conn.Object(notificationsName, notificationsPath)

	var id uint32
	err := obj.Call(notificationsName+".Notify", 0,
		toast.AppName,
		uint32(0),
		toast.AppIcon,
		toast.Summary,
		toast.Body,
		[]string{},
		toast.hints(),
		toast.ExpireTimeout,
	).Store(&id)
	if err != nil {
		return 0, fmt.Errorf("send toast: %w", err)
	}

	t.logger.Debug("sent toast", "id", id, "summary", toast.Summary, "urgency", toast.Urgency.String())
	return id, nil
}

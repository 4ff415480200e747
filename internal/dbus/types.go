package dbus

import (
	"errors"

	"github.com/godbus/dbus/v5"

	"github.com/jmylchreest/chatportraits/internal/portrait"
)

const (
	// BusName is the bus name claimed by portraitd.
	BusName = "io.github.jmylchreest.ChatPortraits"
	// ObjectPath is the control object path.
	ObjectPath = "/io/github/jmylchreest/ChatPortraits"
	// Interface is the control interface name.
	Interface = "io.github.jmylchreest.ChatPortraits"
)

// Error names returned by the control interface.
const (
	ErrorConfigurationMissing = Interface + ".Error.ConfigurationMissing"
	ErrorInvalidArgs          = "org.freedesktop.DBus.Error.InvalidArgs"
	ErrorUnavailable          = Interface + ".Error.Unavailable"
	ErrorFailed               = "org.freedesktop.DBus.Error.Failed"
)

// toDBusError maps a portrait error onto a D-Bus error.
func toDBusError(err error) *dbus.Error {
	if err == nil {
		return nil
	}
	name := ErrorFailed
	switch {
	case errors.Is(err, portrait.ErrConfigurationMissing):
		name = ErrorConfigurationMissing
	case errors.Is(err, portrait.ErrLoopClosed):
		name = ErrorUnavailable
	}
	return dbus.NewError(name, []any{err.Error()})
}

// fromDBusError maps a D-Bus error from the control interface back onto the
// portrait sentinel it stands for.
func fromDBusError(err error) error {
	var derr dbus.Error
	if !errors.As(err, &derr) {
		var pderr *dbus.Error
		if !errors.As(err, &pderr) {
			return err
		}
		derr = *pderr
	}
	switch derr.Name {
	case ErrorConfigurationMissing:
		return &RemoteError{Name: derr.Name, Message: errorMessage(derr), Cause: portrait.ErrConfigurationMissing}
	case ErrorUnavailable:
		return &RemoteError{Name: derr.Name, Message: errorMessage(derr), Cause: portrait.ErrLoopClosed}
	default:
		return &RemoteError{Name: derr.Name, Message: errorMessage(derr)}
	}
}

func errorMessage(e dbus.Error) string {
	if len(e.Body) > 0 {
		if s, ok := e.Body[0].(string); ok {
			return s
		}
	}
	return e.Name
}

// RemoteError is an error returned by portraitd over D-Bus.
type RemoteError struct {
	Name    string
	Message string
	Cause   error
}

func (e *RemoteError) Error() string {
	return e.Message
}

func (e *RemoteError) Unwrap() error {
	return e.Cause
}

// Urgency is the freedesktop notification urgency level.
type Urgency byte

const (
	UrgencyLow      Urgency = 0
	UrgencyNormal   Urgency = 1
	UrgencyCritical Urgency = 2
)

// String returns the string representation of the urgency.
func (u Urgency) String() string {
	switch u {
	case UrgencyLow:
		return "low"
	case UrgencyNormal:
		return "normal"
	case UrgencyCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// Toast is a desktop notification sent to the session's notification daemon.
type Toast struct {
	AppName       string
	AppIcon       string
	Summary       string
	Body          string
	Urgency       Urgency
	Category      string
	ExpireTimeout int32 // -1 = server default, 0 = never expire
}

// hints builds the Notify hints map.
func (t Toast) hints() map[string]dbus.Variant {
	hints := map[string]dbus.Variant{
		"urgency": dbus.MakeVariant(byte(t.Urgency)),
	}
	if t.Category != "" {
		hints["category"] = dbus.MakeVariant(t.Category)
	}
	return hints
}

package dbus

import (
	"encoding/json"
	"fmt"

	"github.com/godbus/dbus/v5"

	"github.com/jmylchreest/chatportraits/internal/portrait"
)

// Client calls the portraitd control interface.
type Client struct {
	conn *dbus.Conn
	obj  dbus.BusObject
}

// NewClient connects to the session bus.
func NewClient() (*Client, error) {
	conn, err := dbus.SessionBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to session bus: %w", err)
	}
	return &Client{
		conn: conn,
		obj:  conn.Object(BusName, dbus.ObjectPath(ObjectPath)),
	}, nil
}

// Running reports whether portraitd owns its bus name.
func (c *Client) Running() (bool, error) {
	var has bool
	err := c.conn.BusObject().Call("org.freedesktop.DBus.NameHasOwner", 0, BusName).Store(&has)
	if err != nil {
		return false, fmt.Errorf("query bus name: %w", err)
	}
	return has, nil
}

// TriggerSlot asks portraitd to broadcast slot and returns the new portrait id.
func (c *Client) TriggerSlot(slot int) (string, error) {
	var id string
	if err := c.obj.Call(Interface+".TriggerSlot", 0, int32(slot)).Store(&id); err != nil {
		return "", fromDBusError(err)
	}
	return id, nil
}

// Dismiss dismisses the portrait with id.
func (c *Client) Dismiss(id string) (bool, error) {
	var ok bool
	if err := c.obj.Call(Interface+".Dismiss", 0, id).Store(&ok); err != nil {
		return false, fromDBusError(err)
	}
	return ok, nil
}

// DismissAll dismisses every active portrait and returns how many were.
func (c *Client) DismissAll() (int, error) {
	var n uint32
	if err := c.obj.Call(Interface+".DismissAll", 0).Store(&n); err != nil {
		return 0, fromDBusError(err)
	}
	return int(n), nil
}

// ListActive returns the active portraits.
func (c *Client) ListActive() ([]portrait.ItemInfo, error) {
	var raw string
	if err := c.obj.Call(Interface+".ListActive", 0).Store(&raw); err != nil {
		return nil, fromDBusError(err)
	}
	return decodeItems(raw)
}

func decodeItems(raw string) ([]portrait.ItemInfo, error) {
	var items []portrait.ItemInfo
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, fmt.Errorf("decode active list: %w", err)
	}
	return items, nil
}

// Close closes the client's connection.
func (c *Client) Close() error {
	// The session bus connection is shared.
	return nil
}

package dbus

import (
	"fmt"

	"github.com/jmylchreest/chatportraits/internal/portrait"
)

// Signal names emitted on the control interface.
const (
	SignalShown   = "PortraitShown"
	SignalRemoved = "PortraitRemoved"
)

// EmitShown emits the PortraitShown signal.
func (s *ControlServer) EmitShown(info portrait.ItemInfo) error {
	if s.conn == nil {
		return fmt.Errorf("not connected to D-Bus")
	}

	err := s.conn.Emit(ObjectPath, Interface+"."+SignalShown, info.ID, info.UserName, string(info.Lane))
	if err != nil {
		return fmt.Errorf("failed to emit %s signal: %w", SignalShown, err)
	}

	s.logger.Debug("emitted PortraitShown signal", "id", info.ID)
	return nil
}

// EmitRemoved emits the PortraitRemoved signal.
func (s *ControlServer) EmitRemoved(info portrait.ItemInfo) error {
	if s.conn == nil {
		return fmt.Errorf("not connected to D-Bus")
	}

	err := s.conn.Emit(ObjectPath, Interface+"."+SignalRemoved, info.ID)
	if err != nil {
		return fmt.Errorf("failed to emit %s signal: %w", SignalRemoved, err)
	}

	s.logger.Debug("emitted PortraitRemoved signal", "id", info.ID)
	return nil
}

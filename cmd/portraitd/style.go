package main

import (
	"github.com/diamondburned/gotk4-adwaita/pkg/adw"

	"github.com/jmylchreest/chatportraits/internal/config"
)

// applyColorScheme forces libadwaita's light or dark variant, or follows
// the system for "system".
func applyColorScheme(scheme string) {
	sm := adw.StyleManagerGetDefault()
	switch config.ColorScheme(scheme) {
	case config.ColorSchemeLight:
		sm.SetColorScheme(adw.ColorSchemeForceLight)
	case config.ColorSchemeDark:
		sm.SetColorScheme(adw.ColorSchemeForceDark)
	default:
		sm.SetColorScheme(adw.ColorSchemeDefault)
	}
}

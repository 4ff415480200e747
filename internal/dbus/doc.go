// Package dbus implements the io.github.jmylchreest.ChatPortraits control
// interface that compositor keybindings and the portrait CLI drive, a client
// for it, a watcher for its signals, and a sender for desktop toasts on
// org.freedesktop.Notifications.
package dbus

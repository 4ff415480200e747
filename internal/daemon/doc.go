// Package daemon provides the supporting services portraitd runs alongside
// its GTK main loop: config hot-reload, rate-limited desktop warnings and
// the broadcast channel listener.
package daemon

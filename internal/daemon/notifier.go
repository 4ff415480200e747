package daemon

import (
	"log/slog"
	"sync"
	"time"

	"github.com/jmylchreest/chatportraits/internal/dbus"
)

// NotificationLevel indicates the urgency/severity of an internal notification.
type NotificationLevel int

const (
	// NotificationLevelInfo is for informational messages (low urgency).
	NotificationLevelInfo NotificationLevel = iota
	// NotificationLevelWarning is for warning messages (normal urgency).
	NotificationLevelWarning
	// NotificationLevelError is for error messages (critical urgency).
	NotificationLevelError
)

// InternalNotifier sends desktop toasts about portraitd events.
// It rate limits by key to prevent notification floods.
type InternalNotifier struct {
	mu     sync.Mutex
	logger *slog.Logger
	now    func() time.Time

	// Handler for sending toasts
	sendHandler func(toast dbus.Toast) error

	// Rate limiting
	lastNotifyTime map[string]time.Time // key -> last notification time
	minInterval    time.Duration        // minimum time between same notifications

	// Enabled flag
	enabled bool
}

// NewInternalNotifier creates a new InternalNotifier.
func NewInternalNotifier(logger *slog.Logger) *InternalNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &InternalNotifier{
		logger:         logger,
		now:            time.Now,
		lastNotifyTime: make(map[string]time.Time),
		minInterval:    5 * time.Second, // Don't repeat same notification within 5 seconds
		enabled:        true,
	}
}

// SetSendHandler sets the function that delivers a toast.
func (n *InternalNotifier) SetSendHandler(handler func(toast dbus.Toast) error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sendHandler = handler
}

// SetEnabled enables or disables internal notifications.
func (n *InternalNotifier) SetEnabled(enabled bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.enabled = enabled
}

// SetMinInterval sets the minimum interval between duplicate notifications.
func (n *InternalNotifier) SetMinInterval(interval time.Duration) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.minInterval = interval
}

// Notify sends an internal notification if not rate-limited.
// The key is used for rate limiting - same key won't notify again within minInterval.
func (n *InternalNotifier) Notify(key, summary, body string, level NotificationLevel) {
	n.mu.Lock()

	if !n.enabled {
		n.mu.Unlock()
		return
	}

	handler := n.sendHandler
	if handler == nil {
		n.mu.Unlock()
		n.logger.Debug("internal notification skipped: no handler", "summary", summary)
		return
	}

	// Rate limiting check
	now := n.now()
	if lastTime, ok := n.lastNotifyTime[key]; ok {
		if now.Sub(lastTime) < n.minInterval {
			n.mu.Unlock()
			n.logger.Debug("internal notification rate-limited", "key", key, "summary", summary)
			return
		}
	}
	n.lastNotifyTime[key] = now
	n.mu.Unlock()

	toast := dbus.Toast{
		AppName:       "portraitd",
		AppIcon:       levelIcon(level),
		Summary:       summary,
		Body:          body,
		Urgency:       levelUrgency(level),
		Category:      "device",
		ExpireTimeout: 5000, // 5 seconds for internal notifications
	}

	n.logger.Debug("sending internal notification", "key", key, "summary", summary, "level", level)
	if err := handler(toast); err != nil {
		n.logger.Warn("failed to send internal notification", "key", key, "error", err)
	}
}

// Warn implements portrait.Warner.
func (n *InternalNotifier) Warn(key, summary, body string) {
	n.Notify(key, summary, body, NotificationLevelWarning)
}

// levelUrgency maps level to D-Bus urgency.
func levelUrgency(level NotificationLevel) dbus.Urgency {
	switch level {
	case NotificationLevelInfo:
		return dbus.UrgencyLow
	case NotificationLevelError:
		return dbus.UrgencyCritical
	default:
		return dbus.UrgencyNormal
	}
}

// levelIcon returns the icon for level.
func levelIcon(level NotificationLevel) string {
	switch level {
	case NotificationLevelInfo:
		return "dialog-information"
	case NotificationLevelError:
		return "dialog-error"
	default:
		return "dialog-warning"
	}
}

// NotifyConfigReloaded sends a notification about config being reloaded.
func (n *InternalNotifier) NotifyConfigReloaded() {
	n.Notify(
		"config-reload",
		"Configuration Reloaded",
		"portraitd configuration has been successfully reloaded.",
		NotificationLevelInfo,
	)
}

// NotifyConfigError sends a notification about config validation error.
func (n *InternalNotifier) NotifyConfigError(err error) {
	n.Notify(
		"config-error",
		"Configuration Error",
		"Failed to reload configuration: "+err.Error(),
		NotificationLevelWarning,
	)
}

// NotifyThemeError sends a notification about theme loading error.
func (n *InternalNotifier) NotifyThemeError(err error) {
	n.Notify(
		"theme-error",
		"Theme Error",
		"Failed to load theme: "+err.Error(),
		NotificationLevelWarning,
	)
}

// NotifyChannelError sends a notification about the broadcast channel failing.
func (n *InternalNotifier) NotifyChannelError(err error) {
	n.Notify(
		"channel-error",
		"Broadcast Channel Error",
		"Portraits from other clients will not appear: "+err.Error(),
		NotificationLevelError,
	)
}

// NotifyAudioError sends a notification about audio playback error.
func (n *InternalNotifier) NotifyAudioError(err error) {
	n.Notify(
		"audio-error",
		"Audio Error",
		"Failed to play chime: "+err.Error(),
		NotificationLevelWarning,
	)
}

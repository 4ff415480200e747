package theme

import (
	"log/slog"
	"sync"

	"github.com/diamondburned/gotk4/pkg/gdk/v4"
	"github.com/diamondburned/gotk4/pkg/glib/v2"
	"github.com/diamondburned/gotk4/pkg/gtk/v4"
)

// Loader loads CSS themes into a GTK provider with hot-reload support.
type Loader struct {
	mu        sync.Mutex
	logger    *slog.Logger
	provider  *gtk.CSSProvider
	themesDir string
	theme     *Theme
	watcher   *Watcher

	onError func(err error)
}

// NewLoader creates a new theme loader reading user themes from themesDir.
func NewLoader(themesDir string, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		logger:    logger,
		provider:  gtk.NewCSSProvider(),
		themesDir: themesDir,
	}
}

// SetErrorHandler sets the callback for theme problems users should see.
func (l *Loader) SetErrorHandler(fn func(err error)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onError = fn
}

// LoadTheme loads a theme by name, falling back to the default theme.
func (l *Loader) LoadTheme(name string) *Theme {
	theme, found := Resolve(name, l.themesDir)

	l.mu.Lock()
	onError := l.onError
	l.theme = theme
	l.provider.LoadFromString(theme.CSS)
	l.mu.Unlock()

	if !found {
		l.logger.Warn("theme not found, using default", "theme", name)
		if onError != nil {
			onError(&NotFoundError{Name: name})
		}
	} else {
		l.logger.Info("loaded theme", "name", theme.Name, "path", theme.Path, "bundled", theme.Bundled)
	}
	return theme
}

// Apply applies the loaded theme to a display.
// This should be called after the GTK application is initialized.
func (l *Loader) Apply(display *gdk.Display) {
	if display == nil {
		display = gdk.DisplayGetDefault()
	}
	if display == nil {
		l.logger.Warn("no display available, cannot apply theme")
		return
	}

	gtk.StyleContextAddProviderForDisplay(
		display,
		l.provider,
		gtk.STYLE_PROVIDER_PRIORITY_APPLICATION,
	)
	l.logger.Debug("applied theme to display", "name", l.CurrentTheme())
}

// StartHotReload starts watching the current theme for changes. Changed CSS
// is loaded into the provider on the GTK main loop.
func (l *Loader) StartHotReload() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.watcher != nil {
		l.watcher.Stop()
		l.watcher = nil
	}
	if l.theme == nil || l.theme.Bundled {
		l.logger.Debug("not starting hot-reload for bundled theme")
		return
	}

	name := l.theme.Name
	l.watcher = NewWatcher(l.theme, l.logger)
	l.watcher.SetChangeCallback(func(css string) {
		glib.IdleAdd(func() {
			l.provider.LoadFromString(css)
			l.logger.Info("hot-reloaded theme", "name", name)
		})
	})

	if err := l.watcher.Start(); err != nil {
		l.logger.Warn("failed to start theme watcher", "error", err)
	}
}

// StopHotReload stops watching the theme for changes.
func (l *Loader) StopHotReload() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.watcher != nil {
		l.watcher.Stop()
		l.watcher = nil
	}
}

// CurrentTheme returns the name of the currently loaded theme.
func (l *Loader) CurrentTheme() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.theme == nil {
		return ""
	}
	return l.theme.Name
}

// NotFoundError reports a configured theme that does not exist.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return "theme " + e.Name + " not found"
}

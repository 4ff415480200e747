// Package main is the entry point for the portraitd overlay daemon.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/diamondburned/gotk4-adwaita/pkg/adw"
	"github.com/diamondburned/gotk4/pkg/glib/v2"
	"github.com/diamondburned/gotk4/pkg/gtk/v4"
	"github.com/google/uuid"

	"github.com/jmylchreest/chatportraits/internal/audio"
	"github.com/jmylchreest/chatportraits/internal/channel"
	"github.com/jmylchreest/chatportraits/internal/config"
	"github.com/jmylchreest/chatportraits/internal/daemon"
	"github.com/jmylchreest/chatportraits/internal/dbus"
	"github.com/jmylchreest/chatportraits/internal/display"
	"github.com/jmylchreest/chatportraits/internal/portrait"
	"github.com/jmylchreest/chatportraits/internal/theme"
	"github.com/jmylchreest/chatportraits/internal/tui"
)

const (
	appID = "io.github.jmylchreest.portraitd"

	// channelRetry is the pause before a failed broadcast channel is
	// rejoined. The websocket backend also backs off between dials.
	channelRetry = 5 * time.Second
)

var (
	// Build-time variables
	version = "dev"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "", "Path to config file (default: ~/.config/chatportraits/portraitd.toml)")
	headless := flag.Bool("headless", false, "Run without rendering (no GTK); portraits are tracked and broadcast only")
	verbose := flag.Bool("verbose", false, "Enable debug logging")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println("portraitd version", version)
		os.Exit(0)
	}

	// Set up structured logging
	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	path := *configPath
	if path == "" {
		path = config.ConfigPath()
	}
	cfg, err := config.LoadConfig(path)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	if *headless {
		runHeadlessMode(cfg, path, logger)
		return
	}
	runDaemonMode(cfg, path, logger)
}

// openChannel joins the configured broadcast channel under a fresh client id.
func openChannel(cfg *config.DaemonConfig, logger *slog.Logger) channel.Channel {
	clientID := cfg.Identity.UserID + "-" + uuid.NewString()[:8]
	ch, err := channel.Open(cfg.Channel, clientID, logger.With("component", "channel"))
	if err != nil {
		logger.Warn("failed to open broadcast channel, running local-only", "backend", cfg.Channel.Backend, "error", err)
		return channel.NewNop()
	}
	logger.Info("broadcast channel configured", "backend", cfg.Channel.Backend, "client", clientID)
	return ch
}

// newNotifier creates the self-notifier that reports warnings as desktop
// toasts. Without a notification service the warnings are only logged.
func newNotifier(logger *slog.Logger) *daemon.InternalNotifier {
	notifier := daemon.NewInternalNotifier(logger)
	toaster, err := dbus.NewToaster(logger)
	if err != nil {
		logger.Warn("desktop notifications unavailable", "error", err)
		notifier.SetEnabled(false)
		return notifier
	}
	notifier.SetSendHandler(func(toast dbus.Toast) error {
		_, err := toaster.Send(toast)
		return err
	})
	return notifier
}

// emitSignals mirrors manager lifecycle changes onto the bus.
func emitSignals(manager *portrait.Manager, server *dbus.ControlServer, logger *slog.Logger) {
	manager.OnShown(func(info portrait.ItemInfo) {
		if err := server.EmitShown(info); err != nil {
			logger.Debug("failed to emit shown signal", "id", info.ID, "error", err)
		}
	})
	manager.OnRemoved(func(info portrait.ItemInfo) {
		if err := server.EmitRemoved(info); err != nil {
			logger.Debug("failed to emit removed signal", "id", info.ID, "error", err)
		}
	})
}

// runHeadlessMode runs the portrait core on a serial loop without a display.
// Portraits are packed, timed and broadcast exactly as in daemon mode, and
// the D-Bus control interface is served, but nothing is drawn.
func runHeadlessMode(cfg *config.DaemonConfig, path string, logger *slog.Logger) {
	logger.Info("starting portraitd in headless mode", "version", version)

	settings := config.NewAccessor(cfg)
	ch := openChannel(cfg, logger)
	session := tui.NewSession(settings, ch, logger)

	server := dbus.NewControlServer(session.Controller(), logger)
	emitSignals(session.Manager(), server, logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	session.Start(ctx)
	if err := server.Start(); err != nil {
		logger.Error("failed to start D-Bus control server", "error", err)
		session.Stop()
		os.Exit(1)
	}

	configWatcher := daemon.NewConfigWatcher(path, logger)
	configWatcher.SetReloadCallback(func(newConfig *config.DaemonConfig) {
		settings.Store(newConfig)
		logger.Info("configuration reloaded")
	})
	if err := configWatcher.Start(cfg); err != nil {
		logger.Warn("failed to start config watcher", "error", err)
	}

	go func() {
		for w := range session.Warnings() {
			logger.Warn(w)
		}
	}()

	logger.Info("portraitd ready", "dbus_interface", dbus.Interface)
	<-ctx.Done()
	logger.Info("shutting down")

	configWatcher.Stop()
	_ = server.Stop()
	session.Stop()
	logger.Info("portraitd stopped")
}

// runDaemonMode runs portraitd with GTK layer-shell rendering.
func runDaemonMode(cfg *config.DaemonConfig, path string, logger *slog.Logger) {
	logger.Info("starting portraitd", "version", version)

	// Create the libadwaita application
	app := adw.NewApplication(appID, 0)
	settings := config.NewAccessor(cfg)

	// Shared state between GTK main loop and signal handlers
	var (
		controlServer    *dbus.ControlServer
		themeLoader      *theme.Loader
		audioManager     *audio.Manager
		configWatcher    *daemon.ConfigWatcher
		internalNotifier *daemon.InternalNotifier
		ch               channel.Channel
		running          atomic.Bool
	)

	// Set up signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		logger.Info("received signal, shutting down", "signal", sig)
		cancel()

		// Quit on the GTK main loop; shutdown handles cleanup.
		glib.IdleAdd(func() {
			if running.Load() {
				app.Quit()
			}
		})
	}()

	// Handle application activation
	app.ConnectActivate(func() {
		if running.Load() {
			logger.Warn("application already running")
			return
		}
		running.Store(true)

		applyColorScheme(cfg.Theme.ColorScheme)

		internalNotifier = newNotifier(logger)

		// Initialize theme loader
		themeLoader = theme.NewLoader(theme.ThemesDir(), logger)
		themeLoader.SetErrorHandler(internalNotifier.NotifyThemeError)
		themeLoader.LoadTheme(cfg.Theme.Name)
		themeLoader.Apply(nil)
		themeLoader.StartHotReload()

		// Initialize audio manager
		audioManager = audio.NewManager(cfg, logger)
		audioManager.SetErrorHandler(internalNotifier.NotifyAudioError)
		if err := audioManager.Start(); err != nil {
			logger.Warn("failed to start audio manager", "error", err)
		}

		// Portrait core on the GTK main loop
		loop := display.NewGLibLoop(logger)
		host := display.NewHost(&app.Application, settings, logger.With("component", "display"))
		manager := portrait.NewManager(host, loop, settings, logger.With("component", "portrait"))
		host.SetActions(manager)
		manager.OnShown(audioManager.OnShown)

		ch = openChannel(cfg, logger)
		coordinator := portrait.NewCoordinator(manager, loop, settings, ch, internalNotifier, logger.With("component", "coordinator"))
		coordinator.SetPublishTimeout(cfg.Channel.PublishTimeout.Duration())

		go daemon.Listen(ctx, ch, coordinator, channelRetry, internalNotifier.NotifyChannelError, logger)

		// Initialize D-Bus control server
		controlServer = dbus.NewControlServer(coordinator, logger)
		emitSignals(manager, controlServer, logger)
		if err := controlServer.Start(); err != nil {
			logger.Error("failed to start D-Bus control server", "error", err)
			app.Quit()
			return
		}

		// Initialize config watcher for hot-reload
		configWatcher = daemon.NewConfigWatcher(path, logger)
		configWatcher.SetReloadCallback(func(newConfig *config.DaemonConfig) {
			glib.IdleAdd(func() {
				old := settings.Load()
				settings.Store(newConfig)
				coordinator.SetPublishTimeout(newConfig.Channel.PublishTimeout.Duration())
				audioManager.UpdateConfig(newConfig)

				if newConfig.Theme.ColorScheme != old.Theme.ColorScheme {
					applyColorScheme(newConfig.Theme.ColorScheme)
				}
				if newConfig.Theme.Name != old.Theme.Name {
					themeLoader.LoadTheme(newConfig.Theme.Name)
					themeLoader.StartHotReload()
				}
				if newConfig.Channel != old.Channel {
					logger.Warn("channel settings changed; restart portraitd to apply")
				}

				internalNotifier.NotifyConfigReloaded()
			})
		})
		configWatcher.SetErrorCallback(internalNotifier.NotifyConfigError)
		if err := configWatcher.Start(cfg); err != nil {
			logger.Warn("failed to start config watcher", "error", err)
		}

		logger.Info("portraitd ready", "dbus_interface", dbus.Interface)

		// Create a hidden window to keep the application running
		// (GTK apps quit when all windows are closed)
		keepAliveWindow := gtk.NewWindow()
		keepAliveWindow.SetApplication(&app.Application)
		keepAliveWindow.SetDefaultSize(1, 1)
		keepAliveWindow.SetDecorated(false)
		keepAliveWindow.SetVisible(false)
	})

	// Handle shutdown
	app.ConnectShutdown(func() {
		logger.Info("application shutting down")
		cancel()
		if configWatcher != nil {
			configWatcher.Stop()
		}
		if themeLoader != nil {
			themeLoader.StopHotReload()
		}
		if audioManager != nil {
			audioManager.Stop()
		}
		if controlServer != nil {
			_ = controlServer.Stop()
		}
		if ch != nil {
			_ = ch.Close()
		}
		running.Store(false)
	})

	// Run the application
	status := app.Run(os.Args[:1])

	// Ensure context is cancelled
	cancel()

	if status != 0 {
		logger.Error("application exited with error", "status", status)
		os.Exit(status)
	}

	logger.Info("portraitd stopped")
}

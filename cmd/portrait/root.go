package main

import (
	"fmt"
	"log/slog"
	"os"

	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/jmylchreest/chatportraits/internal/config"
	"github.com/jmylchreest/chatportraits/internal/dbus"
)

// Build-time variables (set via ldflags)
var (
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
)

// Global configuration and state
var (
	globalOpts struct {
		verbose    bool
		configPath string
	}
	logger *slog.Logger
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "portrait",
	Short: "Trigger and inspect chat portrait overlays",
	Long: `portrait controls the portraitd overlay daemon and the shared relay.

Portraits are short-lived images that appear at the side of every connected
desktop when someone triggers one of their slots. portraitd renders them;
this command triggers slots, dismisses and lists active portraits over
D-Bus, runs the websocket relay peers share, and shows a live terminal view
of both lanes.

Bind 'portrait trigger N' to compositor keys to fire slots.`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildTime),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupLogger()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&globalOpts.verbose, "verbose", "v", false,
		"Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&globalOpts.configPath, "config", "",
		"Path to config file (default: ~/.config/chatportraits/portraitd.toml)")
}

// setupLogger configures the global slog logger.
func setupLogger() {
	level := charmlog.WarnLevel
	if globalOpts.verbose {
		level = charmlog.DebugLevel
	}

	// Log to stderr so stdout is clean for output
	handler := charmlog.NewWithOptions(os.Stderr, charmlog.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
	logger = slog.New(handler)
	slog.SetDefault(logger)
}

// loadConfig loads the daemon configuration the CLI shares with portraitd.
func loadConfig() (*config.DaemonConfig, error) {
	cfg, err := config.LoadConfig(globalOpts.configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// connect returns a D-Bus client for a running portraitd.
func connect() (*dbus.Client, error) {
	client, err := dbus.NewClient()
	if err != nil {
		return nil, err
	}
	running, err := client.Running()
	if err != nil {
		return nil, err
	}
	if !running {
		return nil, fmt.Errorf("portraitd is not running")
	}
	return client, nil
}

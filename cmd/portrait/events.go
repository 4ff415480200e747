package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/chatportraits/internal/dbus"
)

var eventsOpts struct {
	json bool
}

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Print portrait signals as they happen",
	Long: `Follow the PortraitShown and PortraitRemoved signals portraitd emits on
the session bus until interrupted.

Examples:
  # Human-readable
  portrait events

  # One JSON object per line
  portrait events --json | jq .`,
	RunE: runEvents,
}

func init() {
	rootCmd.AddCommand(eventsCmd)

	eventsCmd.Flags().BoolVar(&eventsOpts.json, "json", false,
		"Print one JSON object per event")
}

func runEvents(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	out := cmd.OutOrStdout()
	var mu sync.Mutex
	enc := json.NewEncoder(out)

	monitor := dbus.NewMonitor(logger)
	monitor.SetEventHandler(func(ev dbus.Event) {
		mu.Lock()
		defer mu.Unlock()
		if eventsOpts.json {
			if err := enc.Encode(ev); err != nil {
				logger.Warn("failed to encode event", "error", err)
			}
			return
		}
		fmt.Fprintln(out, formatEvent(ev))
	})
	if err := monitor.Start(); err != nil {
		return err
	}
	defer func() {
		if err := monitor.Stop(); err != nil {
			logger.Debug("monitor stop", "error", err)
		}
	}()

	<-ctx.Done()
	return nil
}

func formatEvent(ev dbus.Event) string {
	switch ev.Kind {
	case dbus.EventShown:
		name := ev.UserName
		if name == "" {
			name = "-"
		}
		return fmt.Sprintf("%-7s %-5s %s  %s", ev.Kind, ev.Lane, name, ev.ID)
	default:
		return fmt.Sprintf("%-7s %s", ev.Kind, ev.ID)
	}
}

package main

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jmylchreest/chatportraits/internal/channel"
	"github.com/jmylchreest/chatportraits/internal/config"
	"github.com/jmylchreest/chatportraits/internal/tui"
)

var watchOpts struct {
	inline bool
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Join the broadcast channel and show both lanes in the terminal",
	Long: `Join the configured broadcast channel as a terminal peer and show both
lanes live. Portraits triggered anywhere in the room appear here, packed the
same way portraitd packs them on screen.

Key bindings:
  j/k, ↑/↓        Navigate lane
  tab, h/l        Switch lane
  0-9             Trigger slot
  enter           View portrait details
  d               Dismiss portrait
  D               Dismiss all
  y               Copy portrait id
  C / alt+c       Copy all as JSON / YAML
  ?               Show help
  q               Quit`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().BoolVar(&watchOpts.inline, "inline", false,
		"Render inline instead of using the alternate screen")
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	clientID := cfg.Identity.UserID + "-tui-" + uuid.NewString()[:8]
	ch, err := channel.Open(cfg.Channel, clientID, logger)
	if err != nil {
		return fmt.Errorf("open channel: %w", err)
	}

	session := tui.NewSession(config.NewAccessor(cfg), ch, logger)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	session.Start(ctx)
	defer session.Stop()

	return tui.Run(tui.RunOptions{
		Options: tui.Options{
			Controller: session.Controller(),
			Changes:    session.Changes(),
			Warnings:   session.Warnings(),
			Title:      fmt.Sprintf("Portraits · %s", cfg.Channel.Backend),
		},
		AltScreen: !watchOpts.inline,
	})
}

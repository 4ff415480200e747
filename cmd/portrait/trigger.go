package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/chatportraits/internal/config"
)

var triggerOpts struct {
	quiet bool
}

var triggerCmd = &cobra.Command{
	Use:   "trigger <slot>",
	Short: "Broadcast the portrait configured for a slot",
	Long: fmt.Sprintf(`Ask portraitd to broadcast the portrait configured for a slot (0-%d).

The portrait is shown on every connected desktop, including this one. The
new portrait's id is printed on success.

Examples:
  # Fire slot 1
  portrait trigger 1

  # Bind in Hyprland
  bind = SUPER, 1, exec, portrait trigger 1 -q`, config.SlotCount-1),
	Args: cobra.ExactArgs(1),
	RunE: runTrigger,
}

func init() {
	rootCmd.AddCommand(triggerCmd)

	triggerCmd.Flags().BoolVarP(&triggerOpts.quiet, "quiet", "q", false,
		"Don't print the portrait id")
}

func runTrigger(cmd *cobra.Command, args []string) error {
	slot, err := strconv.Atoi(args[0])
	if err != nil || slot < 0 || slot >= config.SlotCount {
		return fmt.Errorf("invalid slot %q: must be 0-%d", args[0], config.SlotCount-1)
	}

	client, err := connect()
	if err != nil {
		return err
	}
	defer client.Close()

	id, err := client.TriggerSlot(slot)
	if err != nil {
		return fmt.Errorf("trigger slot %d: %w", slot, err)
	}

	logger.Debug("triggered slot", "slot", slot, "id", id)
	if !triggerOpts.quiet {
		fmt.Fprintln(cmd.OutOrStdout(), id)
	}
	return nil
}

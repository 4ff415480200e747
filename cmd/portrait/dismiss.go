package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var dismissOpts struct {
	all   bool
	stdin bool
	quiet bool
}

var dismissCmd = &cobra.Command{
	Use:   "dismiss [id...]",
	Short: "Dismiss active portraits",
	Long: `Start the exit transition of one or more active portraits on this desktop.

Dismissal is local: peers keep their copies until they expire.

Examples:
  # Dismiss one portrait
  portrait dismiss alice-1772366395000-1-01JQ...

  # Dismiss everything
  portrait dismiss --all

  # Dismiss every portrait in the left lane
  portrait list --format json | jq -r '.[] | select(.lane=="left") | .id' | portrait dismiss --stdin`,
	RunE: runDismiss,
}

func init() {
	rootCmd.AddCommand(dismissCmd)

	dismissCmd.Flags().BoolVarP(&dismissOpts.all, "all", "a", false,
		"Dismiss every active portrait")
	dismissCmd.Flags().BoolVar(&dismissOpts.stdin, "stdin", false,
		"Read ids from stdin, one per line")
	dismissCmd.Flags().BoolVarP(&dismissOpts.quiet, "quiet", "q", false,
		"Suppress output")
}

func runDismiss(cmd *cobra.Command, args []string) error {
	ids := args
	if dismissOpts.stdin {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			if id := strings.TrimSpace(scanner.Text()); id != "" {
				ids = append(ids, id)
			}
		}
		if err := scanner.Err(); err != nil {
			return fmt.Errorf("read stdin: %w", err)
		}
	}

	if !dismissOpts.all && len(ids) == 0 {
		return fmt.Errorf("no portrait ids given (use --all to dismiss everything)")
	}

	client, err := connect()
	if err != nil {
		return err
	}
	defer client.Close()

	out := cmd.OutOrStdout()
	if dismissOpts.all {
		n, err := client.DismissAll()
		if err != nil {
			return err
		}
		if !dismissOpts.quiet {
			fmt.Fprintf(out, "Dismissed %d portraits\n", n)
		}
		return nil
	}

	var missing int
	for _, id := range ids {
		ok, err := client.Dismiss(id)
		if err != nil {
			return fmt.Errorf("dismiss %s: %w", id, err)
		}
		if !ok {
			missing++
			logger.Debug("portrait not active", "id", id)
		}
	}
	if !dismissOpts.quiet {
		fmt.Fprintf(out, "Dismissed %d of %d portraits\n", len(ids)-missing, len(ids))
	}
	return nil
}

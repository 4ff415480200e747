package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/chatportraits/internal/theme"
)

var themesOpts struct {
	json bool
}

var themesCmd = &cobra.Command{
	Use:   "themes",
	Short: "List available portrait themes",
	Long: `List bundled themes and user themes from ~/.config/chatportraits/themes.
A user theme with the same name as a bundled one replaces it.`,
	Args: cobra.NoArgs,
	RunE: runThemes,
}

func init() {
	rootCmd.AddCommand(themesCmd)

	themesCmd.Flags().BoolVar(&themesOpts.json, "json", false, "Output as JSON")
}

func runThemes(cmd *cobra.Command, args []string) error {
	themes, err := theme.ListAvailableThemes(theme.ThemesDir())
	if err != nil {
		return fmt.Errorf("list themes: %w", err)
	}

	out := cmd.OutOrStdout()
	if themesOpts.json {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(themes)
	}

	for _, t := range themes {
		source := t.Path
		if t.Bundled {
			source = "(bundled)"
		}
		fmt.Fprintf(out, "%-16s %s\n", t.Name, source)
	}
	return nil
}

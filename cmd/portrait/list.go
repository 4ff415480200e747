package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/chatportraits/internal/adapter/output"
	"github.com/jmylchreest/chatportraits/internal/portrait"
)

var listOpts struct {
	format   string
	field    string
	template string
	lane     string
	noIndex  bool
}

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List active portraits",
	Long: `List the portraits currently on this desktop, ordered by lane and
position from the top.

Examples:
  # Human-readable
  portrait list

  # JSON for scripting
  portrait list --format json

  # Only the right lane, ids only
  portrait list --lane right --format ids

  # Custom template
  portrait list --template '{{laneIcon .Item.Lane}} {{.Item.UserName}} {{.Age}}'`,
	RunE: runList,
}

func init() {
	rootCmd.AddCommand(listCmd)

	formats := make([]string, 0, len(output.FormatTypes()))
	for _, f := range output.FormatTypes() {
		formats = append(formats, string(f))
	}
	listCmd.Flags().StringVarP(&listOpts.format, "format", "f", string(output.FormatPlain),
		"Output format ("+strings.Join(formats, ", ")+")")
	listCmd.Flags().StringVar(&listOpts.field, "field", "",
		"Print a single field of each portrait (id, user, name, image, lane, state, top, inset, width)")
	listCmd.Flags().StringVar(&listOpts.template, "template", "",
		"Go template for plain output")
	listCmd.Flags().StringVar(&listOpts.lane, "lane", "",
		"Only list one lane (left, right)")
	listCmd.Flags().BoolVar(&listOpts.noIndex, "no-index", false,
		"Hide the index prefix in plain output")
}

func runList(cmd *cobra.Command, args []string) error {
	format, err := output.ParseFormat(listOpts.format)
	if err != nil {
		return err
	}

	var lane portrait.Lane
	if listOpts.lane != "" {
		if lane, err = portrait.ParseLane(listOpts.lane); err != nil {
			return err
		}
	}

	client, err := connect()
	if err != nil {
		return err
	}
	defer client.Close()

	items, err := client.ListActive()
	if err != nil {
		return err
	}
	if lane != "" {
		items = filterLane(items, lane)
	}

	out := cmd.OutOrStdout()
	if listOpts.field != "" {
		for i := range items {
			fmt.Fprintln(out, output.FormatField(&items[i], listOpts.field))
		}
		return nil
	}

	opts := output.DefaultFormatterOptions()
	opts.Template = listOpts.template
	opts.ShowIndex = !listOpts.noIndex
	return output.NewFormatter(format, opts).Format(out, items)
}

func filterLane(items []portrait.ItemInfo, lane portrait.Lane) []portrait.ItemInfo {
	var out []portrait.ItemInfo
	for _, it := range items {
		if it.Lane == lane {
			out = append(out, it)
		}
	}
	return out
}

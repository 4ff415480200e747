package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/chatportraits/internal/portrait"
)

// WaybarStatus represents the Waybar custom module JSON format.
type WaybarStatus struct {
	Text    string `json:"text"`
	Alt     string `json:"alt,omitempty"`
	Tooltip string `json:"tooltip,omitempty"`
	Class   string `json:"class,omitempty"`
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Output Waybar-compatible JSON status",
	Long: `Output portraitd status in Waybar's custom module JSON format.

This is designed to be used with Waybar's custom module:

  "custom/portraits": {
    "exec": "portrait status",
    "interval": 2,
    "return-type": "json",
    "on-click": "portrait dismiss --all -q"
  }

The output includes:
  - text: Number of active portraits
  - alt: active, empty or offline
  - tooltip: Who is showing in each lane
  - class: Same as alt, for styling`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	client, err := connect()
	if err != nil {
		logger.Debug("daemon unavailable", "error", err)
		return outputStatus(WaybarStatus{Text: "", Alt: "offline", Tooltip: "portraitd is not running", Class: "offline"})
	}
	defer client.Close()

	items, err := client.ListActive()
	if err != nil {
		return outputStatus(WaybarStatus{Text: "", Alt: "error", Tooltip: err.Error(), Class: "error"})
	}
	return outputStatus(generateStatus(items))
}

// generateStatus summarises the active set.
func generateStatus(items []portrait.ItemInfo) WaybarStatus {
	if len(items) == 0 {
		return WaybarStatus{
			Text:  "",
			Alt:   "empty",
			Class: "empty",
		}
	}

	var lines []string
	for _, lane := range portrait.Lanes() {
		var names []string
		for _, it := range items {
			if it.Lane != lane {
				continue
			}
			name := it.UserName
			if name == "" {
				name = it.UserID
			}
			names = append(names, name)
		}
		if len(names) > 0 {
			lines = append(lines, fmt.Sprintf("%s: %s", lane, strings.Join(names, ", ")))
		}
	}

	return WaybarStatus{
		Text:    fmt.Sprintf("%d", len(items)),
		Alt:     "active",
		Tooltip: strings.Join(lines, "\n"),
		Class:   "active",
	}
}

// outputStatus writes the status as JSON.
func outputStatus(status WaybarStatus) error {
	return json.NewEncoder(os.Stdout).Encode(status)
}

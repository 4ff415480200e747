package output

import (
	"fmt"
	"io"

	"github.com/jmylchreest/chatportraits/internal/portrait"
)

// IDsFormatter outputs just the portrait IDs, one per line.
// Useful for piping to other commands (e.g., xargs portrait dismiss).
type IDsFormatter struct{}

// NewIDsFormatter creates a new IDs formatter.
func NewIDsFormatter() *IDsFormatter {
	return &IDsFormatter{}
}

// Format writes portrait IDs to the writer, one per line.
func (f *IDsFormatter) Format(w io.Writer, items []portrait.ItemInfo) error {
	for _, it := range items {
		if _, err := fmt.Fprintln(w, it.ID); err != nil {
			return err
		}
	}
	return nil
}

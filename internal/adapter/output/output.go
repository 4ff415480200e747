// Package output provides output formatters for active portraits.
package output

import (
	"fmt"
	"io"

	"github.com/jmylchreest/chatportraits/internal/portrait"
)

// Formatter formats portraits for output.
type Formatter interface {
	// Format writes formatted portraits to the writer.
	Format(w io.Writer, items []portrait.ItemInfo) error
}

// FormatType represents an output format type.
type FormatType string

const (
	FormatPlain FormatType = "plain"
	FormatJSON  FormatType = "json"
	FormatYAML  FormatType = "yaml"
	FormatIDs   FormatType = "ids"
)

// FormatTypes lists the supported formats in help order.
func FormatTypes() []FormatType {
	return []FormatType{FormatPlain, FormatJSON, FormatYAML, FormatIDs}
}

// ParseFormat converts a string to a FormatType.
func ParseFormat(s string) (FormatType, error) {
	for _, f := range FormatTypes() {
		if string(f) == s {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown format %q", s)
}

// NewFormatter creates a formatter for the specified format type.
func NewFormatter(format FormatType, opts FormatterOptions) Formatter {
	switch format {
	case FormatJSON:
		return NewJSONFormatter(opts)
	case FormatYAML:
		return NewYAMLFormatter()
	case FormatIDs:
		return NewIDsFormatter()
	case FormatPlain:
		fallthrough
	default:
		return NewPlainFormatter(opts)
	}
}

// FormatterOptions configures formatter behavior.
type FormatterOptions struct {
	Template  string // Custom template for plain format
	ShowIndex bool   // Show 1-based index prefix
	ShowAge   bool   // Show time since the portrait appeared
	ShowState bool   // Show lifecycle state
	Compact   bool   // Single-line JSON
}

// DefaultFormatterOptions returns sensible defaults for terminal output.
func DefaultFormatterOptions() FormatterOptions {
	return FormatterOptions{
		ShowIndex: true,
		ShowAge:   true,
		ShowState: true,
	}
}

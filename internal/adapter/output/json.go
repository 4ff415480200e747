package output

import (
	"encoding/json"
	"io"

	"github.com/jmylchreest/chatportraits/internal/portrait"
)

// JSONFormatter formats portraits as JSON.
type JSONFormatter struct {
	opts FormatterOptions
}

// NewJSONFormatter creates a new JSON formatter.
func NewJSONFormatter(opts FormatterOptions) *JSONFormatter {
	return &JSONFormatter{opts: opts}
}

// Format writes portraits as a JSON array. An empty set is written as [].
func (f *JSONFormatter) Format(w io.Writer, items []portrait.ItemInfo) error {
	if items == nil {
		items = []portrait.ItemInfo{}
	}
	encoder := json.NewEncoder(w)
	if !f.opts.Compact {
		encoder.SetIndent("", "  ")
	}
	return encoder.Encode(items)
}

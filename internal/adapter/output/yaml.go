package output

import (
	"io"

	"gopkg.in/yaml.v3"

	"github.com/jmylchreest/chatportraits/internal/portrait"
)

// YAMLFormatter formats portraits as a YAML sequence.
type YAMLFormatter struct{}

// NewYAMLFormatter creates a new YAML formatter.
func NewYAMLFormatter() *YAMLFormatter {
	return &YAMLFormatter{}
}

// Format writes portraits as YAML.
func (f *YAMLFormatter) Format(w io.Writer, items []portrait.ItemInfo) error {
	if items == nil {
		items = []portrait.ItemInfo{}
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(items); err != nil {
		return err
	}
	return enc.Close()
}

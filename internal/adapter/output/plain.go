package output

import (
	"fmt"
	"io"
	"strings"
	"text/template"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/jmylchreest/chatportraits/internal/portrait"
)

// PlainFormatter formats portraits as plain text, one per line.
type PlainFormatter struct {
	opts     FormatterOptions
	template *template.Template
	now      func() time.Time
}

// NewPlainFormatter creates a new plain text formatter.
func NewPlainFormatter(opts FormatterOptions) *PlainFormatter {
	f := &PlainFormatter{opts: opts, now: time.Now}

	// Parse custom template if provided
	if opts.Template != "" {
		tmpl, err := template.New("plain").Funcs(templateFuncs()).Parse(opts.Template)
		if err == nil {
			f.template = tmpl
		}
	}

	return f
}

// Format writes portraits as plain text.
func (f *PlainFormatter) Format(w io.Writer, items []portrait.ItemInfo) error {
	for i := range items {
		if err := f.formatItem(w, i+1, &items[i]); err != nil {
			return err
		}
	}
	return nil
}

// formatItem formats a single portrait.
func (f *PlainFormatter) formatItem(w io.Writer, index int, it *portrait.ItemInfo) error {
	if f.template != nil {
		data := templateData{
			Index: index,
			Item:  it,
			Age:   relativeTime(it.CreatedAt, f.now()),
		}
		if err := f.template.Execute(w, data); err != nil {
			return err
		}
		_, err := io.WriteString(w, "\n")
		return err
	}

	// Default format: [index] lane user (state, age) id
	var sb strings.Builder

	if f.opts.ShowIndex {
		sb.WriteString(fmt.Sprintf("[%d] ", index))
	}

	sb.WriteString(fmt.Sprintf("%-5s ", it.Lane))
	sb.WriteString(displayName(it))

	var meta []string
	if f.opts.ShowState {
		state := it.State.String()
		if it.Dragged {
			state += ", dragged"
		}
		meta = append(meta, state)
	}
	if f.opts.ShowAge && !it.CreatedAt.IsZero() {
		meta = append(meta, relativeTime(it.CreatedAt, f.now()))
	}
	if len(meta) > 0 {
		sb.WriteString(" (" + strings.Join(meta, ", ") + ")")
	}

	sb.WriteString("  " + it.ID + "\n")

	_, err := io.WriteString(w, sb.String())
	return err
}

// FormatField outputs a specific field from a portrait.
func FormatField(it *portrait.ItemInfo, field string) string {
	switch strings.ToLower(field) {
	case "id":
		return it.ID
	case "user", "user_id", "userid":
		return it.UserID
	case "name", "user_name", "username":
		return it.UserName
	case "image", "image_ref":
		return it.ImageRef
	case "lane":
		return string(it.Lane)
	case "state":
		return it.State.String()
	case "top":
		return fmt.Sprintf("%d", it.Top)
	case "inset":
		return fmt.Sprintf("%d", it.Inset)
	case "width", "width_px":
		return fmt.Sprintf("%d", it.WidthPx)
	default:
		return it.ID
	}
}

// displayName prefers the user name and falls back to the user id.
func displayName(it *portrait.ItemInfo) string {
	if it.UserName != "" {
		return it.UserName
	}
	return it.UserID
}

// templateData provides data for custom templates.
type templateData struct {
	Index int
	Item  *portrait.ItemInfo
	Age   string
}

// templateFuncs returns template helper functions.
func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"truncate": func(s string, maxLen int) string {
			if maxLen <= 0 || len(s) <= maxLen {
				return s
			}
			if maxLen <= 3 {
				return s[:maxLen]
			}
			return s[:maxLen-3] + "..."
		},
		"ago": func(t time.Time) string {
			return relativeTime(t, time.Now())
		},
		"laneIcon": func(l portrait.Lane) string {
			if l == portrait.LaneLeft {
				return "<"
			}
			return ">"
		},
	}
}

// relativeTime returns a human-readable relative time string.
func relativeTime(t, now time.Time) string {
	if t.IsZero() {
		return "unknown"
	}
	if now.Sub(t) < time.Second {
		return "now"
	}
	return humanize.RelTime(t, now, "ago", "from now")
}

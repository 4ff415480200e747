package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/jmylchreest/chatportraits/internal/portrait"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func testItems() []portrait.ItemInfo {
	return []portrait.ItemInfo{
		{
			ID:        "alice-1772366395000-0-01J",
			UserID:    "u-alice",
			UserName:  "Alice",
			ImageRef:  "https://example.com/alice.png",
			Lane:      portrait.LaneLeft,
			WidthPx:   180,
			Top:       120,
			Height:    396,
			State:     portrait.StateSettled,
			CreatedAt: testNow.Add(-5 * time.Minute),
			ExpiresAt: testNow.Add(time.Minute),
		},
		{
			ID:        "bob-1772366395100-3-01K",
			UserID:    "u-bob",
			ImageRef:  "/srv/img/bob.png",
			Lane:      portrait.LaneRight,
			WidthPx:   200,
			Top:       120,
			Inset:     40,
			State:     portrait.StateDismissing,
			Dragged:   true,
			CreatedAt: testNow.Add(-2 * time.Hour),
		},
	}
}

func newTestPlain(opts FormatterOptions) *PlainFormatter {
	f := NewPlainFormatter(opts)
	f.now = func() time.Time { return testNow }
	return f
}

func TestPlainFormatter_Format(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, newTestPlain(DefaultFormatterOptions()).Format(&buf, testItems()))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	assert.True(t, strings.HasPrefix(lines[0], "[1] left"))
	assert.Contains(t, lines[0], "Alice")
	assert.Contains(t, lines[0], "settled")
	assert.Contains(t, lines[0], "5 minutes ago")
	assert.Contains(t, lines[0], "alice-1772366395000-0-01J")

	assert.True(t, strings.HasPrefix(lines[1], "[2] right"))
	assert.Contains(t, lines[1], "u-bob", "falls back to user id without a name")
	assert.Contains(t, lines[1], "dismissing, dragged")
	assert.Contains(t, lines[1], "2 hours ago")
}

func TestPlainFormatter_NoIndexNoMeta(t *testing.T) {
	var buf bytes.Buffer
	f := newTestPlain(FormatterOptions{})
	require.NoError(t, f.Format(&buf, testItems()[:1]))

	out := buf.String()
	assert.False(t, strings.HasPrefix(out, "["))
	assert.NotContains(t, out, "(")
	assert.NotContains(t, out, "settled")
}

func TestPlainFormatter_CustomTemplate(t *testing.T) {
	var buf bytes.Buffer
	opts := DefaultFormatterOptions()
	opts.Template = "{{.Index}} {{laneIcon .Item.Lane}} {{.Item.UserID}} {{truncate .Item.ID 8}}"
	require.NoError(t, newTestPlain(opts).Format(&buf, testItems()))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "1 < u-alice alice...", lines[0])
	assert.Equal(t, "2 > u-bob bob-1...", lines[1])
}

func TestPlainFormatter_InvalidTemplateFallsBack(t *testing.T) {
	var buf bytes.Buffer
	opts := DefaultFormatterOptions()
	opts.Template = "{{.Unclosed"
	require.NoError(t, newTestPlain(opts).Format(&buf, testItems()[:1]))
	assert.Contains(t, buf.String(), "[1] left")
}

func TestPlainFormatter_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, newTestPlain(DefaultFormatterOptions()).Format(&buf, nil))
	assert.Empty(t, buf.String())
}

func TestJSONFormatter_Format(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewJSONFormatter(FormatterOptions{}).Format(&buf, testItems()))

	var decoded []portrait.ItemInfo
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded, 2)
	assert.Equal(t, "u-alice", decoded[0].UserID)
	assert.Equal(t, portrait.StateDismissing, decoded[1].State)
	assert.True(t, decoded[1].Dragged)

	assert.Contains(t, buf.String(), `"state": "settled"`)
	assert.Contains(t, buf.String(), `"user_name": "Alice"`)
}

func TestJSONFormatter_Compact(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewJSONFormatter(FormatterOptions{Compact: true}).Format(&buf, testItems()))
	assert.Equal(t, 1, strings.Count(buf.String(), "\n"))
}

func TestJSONFormatter_EmptyIsArray(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewJSONFormatter(FormatterOptions{}).Format(&buf, nil))
	assert.Equal(t, "[]\n", buf.String())
}

func TestYAMLFormatter_Format(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewYAMLFormatter().Format(&buf, testItems()))

	out := buf.String()
	assert.Contains(t, out, "- id: alice-1772366395000-0-01J")
	assert.Contains(t, out, "lane: right")
	assert.Contains(t, out, "state: dismissing")

	var decoded []map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded, 2)
	assert.Equal(t, "Alice", decoded[0]["user_name"])
	assert.Equal(t, 40, decoded[1]["inset"])
	_, hasDragged := decoded[0]["dragged"]
	assert.False(t, hasDragged)
}

func TestIDsFormatter_Format(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewIDsFormatter().Format(&buf, testItems()))
	assert.Equal(t, "alice-1772366395000-0-01J\nbob-1772366395100-3-01K\n", buf.String())
}

func TestNewFormatter(t *testing.T) {
	tests := []struct {
		format FormatType
		want   any
	}{
		{FormatPlain, &PlainFormatter{}},
		{FormatJSON, &JSONFormatter{}},
		{FormatYAML, &YAMLFormatter{}},
		{FormatIDs, &IDsFormatter{}},
		{"bogus", &PlainFormatter{}},
	}
	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			assert.IsType(t, tt.want, NewFormatter(tt.format, DefaultFormatterOptions()))
		})
	}
}

func TestParseFormat(t *testing.T) {
	for _, f := range FormatTypes() {
		got, err := ParseFormat(string(f))
		require.NoError(t, err)
		assert.Equal(t, f, got)
	}
	_, err := ParseFormat("dmenu")
	assert.Error(t, err)
}

func TestFormatField(t *testing.T) {
	it := testItems()[1]
	tests := []struct {
		field string
		want  string
	}{
		{"id", it.ID},
		{"user", "u-bob"},
		{"name", ""},
		{"image", "/srv/img/bob.png"},
		{"lane", "right"},
		{"state", "dismissing"},
		{"top", "120"},
		{"inset", "40"},
		{"width", "200"},
		{"unknown", it.ID},
	}
	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatField(&it, tt.field))
		})
	}
}

func TestRelativeTime(t *testing.T) {
	assert.Equal(t, "unknown", relativeTime(time.Time{}, testNow))
	assert.Equal(t, "now", relativeTime(testNow, testNow))
	assert.Equal(t, "1 minute ago", relativeTime(testNow.Add(-time.Minute), testNow))
}

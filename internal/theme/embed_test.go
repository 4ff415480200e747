package theme

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetEmbeddedTheme(t *testing.T) {
	for _, name := range BundledThemes {
		t.Run(name, func(t *testing.T) {
			css, found := GetEmbeddedTheme(name)
			assert.True(t, found)
			assert.Contains(t, css, `@import "_frame.css"`)
			assert.Contains(t, css, ".portrait-item")
		})
	}
}

func TestGetEmbeddedTheme_Rejects(t *testing.T) {
	for _, name := range []string{"", "_frame", "missing"} {
		_, found := GetEmbeddedTheme(name)
		assert.False(t, found, name)
	}
}

func TestGetEmbeddedPartial(t *testing.T) {
	for _, name := range []string{"_frame.css", "frame", "_frame"} {
		css, found := GetEmbeddedPartial(name)
		assert.True(t, found, name)
		assert.Contains(t, css, ".portrait-frame")
		assert.Contains(t, css, ".portrait-name")
	}
}

func TestListEmbeddedThemes(t *testing.T) {
	themes := ListEmbeddedThemes()
	assert.ElementsMatch(t, BundledThemes, themes)
	for _, name := range themes {
		assert.NotEqual(t, '_', rune(name[0]))
	}
}

func TestIsEmbeddedTheme(t *testing.T) {
	assert.True(t, IsEmbeddedTheme("default"))
	assert.True(t, IsEmbeddedTheme("minimal"))
	assert.False(t, IsEmbeddedTheme("catppuccin-mocha"))
}

func TestDefaultThemeStyles(t *testing.T) {
	css, _ := GetEmbeddedTheme(DefaultThemeName)
	assert.Contains(t, css, "@window_bg_color")
	assert.Contains(t, css, ".dark")
	assert.Contains(t, css, ".light")
}

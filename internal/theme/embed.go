package theme

import (
	"embed"
	"io/fs"
	"path/filepath"
	"strings"
)

// EmbeddedThemes contains all bundled theme CSS files.
//
//go:embed themes/*.css
var EmbeddedThemes embed.FS

// DefaultThemeName is the name of the built-in default theme.
const DefaultThemeName = "default"

// BundledThemes lists all embedded theme names.
var BundledThemes = []string{"default", "minimal"}

// GetEmbeddedTheme retrieves a bundled theme by name.
// Returns the CSS content and whether it was found.
// Imports are NOT processed here - use Resolve instead.
func GetEmbeddedTheme(name string) (string, bool) {
	if name == "" || strings.HasPrefix(name, "_") {
		return "", false
	}
	data, err := EmbeddedThemes.ReadFile("themes/" + name + ".css")
	if err != nil {
		return "", false
	}
	return string(data), true
}

// GetEmbeddedPartial retrieves a bundled partial (files starting with _).
func GetEmbeddedPartial(name string) (string, bool) {
	if !strings.HasPrefix(name, "_") {
		name = "_" + name
	}
	if !strings.HasSuffix(name, ".css") {
		name += ".css"
	}
	data, err := EmbeddedThemes.ReadFile("themes/" + name)
	if err != nil {
		return "", false
	}
	return string(data), true
}

// ListEmbeddedThemes returns names of all embedded themes, excluding partials.
func ListEmbeddedThemes() []string {
	entries, err := fs.ReadDir(EmbeddedThemes, "themes")
	if err != nil {
		return BundledThemes // Fallback to known list
	}

	var themes []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, "_") {
			continue
		}
		if ext := filepath.Ext(name); ext == ".css" {
			themes = append(themes, strings.TrimSuffix(name, ext))
		}
	}
	return themes
}

// IsEmbeddedTheme checks if a theme name is bundled.
func IsEmbeddedTheme(name string) bool {
	_, found := GetEmbeddedTheme(name)
	return found
}

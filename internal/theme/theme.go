package theme

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/jmylchreest/chatportraits/internal/config"
)

// importRegex matches @import "file.css"; or @import 'file.css'; or @import url("file.css");
var importRegex = regexp.MustCompile(`@import\s+(?:url\s*\(\s*)?["']([^"']+)["']\s*\)?;?`)

// Theme represents a CSS theme with metadata.
type Theme struct {
	Name    string    // Theme name (without .css extension)
	Path    string    // Full path to the CSS file (empty when bundled)
	CSS     string    // The CSS content with imports inlined
	ModTime time.Time // Last modification time
	Bundled bool      // True if the CSS came from the embedded set
}

// ThemesDir returns the path to the user's themes directory.
func ThemesDir() string {
	return filepath.Join(config.ConfigDir(), "themes")
}

// NewTheme creates a new Theme by loading a CSS file.
// CSS @import statements are resolved and inlined.
func NewTheme(name, path string) (*Theme, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	css, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	return &Theme{
		Name:    name,
		Path:    path,
		CSS:     ProcessImports(string(css), filepath.Dir(path), nil),
		ModTime: info.ModTime(),
	}, nil
}

// newBundledTheme returns the embedded theme name with imports inlined.
func newBundledTheme(name string) (*Theme, bool) {
	css, found := GetEmbeddedTheme(name)
	if !found {
		return nil, false
	}
	return &Theme{
		Name:    name,
		CSS:     ProcessImports(css, "", nil),
		Bundled: true,
	}, true
}

// Resolve finds the theme called name.
// Theme resolution order:
//  1. User themes directory (themesDir/<name>.css)
//  2. Embedded/bundled themes
//  3. The bundled default theme
//
// The second result reports whether name itself was found.
func Resolve(name, themesDir string) (*Theme, bool) {
	if name == "" {
		name = DefaultThemeName
	}

	if themesDir != "" {
		path := filepath.Join(themesDir, name+".css")
		if theme, err := NewTheme(name, path); err == nil {
			return theme, true
		}
	}

	if theme, ok := newBundledTheme(name); ok {
		return theme, true
	}

	theme, _ := newBundledTheme(DefaultThemeName)
	return theme, false
}

// ProcessImports resolves and inlines @import statements in CSS.
// Imports are resolved relative to baseDir, falling back to the bundled
// partials and themes. The seen map prevents circular imports.
func ProcessImports(css string, baseDir string, seen map[string]bool) string {
	if seen == nil {
		seen = make(map[string]bool)
	}

	return importRegex.ReplaceAllStringFunc(css, func(match string) string {
		submatch := importRegex.FindStringSubmatch(match)
		if len(submatch) < 2 {
			return match // Keep original if parsing fails
		}
		importPath := submatch[1]

		fullPath := importPath
		if !filepath.IsAbs(importPath) {
			fullPath = filepath.Join(baseDir, importPath)
		}

		// Prevent circular imports
		if seen[fullPath] {
			return "/* circular import prevented: " + importPath + " */"
		}
		seen[fullPath] = true

		importedCSS, err := os.ReadFile(fullPath)
		if err != nil {
			baseName := filepath.Base(importPath)
			if strings.HasPrefix(baseName, "_") {
				if embeddedCSS, found := GetEmbeddedPartial(baseName); found {
					return "/* imported (embedded): " + importPath + " */\n" + embeddedCSS
				}
			}
			if embeddedCSS, found := GetEmbeddedTheme(strings.TrimSuffix(baseName, ".css")); found {
				return "/* imported (embedded): " + importPath + " */\n" + embeddedCSS
			}
			return "/* import failed: " + importPath + " - " + err.Error() + " */"
		}

		processed := ProcessImports(string(importedCSS), filepath.Dir(fullPath), seen)
		return "/* imported: " + importPath + " */\n" + processed
	})
}

// Reload reloads the theme from disk. Imported partials may have changed
// even when the theme file has not, so the CSS is always re-resolved.
// Returns true if the content changed.
func (t *Theme) Reload() (bool, error) {
	if t.Bundled {
		return false, nil
	}

	info, err := os.Stat(t.Path)
	if err != nil {
		return false, err
	}
	css, err := os.ReadFile(t.Path)
	if err != nil {
		return false, err
	}

	oldCSS := t.CSS
	t.CSS = ProcessImports(string(css), filepath.Dir(t.Path), nil)
	t.ModTime = info.ModTime()
	return oldCSS != t.CSS, nil
}

// ThemeInfo provides basic theme information for listing.
type ThemeInfo struct {
	Name    string `json:"name" yaml:"name"`
	Path    string `json:"path,omitempty" yaml:"path,omitempty"`
	Bundled bool   `json:"bundled" yaml:"bundled"`
}

// ListAvailableThemes lists bundled themes then user themes in themesDir.
// A user theme overriding a bundled one is listed once, with its path.
func ListAvailableThemes(themesDir string) ([]ThemeInfo, error) {
	index := make(map[string]int)
	var themes []ThemeInfo

	for _, name := range ListEmbeddedThemes() {
		index[name] = len(themes)
		themes = append(themes, ThemeInfo{Name: name, Bundled: true})
	}

	entries, err := os.ReadDir(themesDir)
	if err != nil {
		if os.IsNotExist(err) {
			return themes, nil
		}
		return themes, err
	}

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || filepath.Ext(name) != ".css" || strings.HasPrefix(name, "_") {
			continue
		}
		themeName := strings.TrimSuffix(name, ".css")
		info := ThemeInfo{Name: themeName, Path: filepath.Join(themesDir, name)}
		if i, ok := index[themeName]; ok {
			themes[i] = info
			continue
		}
		index[themeName] = len(themes)
		themes = append(themes, info)
	}

	return themes, nil
}

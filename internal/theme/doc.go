// Package theme provides CSS theming for portrait surfaces. Themes are
// resolved from the user's themes directory first, then from the bundled
// set, and are hot-reloaded when their files change.
package theme

package lsp

import (
	"os"
	"path/filepath"
)

// themeMarkers identify a theme directory.
var themeMarkers = []string{
	filepath.Join("config", "settings_schema.json"),
	filepath.Join("layout", "theme.liquid"),
	"locales",
}

// findThemeRoot walks up from path to the nearest directory holding a theme
// marker. Without one the directory above the file's folder is used, since
// theme files live one level deep.
func findThemeRoot(path string) string {
	start := resolveStartDir(path)
	if start == "" {
		return ""
	}
	for dir := start; ; {
		for _, marker := range themeMarkers {
			if _, err := os.Stat(filepath.Join(dir, marker)); err == nil {
				return dir
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	if path == start {
		return start
	}
	return filepath.Dir(start)
}

func resolveStartDir(path string) string {
	if path == "" {
		return ""
	}
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return path
	}
	return filepath.Dir(path)
}

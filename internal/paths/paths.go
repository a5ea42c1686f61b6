// Package paths provides path resolution utilities.
package paths

import (
	"os"
	"path/filepath"
)

// RegisterMarker is the file whose presence marks a register root.
const RegisterMarker = "paneron.yaml"

// ResolveRegisterRoot resolves the register root from user input.
//
// Input normalization:
//   - "" -> the current directory
//   - "/path/to/reg/paneron.yaml" -> "/path/to/reg"
//   - "/path/to/reg/ds/items" -> "/path/to/reg" when an ancestor holds paneron.yaml
//
// If no ancestor holds the marker the cleaned, absolute input is returned so a
// new register can be created there.
func ResolveRegisterRoot(path string) string {
	if path == "" {
		path = "."
	}
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	path = filepath.Clean(path)

	if filepath.Base(path) == RegisterMarker {
		return filepath.Dir(path)
	}

	if root, ok := findMarkerUpward(path); ok {
		return root
	}
	return path
}

// findMarkerUpward walks from dir towards the filesystem root looking for
// RegisterMarker.
func findMarkerUpward(dir string) (string, bool) {
	for {
		if info, err := os.Stat(filepath.Join(dir, RegisterMarker)); err == nil && !info.IsDir() {
			return dir, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

// CacheDir returns the default clone cache root, <user cache dir>/paneron/registers.
func CacheDir() (string, error) {
	base, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "paneron", "registers"), nil
}

// ConfigDir returns ~/.config/paneron, falling back to the OS config dir.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err == nil {
		return filepath.Join(home, ".config", "paneron"), nil
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "paneron"), nil
}

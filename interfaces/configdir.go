package interfaces

import (
	"os"
	"path/filepath"
)

// ConfigDir is where hrsync keeps config.json and its log file. HRSYNC_CONFIG_DIR overrides the
// platform default.
func ConfigDir() (string, error) {
	if dir := os.Getenv("HRSYNC_CONFIG_DIR"); dir != "" {
		return dir, nil
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "hrsync"), nil
}

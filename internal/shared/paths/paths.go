package paths

import (
	"fmt"
	"os"
	"path/filepath"
)

// AppDir is the directory created under the user config dir
const AppDir = "checkinsync"

// userConfigDir is swapped in tests
var userConfigDir = os.UserConfigDir

// ConfigDir returns the per-user directory for credentials and state
func ConfigDir() (string, error) {
	base, err := userConfigDir()
	if err != nil {
		return "", fmt.Errorf("locate config dir: %w", err)
	}
	return filepath.Join(base, AppDir), nil
}

// Resolve maps a bare file name into ConfigDir. Names with a directory
// component are returned cleaned and otherwise untouched.
func Resolve(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("empty path")
	}
	if filepath.IsAbs(name) || filepath.Base(name) != name {
		return filepath.Clean(name), nil
	}

	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, name), nil
}

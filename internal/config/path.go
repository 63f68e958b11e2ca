package config

import (
	"os"
	"path/filepath"
)

const appName = "blinkhub"

// systemDataDir is used when a packaged install has already created it.
const systemDataDir = "/var/lib/" + appName

// DefaultDataDir picks where the hub keeps its store when no data dir is
// configured. In order: $XDG_DATA_HOME/blinkhub, an existing
// /var/lib/blinkhub, the per-user application data dir of the host OS,
// ~/.blinkhub, and ./data when there is no home directory.
func DefaultDataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, appName)
	}
	if isDir(systemDataDir) {
		return systemDataDir
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "./data"
	}
	for _, c := range userDataDirs(home) {
		if isDir(c.marker) {
			return c.dir
		}
	}
	return filepath.Join(home, "."+appName)
}

// userDataDir is an OS convention recognised by its marker directory.
type userDataDir struct {
	marker string
	dir    string
}

func userDataDirs(home string) []userDataDir {
	return []userDataDir{
		// macOS
		{marker: filepath.Join(home, "Library"), dir: filepath.Join(home, "Library", "Application Support", "Blinkhub")},
		// Windows
		{marker: filepath.Join(home, "AppData"), dir: filepath.Join(home, "AppData", "Local", "Blinkhub")},
	}
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

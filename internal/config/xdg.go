package config

import (
	"os"
	"path/filepath"
)

const appName = "gdpractice"

func xdg(env string, fallback ...string) string {
	if v := os.Getenv(env); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if nil != err || home == "" {
		return "."
	}
	return filepath.Join(append([]string{home}, fallback...)...)
}

func XDGConfigHome() string {
	return xdg("XDG_CONFIG_HOME", ".config")
}

func XDGStateHome() string {
	return xdg("XDG_STATE_HOME", ".local", "state")
}

func XDGCacheHome() string {
	return xdg("XDG_CACHE_HOME", ".cache")
}

func DefaultConfigPath() string {
	return filepath.Join(XDGConfigHome(), appName, "config.toml")
}

func DefaultLogPath() string {
	return filepath.Join(XDGStateHome(), appName, appName+".log")
}

// DefaultCachePath is the sqlite map cache.
func DefaultCachePath() string {
	return filepath.Join(XDGCacheHome(), appName, "maps.db")
}

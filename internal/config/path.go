// Package config loads engine settings from files, flags and the environment.
//
// Settings live in config.yaml under ConfigDir; presets default to a SQLite file
// under the data directory. Both directories honor the XDG base-directory variables.
package config

import (
	"os"
	"path/filepath"
	"strings"
)

const appDir = "grouper"

// ConfigDir returns the directory searched for config.yaml.
func ConfigDir() (string, error) {
	return baseDir("XDG_CONFIG_HOME", ".config")
}

// DataDir returns the directory holding the preset database.
func DataDir() (string, error) {
	return baseDir("XDG_DATA_HOME", filepath.Join(".local", "share"))
}

func baseDir(env, fallback string) (string, error) {
	if dir := os.Getenv(env); filepath.IsAbs(dir) {
		return filepath.Join(dir, appDir), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, fallback, appDir), nil
}

// ExpandPath resolves a leading ~ to the home directory and substitutes $VAR references.
// The home directory is left unexpanded when it cannot be determined.
func ExpandPath(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, strings.TrimPrefix(path[1:], "/"))
		}
	}
	return os.ExpandEnv(path)
}

// Package config provides configuration management for evshare: the
// application settings file and the shared store the host app writes
// credentials into.
package config

import (
	"os"
	"path/filepath"
	"runtime"
)

// ConfigDirectory returns the directory holding evshare's files.
//
// Locations:
//   - Windows: %USERPROFILE%\.config\eisenvault
//   - Unix: ~/.config/eisenvault
func ConfigDirectory() string {
	if runtime.GOOS == "windows" {
		if userProfile := os.Getenv("USERPROFILE"); userProfile != "" {
			return filepath.Join(userProfile, ".config", "eisenvault")
		}
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "eisenvault")
	}
	return filepath.Join(home, ".config", "eisenvault")
}

// DefaultConfigPath returns the path of the application settings file.
func DefaultConfigPath() string {
	return filepath.Join(ConfigDirectory(), "config")
}

// DefaultSharedStorePath returns the path of the store shared between the
// host application and share sessions.
func DefaultSharedStorePath() string {
	return filepath.Join(ConfigDirectory(), "shared")
}

// LogDirectory returns the default directory for rotated log files.
func LogDirectory() string {
	return filepath.Join(ConfigDirectory(), "logs")
}

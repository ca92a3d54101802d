package config

import (
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/pelletier/go-toml/v2"
)

// Settings are the daemon-level options read from the TOML settings
// file. The layout itself lives in a separate kmonad-style file so it
// can be hot-reloaded independently.
type Settings struct {
	// Device is the evdev input device to capture, e.g.
	// /dev/input/event3.
	Device string `toml:"device"`

	// Layout is the path to the layout (.kbd) file.
	Layout string `toml:"layout"`

	// Script is an optional Lua file defining script actions.
	Script string `toml:"script"`

	// LogLevel selects zap's level: debug, info, warn, error.
	LogLevel string `toml:"log_level"`
}

// DefaultSettings returns the settings used when no file exists.
func DefaultSettings() Settings {
	return Settings{
		Layout:   filepath.Join(configDir(), "layout.kbd"),
		LogLevel: "info",
	}
}

// DefaultSettingsPath returns the XDG location of the settings file.
func DefaultSettingsPath() string {
	return filepath.Join(configDir(), "layerd.toml")
}

func configDir() string {
	return filepath.Join(xdg.ConfigHome, "layerd")
}

// LoadSettings reads settings from path. A missing file is not an
// error: defaults are returned. A malformed file is a ConfigError.
func LoadSettings(path string) (Settings, error) {
	s := DefaultSettings()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return s, &ConfigError{Path: path, Err: err}
	}
	if err := toml.Unmarshal(data, &s); err != nil {
		return s, &ConfigError{Path: path, Err: err}
	}
	if s.LogLevel == "" {
		s.LogLevel = "info"
	}
	return s, nil
}

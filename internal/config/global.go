// Copyright 2026 The nimusd Authors
// SPDX-License-Identifier: MIT

package config

import (
	"os"
	"path/filepath"
)

// GlobalConfigDir returns the directory for nimusd configuration.
// It uses $XDG_CONFIG_HOME/nimusd if set, otherwise ~/.config/nimusd.
func GlobalConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "nimusd")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "nimusd")
}

// GlobalConfigPath returns the path to the default config file.
func GlobalConfigPath() string {
	return filepath.Join(GlobalConfigDir(), "config.yaml")
}

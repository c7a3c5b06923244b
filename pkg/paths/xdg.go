// Package paths resolves where grw keeps its config and logs.
//
// Resolution order:
// 1. GRW_HOME (portable root) → $GRW_HOME/{config,state}
// 2. XDG env vars → $XDG_*_HOME/grw
// 3. Platform defaults → ~/.config/grw, ~/.local/state/grw
package paths

import (
	"os"
	"path/filepath"
)

const appName = "grw"

func base(sub, xdgVar string, fallback ...string) string {
	if home := os.Getenv("GRW_HOME"); home != "" {
		return filepath.Join(home, sub)
	}
	if dir := os.Getenv(xdgVar); dir != "" {
		return filepath.Join(dir, appName)
	}
	if homeDir, err := os.UserHomeDir(); err == nil {
		return filepath.Join(append(append([]string{homeDir}, fallback...), appName)...)
	}
	return ""
}

// ConfigDir returns the grw configuration directory.
func ConfigDir() string {
	return base("config", "XDG_CONFIG_HOME", ".config")
}

// StateDir returns the grw state directory. Logs live here.
func StateDir() string {
	return base("state", "XDG_STATE_HOME", ".local", "state")
}

// ConfigFile returns the default config file path.
func ConfigFile() string {
	dir := ConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "config.yml")
}

// LogFile returns the default log file path.
func LogFile() string {
	dir := StateDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "grw.log")
}

// EnsureDirs creates the config and state directories.
func EnsureDirs() error {
	for _, dir := range []string{ConfigDir(), StateDir()} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return nil
}

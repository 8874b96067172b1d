// Package dotdir manages the .playback/ and ~/.playback directories.
//
// The directory holds config.toml and a traces/ folder where recorded traces
// can be kept and referred to by name.
package dotdir

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// dirName is the name of the playback directory.
	dirName = ".playback"

	// tracesDir is the subdirectory searched for traces given by name.
	tracesDir = "traces"
)

type Manager struct{}

func NewManager() *Manager {
	return &Manager{}
}

// Target returns the target absolute path to a .playback/ directory.
// Order of precedence is as follows:
//  1. Provided override
//  2. Local ./.playback/ dir
//  3. Home ~/.playback/ dir, created if missing
func (m *Manager) Target(overrideDir string) (string, error) {
	var dir string

	switch {
	case overrideDir != "":
		dir = overrideDir

	case m.localDirExists():
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("getting current directory: %w", err)
		}
		dir = filepath.Join(cwd, dirName)

	default:
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("getting home directory: %w", err)
		}
		dir = filepath.Join(home, dirName)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating playback directory %s: %w", dir, err)
	}

	return filepath.Abs(dir)
}

// ResolveTrace maps a trace argument to a file path. A name that exists as
// given is used directly. Otherwise it is looked up in the traces/ folder of
// the resolved playback directory. When neither exists the name is returned
// unchanged so the caller reports the missing file.
func (m *Manager) ResolveTrace(overrideDir, name string) string {
	if _, err := os.Stat(name); err == nil || filepath.IsAbs(name) {
		return name
	}

	target, err := m.Target(overrideDir)
	if err != nil {
		return name
	}

	candidate := filepath.Join(target, tracesDir, name)
	if _, err := os.Stat(candidate); err == nil {
		return candidate
	}
	return name
}

// localDirExists checks whether a .playback/ directory exists in the current
// working directory.
func (m *Manager) localDirExists() bool {
	cwd, err := os.Getwd()
	if err != nil {
		return false
	}

	info, err := os.Stat(filepath.Join(cwd, dirName))
	return err == nil && info.IsDir()
}

// Package config handles launcher configuration: the install directory
// layout and the optional TOML config file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// InstallDirs holds the launcher's on-disk layout:
//
//	{base}/versions/{version}/   - one directory per installed version
//	{base}/current               - symlink to the active version dir
//	{base}/staging/{id}/         - in-flight downloads
//	{base}/state.db              - install manifest database
//	{base}/launcher.lock         - single-instance flock file
//
// InstallDirs is immutable after construction. Use NewInstallDirs to
// create one; fields are unexported so an invalid layout cannot be
// built by hand.
type InstallDirs struct {
	base     string
	versions string
	current  string
	staging  string
}

// DefaultBase returns the per-user data directory for the launcher,
// following each platform's conventions.
func DefaultBase() (string, error) {
	if runtime.GOOS == "darwin" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolving home directory: %w", err)
		}
		return filepath.Join(home, "Library", "Application Support", "com.swps.nockpool-miner"), nil
	}
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "nockpool-miner"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	return filepath.Join(home, ".local", "share", "nockpool-miner"), nil
}

// NewInstallDirs creates InstallDirs rooted at base, which must be an
// absolute path.
func NewInstallDirs(base string) (InstallDirs, error) {
	if base == "" {
		return InstallDirs{}, fmt.Errorf("base path cannot be empty")
	}
	if !filepath.IsAbs(base) {
		return InstallDirs{}, fmt.Errorf("base path must be absolute, got %q", base)
	}
	return InstallDirs{
		base:     base,
		versions: filepath.Join(base, "versions"),
		current:  filepath.Join(base, "current"),
		staging:  filepath.Join(base, "staging"),
	}, nil
}

// DefaultInstallDirs returns InstallDirs rooted at the platform's
// per-user data directory.
func DefaultInstallDirs() (InstallDirs, error) {
	base, err := DefaultBase()
	if err != nil {
		return InstallDirs{}, err
	}
	return NewInstallDirs(base)
}

// Base returns the install root.
func (d InstallDirs) Base() string { return d.base }

// Versions returns the directory holding one subdirectory per
// installed version.
func (d InstallDirs) Versions() string { return d.versions }

// Current returns the path of the active-version symlink.
func (d InstallDirs) Current() string { return d.current }

// Staging returns the directory for in-flight downloads.
func (d InstallDirs) Staging() string { return d.staging }

// VersionDir returns the install directory for a version.
func (d InstallDirs) VersionDir(version string) string {
	return filepath.Join(d.versions, version)
}

// DBPath returns the install manifest database path.
func (d InstallDirs) DBPath() string {
	return filepath.Join(d.base, "state.db")
}

// LockPath returns the single-instance lock file path.
func (d InstallDirs) LockPath() string {
	return filepath.Join(d.base, "launcher.lock")
}

// Ensure creates the directories that must exist before any install
// can run. The current symlink is created later, by the first install.
func (d InstallDirs) Ensure() error {
	for _, dir := range []string{d.base, d.versions, d.staging} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
	}
	return nil
}

// Package install manages on-disk miner versions: staged downloads,
// archive extraction, the atomic current-version symlink flip, and the
// install manifest.
package install

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	launcher "github.com/ligne12/nockpool-miner-launcher"
	"github.com/ligne12/nockpool-miner-launcher/config"
	"github.com/ligne12/nockpool-miner-launcher/release"
)

// Installer downloads releases and installs them under the launcher's
// data directory. All mutation is staged: a download lands in a
// uuid-named staging directory and only reaches versions/ by rename,
// so a crash mid-install never corrupts an installed version.
type Installer struct {
	dirs     config.InstallDirs
	store    launcher.Store
	client   *release.Client
	platform launcher.Platform
	owner    string
	repo     string
	logger   *slog.Logger
}

// New returns an Installer for the given repository.
func New(dirs config.InstallDirs, store launcher.Store, client *release.Client, owner, repo string, logger *slog.Logger) *Installer {
	return &Installer{
		dirs:     dirs,
		store:    store,
		client:   client,
		platform: launcher.HostPlatform(),
		owner:    owner,
		repo:     repo,
		logger:   logger.With("component", "install"),
	}
}

// SetPlatform overrides the host platform. Tests use this to exercise
// both package layouts on any machine.
func (i *Installer) SetPlatform(p launcher.Platform) { i.platform = p }

// BinaryPath returns the path of the active miner binary.
func (i *Installer) BinaryPath() string {
	return filepath.Join(i.dirs.Current(), launcher.BinaryName)
}

// InstalledVersion returns the version the current symlink points at.
// Returns ErrNotInstalled when no version has ever been installed.
func (i *Installer) InstalledVersion() (string, error) {
	target, err := os.Readlink(i.dirs.Current())
	if err != nil {
		if os.IsNotExist(err) {
			return "", launcher.ErrNotInstalled{Path: i.dirs.Current()}
		}
		return "", fmt.Errorf("reading current symlink: %w", err)
	}
	return filepath.Base(target), nil
}

// EnsureLatest checks the latest published release and installs it if
// it differs from the installed version. It returns the active version
// and whether an install happened.
func (i *Installer) EnsureLatest(ctx context.Context) (string, bool, error) {
	local, err := i.InstalledVersion()
	if err != nil {
		var notInstalled launcher.ErrNotInstalled
		if !errors.As(err, &notInstalled) {
			return "", false, err
		}
		local = ""
	}

	rel, err := i.client.Latest(ctx, i.owner, i.repo)
	if err != nil {
		return local, false, err
	}
	if err := i.store.SetLastCheck(ctx, time.Now()); err != nil {
		i.logger.Warn("recording check time failed", "error", err)
	}

	if local == rel.Version() {
		i.logger.Info("already on the latest version", "version", local)
		return local, false, nil
	}

	i.logger.Info("new version available", "installed", local, "latest", rel.Version())
	if err := i.Install(ctx, rel); err != nil {
		return local, false, err
	}
	return rel.Version(), true, nil
}

// Install downloads the platform asset of rel and makes it the current
// version.
func (i *Installer) Install(ctx context.Context, rel launcher.Release) error {
	asset, err := rel.AssetNamed(i.platform.PackageName())
	if err != nil {
		return err
	}

	if err := i.dirs.Ensure(); err != nil {
		return err
	}

	staging := filepath.Join(i.dirs.Staging(), uuid.New().String())
	if err := os.MkdirAll(staging, 0o755); err != nil {
		return fmt.Errorf("creating staging directory: %w", err)
	}
	defer os.RemoveAll(staging)

	pkgPath := filepath.Join(staging, asset.Name)
	pkg, err := os.Create(pkgPath)
	if err != nil {
		return fmt.Errorf("creating staging file: %w", err)
	}
	dgst, size, err := i.client.Download(ctx, asset, pkg)
	if cerr := pkg.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}

	// Lay out the staged version directory exactly as it will appear
	// under versions/.
	stagedVersion := filepath.Join(staging, rel.Version())
	if err := os.MkdirAll(stagedVersion, 0o755); err != nil {
		return fmt.Errorf("creating staged version directory: %w", err)
	}

	binPath := filepath.Join(stagedVersion, launcher.BinaryName)
	if i.platform.Zipped() {
		if err := extractZip(pkgPath, stagedVersion); err != nil {
			return fmt.Errorf("extracting %s: %w", asset.Name, err)
		}
	} else {
		if err := os.Rename(pkgPath, binPath); err != nil {
			return fmt.Errorf("staging binary: %w", err)
		}
	}
	if err := os.Chmod(binPath, 0o755); err != nil {
		return fmt.Errorf("marking binary executable: %w", err)
	}

	// Promote: replace any half-installed copy of this version, then
	// flip the current symlink atomically.
	versionDir := i.dirs.VersionDir(rel.Version())
	if err := os.RemoveAll(versionDir); err != nil {
		return fmt.Errorf("clearing stale version directory: %w", err)
	}
	if err := os.Rename(stagedVersion, versionDir); err != nil {
		return fmt.Errorf("promoting staged version: %w", err)
	}
	if err := flipSymlink(versionDir, i.dirs.Current()); err != nil {
		return err
	}

	rec := launcher.VersionRecord{
		Version:     rel.Version(),
		Digest:      dgst,
		Size:        size,
		InstalledAt: time.Now(),
	}
	if err := i.store.SaveVersion(ctx, rec); err != nil {
		i.logger.Warn("recording install failed", "version", rec.Version, "error", err)
	}

	i.logger.Info("installed miner version",
		"version", rel.Version(), "digest", dgst, "bytes", size)
	return nil
}

// flipSymlink atomically points link at target by renaming a freshly
// created sibling symlink over it.
func flipSymlink(target, link string) error {
	tmp := link + ".tmp"
	if err := os.Remove(tmp); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("clearing temp symlink: %w", err)
	}
	if err := os.Symlink(target, tmp); err != nil {
		return fmt.Errorf("creating symlink: %w", err)
	}
	if err := os.Rename(tmp, link); err != nil {
		return fmt.Errorf("activating symlink: %w", err)
	}
	return nil
}

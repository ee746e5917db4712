package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	launcher "github.com/ligne12/nockpool-miner-launcher"
	"github.com/ligne12/nockpool-miner-launcher/install"
	"github.com/ligne12/nockpool-miner-launcher/lock"
	"github.com/ligne12/nockpool-miner-launcher/release"
	"github.com/ligne12/nockpool-miner-launcher/store/sqlite"
	"github.com/ligne12/nockpool-miner-launcher/supervise"
)

// RunCmd installs the miner if needed, keeps it up to date, and runs
// it until the miner exits or the launcher is signalled.
type RunCmd struct {
	NoUpdate          bool     `name:"no-update" help:"Run the installed version without checking for updates."`
	DisableUpdateLoop bool     `name:"disable-update-loop" help:"Update once at startup but do not re-check while running."`
	MinerArgs         []string `arg:"" optional:"" passthrough:"" help:"Arguments passed through to the miner."`
}

// Run executes the run command.
func (c *RunCmd) Run(cli *CLI, ctx context.Context) error {
	cfg, err := cli.LoadConfig()
	if err != nil {
		return err
	}
	logger, err := cli.Logger(cfg)
	if err != nil {
		return err
	}

	dirs, err := cli.Dirs()
	if err != nil {
		return err
	}
	if err := dirs.Ensure(); err != nil {
		return err
	}

	guard, err := lock.Acquire(dirs.LockPath())
	if err != nil {
		return err
	}
	defer guard.Release()

	store, err := sqlite.New(ctx, dirs.DBPath(), logger)
	if err != nil {
		return fmt.Errorf("open version store: %w", err)
	}
	defer store.Close()

	client := release.NewClient(release.WithLogger(logger))
	installer := install.New(dirs, store, client, cfg.Update.Owner, cfg.Update.Repo, logger)

	version, interval, err := c.prepare(ctx, installer, cfg.Update.CheckInterval(), logger)
	if err != nil {
		return err
	}
	logger.Info("starting miner", "version", version, "binary", installer.BinaryPath())

	args := append(append([]string{}, cfg.Miner.Args...), c.MinerArgs...)

	w := &supervise.Watcher{
		BinPath:  installer.BinaryPath(),
		Args:     args,
		Interval: interval,
		Updater:  installer,
		Output:   os.Stderr,
		Logger:   logger,
	}
	return w.Run(ctx)
}

// prepare settles which miner version will run and whether the update
// loop stays enabled. With --no-update an existing install is required;
// otherwise a failed release check falls back to the installed version
// when there is one.
func (c *RunCmd) prepare(ctx context.Context, installer *install.Installer, interval time.Duration, logger *slog.Logger) (string, time.Duration, error) {
	if c.NoUpdate {
		version, err := installer.InstalledVersion()
		if err != nil {
			var notInstalled launcher.ErrNotInstalled
			if errors.As(err, &notInstalled) {
				return "", 0, fmt.Errorf("--no-update requires an installed miner: %w", err)
			}
			return "", 0, err
		}
		return version, 0, nil
	}

	version, _, err := installer.EnsureLatest(ctx)
	if err != nil {
		installed, instErr := installer.InstalledVersion()
		if instErr != nil {
			return "", 0, fmt.Errorf("update check failed and no miner is installed: %w", err)
		}
		logger.Warn("update check failed, running installed version", "version", installed, "error", err)
		version = installed
	}

	if c.DisableUpdateLoop {
		interval = 0
	}
	return version, interval, nil
}

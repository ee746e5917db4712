package cli

import (
	"context"
	"fmt"

	"github.com/ligne12/nockpool-miner-launcher/install"
	"github.com/ligne12/nockpool-miner-launcher/lock"
	"github.com/ligne12/nockpool-miner-launcher/release"
	"github.com/ligne12/nockpool-miner-launcher/store/sqlite"
)

// UpdateCmd checks for and installs the latest miner release without
// running the miner.
type UpdateCmd struct{}

// Run executes the update command.
func (c *UpdateCmd) Run(cli *CLI, ctx context.Context) error {
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

	version, updated, err := installer.EnsureLatest(ctx)
	if err != nil {
		return err
	}
	if updated {
		fmt.Printf("Installed miner %s\n", version)
	} else {
		fmt.Printf("Miner %s is already up to date\n", version)
	}
	return nil
}

package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/ligne12/nockpool-miner-launcher/store/sqlite"
)

// ListCmd lists installed miner versions.
type ListCmd struct{}

// Run executes the list command.
func (c *ListCmd) Run(cli *CLI, ctx context.Context) error {
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

	store, err := sqlite.New(ctx, dirs.DBPath(), logger)
	if err != nil {
		return fmt.Errorf("open version store: %w", err)
	}
	defer store.Close()

	versions, err := store.ListVersions(ctx)
	if err != nil {
		return err
	}
	if len(versions) == 0 {
		fmt.Println("No miner versions installed")
		return nil
	}

	current := currentVersion(dirs.Current())
	for _, v := range versions {
		marker := " "
		if v.Version == current {
			marker = "*"
		}
		fmt.Printf("%s %-12s %10d bytes  %s  %s\n",
			marker, v.Version, v.Size, v.InstalledAt.Local().Format(time.RFC3339), v.Digest)
	}

	if last, err := store.LastCheck(ctx); err == nil && !last.IsZero() {
		fmt.Printf("\nLast update check: %s\n", last.Local().Format(time.RFC3339))
	}
	return nil
}

// currentVersion resolves the current symlink to a version string, or
// returns empty when nothing is installed.
func currentVersion(link string) string {
	target, err := filepath.EvalSymlinks(link)
	if err != nil {
		return ""
	}
	return filepath.Base(target)
}

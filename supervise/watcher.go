package supervise

import (
	"context"
	"io"
	"log/slog"
	"time"
)

// Updater checks for and installs new miner releases. Implemented by
// install.Installer.
type Updater interface {
	EnsureLatest(ctx context.Context) (version string, updated bool, err error)
}

// Watcher runs the miner and restarts it whenever the updater installs
// a new version.
type Watcher struct {
	// BinPath is the miner binary to run; the path stays valid across
	// updates because it goes through the current symlink.
	BinPath string
	// Args are passed to the miner on every (re)start.
	Args []string
	// Interval is how often to check for updates. Zero disables the
	// update loop; the watcher then only supervises the child.
	Interval time.Duration
	// Updater performs the release check. Required when Interval > 0.
	Updater Updater
	// Output receives the miner's forwarded output; nil means stderr.
	Output io.Writer
	// Logger is required.
	Logger *slog.Logger
}

// Run starts the miner and blocks until the miner exits on its own or
// ctx is cancelled. On cancellation the child is killed and Run
// returns nil; if the miner exits by itself, its exit error (possibly
// nil) is returned.
func (w *Watcher) Run(ctx context.Context) error {
	log := w.Logger.With("component", "supervise")

	child, err := Start(w.BinPath, w.Args, w.Output, w.Logger)
	if err != nil {
		return err
	}

	var ticks <-chan time.Time
	if w.Interval > 0 {
		ticker := time.NewTicker(w.Interval)
		defer ticker.Stop()
		ticks = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			child.Stop()
			<-child.Done()
			log.Info("miner shut down")
			return nil

		case err := <-child.Done():
			log.Info("miner exited", "error", err)
			return err

		case <-ticks:
			log.Debug("checking for updates")
			version, updated, err := w.Updater.EnsureLatest(ctx)
			if err != nil {
				log.Warn("update check failed", "error", err)
				continue
			}
			if !updated {
				continue
			}

			log.Info("update installed, restarting miner", "version", version)
			child.Stop()
			<-child.Done()
			child, err = Start(w.BinPath, w.Args, w.Output, w.Logger)
			if err != nil {
				return err
			}
		}
	}
}

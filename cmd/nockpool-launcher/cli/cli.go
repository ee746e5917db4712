// Package cli implements the nockpool-launcher command tree.
package cli

import (
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"github.com/ligne12/nockpool-miner-launcher/config"
	"github.com/ligne12/nockpool-miner-launcher/logging"
)

// CLI is the root command structure for nockpool-launcher.
type CLI struct {
	Config string `name:"config" help:"Config file path." default:"${default_config_path}"`
	Base   string `name:"base" help:"Install directory. Defaults to the platform data directory."`
	Log    string `name:"log" help:"Log spec (e.g., 'info,supervise=debug')."`

	Run    RunCmd    `cmd:"" default:"withargs" help:"Install the miner if needed, keep it up to date, and run it."`
	Update UpdateCmd `cmd:"" help:"Check for and install the latest miner release."`
	List   ListCmd   `cmd:"" help:"List installed miner versions."`
	Doctor DoctorCmd `cmd:"" help:"Check the host for a usable GPU driver stack."`
}

// KongOptions returns the Kong configuration options for the CLI.
func KongOptions() []kong.Option {
	return []kong.Option{
		kong.Name("nockpool-launcher"),
		kong.Description("Downloads, updates, and supervises the nockpool miner."),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars{
			"default_config_path": config.DefaultConfigPath,
		},
	}
}

// LoadConfig loads the configuration from the config file path.
func (c *CLI) LoadConfig() (config.Config, error) {
	return config.Load(c.Config)
}

// Dirs resolves the install directory layout from --base or the
// platform default.
func (c *CLI) Dirs() (config.InstallDirs, error) {
	if c.Base != "" {
		return config.NewInstallDirs(c.Base)
	}
	return config.DefaultInstallDirs()
}

// Logger builds the launcher logger with CLI > environment > config
// precedence for the log spec.
func (c *CLI) Logger(cfg config.Config) (*slog.Logger, error) {
	format, err := logging.ParseFormat(cfg.Logging.Format)
	if err != nil {
		return nil, err
	}

	return logging.New(logging.Options{
		CLISpec:    c.Log,
		EnvSpec:    os.Getenv(logging.EnvSpec),
		ConfigSpec: cfg.Logging.Level,
		Format:     format,
		Output:     os.Stderr,
	})
}

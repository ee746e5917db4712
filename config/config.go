package config

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed default.toml
var defaultConfigTOML string

// DefaultConfigPath is where the launcher looks for its config file
// when --config is not given. A missing file is not an error.
const DefaultConfigPath = "/etc/nockpool/launcher.toml"

// Config is the launcher configuration. It is loaded with overlay
// semantics: embedded defaults first, then the config file, then CLI
// flags and environment at the call sites that consume it.
type Config struct {
	Update  UpdateConfig  `toml:"update"`
	Miner   MinerConfig   `toml:"miner"`
	Logging LoggingConfig `toml:"logging"`
}

// UpdateConfig controls the release check and update loop.
type UpdateConfig struct {
	// Owner and Repo name the GitHub repository publishing miner
	// releases.
	Owner string `toml:"owner"`
	Repo  string `toml:"repo"`

	// Interval is how often the background watcher re-checks for a
	// new release.
	Interval duration `toml:"interval"`
}

// MinerConfig controls how the miner child process is launched.
type MinerConfig struct {
	// Args are default arguments passed to the miner before any CLI
	// passthrough arguments.
	Args []string `toml:"args"`
}

// LoggingConfig controls launcher log output.
type LoggingConfig struct {
	// Level is a log spec, e.g. "info" or "info,supervise=debug".
	Level string `toml:"level"`
	// Format is "text" or "json".
	Format string `toml:"format"`
}

// CheckInterval returns the configured update interval.
func (c UpdateConfig) CheckInterval() time.Duration {
	return time.Duration(c.Interval)
}

// duration lets TOML carry values like "15m".
type duration time.Duration

func (d *duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = duration(v)
	return nil
}

// Default returns the configuration from the embedded default.toml.
func Default() Config {
	var cfg Config
	if _, err := toml.Decode(defaultConfigTOML, &cfg); err != nil {
		// The embedded defaults are fixed at build time; decoding them
		// cannot fail in a released binary.
		panic(fmt.Sprintf("embedded default.toml: %v", err))
	}
	return cfg
}

// Load reads the config file at path, overlaying it onto the embedded
// defaults. A missing file yields the defaults; an invalid file is an
// error rather than a silent fallback.
func Load(path string) (Config, error) {
	if path == "" {
		path = DefaultConfigPath
	}

	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config file: %w", err)
	}

	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return cfg, nil
}

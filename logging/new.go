package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// EnvSpec is the environment variable holding the launcher's log spec.
const EnvSpec = "NOCKPOOL_LOG"

// Format selects the log output encoding.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// ParseFormat parses a format name. Empty means text.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "text", "":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	default:
		return FormatText, fmt.Errorf("unknown log format: %q", s)
	}
}

// Options configures the logger factory. Spec precedence is
// CLI > environment > config file, the Unix convention.
type Options struct {
	CLISpec    string
	EnvSpec    string
	ConfigSpec string
	Format     Format
	Output     io.Writer // defaults to os.Stderr
}

// New builds a component-filtered slog.Logger. The launcher logs to
// stderr so the miner's own output can be piped through stdout-adjacent
// streams untouched.
func New(opts Options) (*slog.Logger, error) {
	specStr := opts.ConfigSpec
	if opts.EnvSpec != "" {
		specStr = opts.EnvSpec
	}
	if opts.CLISpec != "" {
		specStr = opts.CLISpec
	}

	spec, err := ParseSpec(specStr)
	if err != nil {
		return nil, fmt.Errorf("invalid log spec: %w", err)
	}

	output := opts.Output
	if output == nil {
		output = os.Stderr
	}

	// The inner handler passes everything; the filtering wrapper is
	// the only gate.
	handlerOpts := &slog.HandlerOptions{Level: LevelDebug.ToSlog()}
	var inner slog.Handler
	switch opts.Format {
	case FormatJSON:
		inner = slog.NewJSONHandler(output, handlerOpts)
	default:
		inner = slog.NewTextHandler(output, handlerOpts)
	}

	return slog.New(NewFilteringHandler(inner, &spec)), nil
}

// FromEnv builds a logger from NOCKPOOL_LOG alone.
func FromEnv() (*slog.Logger, error) {
	return New(Options{EnvSpec: os.Getenv(EnvSpec)})
}

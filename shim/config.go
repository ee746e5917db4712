// Package shim implements the interception layer of the PTX
// retargeting shim: process-wide configuration, the per-call
// classify/rewrite/dispatch flow, and best-effort diagnostic dumps.
//
// The package is deliberately free of any C ABI handling. The ABI
// boundary (symbol interposition, raw pointers, the real driver call)
// lives in shim/cudriver and cmd/libptxshim; everything here operates
// on byte slices and plain interfaces so it can be tested without a
// GPU driver in the process.
package shim

import (
	"log/slog"
	"os"

	"github.com/xyproto/env/v2"
)

// Environment variables read once, at first entry into the shim.
const (
	EnvVerbose    = "PTX_PERF_VERBOSE"
	EnvDump       = "PTX_PERF_DUMP"
	EnvTargetArch = "PTX_PERF_TARGET_ARCH"
	EnvDumpDir    = "PTX_PERF_DUMP_DIR"
)

const (
	// DefaultTargetArch is the architecture token substituted into
	// target directives when PTX_PERF_TARGET_ARCH is unset.
	DefaultTargetArch = "sm_89"

	// DefaultDumpDir receives diagnostic dumps when PTX_PERF_DUMP_DIR
	// is unset.
	DefaultDumpDir = "/tmp"

	maxArchLen = 15
	maxDirLen  = 255
)

// Config holds the shim's process-wide settings. It is populated once
// from the environment and read-only thereafter; no component mutates
// it after construction.
type Config struct {
	// Verbose enables progress notices on stderr.
	Verbose bool
	// Dump enables persistence of original and rewritten buffers.
	Dump bool
	// TargetArch is the replacement architecture token, e.g. "sm_89".
	TargetArch string
	// DumpDir is the directory receiving diagnostic dumps.
	DumpDir string
}

// ConfigFromEnv reads the shim configuration from the process
// environment. Absent or malformed variables silently fall back to
// defaults; overlong strings are silently truncated.
func ConfigFromEnv() Config {
	return Config{
		Verbose:    truthy(env.Str(EnvVerbose)),
		Dump:       truthy(env.Str(EnvDump)),
		TargetArch: truncate(env.Str(EnvTargetArch, DefaultTargetArch), maxArchLen),
		DumpDir:    truncate(env.Str(EnvDumpDir, DefaultDumpDir), maxDirLen),
	}
}

// Logger returns the logger for this configuration: a text handler on
// stderr when verbose, otherwise a discarding logger. The shim runs
// inside a foreign host process, so stdout is never touched.
func (c Config) Logger() *slog.Logger {
	if !c.Verbose {
		return slog.New(slog.DiscardHandler)
	}
	return slog.New(slog.NewTextHandler(os.Stderr, nil))
}

// truthy reports whether an environment value is set: the first byte
// must be '1'. Anything else, including "true", counts as unset.
func truthy(s string) bool {
	return len(s) > 0 && s[0] == '1'
}

func truncate(s string, max int) string {
	if len(s) > max {
		return s[:max]
	}
	return s
}

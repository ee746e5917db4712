// Package logging configures structured logging for the launcher.
//
// Log output is controlled by a spec string of the form
// "<base-level>[,<component>=<level>]...", for example
// "info,supervise=debug". Components tag their loggers with a
// "component" attribute; the filtering handler applies the
// per-component level.
package logging

import (
	"fmt"
	"log/slog"
	"strings"
)

// Level is a log level. Values match the slog constants so conversion
// is a cast.
type Level int

const (
	LevelDebug Level = -4
	LevelInfo  Level = 0
	LevelWarn  Level = 4
	LevelError Level = 8
)

// ParseLevel parses a level name (case-insensitive).
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "info", "":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error", "err":
		return LevelError, nil
	default:
		return LevelInfo, fmt.Errorf("unknown log level: %q", s)
	}
}

// ToSlog converts the Level to its slog equivalent.
func (l Level) ToSlog() slog.Level {
	return slog.Level(l)
}

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return fmt.Sprintf("Level(%d)", int(l))
	}
}

package logging

import (
	"fmt"
	"strings"
)

// Spec is a parsed log specification: a base level plus optional
// per-component overrides.
type Spec struct {
	BaseLevel  Level
	Components map[string]Level
}

// ParseSpec parses "<base-level>[,<component>=<level>]...". An empty
// string yields info with no overrides. A bare level is only valid as
// the first element.
func ParseSpec(s string) (Spec, error) {
	spec := Spec{
		BaseLevel:  LevelInfo,
		Components: make(map[string]Level),
	}

	s = strings.TrimSpace(s)
	if s == "" {
		return spec, nil
	}

	for i, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		name, levelStr, isOverride := strings.Cut(part, "=")
		if !isOverride {
			if i != 0 {
				return spec, fmt.Errorf("base level %q must come first", part)
			}
			level, err := ParseLevel(part)
			if err != nil {
				return spec, err
			}
			spec.BaseLevel = level
			continue
		}

		name = strings.TrimSpace(name)
		if name == "" {
			return spec, fmt.Errorf("empty component name in %q", part)
		}
		level, err := ParseLevel(levelStr)
		if err != nil {
			return spec, fmt.Errorf("component %q: %w", name, err)
		}
		spec.Components[name] = level
	}

	return spec, nil
}

// LevelFor returns the effective level for a component: its override
// if one exists, the base level otherwise.
func (s *Spec) LevelFor(component string) Level {
	if level, ok := s.Components[component]; ok {
		return level
	}
	return s.BaseLevel
}

package logging

import (
	"context"
	"log/slog"
)

// componentKey is the attribute that names a logger's component.
const componentKey = "component"

// filteringHandler applies per-component levels from a Spec before
// delegating to an inner handler.
type filteringHandler struct {
	inner     slog.Handler
	spec      *Spec
	component string
}

// NewFilteringHandler wraps inner with component-level filtering.
func NewFilteringHandler(inner slog.Handler, spec *Spec) slog.Handler {
	return &filteringHandler{inner: inner, spec: spec}
}

func (h *filteringHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return level >= h.spec.LevelFor(h.component).ToSlog()
}

func (h *filteringHandler) Handle(ctx context.Context, r slog.Record) error {
	if !h.Enabled(ctx, r.Level) {
		return nil
	}
	return h.inner.Handle(ctx, r)
}

// WithAttrs picks up a "component" attribute so subsequent records are
// filtered at that component's level.
func (h *filteringHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := &filteringHandler{
		inner:     h.inner.WithAttrs(attrs),
		spec:      h.spec,
		component: h.component,
	}
	for _, attr := range attrs {
		if attr.Key == componentKey {
			next.component = attr.Value.String()
			break
		}
	}
	return next
}

func (h *filteringHandler) WithGroup(name string) slog.Handler {
	return &filteringHandler{
		inner:     h.inner.WithGroup(name),
		spec:      h.spec,
		component: h.component,
	}
}

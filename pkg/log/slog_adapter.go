package log

import (
	"context"
	"log/slog"
)

// SlogAdapter writes trace events to an slog.Logger.
// Useful for development when you want to see resolution steps in console.
type SlogAdapter struct {
	logger *slog.Logger
	level  slog.Level
}

// NewSlogAdapter creates a SlogAdapter that logs at Debug level.
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	return &SlogAdapter{logger: logger, level: slog.LevelDebug}
}

// WithLevel returns a copy of the adapter that logs at the given level.
func (a *SlogAdapter) WithLevel(level slog.Level) *SlogAdapter {
	return &SlogAdapter{logger: a.logger, level: level}
}

// Log writes the event to the slog logger. Error events are always
// logged at Warn or above.
func (a *SlogAdapter) Log(event Event) {
	attrs := []slog.Attr{
		slog.String("session", event.SessionID),
		slog.String("category", event.Category.String()),
	}
	if event.Model != "" {
		attrs = append(attrs, slog.String("model", event.Model))
	}
	if event.NodePath != "" {
		attrs = append(attrs, slog.String("node", event.NodePath))
	}
	if event.Property != "" {
		attrs = append(attrs, slog.String("prop", event.Property))
	}

	level := a.level
	switch {
	case event.Load != nil:
		attrs = append(attrs,
			slog.Int("models", event.Load.Models),
			slog.Int("phandles", event.Load.Phandles),
		)
		if event.Load.Source != "" {
			attrs = append(attrs, slog.String("source", event.Load.Source))
		}
	case event.Lookup != nil:
		attrs = append(attrs,
			slog.String("segment", event.Lookup.Segment),
			slog.String("shared", event.Lookup.SharedPath),
			slog.Bool("found", event.Lookup.Found),
		)
	case event.Reference != nil:
		attrs = append(attrs,
			slog.Uint64("phandle", uint64(event.Reference.Phandle)),
			slog.String("target", event.Reference.Target),
		)
	case event.Merge != nil:
		attrs = append(attrs,
			slog.Int("own", event.Merge.Own),
			slog.Int("inherited", event.Merge.Inherited),
		)
		if event.Merge.Linked != "" {
			attrs = append(attrs, slog.String("linked", event.Merge.Linked))
		}
	case event.Template != nil:
		attrs = append(attrs,
			slog.String("template", event.Template.Template),
			slog.String("result", event.Template.Result),
		)
	case event.Error != nil:
		attrs = append(attrs, slog.String("error", event.Error.Message))
		if event.Error.Context != "" {
			attrs = append(attrs, slog.String("context", event.Error.Context))
		}
		if level < slog.LevelWarn {
			level = slog.LevelWarn
		}
	}

	a.logger.LogAttrs(context.Background(), level, "trace", attrs...)
}

var _ Logger = (*SlogAdapter)(nil)

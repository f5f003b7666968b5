package log

import (
	"context"
	"log/slog"
)

// SlogAdapter writes capture events to an slog.Logger at Debug level.
type SlogAdapter struct {
	logger *slog.Logger
}

// NewSlogAdapter creates a SlogAdapter that writes to logger.
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	return &SlogAdapter{logger: logger}
}

// Log writes the event as structured attributes.
func (a *SlogAdapter) Log(event Event) {
	attrs := []slog.Attr{
		slog.String("event_id", event.ID),
		slog.String("source", event.Source.String()),
		slog.String("category", event.Category.String()),
	}
	if event.RequestID != "" {
		attrs = append(attrs, slog.String("request_id", event.RequestID))
	}
	if event.Input != "" {
		attrs = append(attrs, slog.String("input", event.Input))
	}

	switch {
	case event.Parse != nil:
		p := event.Parse
		attrs = append(attrs,
			slog.Bool("ok", p.OK),
			slog.Int("segments", p.Segments),
			slog.Int("critical", p.Critical),
			slog.Int("errors", p.Errors),
			slog.Int("warnings", p.Warnings),
			slog.Int("size", p.Size),
			slog.Duration("duration", p.Duration),
		)
		if p.OK {
			attrs = append(attrs,
				slog.String("version", p.Version),
				slog.String("message_type", p.MessageType),
				slog.String("control_id", p.ControlID),
			)
		}
		if p.FirstProblem != "" {
			attrs = append(attrs, slog.String("first_problem", p.FirstProblem))
		}
	case event.Diff != nil:
		d := event.Diff
		attrs = append(attrs,
			slog.Int("added", d.Added),
			slog.Int("removed", d.Removed),
			slog.Int("modified", d.Modified),
			slog.Int("common", d.Common),
			slog.Int("changed_fields", d.ChangedFields),
			slog.Duration("duration", d.Duration),
		)
		if d.ControlIDA != "" {
			attrs = append(attrs, slog.String("control_id_a", d.ControlIDA))
		}
		if d.ControlIDB != "" {
			attrs = append(attrs, slog.String("control_id_b", d.ControlIDB))
		}
	case event.Error != nil:
		attrs = append(attrs,
			slog.String("error_msg", event.Error.Message),
			slog.String("error_context", event.Error.Context),
		)
		if event.Error.Code != nil {
			attrs = append(attrs, slog.Int("error_code", *event.Error.Code))
		}
	}

	a.logger.LogAttrs(context.Background(), slog.LevelDebug, "capture", attrs...)
}

// Compile-time interface satisfaction check.
var _ Logger = (*SlogAdapter)(nil)

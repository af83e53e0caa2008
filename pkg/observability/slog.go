package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/dispatch/pkg/domain"
)

// SlogHandler logs every event to logger at level. The event kind becomes
// the message.
func SlogHandler(logger *slog.Logger, level slog.Level) domain.Handler {
	return func(ctx context.Context, ev domain.Event) error {
		attrs := []slog.Attr{
			slog.String("event_id", ev.ID()),
			slog.String("target", ev.TargetName()),
			slog.String("operation", ev.Operation()),
			slog.String("trigger", ev.Trigger().Name),
			slog.Any("args", NewRecord(ev).Args),
		}
		if kw := ev.Kwargs(); len(kw) > 0 {
			attrs = append(attrs, slog.Any("kwargs", kw))
		}
		logger.LogAttrs(ctx, level, ev.Kind().String(), attrs...)
		return nil
	}
}

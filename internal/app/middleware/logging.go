package middleware

import (
	"context"
	"log/slog"
	"time"

	"homio/internal/app/commands"
	"homio/internal/domain/shared/fault"
)

// Logging records every dispatched command with its outcome. Client-side
// failures are logged at Info, anything unclassified at Error.
func Logging(logger *slog.Logger) CommandMiddleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next commands.Bus) commands.Bus {
		nextFn := wrapCommand(next)
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			started := time.Now()
			res, err := nextFn(ctx, cmd)
			attrs := []any{"command", cmd.Key(), "duration", time.Since(started)}
			switch {
			case err == nil:
				logger.DebugContext(ctx, "command handled", attrs...)
			case fault.Kind(err) != nil:
				logger.InfoContext(ctx, "command rejected", append(attrs, "error", err)...)
			default:
				logger.ErrorContext(ctx, "command failed", append(attrs, "error", err)...)
			}
			return res, err
		})
	}
}

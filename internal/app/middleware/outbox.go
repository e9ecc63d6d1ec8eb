package middleware

import (
	"context"
	"log/slog"

	"homio/internal/app/commands"
	"homio/internal/app/outbox"
)

// OutboxFlush hands buffered events to the outbox once the command, and the
// transaction below it, succeeded. The command already committed by then, so
// a flush failure is logged and the result still returned; durable outboxes
// pick the records up on their own.
func OutboxFlush(box outbox.Outbox, logger *slog.Logger) CommandMiddleware {
	if box == nil {
		panic("middleware: outbox required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return func(next commands.Bus) commands.Bus {
		nextFn := wrapCommand(next)
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			res, err := nextFn(ctx, cmd)
			if err != nil {
				return nil, err
			}
			if err := box.Flush(ctx); err != nil {
				logger.WarnContext(ctx, "outbox flush failed", "command", cmd.Key(), "error", err)
			}
			return res, nil
		})
	}
}

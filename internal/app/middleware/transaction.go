package middleware

import (
	"context"

	"homio/internal/app/commands"
	"homio/internal/app/uow"
)

// TxOptionsProvider picks transaction options per command.
type TxOptionsProvider func(cmd commands.Command) uow.TxOptions

// Transaction runs the rest of the chain inside one unit of work. The unit is
// committed only when the handler succeeds; any error or panic rolls it back.
// A command dispatched while a unit is already open joins that unit.
func Transaction(factory uow.UoWFactory, optsProvider TxOptionsProvider) CommandMiddleware {
	if factory == nil {
		panic("middleware: uow factory required")
	}
	if optsProvider == nil {
		optsProvider = func(commands.Command) uow.TxOptions { return uow.TxOptions{} }
	}
	return func(next commands.Bus) commands.Bus {
		run := wrapCommand(next)
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			if _, joined := uow.From(ctx); joined {
				return run(ctx, cmd)
			}
			unit, err := factory.Begin(ctx, optsProvider(cmd))
			if err != nil {
				return nil, err
			}
			return inUnit(uow.With(ctx, unit), unit, func(ctx context.Context) (any, error) {
				return run(ctx, cmd)
			})
		})
	}
}

func inUnit(ctx context.Context, unit uow.UnitOfWork, fn func(context.Context) (any, error)) (res any, err error) {
	done := false
	defer func() {
		if !done {
			_ = unit.Rollback(ctx)
		}
	}()
	if res, err = fn(ctx); err != nil {
		return nil, err
	}
	if err = unit.Commit(ctx); err != nil {
		return nil, err
	}
	done = true
	return res, nil
}

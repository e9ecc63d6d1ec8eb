package support

import (
	"context"

	"homio/internal/app/uow"
)

// WithinUnit runs fn against the unit of work already carried by ctx. When
// none is present it begins one from factory and commits it after fn succeeds.
func WithinUnit(ctx context.Context, factory uow.UoWFactory, fn func(ctx context.Context, unit uow.UnitOfWork) error) error {
	if unit, ok := uow.From(ctx); ok {
		return fn(ctx, unit)
	}
	if factory == nil {
		return uow.ErrUnitOfWorkMissing
	}
	unit, err := factory.Begin(ctx, uow.ReadWrite)
	if err != nil {
		return err
	}
	execCtx := uow.With(ctx, unit)
	if err := fn(execCtx, unit); err != nil {
		_ = unit.Rollback(execCtx)
		return err
	}
	return unit.Commit(execCtx)
}

// BeginReadOnlyUnit hands out the ambient unit or a fresh read-only one. The
// returned release func must always be called; it is a no-op for the ambient unit.
func BeginReadOnlyUnit(ctx context.Context, factory uow.UoWFactory) (uow.UnitOfWork, context.Context, func(), error) {
	if unit, ok := uow.From(ctx); ok {
		return unit, ctx, func() {}, nil
	}
	if factory == nil {
		return nil, ctx, nil, uow.ErrUnitOfWorkMissing
	}
	unit, err := factory.Begin(ctx, uow.ReadOnly)
	if err != nil {
		return nil, ctx, nil, err
	}
	execCtx := uow.With(ctx, unit)
	return unit, execCtx, func() { _ = unit.Rollback(execCtx) }, nil
}

package uow

import (
	"context"
	"errors"
)

var ErrUnitOfWorkMissing = errors.New("uow: unit of work missing from context")

// ContextInjector is implemented by units that carry driver state (a Mongo
// session, for instance) which must travel with ctx into repository calls.
type ContextInjector interface {
	InjectContext(ctx context.Context) context.Context
}

type ctxKey struct{}

// With returns ctx carrying unit, after letting unit attach its own state.
func With(ctx context.Context, unit UnitOfWork) context.Context {
	if injector, ok := unit.(ContextInjector); ok {
		ctx = injector.InjectContext(ctx)
	}
	return context.WithValue(ctx, ctxKey{}, unit)
}

// From returns the unit carried by ctx.
func From(ctx context.Context) (UnitOfWork, bool) {
	unit, ok := ctx.Value(ctxKey{}).(UnitOfWork)
	return unit, ok && unit != nil
}

// Require is From for callers that cannot run without a unit.
func Require(ctx context.Context) (UnitOfWork, error) {
	unit, ok := From(ctx)
	if !ok {
		return nil, ErrUnitOfWorkMissing
	}
	return unit, nil
}

package middleware

import (
	"context"

	"homio/internal/app/commands"
	"homio/internal/app/queries"
)

// Validator checks struct tags on commands and queries and returns a
// validation fault describing every failing field.
type Validator interface {
	Validate(ctx context.Context, message any) error
}

// Validation rejects a command before it reaches the handler.
func Validation(v Validator) CommandMiddleware {
	check := mustValidator(v)
	return func(next commands.Bus) commands.Bus {
		run := wrapCommand(next)
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			return checked(ctx, cmd, check, run)
		})
	}
}

// QueryValidation is Validation for the read side.
func QueryValidation(v Validator) QueryMiddleware {
	check := mustValidator(v)
	return func(next queries.Bus) queries.Bus {
		run := wrapQuery(next)
		return queryFunc(func(ctx context.Context, q queries.Query) (any, error) {
			return checked(ctx, q, check, run)
		})
	}
}

func checked[M any, F ~func(context.Context, M) (any, error)](ctx context.Context, msg M, check func(context.Context, any) error, run F) (any, error) {
	if err := check(ctx, msg); err != nil {
		return nil, err
	}
	return run(ctx, msg)
}

func mustValidator(v Validator) func(context.Context, any) error {
	if v == nil {
		panic("middleware: validator required")
	}
	return v.Validate
}

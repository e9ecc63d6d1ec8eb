package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"homio/internal/app/commands"
)

// IdempotentCommand opts a command into replay protection. IdempotencyKey
// returns "" when the caller sent no key. Handlers of idempotent commands
// return pointers, and ResultPrototype returns a fresh pointer of that type to
// decode a replay into.
type IdempotentCommand interface {
	commands.Command
	IdempotencyKey() string
	ResultPrototype() any
}

type IdempotencyRecord struct {
	Key        string
	Payload    []byte
	OccurredAt time.Time
}

// IdempotencyStore keeps results by scoped key. Save must not overwrite an
// existing record.
type IdempotencyStore interface {
	Get(ctx context.Context, key string) (IdempotencyRecord, bool, error)
	Save(ctx context.Context, rec IdempotencyRecord) error
}

type ResultCodec interface {
	Encode(v any) ([]byte, error)
	Decode(data []byte, out any) error
}

type JSONResultCodec struct{}

func (JSONResultCodec) Encode(v any) ([]byte, error) { return json.Marshal(v) }

func (JSONResultCodec) Decode(data []byte, out any) error { return json.Unmarshal(data, out) }

var errMissingPrototype = errors.New("middleware: idempotent command has no result prototype")

type idempotencyGuard struct {
	store IdempotencyStore
	codec ResultCodec
	now   func() time.Time
}

// Idempotency replays the stored result of a previously successful command
// with the same key. Failed attempts are not recorded so the client may retry.
func Idempotency(store IdempotencyStore, codec ResultCodec) CommandMiddleware {
	if store == nil {
		panic("middleware: idempotency store required")
	}
	if codec == nil {
		codec = JSONResultCodec{}
	}
	g := idempotencyGuard{store: store, codec: codec, now: func() time.Time { return time.Now().UTC() }}
	return func(next commands.Bus) commands.Bus {
		nextFn := wrapCommand(next)
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			idCmd, ok := cmd.(IdempotentCommand)
			if !ok || idCmd.IdempotencyKey() == "" {
				return nextFn(ctx, cmd)
			}
			key := cmd.Key() + ":" + idCmd.IdempotencyKey()
			if res, found, err := g.replay(ctx, key, idCmd); err != nil || found {
				return res, err
			}
			res, err := nextFn(ctx, cmd)
			if err != nil {
				return nil, err
			}
			if err := g.remember(ctx, key, res); err != nil {
				return nil, err
			}
			return res, nil
		})
	}
}

func (g idempotencyGuard) replay(ctx context.Context, key string, cmd IdempotentCommand) (any, bool, error) {
	rec, found, err := g.store.Get(ctx, key)
	if err != nil {
		return nil, false, fmt.Errorf("idempotency: lookup %s: %w", key, err)
	}
	if !found {
		return nil, false, nil
	}
	proto := cmd.ResultPrototype()
	if proto == nil {
		return nil, false, errMissingPrototype
	}
	if len(rec.Payload) == 0 {
		return nil, true, nil
	}
	if err := g.codec.Decode(rec.Payload, proto); err != nil {
		return nil, false, fmt.Errorf("idempotency: decode %s: %w", key, err)
	}
	return proto, true, nil
}

func (g idempotencyGuard) remember(ctx context.Context, key string, res any) error {
	rec := IdempotencyRecord{Key: key, OccurredAt: g.now()}
	if res != nil {
		payload, err := g.codec.Encode(res)
		if err != nil {
			return fmt.Errorf("idempotency: encode %s: %w", key, err)
		}
		rec.Payload = payload
	}
	if err := g.store.Save(ctx, rec); err != nil {
		return fmt.Errorf("idempotency: save %s: %w", key, err)
	}
	return nil
}

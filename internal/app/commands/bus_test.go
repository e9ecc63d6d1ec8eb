package commands

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pingCommand struct{ Name string }

func (pingCommand) Key() string { return "test.ping" }

type otherCommand struct{}

func (otherCommand) Key() string { return "test.other" }

func echo() HandlerFunc[pingCommand, string] {
	return func(ctx context.Context, cmd pingCommand) (string, error) {
		return "pong " + cmd.Name, nil
	}
}

func TestDispatchTyped(t *testing.T) {
	bus := NewInMemoryBus()
	RegisterHandler[pingCommand, string](bus, pingCommand{}.Key(), echo())

	out, err := Dispatch[pingCommand, string](context.Background(), bus, pingCommand{Name: "host"})
	require.NoError(t, err)
	assert.Equal(t, "pong host", out)
	assert.Equal(t, []string{"test.ping"}, bus.Keys())
}

func TestDispatchUnknownKey(t *testing.T) {
	_, err := Dispatch[otherCommand, string](context.Background(), NewInMemoryBus(), otherCommand{})
	assert.ErrorIs(t, err, ErrHandlerNotFound)
	assert.Contains(t, err.Error(), "test.other")
}

func TestDispatchResultMismatch(t *testing.T) {
	bus := NewInMemoryBus()
	RegisterHandler[pingCommand, string](bus, pingCommand{}.Key(), echo())

	_, err := Dispatch[pingCommand, int](context.Background(), bus, pingCommand{})
	assert.True(t, errors.Is(err, ErrResultType))
}

func TestDispatchNilBus(t *testing.T) {
	_, err := Dispatch[pingCommand, string](context.Background(), nil, pingCommand{})
	assert.ErrorIs(t, err, ErrNilBus)
}

func TestRegisterTwicePanics(t *testing.T) {
	bus := NewInMemoryBus()
	RegisterHandler[pingCommand, string](bus, pingCommand{}.Key(), echo())
	assert.Panics(t, func() {
		RegisterHandler[pingCommand, string](bus, pingCommand{}.Key(), echo())
	})
}

func TestRegisteredKeyWithWrongCommandType(t *testing.T) {
	bus := NewInMemoryBus()
	RegisterHandler[pingCommand, string](bus, otherCommand{}.Key(), echo())

	_, err := bus.Dispatch(context.Background(), otherCommand{})
	assert.ErrorIs(t, err, ErrInvalidCommand)
}

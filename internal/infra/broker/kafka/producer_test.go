package kafka

import (
	"context"
	"errors"
	"testing"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigIsValidForIdempotentProducer(t *testing.T) {
	cfg := NewConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "homio", cfg.ClientID)
	assert.True(t, cfg.Producer.Idempotent)
}

func TestPublishSendsPayload(t *testing.T) {
	mock := mocks.NewSyncProducer(t, nil)
	mock.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		if string(val) != `{"id":"evt-1"}` {
			return errors.New("unexpected payload " + string(val))
		}
		return nil
	})
	p := NewProducerFrom(mock)

	err := p.Publish(context.Background(), "homio.booking.events.v1", "b1", []byte(`{"id":"evt-1"}`), map[string]string{"content-type": "application/cloudevents+json"})
	require.NoError(t, err)
	require.NoError(t, p.Close())
}

func TestPublishReturnsBrokerError(t *testing.T) {
	mock := mocks.NewSyncProducer(t, nil)
	mock.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)
	p := NewProducerFrom(mock)

	err := p.Publish(context.Background(), "homio.booking.events.v1", "b1", []byte(`{}`), nil)
	assert.ErrorIs(t, err, sarama.ErrOutOfBrokers)
	require.NoError(t, p.Close())
}

func TestPublishHonoursCancelledContext(t *testing.T) {
	mock := mocks.NewSyncProducer(t, nil)
	p := NewProducerFrom(mock)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, p.Publish(ctx, "t", "k", nil, nil), context.Canceled)
	require.NoError(t, p.Close())
}

func TestMessageOrdersHeaders(t *testing.T) {
	msg := message("t", "", []byte("x"), map[string]string{"b": "2", "a": "1"})
	require.Len(t, msg.Headers, 2)
	assert.Equal(t, "a", string(msg.Headers[0].Key))
	assert.Equal(t, "b", string(msg.Headers[1].Key))
	assert.Nil(t, msg.Key)
}

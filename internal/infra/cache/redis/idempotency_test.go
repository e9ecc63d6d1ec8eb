package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"homio/internal/app/middleware"
)

// Runs against a live server when REDIS_TEST_ADDR is set.
func TestIdempotencyStoreRoundTrip(t *testing.T) {
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDR not set")
	}
	ctx := context.Background()
	client, err := NewClient(ctx, addr, os.Getenv("REDIS_TEST_PASSWORD"))
	require.NoError(t, err)
	defer client.Close()

	store := NewIdempotencyStore(client, time.Minute)
	key := "booking.create:g1:" + uuid.NewString()
	defer client.Del(ctx, keyPrefix+key)

	_, found, err := store.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, found)

	at := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, store.Save(ctx, middleware.IdempotencyRecord{Key: key, Payload: []byte(`{"order_id":"order_1"}`), OccurredAt: at}))
	require.NoError(t, store.Save(ctx, middleware.IdempotencyRecord{Key: key, Payload: []byte(`{"order_id":"order_2"}`), OccurredAt: at}))

	rec, found, err := store.Get(ctx, key)
	require.NoError(t, err)
	require.True(t, found)
	assert.JSONEq(t, `{"order_id":"order_1"}`, string(rec.Payload))
	assert.Equal(t, at, rec.OccurredAt)

	ttl, err := client.TTL(ctx, keyPrefix+key).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))
}

//go:build integration

package integration

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	catalog "github.com/dmehra2102/UniPay/internal/catalog/domain"
	"github.com/dmehra2102/UniPay/internal/checkout/infrastructure/methodstore"
	"github.com/dmehra2102/UniPay/pkg/idempotency"
)

func openRedis(t *testing.T) *redis.Client {
	t.Helper()
	opts, err := redis.ParseURL(env.RedisURL)
	require.NoError(t, err)
	rdb := redis.NewClient(opts)
	t.Cleanup(func() { rdb.Close() })
	require.NoError(t, rdb.Ping(context.Background()).Err())
	return rdb
}

func TestRedisStore_ReserveReplayRelease(t *testing.T) {
	store := idempotency.NewRedisStore(openRedis(t), time.Minute)
	ctx := context.Background()
	key := "req-" + t.Name() + ":purchase"

	res, err := store.Reserve(ctx, key, "fp-1", 0)
	require.NoError(t, err)
	assert.Equal(t, idempotency.ReservationNew, res.State)

	res, err = store.Reserve(ctx, key, "fp-1", 0)
	require.NoError(t, err)
	assert.Equal(t, idempotency.ReservationPending, res.State)

	require.NoError(t, store.SaveResponse(ctx, key, "fp-1", idempotency.Response{
		Status: http.StatusCreated,
		Header: http.Header{"Content-Type": []string{"application/json"}},
		Body:   []byte(`{"id":"purchase_1"}`),
	}, 0))

	res, err = store.Reserve(ctx, key, "fp-1", 0)
	require.NoError(t, err)
	require.Equal(t, idempotency.ReservationCompleted, res.State)
	assert.Equal(t, http.StatusCreated, res.Record.ResponseStatus)
	assert.JSONEq(t, `{"id":"purchase_1"}`, string(res.Record.ResponseBody))

	_, err = store.Reserve(ctx, key, "fp-other", 0)
	assert.ErrorIs(t, err, idempotency.ErrFingerprintMismatch)

	require.NoError(t, store.Release(ctx, key))
	res, err = store.Reserve(ctx, key, "fp-other", 0)
	require.NoError(t, err)
	assert.Equal(t, idempotency.ReservationNew, res.State)
}

func TestRedisStore_SeenMarksOffsetOnce(t *testing.T) {
	store := idempotency.NewRedisStore(openRedis(t), time.Minute)
	ctx := context.Background()
	key := idempotency.OffsetKey("settlement.events.seen", 0, 42)

	seen, err := store.Seen(ctx, key)
	require.NoError(t, err)
	assert.False(t, seen)

	seen, err = store.Seen(ctx, key)
	require.NoError(t, err)
	assert.True(t, seen)

	seen, err = store.Seen(ctx, idempotency.OffsetKey("settlement.events.seen", 0, 43))
	require.NoError(t, err)
	assert.False(t, seen)
}

func TestRedisMethodStore_RoundTrip(t *testing.T) {
	rdb := openRedis(t)
	store := methodstore.NewRedis(rdb, time.Minute)
	ctx := context.Background()
	session := "tab-" + t.Name()

	_, ok, err := store.Load(ctx, session)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Save(ctx, session, catalog.MethodCrypto))
	m, ok, err := store.Load(ctx, session)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, catalog.MethodCrypto, m)

	ttl, err := rdb.TTL(ctx, methodstore.Key(session)).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))

	require.NoError(t, store.Clear(ctx, session))
	_, ok, err = store.Load(ctx, session)
	require.NoError(t, err)
	assert.False(t, ok)
}

package storage_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/vasiliy-maslov/storefront/internal/storage"
)

// Runs against a live server only when REDIS_ADDR_TEST is set.
func TestRedis_Integration(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR_TEST")
	if addr == "" {
		t.Skip("REDIS_ADDR_TEST not set")
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { client.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, client.Ping(ctx).Err())

	r := storage.NewRedis(client, time.Minute)
	key := storage.Key("redis-test", "cart")
	t.Cleanup(func() { client.Del(context.Background(), key) })

	require.NoError(t, r.Put(ctx, key, []byte(`[]`)))

	got, err := r.Get(ctx, key)
	require.NoError(t, err)
	require.Equal(t, `[]`, string(got))

	require.NoError(t, r.Delete(ctx, key))
	_, err = r.Get(ctx, key)
	require.ErrorIs(t, err, storage.ErrNotFound)
}

package state

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedis(t *testing.T) (*miniredis.Miniredis, *RedisStore) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	store := NewRedisStoreFromClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { store.Close() })
	return mr, store
}

func TestRedisStore_Basics(t *testing.T) {
	mr, store := setupRedis(t)
	ctx := context.Background()

	require.NoError(t, store.Ping(ctx))
	require.NoError(t, store.Set(ctx, "k", []byte("v"), time.Minute))

	got, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)

	ok, err := store.Exists(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)

	mr.FastForward(2 * time.Minute)
	_, err = store.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrKeyNotFound)
}

func TestRedisStore_KeysAndDelete(t *testing.T) {
	_, store := setupRedis(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "draft:a", []byte("1"), 0))
	require.NoError(t, store.Set(ctx, "draft:b", []byte("2"), 0))
	require.NoError(t, store.Set(ctx, "other", []byte("3"), 0))

	keys, err := store.Keys(ctx, "draft:*")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"draft:a", "draft:b"}, keys)

	require.NoError(t, store.Delete(ctx, "draft:a"))
	ok, err := store.Exists(ctx, "draft:a")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisStore_Drafts(t *testing.T) {
	mr, store := setupRedis(t)
	ctx := context.Background()
	d := NewDrafts(store, WithKeyPrefix("test:"), WithTTL(time.Hour))

	require.NoError(t, d.Save(ctx, "dev", "step5", map[string]any{
		"termsAcceptance": true,
		"backgroundCheck": false,
	}))
	assert.True(t, mr.Exists("test:dev:application_step5"))
	assert.Equal(t, time.Hour, mr.TTL("test:dev:application_step5"))

	values, ok, err := d.Load(ctx, "dev", "step5")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, true, values["termsAcceptance"])
	assert.Equal(t, false, values["backgroundCheck"])
}

func TestRedisStore_Unreachable(t *testing.T) {
	mr, store := setupRedis(t)
	mr.Close()

	err := store.Ping(context.Background())
	assert.Error(t, err)
}

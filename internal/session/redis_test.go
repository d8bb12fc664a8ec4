package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStore(client), mr
}

func TestKey(t *testing.T) {
	assert.Equal(t, "rbac_login_alice", Key("rbac_login", "alice"))
}

func TestRedisStoreSetGetExists(t *testing.T) {
	store, mr := newRedisStore(t)
	ctx := context.Background()
	key := Key("test", "alice")

	ok, err := store.Exists(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)

	rec, err := store.Get(ctx, key)
	require.NoError(t, err)
	assert.Nil(t, rec)

	want := Record{UserID: 7, UserName: "alice", Auth: 5, LastLoginTime: 1700000000}
	require.NoError(t, store.Set(ctx, key, want, DefaultTTL))
	assert.Equal(t, DefaultTTL, mr.TTL(key))

	ok, err = store.Exists(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)

	rec, err = store.Get(ctx, key)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, want, *rec)
}

func TestRedisStoreUpdateKeepsTTL(t *testing.T) {
	store, mr := newRedisStore(t)
	ctx := context.Background()
	key := Key("test", "bob")

	require.NoError(t, store.Set(ctx, key, Record{UserID: 1, UserName: "bob", Auth: 1}, time.Hour))
	mr.FastForward(10 * time.Minute)

	require.NoError(t, store.Update(ctx, key, Record{UserID: 1, UserName: "bob", Auth: 6}))
	assert.Equal(t, 50*time.Minute, mr.TTL(key))

	rec, err := store.Get(ctx, key)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, uint64(6), rec.Auth)
}

func TestRedisStoreUpdateMissing(t *testing.T) {
	store, mr := newRedisStore(t)
	err := store.Update(context.Background(), "test_ghost", Record{UserName: "ghost"})
	require.ErrorIs(t, err, ErrSessionNotFound)
	assert.False(t, mr.Exists("test_ghost"))
}

func TestRedisStoreExpiry(t *testing.T) {
	store, mr := newRedisStore(t)
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, "test_carol", Record{UserName: "carol"}, time.Minute))
	mr.FastForward(2 * time.Minute)

	rec, err := store.Get(ctx, "test_carol")
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestRedisStoreDeleteIdempotent(t *testing.T) {
	store, _ := newRedisStore(t)
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, "test_dave", Record{UserName: "dave"}, time.Minute))
	require.NoError(t, store.Delete(ctx, "test_dave"))
	require.NoError(t, store.Delete(ctx, "test_dave"))

	ok, err := store.Exists(ctx, "test_dave")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisStoreUnavailable(t *testing.T) {
	store, mr := newRedisStore(t)
	mr.Close()

	_, err := store.Exists(context.Background(), "test_x")
	require.ErrorIs(t, err, ErrCacheUnavailable)
}

func TestRecordContext(t *testing.T) {
	ctx := context.Background()
	assert.Nil(t, RecordFromContext(ctx))
	rec := &Record{UserID: 3}
	assert.Same(t, rec, RecordFromContext(ContextWithRecord(ctx, rec)))
}

package store

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *RedisSessionStore) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return mr, NewRedisSessionStore(client, "")
}

func TestRedisSessionStore_Contract(t *testing.T) {
	_, st := setupTestRedis(t)
	runSessionStoreContract(t, st)
}

func TestRedisSessionStore_Keys(t *testing.T) {
	mr, st := setupTestRedis(t)
	require.NoError(t, st.Ping(context.Background()))

	sess := sampleSession(t, "keys", time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	require.NoError(t, st.Save(context.Background(), sess))

	assert.True(t, mr.Exists("council:session:"+sess.ID.String()))
	members, err := mr.ZMembers("council:sessions")
	require.NoError(t, err)
	assert.Equal(t, []string{sess.ID.String()}, members)
}

func TestRedisSessionStore_ListEmpty(t *testing.T) {
	_, st := setupTestRedis(t)

	got, err := st.List(context.Background(), 20)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRedisSessionStore_FailedIndexLeavesNoDocument(t *testing.T) {
	mr, st := setupTestRedis(t)
	ctx := context.Background()

	// A string at the index key makes ZADD fail with WRONGTYPE.
	require.NoError(t, mr.Set("council:sessions", "not-a-zset"))

	sess := sampleSession(t, "wrongtype", time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC))
	require.Error(t, st.Save(ctx, sess))
	assert.False(t, mr.Exists("council:session:"+sess.ID.String()))

	mr.Del("council:sessions")
	require.NoError(t, st.Save(ctx, sess))

	listed, err := st.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, sess.ID, listed[0].ID)

	assert.ErrorIs(t, st.Save(ctx, sess), ErrConflict)
}

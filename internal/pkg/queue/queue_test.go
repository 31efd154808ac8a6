package queue

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis, func()) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	cleanup := func() {
		client.Close()
		mr.Close()
	}

	return client, mr, cleanup
}

func TestQueue_PushPop(t *testing.T) {
	client, _, cleanup := setupTestRedis(t)
	defer cleanup()

	q := NewQueue(client, "test_queue")
	ctx := context.Background()

	require.NoError(t, q.Push(ctx, &NotificationMessage{Reason: ReasonRestock, Brands: []string{"Ippodo"}, Restocks: 2}))
	require.NoError(t, q.Push(ctx, &NotificationMessage{Reason: ReasonSweep}))

	length, err := q.Length(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), length)

	// FIFO: LPUSH + BRPOP
	msg, err := q.Pop(ctx, time.Second)
	require.NoError(t, err)
	require.NotNil(t, msg)
	assert.Equal(t, ReasonRestock, msg.Reason)
	assert.Equal(t, []string{"Ippodo"}, msg.Brands)
	assert.Equal(t, 2, msg.Restocks)
	assert.False(t, msg.EnqueuedAt.IsZero())

	msg, err = q.Pop(ctx, time.Second)
	require.NoError(t, err)
	require.NotNil(t, msg)
	assert.Equal(t, ReasonSweep, msg.Reason)
}

func TestQueue_PopEmpty(t *testing.T) {
	client, _, cleanup := setupTestRedis(t)
	defer cleanup()

	q := NewQueue(client, "empty_queue")
	msg, err := q.Pop(context.Background(), 100*time.Millisecond)

	assert.NoError(t, err)
	assert.Nil(t, msg)
}

func TestQueue_PopInvalidJSON(t *testing.T) {
	client, _, cleanup := setupTestRedis(t)
	defer cleanup()

	ctx := context.Background()
	require.NoError(t, client.LPush(ctx, "bad_queue", "not json").Err())

	q := NewQueue(client, "bad_queue")
	msg, err := q.Pop(ctx, time.Second)
	assert.Error(t, err)
	assert.Nil(t, msg)
}

func TestRunLock(t *testing.T) {
	client, mr, cleanup := setupTestRedis(t)
	defer cleanup()
	ctx := context.Background()

	lock := NewRunLock(client, "lock:notifications", time.Minute)

	tokenA, ok, err := lock.TryLock(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NotEmpty(t, tokenA)

	_, ok, err = lock.TryLock(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.ErrorIs(t, lock.Unlock(ctx, ""), ErrLockNotHeld)

	require.NoError(t, lock.Unlock(ctx, tokenA))
	assert.False(t, mr.Exists("lock:notifications"))
}

// 同一个 RunLock 被多个处理流程共享：过期后的旧持有者不能释放新持有者的锁
func TestRunLock_SharedAcrossHolders(t *testing.T) {
	client, mr, cleanup := setupTestRedis(t)
	defer cleanup()
	ctx := context.Background()

	lock := NewRunLock(client, "lock:notifications", time.Minute)

	tokenA, ok, err := lock.TryLock(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	mr.FastForward(2 * time.Minute)

	tokenB, ok, err := lock.TryLock(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.NotEqual(t, tokenA, tokenB)

	assert.ErrorIs(t, lock.Unlock(ctx, tokenA), ErrLockNotHeld)
	assert.True(t, mr.Exists("lock:notifications"), "B still holds the lock")

	_, ok, err = lock.TryLock(ctx)
	require.NoError(t, err)
	assert.False(t, ok, "no third pass while B runs")

	require.NoError(t, lock.Unlock(ctx, tokenB))
	_, ok, err = lock.TryLock(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
}

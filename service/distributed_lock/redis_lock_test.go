package distributed_lock

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedisLock(t *testing.T) (*RedisLock, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	lock, err := NewRedisLock(mr.Addr(), "", 0)
	require.NoError(t, err)
	t.Cleanup(func() { lock.Close() })
	return lock, mr
}

func TestRedisLock(t *testing.T) {
	rl, mr := newTestRedisLock(t)
	var lock DistributedLock = rl
	ctx := context.Background()
	key := lockKeyPrefix + "destination:out.csv"

	first, err := lock.TryLock(ctx, "destination:out.csv", time.Minute)
	require.NoError(t, err)
	require.NotEmpty(t, first)
	assert.True(t, strings.HasPrefix(first, rl.owner+"/"), "凭证包含持有者标识")

	stored, err := mr.Get(key)
	require.NoError(t, err)
	assert.Equal(t, first, stored)
	assert.Equal(t, time.Minute, mr.TTL(key))

	again, err := lock.TryLock(ctx, "destination:out.csv", time.Minute)
	require.NoError(t, err)
	assert.Empty(t, again, "未过期的锁不能重复获取")

	require.NoError(t, lock.Refresh(ctx, "destination:out.csv", first, 5*time.Minute))
	assert.Equal(t, 5*time.Minute, mr.TTL(key))

	t.Run("非持有者不能续期或释放", func(t *testing.T) {
		assert.ErrorIs(t, lock.Refresh(ctx, "destination:out.csv", "someone-else", time.Minute), ErrNotHolder)
		assert.ErrorIs(t, lock.Unlock(ctx, "destination:out.csv", "someone-else"), ErrNotHolder)

		locked, err := lock.IsLocked(ctx, "destination:out.csv")
		require.NoError(t, err)
		assert.True(t, locked)
	})

	t.Run("过期后旧凭证失效", func(t *testing.T) {
		mr.FastForward(6 * time.Minute)

		locked, err := lock.IsLocked(ctx, "destination:out.csv")
		require.NoError(t, err)
		assert.False(t, locked)
		assert.ErrorIs(t, lock.Refresh(ctx, "destination:out.csv", first, time.Minute), ErrNotHolder)

		second, err := lock.TryLock(ctx, "destination:out.csv", time.Minute)
		require.NoError(t, err)
		require.NotEmpty(t, second)
		assert.NotEqual(t, first, second)

		assert.ErrorIs(t, lock.Unlock(ctx, "destination:out.csv", first), ErrNotHolder)
		require.NoError(t, lock.Unlock(ctx, "destination:out.csv", second))
		assert.False(t, mr.Exists(key))
	})
}

func TestRedisLock_Executor(t *testing.T) {
	rl, mr := newTestRedisLock(t)
	executor := NewLockExecutor(rl)
	ctx := context.Background()

	ran, err := executor.ExecuteWithLockAndRefresh(ctx, "job", time.Minute, 20*time.Millisecond, func() error {
		assert.True(t, mr.Exists(lockKeyPrefix+"job"), "执行期间持有锁")

		skipped, err := executor.ExecuteWithLock(ctx, "job", time.Minute, func() error { return nil })
		require.NoError(t, err)
		assert.False(t, skipped, "同一键不能并发执行")

		time.Sleep(60 * time.Millisecond)
		return nil
	})
	require.NoError(t, err)
	assert.True(t, ran)
	assert.False(t, mr.Exists(lockKeyPrefix+"job"), "执行结束后释放锁")
}

func TestRedisLock_Unavailable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := NewRedisLock(addr, "", 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Redis连接失败")
}

/*
 * @module service/distributed_lock/local_lock
 * @description 进程内锁实现，未配置 Redis 时用于单实例部署和测试
 * @architecture 工具层 - 提供分布式锁能力
 * @documentReference ai_docs/distributed_lock_design.md
 * @stateFlow 获取锁 -> 执行任务 -> 释放锁/自动过期
 * @rules 与 RedisLock 语义一致：过期后可被重新获取，只有出示凭证的持有者能续期和释放
 * @dependencies github.com/google/uuid
 * @refs redis_lock.go
 */

package distributed_lock

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

type localEntry struct {
	token   string
	expires time.Time
}

// LocalLock 进程内锁
type LocalLock struct {
	mu      sync.Mutex
	entries map[string]localEntry
	now     func() time.Time
}

// NewLocalLock 创建进程内锁
func NewLocalLock() *LocalLock {
	return &LocalLock{
		entries: make(map[string]localEntry),
		now:     time.Now,
	}
}

// TryLock 尝试获取锁
func (l *LocalLock) TryLock(ctx context.Context, key string, ttl time.Duration) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if e, ok := l.entries[key]; ok && now.Before(e.expires) {
		return "", nil
	}
	token := uuid.NewString()
	l.entries[key] = localEntry{token: token, expires: now.Add(ttl)}
	return token, nil
}

// Unlock 释放锁
func (l *LocalLock) Unlock(ctx context.Context, key, token string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.held(key, token); !ok {
		return ErrNotHolder
	}
	delete(l.entries, key)
	return nil
}

// Refresh 刷新锁的过期时间
func (l *LocalLock) Refresh(ctx context.Context, key, token string, ttl time.Duration) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.held(key, token)
	if !ok {
		return ErrNotHolder
	}
	e.expires = l.now().Add(ttl)
	l.entries[key] = e
	return nil
}

// IsLocked 检查锁是否存在
func (l *LocalLock) IsLocked(ctx context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.entries[key]
	return ok && l.now().Before(e.expires), nil
}

// held 调用方需持有 mu
func (l *LocalLock) held(key, token string) (localEntry, bool) {
	e, ok := l.entries[key]
	if !ok || e.token != token || !l.now().Before(e.expires) {
		return localEntry{}, false
	}
	return e, true
}

/*
 * @module service/distributed_lock/redis_lock
 * @description 导出目标互斥锁，多实例部署时由 Redis 保证同一导出目标同一时刻只有一次清洗运行
 * @architecture 工具层 - 提供分布式锁能力
 * @documentReference ai_docs/distributed_lock_design.md
 * @stateFlow SET NX PX 写入持有凭证 -> 运行期间按凭证续期 -> 按凭证释放/自动过期
 * @rules 每次获取锁生成独立凭证；续期与释放在Lua脚本中比对凭证，非持有者返回 ErrNotHolder
 * @dependencies github.com/go-redis/redis/v8, github.com/google/uuid
 * @refs service/init.go, service/cleaning/cleaning_service.go, local_lock.go, lock_executor.go
 */

package distributed_lock

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// DistributedLock 锁接口，凭证由 TryLock 返回，续期与释放都必须出示
type DistributedLock interface {
	// TryLock 尝试获取锁，锁被占用时返回空凭证
	TryLock(ctx context.Context, key string, ttl time.Duration) (string, error)
	// Unlock 释放锁，凭证不匹配时返回 ErrNotHolder
	Unlock(ctx context.Context, key, token string) error
	// Refresh 续期，凭证不匹配或锁已过期时返回 ErrNotHolder
	Refresh(ctx context.Context, key, token string, ttl time.Duration) error
	// IsLocked 检查锁是否存在
	IsLocked(ctx context.Context, key string) (bool, error)
}

// lockKeyPrefix 锁键前缀
const lockKeyPrefix = "datahub_cleanser:lock:"

// ErrNotHolder 锁不存在或已被其他运行持有
var ErrNotHolder = errors.New("锁不存在或已被其他运行持有")

var (
	unlockScript = redis.NewScript(`
		if redis.call("GET", KEYS[1]) == ARGV[1] then
			return redis.call("DEL", KEYS[1])
		end
		return 0
	`)

	refreshScript = redis.NewScript(`
		if redis.call("GET", KEYS[1]) == ARGV[1] then
			return redis.call("PEXPIRE", KEYS[1], ARGV[2])
		end
		return 0
	`)
)

// RedisLock Redis锁实现
type RedisLock struct {
	client *redis.Client
	owner  string // 主机名:进程号，写入凭证便于排查
}

// NewRedisLock 创建Redis锁
func NewRedisLock(addr, password string, db int) (*RedisLock, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("Redis连接失败: %w", err)
	}

	hostname, _ := os.Hostname()
	owner := fmt.Sprintf("%s:%d", hostname, os.Getpid())
	slog.Info("Redis导出目标锁初始化成功", "owner", owner, "redis_addr", addr)

	return &RedisLock{client: client, owner: owner}, nil
}

// TryLock 尝试获取锁
func (r *RedisLock) TryLock(ctx context.Context, key string, ttl time.Duration) (string, error) {
	token := r.owner + "/" + uuid.NewString()

	ok, err := r.client.SetNX(ctx, lockKeyPrefix+key, token, ttl).Result()
	if err != nil {
		return "", fmt.Errorf("获取锁失败: %w", err)
	}
	if !ok {
		return "", nil
	}

	slog.Debug("分布式锁: 获取成功", "key", key, "ttl", ttl, "token", token)
	return token, nil
}

// Unlock 释放锁
func (r *RedisLock) Unlock(ctx context.Context, key, token string) error {
	n, err := unlockScript.Run(ctx, r.client, []string{lockKeyPrefix + key}, token).Int64()
	if err != nil {
		return fmt.Errorf("释放锁失败: %w", err)
	}
	if n == 0 {
		return ErrNotHolder
	}

	slog.Debug("分布式锁: 已释放", "key", key, "token", token)
	return nil
}

// Refresh 刷新锁的过期时间
func (r *RedisLock) Refresh(ctx context.Context, key, token string, ttl time.Duration) error {
	n, err := refreshScript.Run(ctx, r.client, []string{lockKeyPrefix + key}, token, ttl.Milliseconds()).Int64()
	if err != nil {
		return fmt.Errorf("刷新锁失败: %w", err)
	}
	if n == 0 {
		return ErrNotHolder
	}
	return nil
}

// IsLocked 检查锁是否存在
func (r *RedisLock) IsLocked(ctx context.Context, key string) (bool, error) {
	exists, err := r.client.Exists(ctx, lockKeyPrefix+key).Result()
	if err != nil {
		return false, fmt.Errorf("检查锁状态失败: %w", err)
	}
	return exists > 0, nil
}

// Ping 检查Redis连通性
func (r *RedisLock) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close 关闭Redis客户端
func (r *RedisLock) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}

/*
 * @module service/rate_limiter/local_rate_limiter
 * @description 进程内固定窗口限流器，未配置 Redis 时使用
 * @architecture 工具层
 * @documentReference ai_docs/data_cleansing_pipeline.md
 * @stateFlow 构造窗口键 -> 计数 -> 判断是否超限
 * @rules 与 Redis 限流器使用相同的键格式与窗口语义
 * @dependencies 无
 * @refs redis_rate_limiter.go
 */

package rate_limiter

import (
	"context"
	"sync"
	"time"
)

// LocalRateLimiter 进程内固定窗口限流器，未配置 Redis 时使用
type LocalRateLimiter struct {
	mu     sync.Mutex
	counts map[string]int
	now    func() time.Time
}

// NewLocalRateLimiter 创建进程内限流器
func NewLocalRateLimiter() *LocalRateLimiter {
	return &LocalRateLimiter{
		counts: make(map[string]int),
		now:    time.Now,
	}
}

// CheckRule 检查单个限流规则
func (l *LocalRateLimiter) CheckRule(ctx context.Context, rule RateLimitRule) (*RateLimitResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	now := l.now()
	key := buildRateLimitKey(rule, now)
	window := int64(rule.TimeWindow)
	resetAt := (now.Unix()/window + 1) * window

	l.mu.Lock()
	defer l.mu.Unlock()

	l.evictExpired()

	res := &RateLimitResult{
		Limit:   rule.MaxRequests,
		ResetAt: resetAt,
		Scope:   rule.Scope,
	}

	current := l.counts[key]
	if current >= rule.MaxRequests {
		res.Message = deniedMessage(rule.Scope)
		return res, nil
	}

	l.counts[key] = current + 1
	res.Allowed = true
	res.Remaining = rule.MaxRequests - current - 1
	res.Message = "允许请求"
	return res, nil
}

// evictExpired 键包含窗口编号，旧窗口计数累积过多时整体重置
func (l *LocalRateLimiter) evictExpired() {
	if len(l.counts) < 1024 {
		return
	}
	l.counts = make(map[string]int)
}

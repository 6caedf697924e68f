/*
 * @module service/rate_limiter/redis_rate_limiter
 * @description 清洗运行提交限流，Redis 固定窗口计数，支持全局与客户端两层规则
 * @architecture 工具层 - 提供分布式限流能力
 * @documentReference ai_docs/data_cleansing_pipeline.md
 * @stateFlow 检查限流规则 -> Redis计数 -> 判断是否超限
 * @rules 使用Lua脚本保证INCR和EXPIRE原子执行；客户端规则优先于全局规则
 * @dependencies github.com/go-redis/redis/v8
 * @refs api/middleware/rate_limit.go, local_rate_limiter.go
 */

package rate_limiter

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-redis/redis/v8"
)

// 限流范围
const (
	ScopeGlobal = "global"
	ScopeClient = "client"
)

// RateLimitResult 限流检查结果
type RateLimitResult struct {
	Allowed   bool   `json:"allowed"`    // 是否允许请求
	Limit     int    `json:"limit"`      // 限制数量
	Remaining int    `json:"remaining"`  // 剩余数量
	ResetAt   int64  `json:"reset_at"`   // 重置时间（Unix时间戳）
	Scope     string `json:"limit_type"` // 限流范围：global/client
	Message   string `json:"message"`    // 提示信息
}

// RateLimitRule 限流规则
type RateLimitRule struct {
	Scope       string // global/client
	TargetID    string // 客户端标识，全局时为空
	TimeWindow  int    // 时间窗口（秒）
	MaxRequests int    // 最大请求数
}

// Limiter 限流器
type Limiter interface {
	CheckRule(ctx context.Context, rule RateLimitRule) (*RateLimitResult, error)
}

// CheckRateLimit 检查是否超过限流（按优先级检查：客户端 -> 全局）
func CheckRateLimit(ctx context.Context, limiter Limiter, rules []RateLimitRule) (*RateLimitResult, error) {
	var last *RateLimitResult
	for _, rule := range sortRulesByPriority(rules) {
		result, err := limiter.CheckRule(ctx, rule)
		if err != nil {
			return nil, err
		}
		// 如果任何一层超限，直接返回
		if !result.Allowed {
			return result, nil
		}
		last = result
	}

	if last != nil {
		return last, nil
	}
	return &RateLimitResult{Allowed: true, Limit: -1, Remaining: -1, Scope: "none", Message: "无限流规则"}, nil
}

// sortRulesByPriority 客户端规则在前
func sortRulesByPriority(rules []RateLimitRule) []RateLimitRule {
	sorted := make([]RateLimitRule, 0, len(rules))
	for _, r := range rules {
		if r.Scope == ScopeClient {
			sorted = append(sorted, r)
		}
	}
	for _, r := range rules {
		if r.Scope != ScopeClient {
			sorted = append(sorted, r)
		}
	}
	return sorted
}

// buildRateLimitKey 构造限流Key
func buildRateLimitKey(rule RateLimitRule, now time.Time) string {
	baseKey := "datahub_cleanser:rate_limit"
	currentWindow := now.Unix() / int64(rule.TimeWindow)

	if rule.Scope == ScopeGlobal {
		return fmt.Sprintf("%s:%s:%d", baseKey, rule.Scope, currentWindow)
	}
	return fmt.Sprintf("%s:%s:%s:%d", baseKey, rule.Scope, rule.TargetID, currentWindow)
}

func deniedMessage(scope string) string {
	if scope == ScopeGlobal {
		return "超过全局限流限制"
	}
	return "超过客户端限流限制"
}

// 原子性限流检查
var checkScript = redis.NewScript(`
	local key = KEYS[1]
	local max_requests = tonumber(ARGV[1])
	local window = tonumber(ARGV[2])

	local current = redis.call('GET', key)
	if current == false then
		current = 0
	else
		current = tonumber(current)
	end

	if current >= max_requests then
		local ttl = redis.call('TTL', key)
		if ttl == -1 then
			ttl = window
		end
		return {0, current, max_requests, ttl}
	end

	local new_count = redis.call('INCR', key)
	if new_count == 1 then
		redis.call('EXPIRE', key, window)
	end

	local ttl = redis.call('TTL', key)
	if ttl == -1 then
		ttl = window
	end

	return {1, new_count, max_requests, ttl}
`)

// RedisRateLimiter Redis限流器
type RedisRateLimiter struct {
	client *redis.Client
	now    func() time.Time
}

// NewRedisRateLimiter 创建Redis限流器
func NewRedisRateLimiter(addr, password string, db int) (*RedisRateLimiter, error) {
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

	// 测试连接
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis连接失败: %w", err)
	}

	slog.Info("Redis限流器初始化成功", "redis_addr", addr)
	return &RedisRateLimiter{client: client, now: time.Now}, nil
}

// CheckRule 检查单个限流规则
func (r *RedisRateLimiter) CheckRule(ctx context.Context, rule RateLimitRule) (*RateLimitResult, error) {
	now := r.now()
	key := buildRateLimitKey(rule, now)

	result, err := checkScript.Run(ctx, r.client, []string{key}, rule.MaxRequests, rule.TimeWindow).Result()
	if err != nil {
		return nil, fmt.Errorf("限流检查失败: %w", err)
	}

	results, ok := result.([]interface{})
	if !ok || len(results) != 4 {
		return nil, fmt.Errorf("限流脚本返回格式错误: %v", result)
	}
	allowed := results[0].(int64) == 1
	currentCount := int(results[1].(int64))
	maxRequests := int(results[2].(int64))
	ttl := int(results[3].(int64))

	remaining := maxRequests - currentCount
	if remaining < 0 {
		remaining = 0
	}

	res := &RateLimitResult{
		Allowed:   allowed,
		Limit:     maxRequests,
		Remaining: remaining,
		ResetAt:   now.Add(time.Duration(ttl) * time.Second).Unix(),
		Scope:     rule.Scope,
		Message:   "允许请求",
	}
	if !allowed {
		res.Message = deniedMessage(rule.Scope)
	}
	return res, nil
}

// Close 关闭Redis客户端
func (r *RedisRateLimiter) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}

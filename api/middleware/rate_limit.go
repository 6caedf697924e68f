/*
 * @module api/middleware/rate_limit
 * @description 清洗运行提交限流中间件，按客户端IP应用每分钟提交上限
 * @architecture 中间件层
 * @documentReference ai_docs/data_cleansing_pipeline.md
 * @stateFlow 提取客户端标识 -> 检查限流规则 -> 放行或返回429
 * @rules 限流器异常时放行请求并记录告警；响应头携带限额与剩余次数
 * @dependencies github.com/go-chi/render, service/rate_limiter
 * @refs api/routes.go
 */

package middleware

import (
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"

	"datahub-cleanser/api/controllers"
	"datahub-cleanser/service/rate_limiter"

	"github.com/go-chi/render"
)

// RunRateLimit 返回按客户端限流的中间件，perMinute<=0 时不做限制
func RunRateLimit(limiter rate_limiter.Limiter, perMinute int) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if limiter == nil || perMinute <= 0 {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rules := []rate_limiter.RateLimitRule{{
				Scope:       rate_limiter.ScopeClient,
				TargetID:    clientIP(r),
				TimeWindow:  60,
				MaxRequests: perMinute,
			}}

			result, err := rate_limiter.CheckRateLimit(r.Context(), limiter, rules)
			if err != nil {
				slog.Warn("限流检查失败，放行请求", "error", err)
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt, 10))

			if !result.Allowed {
				slog.Info("清洗运行提交被限流", "client", rules[0].TargetID, "limit", result.Limit)
				render.Status(r, http.StatusTooManyRequests)
				render.JSON(w, r, controllers.ErrorResponse(http.StatusTooManyRequests, result.Message, nil))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// clientIP 优先使用 X-Forwarded-For 的第一个地址
func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		return strings.TrimSpace(strings.Split(forwarded, ",")[0])
	}
	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return realIP
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

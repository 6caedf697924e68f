package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"datahub-cleanser/service/rate_limiter"

	"github.com/stretchr/testify/assert"
)

type failingLimiter struct{}

func (failingLimiter) CheckRule(ctx context.Context, rule rate_limiter.RateLimitRule) (*rate_limiter.RateLimitResult, error) {
	return nil, errors.New("redis down")
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	})
}

func post(h http.Handler, remote string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/cleaning/runs", nil)
	req.RemoteAddr = remote
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestRunRateLimit(t *testing.T) {
	h := RunRateLimit(rate_limiter.NewLocalRateLimiter(), 2)(okHandler())

	w := post(h, "10.0.0.1:5000")
	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, "2", w.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "1", w.Header().Get("X-RateLimit-Remaining"))

	assert.Equal(t, http.StatusAccepted, post(h, "10.0.0.1:5001").Code)

	w = post(h, "10.0.0.1:5002")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), "超过客户端限流限制")

	// 其他客户端不受影响
	assert.Equal(t, http.StatusAccepted, post(h, "10.0.0.2:5000").Code)
}

func TestRunRateLimit_Disabled(t *testing.T) {
	h := RunRateLimit(rate_limiter.NewLocalRateLimiter(), 0)(okHandler())
	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusAccepted, post(h, "10.0.0.1:5000").Code)
	}

	h = RunRateLimit(nil, 1)(okHandler())
	assert.Equal(t, http.StatusAccepted, post(h, "10.0.0.1:5000").Code)
}

func TestRunRateLimit_LimiterError(t *testing.T) {
	h := RunRateLimit(failingLimiter{}, 1)(okHandler())
	assert.Equal(t, http.StatusAccepted, post(h, "10.0.0.1:5000").Code)
	assert.Equal(t, http.StatusAccepted, post(h, "10.0.0.1:5000").Code)
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.168.1.5:1234"
	assert.Equal(t, "192.168.1.5", clientIP(req))

	req.Header.Set("X-Real-IP", "172.16.0.9")
	assert.Equal(t, "172.16.0.9", clientIP(req))

	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	assert.Equal(t, "203.0.113.7", clientIP(req))
}

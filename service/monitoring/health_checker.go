/*
 * @module service/monitoring/health_checker
 * @description 健康检查器，检查运行记录库及可选依赖(Redis 等)的可用性，供就绪探针使用
 * @architecture 分层架构 - 业务服务层
 * @documentReference ai_docs/data_cleansing_pipeline.md
 * @stateFlow 注册检查项 -> 逐项检测 -> 汇总整体状态
 * @rules 任一检查项失败时整体状态为 critical
 * @dependencies gorm.io/gorm
 * @refs api/controllers/health_controller.go
 */

package monitoring

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"gorm.io/gorm"
)

// 健康状态
const (
	StatusHealthy  = "healthy"
	StatusCritical = "critical"
)

// CheckFunc 单项检查
type CheckFunc func(ctx context.Context) error

// HealthStatus 整体健康状态
type HealthStatus struct {
	Overall    string                      `json:"overall"`
	Timestamp  time.Time                   `json:"timestamp"`
	Components map[string]*ComponentHealth `json:"components"`
}

// ComponentHealth 组件健康状态
type ComponentHealth struct {
	Name         string        `json:"name"`
	Status       string        `json:"status"`
	ResponseTime time.Duration `json:"response_time"`
	ErrorMessage string        `json:"error_message,omitempty"`
}

// HealthChecker 健康检查器
type HealthChecker struct {
	mutex   sync.RWMutex
	checks  map[string]CheckFunc
	timeout time.Duration
}

// NewHealthChecker 创建健康检查器，db 不为空时注册数据库检查
func NewHealthChecker(db *gorm.DB) *HealthChecker {
	h := &HealthChecker{
		checks:  make(map[string]CheckFunc),
		timeout: 3 * time.Second,
	}
	if db != nil {
		h.AddCheck("database", DatabaseCheck(db))
	}
	return h
}

// DatabaseCheck 数据库连通性检查
func DatabaseCheck(db *gorm.DB) CheckFunc {
	return func(ctx context.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return fmt.Errorf("获取数据库连接失败: %w", err)
		}
		return sqlDB.PingContext(ctx)
	}
}

// AddCheck 注册检查项
func (h *HealthChecker) AddCheck(name string, check CheckFunc) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.checks[name] = check
}

// CheckOverallHealth 执行全部检查
func (h *HealthChecker) CheckOverallHealth(ctx context.Context) *HealthStatus {
	h.mutex.RLock()
	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	h.mutex.RUnlock()
	sort.Strings(names)

	status := &HealthStatus{
		Overall:    StatusHealthy,
		Timestamp:  time.Now(),
		Components: make(map[string]*ComponentHealth, len(names)),
	}

	for _, name := range names {
		h.mutex.RLock()
		check := h.checks[name]
		h.mutex.RUnlock()

		checkCtx, cancel := context.WithTimeout(ctx, h.timeout)
		start := time.Now()
		err := check(checkCtx)
		cancel()

		component := &ComponentHealth{
			Name:         name,
			Status:       StatusHealthy,
			ResponseTime: time.Since(start),
		}
		if err != nil {
			component.Status = StatusCritical
			component.ErrorMessage = err.Error()
			status.Overall = StatusCritical
		}
		status.Components[name] = component
	}

	return status
}

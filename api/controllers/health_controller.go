/*
 * @module api/controllers/health_controller
 * @description 健康检查控制器，提供存活检查和依赖就绪检查
 * @architecture MVC架构 - 控制器层
 * @documentReference ai_docs/data_cleansing_pipeline.md
 * @stateFlow HTTP请求处理流程
 * @rules 存活检查不访问依赖；就绪检查任一依赖异常返回503
 * @dependencies net/http, service/monitoring
 * @refs service/monitoring/health_checker.go
 */

package controllers

import (
	"net/http"
	"time"

	"github.com/go-chi/render"

	"datahub-cleanser/service"
	"datahub-cleanser/service/monitoring"
)

const (
	serviceName    = "datahub-cleanser"
	serviceVersion = "1.0.0"
)

// HealthController 健康检查控制器
type HealthController struct {
	checker *monitoring.HealthChecker
}

// NewHealthController 创建健康检查控制器实例
func NewHealthController() *HealthController {
	return NewHealthControllerWithChecker(service.GlobalHealthChecker)
}

// NewHealthControllerWithChecker 以指定检查器创建控制器
func NewHealthControllerWithChecker(checker *monitoring.HealthChecker) *HealthController {
	return &HealthController{checker: checker}
}

// HealthResponse 健康检查响应结构
type HealthResponse struct {
	Status     string                                  `json:"status" example:"ok"`
	Timestamp  time.Time                               `json:"timestamp" example:"2024-01-01T00:00:00Z"`
	Version    string                                  `json:"version" example:"1.0.0"`
	Service    string                                  `json:"service" example:"datahub-cleanser"`
	Components map[string]*monitoring.ComponentHealth `json:"components,omitempty"`
}

// Health 健康检查
// @Summary 健康检查
// @Description 检查服务健康状态
// @Tags 系统
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /health [get]
func (c *HealthController) Health(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   serviceVersion,
		Service:   serviceName,
	}

	render.JSON(w, r, response)
}

// Ready 就绪检查
// @Summary 就绪检查
// @Description 检查运行记录库及已配置的外部依赖是否可用
// @Tags 系统
// @Produce json
// @Success 200 {object} HealthResponse
// @Failure 503 {object} HealthResponse
// @Router /ready [get]
func (c *HealthController) Ready(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Status:    "ready",
		Timestamp: time.Now(),
		Version:   serviceVersion,
		Service:   serviceName,
	}

	if c.checker != nil {
		status := c.checker.CheckOverallHealth(r.Context())
		response.Components = status.Components
		if status.Overall != monitoring.StatusHealthy {
			response.Status = "not_ready"
			render.Status(r, http.StatusServiceUnavailable)
		}
	}

	render.JSON(w, r, response)
}

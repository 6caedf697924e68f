/*
 * @module api/routes
 * @description API路由配置模块，负责初始化和配置所有HTTP路由
 * @architecture RESTful API架构
 * @documentReference ai_docs/data_cleansing_pipeline.md
 * @stateFlow 无状态HTTP请求处理
 * @rules 遵循RESTful API设计规范，统一错误处理和响应格式
 * @dependencies github.com/go-chi/chi/v5, github.com/go-chi/cors, github.com/go-chi/render
 * @refs api/controllers, api/middleware
 */

package api

import (
	"net/http"

	"datahub-cleanser/api/controllers"
	apimw "datahub-cleanser/api/middleware"
	"datahub-cleanser/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/render"
)

// InitRoute 初始化所有API路由
func InitRoute(r chi.Router) {
	perMinute := 0
	if service.GlobalSettings != nil {
		perMinute = service.GlobalSettings.RunRateLimit
	}
	InitRouteWith(r, controllers.NewHealthController(), controllers.NewCleaningController(), controllers.NewEventController(),
		apimw.RunRateLimit(service.GlobalRateLimiter, perMinute))
}

// InitRouteWith 以给定控制器注册路由，runLimit 为空时运行提交不限流
func InitRouteWith(r chi.Router, health *controllers.HealthController, cleaning *controllers.CleaningController, events *controllers.EventController, runLimit func(http.Handler) http.Handler) {
	if runLimit == nil {
		runLimit = func(next http.Handler) http.Handler { return next }
	}

	// 基础中间件
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)

	// CORS配置
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// 健康检查
	r.Get("/health", health.Health)
	r.Get("/ready", health.Ready)

	r.Route("/cleaning", func(r chi.Router) {
		// SSE 不设置 JSON 内容类型
		r.Get("/events", events.HandleSSE)

		r.Group(func(r chi.Router) {
			r.Use(render.SetContentType(render.ContentTypeJSON))

			r.Get("/events/status", events.GetStatus)

			// 清洗运行
			r.With(runLimit).Post("/runs", cleaning.CreateRun)
			r.Get("/runs", cleaning.ListRuns)
			r.Get("/runs/{id}", cleaning.GetRun)

			// 定时清洗任务
			r.Post("/jobs", cleaning.CreateJob)
			r.Get("/jobs", cleaning.ListJobs)
			r.Delete("/jobs/{id}", cleaning.DeleteJob)
		})
	})
}

/*
 * @module cmd/serve
 * @description serve 子命令，初始化服务并通过 Dapr HTTP 服务暴露 API
 * @architecture 命令行层
 * @documentReference ai_docs/data_cleansing_pipeline.md
 * @stateFlow 加载设置 -> 初始化服务 -> 注册路由 -> 监听信号优雅退出
 * @rules /metrics 与 /swagger 挂载在 BASE_CONTEXT 下
 * @dependencies github.com/dapr/go-sdk, github.com/go-chi/chi/v5
 * @refs api/routes.go, service/init.go
 */

package cmd

import (
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"

	daprd "github.com/dapr/go-sdk/service/http"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	httpSwagger "github.com/swaggo/http-swagger"

	"datahub-cleanser/api"
	_ "datahub-cleanser/docs"
	"datahub-cleanser/service"
	"datahub-cleanser/service/config"
)

func newServeCmd(settings *config.Settings) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "启动清洗HTTP服务和定时清洗任务",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := service.Init(settings); err != nil {
				return fmt.Errorf("服务初始化失败: %w", err)
			}
			defer service.Shutdown()

			s := daprd.NewServiceWithMux(":"+settings.ListenPort, newRouter(settings.BaseContext))

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			go func() {
				<-ctx.Done()
				if err := s.GracefulStop(); err != nil {
					log.Printf("停止HTTP服务失败: %v", err)
				}
			}()

			log.Printf("HTTP服务启动: port=%s base_context=%q", settings.ListenPort, settings.BaseContext)
			if err := s.Start(); err != nil && err != http.ErrServerClosed {
				return fmt.Errorf("error: %w", err)
			}
			return nil
		},
	}
}

// newRouter 构建路由，有 BASE_CONTEXT 时挂载在该路径下
func newRouter(baseContext string) *chi.Mux {
	mux := chi.NewRouter()

	if baseContext != "" {
		mux.Route(baseContext, func(r chi.Router) {
			api.InitRoute(r)
			r.Handle("/metrics", promhttp.Handler())
			r.Handle("/swagger*", httpSwagger.WrapHandler)
		})
	} else {
		api.InitRoute(mux)
		mux.Handle("/metrics", promhttp.Handler())
		mux.Handle("/swagger*", httpSwagger.WrapHandler)
	}
	return mux
}

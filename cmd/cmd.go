/*
 * @module cmd/cmd
 * @description 命令行入口，clean 执行一次性清洗，serve 启动HTTP服务与定时任务
 * @architecture 命令模式 - 入口层
 * @documentReference ai_docs/data_cleansing_pipeline.md
 * @stateFlow 解析参数 -> 初始化日志 -> 执行子命令
 * @rules 日志级别来自 LOG_LEVEL
 * @dependencies github.com/spf13/cobra
 * @refs cmd/clean.go, cmd/serve.go
 */

package cmd

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"datahub-cleanser/logger"
	"datahub-cleanser/service/config"
)

// NewRootCmd 创建根命令
func NewRootCmd() *cobra.Command {
	settings := config.LoadSettings()

	rootCmd := &cobra.Command{
		Use:           "datahub-cleanser",
		Short:         "表格数据清洗流水线：去重、缺失值、标准化、日期规整、异常值处理",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger.InitLogger(settings.LogLevel)
		},
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Help()
		},
	}

	rootCmd.AddCommand(newCleanCmd(settings))
	rootCmd.AddCommand(newServeCmd(settings))
	return rootCmd
}

// Execute 执行根命令
func Execute() {
	if err := NewRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

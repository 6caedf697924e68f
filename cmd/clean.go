/*
 * @module cmd/clean
 * @description clean 子命令，读取输入文件执行一次清洗并导出
 * @architecture 命令行层
 * @documentReference ai_docs/data_cleansing_pipeline.md
 * @stateFlow 解析参数 -> 加载配置 -> 执行清洗 -> 输出摘要/报告
 * @rules --record 时才连接运行记录库；失败时返回非零退出码
 * @dependencies github.com/spf13/cobra
 * @refs service/cleaning
 */

package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"datahub-cleanser/service"
	"datahub-cleanser/service/cleaning"
	"datahub-cleanser/service/cleansing"
	"datahub-cleanser/service/config"
	"datahub-cleanser/service/models"
)

// cleanOptions clean 命令参数
type cleanOptions struct {
	input      string
	output     string
	configPath string
	report     string
	record     bool
}

// RunReport 一次运行的摘要，--report 时写出
type RunReport struct {
	RunID       string                `json:"run_id,omitempty"`
	Status      string                `json:"status"`
	Source      string                `json:"source"`
	Destination string                `json:"destination"`
	RowsIn      int                   `json:"rows_in"`
	RowsOut     int                   `json:"rows_out"`
	Stages      []cleansing.StageStat `json:"stages"`
	NullCounts  map[string]int        `json:"null_counts,omitempty"`
	ErrorKind   string                `json:"error_kind,omitempty"`
	Error       string                `json:"error,omitempty"`
}

func newCleanCmd(settings *config.Settings) *cobra.Command {
	opts := &cleanOptions{}

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "执行一次数据清洗",
		Long: `clean 读取输入文件，依次执行去重、缺失值处理、字段标准化、日期规整、异常值处理(可选归一化)，
并将结果写入输出文件。--input/--output 覆盖配置文件中的 source/destination。`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.configPath == "" {
				opts.configPath = settings.DefaultConfigPath
			}
			return runClean(cmd, settings, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.input, "input", "i", "", "输入文件路径")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "输出文件路径 (默认 "+models.DefaultDestination+")")
	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "流水线配置文件 (YAML/JSON)")
	cmd.Flags().StringVar(&opts.report, "report", "", "运行摘要输出路径 (JSON)")
	cmd.Flags().BoolVar(&opts.record, "record", false, "将运行记录写入数据库")
	return cmd
}

func runClean(cmd *cobra.Command, settings *config.Settings, opts *cleanOptions) error {
	var db *gorm.DB
	if opts.record {
		var err error
		if db, err = service.OpenDatabase(settings); err != nil {
			return err
		}
		if err := service.Migrate(db); err != nil {
			return fmt.Errorf("数据库迁移失败: %w", err)
		}
		if sqlDB, err := db.DB(); err == nil {
			defer sqlDB.Close()
		}
	}

	svc := cleaning.NewService(db, cleaning.Options{})
	outcome, runErr := svc.Run(cmd.Context(), &models.CleaningRequest{
		TriggerType: models.TriggerCLI,
		ConfigPath:  opts.configPath,
		Source:      opts.input,
		Destination: opts.output,
	})

	if outcome != nil {
		report := buildReport(outcome, runErr)
		printSummary(cmd.OutOrStdout(), report)
		if opts.report != "" {
			if err := writeReport(opts.report, report); err != nil {
				return err
			}
		}
	}
	return runErr
}

func buildReport(outcome *cleaning.RunOutcome, runErr error) *RunReport {
	run := outcome.Run
	report := &RunReport{
		RunID:       run.ID,
		Status:      run.Status,
		Source:      run.Source,
		Destination: run.Destination,
		ErrorKind:   run.ErrorKind,
	}
	if runErr != nil {
		report.Error = runErr.Error()
	}
	if res := outcome.Result; res != nil {
		report.RowsIn = res.RowsIn
		report.Stages = res.Stages
		if runErr == nil {
			report.RowsOut = res.RowsOut
			report.NullCounts = res.NullCounts
		}
	}
	return report
}

func printSummary(w io.Writer, report *RunReport) {
	fmt.Fprintf(w, "状态: %s\n", report.Status)
	fmt.Fprintf(w, "输入: %s (%d 行)\n", report.Source, report.RowsIn)
	for _, st := range report.Stages {
		fmt.Fprintf(w, "  %-20s %6d -> %-6d 修改单元格 %d\n", st.Stage, st.RowsIn, st.RowsOut, st.CellsChanged)
	}
	if report.Error != "" {
		fmt.Fprintf(w, "错误: [%s] %s\n", report.ErrorKind, report.Error)
		return
	}
	fmt.Fprintf(w, "输出: %s (%d 行)\n", report.Destination, report.RowsOut)
}

func writeReport(path string, report *RunReport) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("序列化运行摘要失败: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("创建摘要目录失败: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("写入运行摘要失败: %w", err)
	}
	return nil
}

/*
 * @module service/cleansing/pipeline
 * @description 数据清洗流水线，按固定顺序串联去重、缺失值处理、字段标准化、日期规整、异常值处理、归一化
 * @architecture 管道模式 - 数据清洗层
 * @documentReference ai_docs/data_cleansing_pipeline.md
 * @stateFlow 表加载 -> 各阶段依次处理 -> 校验 -> 导出
 * @rules 表只向前流动，任一阶段失败则整次运行失败
 * @dependencies log/slog, context
 * @refs loader.go, exporter.go
 */

package cleansing

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"datahub-cleanser/service/models"
)

// Stage 清洗阶段
type Stage interface {
	Name() string
	Apply(ctx context.Context, table *models.Table, stat *StageStat) (*models.Table, error)
}

// StageStat 单个阶段的执行统计
type StageStat struct {
	Stage        string        `json:"stage"`
	RowsIn       int           `json:"rows_in"`
	RowsOut      int           `json:"rows_out"`
	CellsChanged int           `json:"cells_changed"`
	Duration     time.Duration `json:"duration"`
}

// Result 流水线执行结果
type Result struct {
	RowsIn     int            `json:"rows_in"`
	RowsOut    int            `json:"rows_out"`
	Stages     []StageStat    `json:"stages"`
	NullCounts map[string]int `json:"null_counts"`
}

// Pipeline 清洗流水线
type Pipeline struct {
	stages []Stage
}

// NewPipeline 以给定阶段创建流水线
func NewPipeline(stages ...Stage) *Pipeline {
	return &Pipeline{stages: stages}
}

// BuildPipeline 按配置构建标准流水线
func BuildPipeline(cfg *models.PipelineConfig) (*Pipeline, error) {
	if cfg == nil {
		return nil, &ConfigurationError{Reason: "流水线配置为空"}
	}

	p := NewPipeline(
		NewDeduplicator(),
		NewMissingValueResolver(cfg),
		NewFieldStandardizer(cfg, NewScriptExecutor()),
		NewDateNormalizer(cfg),
		NewOutlierFilter(cfg),
	)
	if normalizationEnabled(cfg) {
		p.Add(NewNormalizer(cfg))
	}
	return p, nil
}

// Add 追加阶段
func (p *Pipeline) Add(stage Stage) *Pipeline {
	p.stages = append(p.stages, stage)
	return p
}

// Stages 返回阶段名称列表
func (p *Pipeline) Stages() []string {
	names := make([]string, len(p.stages))
	for i, s := range p.stages {
		names[i] = s.Name()
	}
	return names
}

// Run 依次执行全部阶段
func (p *Pipeline) Run(ctx context.Context, table *models.Table) (*models.Table, *Result, error) {
	result := &Result{
		RowsIn: table.Len(),
		Stages: make([]StageStat, 0, len(p.stages)),
	}

	cur := table
	for _, stage := range p.stages {
		if err := ctx.Err(); err != nil {
			return nil, result, err
		}

		stat := StageStat{Stage: stage.Name(), RowsIn: cur.Len()}
		start := time.Now()

		next, err := stage.Apply(ctx, cur, &stat)
		if err != nil {
			slog.Error("清洗阶段执行失败", "stage", stage.Name(), "error", err)
			return nil, result, fmt.Errorf("阶段 %s 执行失败: %w", stage.Name(), err)
		}

		cur = next
		stat.RowsOut = cur.Len()
		stat.Duration = time.Since(start)
		result.Stages = append(result.Stages, stat)

		slog.Debug("清洗阶段完成",
			"stage", stat.Stage,
			"rows_before", stat.RowsIn,
			"rows_after", stat.RowsOut,
			"cells_changed", stat.CellsChanged)
	}

	result.RowsOut = cur.Len()
	result.NullCounts = Validate(cur)
	return cur, result, nil
}

// Validate 统计各列空值数量
func Validate(table *models.Table) map[string]int {
	counts := make(map[string]int, len(table.Columns))
	for i, col := range table.Columns {
		n := 0
		for _, row := range table.Rows {
			if row[i].IsNull() {
				n++
			}
		}
		counts[col.Name] = n
	}
	return counts
}

// columnsOfType 返回指定类型列的下标
func columnsOfType(table *models.Table, types ...models.ColumnType) []int {
	var idx []int
	for i, col := range table.Columns {
		for _, t := range types {
			if col.Type == t {
				idx = append(idx, i)
				break
			}
		}
	}
	return idx
}

/*
 * @module service/cleansing/normalizer
 * @description 数值归一化阶段（可选），支持 min-max 与 z-score
 * @architecture 分层架构 - 数据清洗层
 * @documentReference ai_docs/data_cleansing_pipeline.md
 * @stateFlow 逐列计算统计量 -> 按方式缩放
 * @rules max == min 时 min-max 结果为0；标准差为0时 z-score 返回 DegenerateColumnError
 * @dependencies 无
 * @refs stats.go
 */

package cleansing

import (
	"context"
	"fmt"

	"datahub-cleanser/service/models"
)

// Normalizer 数值列缩放阶段，支持 min-max 与 z-score
type Normalizer struct {
	cfg *models.PipelineConfig
}

// NewNormalizer 创建归一化阶段
func NewNormalizer(cfg *models.PipelineConfig) *Normalizer {
	return &Normalizer{cfg: cfg}
}

func (n *Normalizer) Name() string { return "normalize_numeric" }

// normalizationEnabled 全局开关或任一列配置了归一化方式
func normalizationEnabled(cfg *models.PipelineConfig) bool {
	if cfg.Normalize {
		return true
	}
	for _, p := range cfg.Columns {
		if p.Normalize != "" {
			return true
		}
	}
	return false
}

func (n *Normalizer) methodFor(column string) string {
	if m := n.cfg.Policy(column).Normalize; m != "" {
		return m
	}
	if !n.cfg.Normalize {
		return ""
	}
	if n.cfg.NormalizeMethod != "" {
		return n.cfg.NormalizeMethod
	}
	return models.NormalizeMinMax
}

func (n *Normalizer) Apply(ctx context.Context, table *models.Table, stat *StageStat) (*models.Table, error) {
	for _, idx := range columnsOfType(table, models.ColumnTypeNumeric) {
		col := table.Columns[idx]
		method := n.methodFor(col.Name)
		if method == "" {
			continue
		}

		values := numericValues(table, idx)
		if len(values) == 0 {
			continue
		}

		var scale func(float64) float64
		switch method {
		case models.NormalizeMinMax:
			lo, hi := minMax(values)
			if hi == lo {
				scale = func(float64) float64 { return 0 }
			} else {
				scale = func(x float64) float64 { return (x - lo) / (hi - lo) }
			}
		case models.NormalizeZScore:
			m, sd := mean(values), populationStd(values)
			if sd == 0 {
				return nil, &DegenerateColumnError{Column: col.Name, Reason: "标准差为0，无法进行 z-score 标准化"}
			}
			scale = func(x float64) float64 { return (x - m) / sd }
		default:
			return nil, &ConfigurationError{Column: col.Name, Reason: fmt.Sprintf("不支持的归一化方式: %s", method)}
		}

		for _, row := range table.Rows {
			if row[idx].Kind != models.KindNumber {
				continue
			}
			scaled := scale(row[idx].Num)
			if scaled != row[idx].Num {
				row[idx] = models.NumberValue(scaled)
				stat.CellsChanged++
			}
		}
	}
	return table, nil
}

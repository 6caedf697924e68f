/*
 * @module service/cleansing/outlier_filter
 * @description 异常值处理阶段，按四分位距(IQR)计算上下界，超界行删除或截断到边界
 * @architecture 分层架构 - 数据清洗层
 * @documentReference ai_docs/data_cleansing_pipeline.md
 * @stateFlow 逐列计算 Q1/Q3 -> 计算边界 -> 删除或截断
 * @rules 分位数使用秩间线性插值；非缺失值少于4个的列跳过
 * @dependencies 无
 * @refs stats.go
 */

package cleansing

import (
	"context"
	"fmt"
	"log/slog"

	"datahub-cleanser/service/models"
)

// DefaultIQRMultiplier 默认 IQR 倍数
const DefaultIQRMultiplier = 1.5

// minQuartileSamples 计算四分位数所需的最少样本数
const minQuartileSamples = 4

// Bounds 异常值边界
type Bounds struct {
	Q1    float64 `json:"q1"`
	Q3    float64 `json:"q3"`
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
}

// IQRBounds 计算 [Q1 - k*IQR, Q3 + k*IQR]，样本不足时 ok 为 false
func IQRBounds(values []float64, multiplier float64) (Bounds, bool) {
	if len(values) < minQuartileSamples {
		return Bounds{}, false
	}
	q1 := quantile(values, 0.25)
	q3 := quantile(values, 0.75)
	iqr := q3 - q1
	return Bounds{
		Q1:    q1,
		Q3:    q3,
		Lower: q1 - multiplier*iqr,
		Upper: q3 + multiplier*iqr,
	}, true
}

// OutlierFilter 异常值处理阶段
type OutlierFilter struct {
	cfg        *models.PipelineConfig
	multiplier float64
}

// NewOutlierFilter 创建异常值处理阶段
func NewOutlierFilter(cfg *models.PipelineConfig) *OutlierFilter {
	k := cfg.IQRMultiplier
	if k <= 0 {
		k = DefaultIQRMultiplier
	}
	return &OutlierFilter{cfg: cfg, multiplier: k}
}

func (o *OutlierFilter) Name() string { return "filter_outliers" }

func (o *OutlierFilter) policyFor(column string) string {
	if p := o.cfg.Policy(column).Outlier; p != "" {
		return p
	}
	if o.cfg.DefaultOutlier != "" {
		return o.cfg.DefaultOutlier
	}
	return models.OutlierPolicyCap
}

func (o *OutlierFilter) Apply(ctx context.Context, table *models.Table, stat *StageStat) (*models.Table, error) {
	for _, idx := range columnsOfType(table, models.ColumnTypeNumeric) {
		col := table.Columns[idx]
		policy := o.policyFor(col.Name)

		switch policy {
		case models.OutlierPolicyNone:
			continue
		case models.OutlierPolicyDrop, models.OutlierPolicyCap:
		default:
			return nil, &ConfigurationError{Column: col.Name, Reason: fmt.Sprintf("不支持的异常值策略: %s", policy)}
		}

		bounds, ok := IQRBounds(numericValues(table, idx), o.multiplier)
		if !ok {
			slog.Debug("非缺失值不足，跳过异常值处理", "column", col.Name)
			continue
		}

		outside := func(v models.Value) bool {
			return v.Kind == models.KindNumber && (v.Num < bounds.Lower || v.Num > bounds.Upper)
		}

		if policy == models.OutlierPolicyDrop {
			removed := table.Filter(func(_ int, row models.Row) bool { return !outside(row[idx]) })
			slog.Debug("删除异常值行", "column", col.Name, "removed", removed,
				"lower", bounds.Lower, "upper", bounds.Upper)
			continue
		}

		for _, row := range table.Rows {
			v := row[idx]
			if !outside(v) {
				continue
			}
			if v.Num < bounds.Lower {
				row[idx] = models.NumberValue(bounds.Lower)
			} else {
				row[idx] = models.NumberValue(bounds.Upper)
			}
			stat.CellsChanged++
		}
	}
	return table, nil
}

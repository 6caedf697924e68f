/*
 * @module service/cleansing/missing_resolver
 * @description 缺失值处理阶段，按列策略删除行或填充（均值/中位数/众数/常量）
 * @architecture 分层架构 - 数据清洗层
 * @documentReference ai_docs/data_cleansing_pipeline.md
 * @stateFlow 删除策略先执行 -> 在剩余行上计算统计量 -> 填充
 * @rules 统计量只使用该列非缺失值；均值/中位数只允许用于数值列
 * @dependencies datahub-cleanser/service/utils
 * @refs pipeline.go
 */

package cleansing

import (
	"context"
	"fmt"
	"log/slog"

	"datahub-cleanser/service/models"
	"datahub-cleanser/service/utils"
)

// UnknownCategory 分类列没有任何观测值时的众数回退值，日期列不使用
const UnknownCategory = "Unknown"

// MissingValueResolver 缺失值处理阶段
type MissingValueResolver struct {
	cfg       *models.PipelineConfig
	converter *utils.DataConverter
}

// NewMissingValueResolver 创建缺失值处理阶段
func NewMissingValueResolver(cfg *models.PipelineConfig) *MissingValueResolver {
	return &MissingValueResolver{cfg: cfg, converter: utils.NewDataConverter()}
}

func (m *MissingValueResolver) Name() string { return "resolve_missing" }

// DefaultMissingPolicy 未配置时按列类型选择策略
func DefaultMissingPolicy(t models.ColumnType) string {
	switch t {
	case models.ColumnTypeNumeric:
		return models.MissingPolicyMedian
	case models.ColumnTypeIdentifier:
		return models.MissingPolicyDrop
	default:
		return models.MissingPolicyMode
	}
}

func (m *MissingValueResolver) policyFor(col models.Column) models.ColumnPolicy {
	p := m.cfg.Policy(col.Name)
	if p.Missing == "" {
		p.Missing = DefaultMissingPolicy(col.Type)
	}
	return p
}

func (m *MissingValueResolver) Apply(ctx context.Context, table *models.Table, stat *StageStat) (*models.Table, error) {
	policies := make([]models.ColumnPolicy, len(table.Columns))
	for i, col := range table.Columns {
		policies[i] = m.policyFor(col)
		if err := m.checkPolicy(col, policies[i]); err != nil {
			return nil, err
		}
	}

	// 先删除，后续统计量基于保留下来的行
	var dropCols []int
	for i, p := range policies {
		if p.Missing == models.MissingPolicyDrop {
			dropCols = append(dropCols, i)
		}
	}
	if len(dropCols) > 0 {
		removed := table.Filter(func(_ int, row models.Row) bool {
			for _, c := range dropCols {
				if row[c].IsNull() {
					return false
				}
			}
			return true
		})
		if removed > 0 {
			slog.Debug("删除含缺失值的行", "removed", removed)
		}
	}

	for i, col := range table.Columns {
		p := policies[i]
		if p.Missing == models.MissingPolicyDrop {
			continue
		}
		if !hasNull(table, i) {
			continue
		}

		fill, err := m.fillValue(table, i, col, p)
		if err != nil {
			return nil, err
		}
		if fill.IsNull() {
			slog.Warn("日期列没有可用于计算众数的值，保留缺失", "column", col.Name)
			continue
		}
		for _, row := range table.Rows {
			if row[i].IsNull() {
				row[i] = fill
				stat.CellsChanged++
			}
		}
	}

	return table, nil
}

// checkPolicy 校验策略与列类型是否匹配
func (m *MissingValueResolver) checkPolicy(col models.Column, p models.ColumnPolicy) error {
	switch p.Missing {
	case models.MissingPolicyDrop, models.MissingPolicyMode:
		return nil
	case models.MissingPolicyMean, models.MissingPolicyMedian:
		if col.Type != models.ColumnTypeNumeric {
			return &ConfigurationError{
				Column: col.Name,
				Reason: fmt.Sprintf("策略 %s 只能用于数值列，当前类型为 %s", p.Missing, col.Type),
			}
		}
		return nil
	case models.MissingPolicyConstant:
		if p.FillValue == nil {
			return &ConfigurationError{Column: col.Name, Reason: "constant 策略缺少 fill_value"}
		}
		if col.Type == models.ColumnTypeNumeric && !m.converter.IsNumeric(*p.FillValue) {
			return &ConfigurationError{
				Column: col.Name,
				Reason: fmt.Sprintf("数值列的填充值 %q 不是数值", *p.FillValue),
			}
		}
		return nil
	default:
		return &ConfigurationError{Column: col.Name, Reason: fmt.Sprintf("不支持的缺失值策略: %s", p.Missing)}
	}
}

func (m *MissingValueResolver) fillValue(table *models.Table, idx int, col models.Column, p models.ColumnPolicy) (models.Value, error) {
	switch p.Missing {
	case models.MissingPolicyConstant:
		if col.Type == models.ColumnTypeNumeric {
			f, _ := m.converter.ToFloat(*p.FillValue)
			return models.NumberValue(f), nil
		}
		return models.StringValue(*p.FillValue), nil

	case models.MissingPolicyMean, models.MissingPolicyMedian:
		values := numericValues(table, idx)
		if len(values) == 0 {
			return models.Value{}, &DegenerateColumnError{Column: col.Name, Reason: "没有可用于计算的非缺失值"}
		}
		if p.Missing == models.MissingPolicyMean {
			return models.NumberValue(mean(values)), nil
		}
		return models.NumberValue(median(values)), nil

	case models.MissingPolicyMode:
		if col.Type == models.ColumnTypeNumeric {
			if v, ok := modeNumber(numericValues(table, idx)); ok {
				return models.NumberValue(v), nil
			}
			return models.Value{}, &DegenerateColumnError{Column: col.Name, Reason: "没有可用于计算众数的非缺失值"}
		}
		if v, ok := modeString(stringValues(table, idx)); ok {
			return models.StringValue(v), nil
		}
		// Unknown 无法通过日期解析，日期列保持缺失
		if col.Type == models.ColumnTypeDate {
			return models.NullValue(), nil
		}
		return models.StringValue(UnknownCategory), nil
	}

	return models.Value{}, &ConfigurationError{Column: col.Name, Reason: fmt.Sprintf("不支持的缺失值策略: %s", p.Missing)}
}

func hasNull(table *models.Table, idx int) bool {
	for _, row := range table.Rows {
		if row[idx].IsNull() {
			return true
		}
	}
	return false
}

// stringValues 收集列中非空值的文本形式
func stringValues(table *models.Table, idx int) []string {
	values := make([]string, 0, len(table.Rows))
	for _, row := range table.Rows {
		if !row[idx].IsNull() {
			values = append(values, row[idx].String())
		}
	}
	return values
}

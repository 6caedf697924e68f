/*
 * @module service/cleansing/date_normalizer
 * @description 日期规整阶段，按格式顺序解析日期列并统一为 YYYY-MM-DD
 * @architecture 分层架构 - 数据清洗层
 * @documentReference ai_docs/data_cleansing_pipeline.md
 * @stateFlow 逐单元格解析 -> 首个成功格式生效 -> 失败时按配置删除行/置空/报错
 * @rules 缺失值不参与解析；strict 模式遇到首个无法解析的值即终止
 * @dependencies datahub-cleanser/service/utils
 * @refs loader.go
 */

package cleansing

import (
	"context"
	"fmt"
	"log/slog"

	"datahub-cleanser/service/models"
	"datahub-cleanser/service/utils"
)

// DateNormalizer 将日期列解析为日历日期，导出为 YYYY-MM-DD
type DateNormalizer struct {
	layouts     []string
	unparseable string
	converter   *utils.DataConverter
}

// NewDateNormalizer 创建日期规整阶段
func NewDateNormalizer(cfg *models.PipelineConfig) *DateNormalizer {
	layouts := cfg.DateFormats
	if len(layouts) == 0 {
		layouts = utils.DefaultDateLayouts
	}
	mode := cfg.UnparseableDates
	if mode == "" {
		mode = models.UnparseableDateDrop
	}
	return &DateNormalizer{
		layouts:     layouts,
		unparseable: mode,
		converter:   utils.NewDataConverter(),
	}
}

func (d *DateNormalizer) Name() string { return "normalize_dates" }

func (d *DateNormalizer) Apply(ctx context.Context, table *models.Table, stat *StageStat) (*models.Table, error) {
	switch d.unparseable {
	case models.UnparseableDateStrict, models.UnparseableDateDrop, models.UnparseableDateNull:
	default:
		return nil, &ConfigurationError{Reason: fmt.Sprintf("不支持的日期解析失败处理方式: %s", d.unparseable)}
	}

	dateCols := columnsOfType(table, models.ColumnTypeDate)
	if len(dateCols) == 0 {
		return table, nil
	}

	drop := make(map[int]bool)
	for r, row := range table.Rows {
		for _, c := range dateCols {
			v := row[c]
			if v.Kind == models.KindNull || v.Kind == models.KindDate {
				continue
			}

			parsed, _, err := d.converter.ParseDate(v.String(), d.layouts)
			if err == nil {
				row[c] = models.DateValue(parsed)
				stat.CellsChanged++
				continue
			}

			dateErr := &UnparseableDateError{Row: r, Column: table.Columns[c].Name, Value: v.String()}
			switch d.unparseable {
			case models.UnparseableDateStrict:
				return nil, dateErr
			case models.UnparseableDateDrop:
				drop[r] = true
			case models.UnparseableDateNull:
				row[c] = models.NullValue()
				stat.CellsChanged++
			}
			slog.Warn("日期无法解析", "row", r, "column", dateErr.Column, "value", dateErr.Value, "action", d.unparseable)
		}
	}

	if len(drop) > 0 {
		table.Filter(func(i int, _ models.Row) bool { return !drop[i] })
	}
	return table, nil
}

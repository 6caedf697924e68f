/*
 * @module service/cleansing/exporter
 * @description 导出器，将清洗后的表写出为分隔文本
 * @architecture 分层架构 - 数据清洗层
 * @documentReference ai_docs/data_cleansing_pipeline.md
 * @stateFlow 创建父目录 -> 写表头 -> 逐行格式化写出
 * @rules 数值按 float_precision 格式化，未设置时使用最短往返格式；日期输出 YYYY-MM-DD
 * @dependencies encoding/csv, datahub-cleanser/service/utils
 * @refs loader.go
 */

package cleansing

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"unicode/utf8"

	"datahub-cleanser/service/models"
	"datahub-cleanser/service/utils"
)

// Exporter 将表写出为分隔文本
type Exporter struct {
	delimiter rune
	precision int
	converter *utils.DataConverter
}

// NewExporter 创建导出器
func NewExporter(cfg *models.PipelineConfig) *Exporter {
	comma := ','
	precision := -1
	if cfg != nil {
		if cfg.Delimiter != "" {
			comma, _ = utf8.DecodeRuneInString(cfg.Delimiter)
		}
		if cfg.FloatPrecision != nil {
			precision = *cfg.FloatPrecision
		}
	}
	return &Exporter{delimiter: comma, precision: precision, converter: utils.NewDataConverter()}
}

// Export 写出到文件，自动创建父目录
func (e *Exporter) Export(ctx context.Context, table *models.Table, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if path == "" {
		path = models.DefaultDestination
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("创建输出目录失败: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("创建输出文件失败: %w", err)
	}

	if err := e.Write(file, table); err != nil {
		file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("关闭输出文件失败: %w", err)
	}
	return nil
}

// Write 写出到输出流
func (e *Exporter) Write(w io.Writer, table *models.Table) error {
	writer := csv.NewWriter(w)
	writer.Comma = e.delimiter

	if err := writer.Write(table.ColumnNames()); err != nil {
		return fmt.Errorf("写入表头失败: %w", err)
	}

	record := make([]string, len(table.Columns))
	for i, row := range table.Rows {
		for j, v := range row {
			record[j] = e.format(v)
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("写入第 %d 行失败: %w", i+1, err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("写入输出失败: %w", err)
	}
	return nil
}

func (e *Exporter) format(v models.Value) string {
	if v.Kind == models.KindNumber {
		return e.converter.FormatNumber(v.Num, e.precision)
	}
	return v.String()
}

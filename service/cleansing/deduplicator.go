/*
 * @module service/cleansing/deduplicator
 * @description 去重阶段，删除所有列取值完全相同的行，保留首次出现
 * @architecture 分层架构 - 数据清洗层
 * @documentReference ai_docs/data_cleansing_pipeline.md
 * @stateFlow 逐行计算行键 -> 行键冲突时逐列比较 -> 过滤重复行
 * @rules 空值与空值视为相等；空表原样返回
 * @dependencies 无
 * @refs pipeline.go
 */

package cleansing

import (
	"context"
	"strconv"
	"strings"

	"datahub-cleanser/service/models"
)

// Deduplicator 去除完全重复的行，保留首次出现
type Deduplicator struct{}

// NewDeduplicator 创建去重阶段
func NewDeduplicator() *Deduplicator {
	return &Deduplicator{}
}

func (d *Deduplicator) Name() string { return "deduplicate" }

func (d *Deduplicator) Apply(ctx context.Context, table *models.Table, stat *StageStat) (*models.Table, error) {
	if table.Len() == 0 {
		return table, nil
	}

	// 按行键分桶，桶内再逐值比较
	seen := make(map[string][]models.Row, table.Len())
	table.Filter(func(_ int, row models.Row) bool {
		key := rowKey(row)
		for _, prev := range seen[key] {
			if rowsEqual(prev, row) {
				return false
			}
		}
		seen[key] = append(seen[key], row)
		return true
	})
	return table, nil
}

func rowsEqual(a, b models.Row) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}

// rowKey 生成行键，值类型写入键中避免 "1" 与 1 冲突
func rowKey(row models.Row) string {
	var b strings.Builder
	for _, v := range row {
		if v.Kind == models.KindNumber && v.Num == 0 {
			v.Num = 0 // -0 与 0 相等
		}
		b.WriteString(strconv.Itoa(int(v.Kind)))
		b.WriteByte(':')
		b.WriteString(strconv.Quote(v.String()))
		b.WriteByte('|')
	}
	return b.String()
}

/*
 * @module service/models/dataset
 * @description 内存表模型，清洗流水线各阶段之间传递的数据载体
 * @architecture 数据模型层
 * @documentReference ai_docs/data_cleansing_pipeline.md
 * @stateFlow Loader创建 -> 各清洗阶段原地修改 -> Exporter消费
 * @rules 行与列严格对齐，空值与空值视为相等
 * @dependencies time, strconv
 * @refs service/cleansing
 */

package models

import (
	"strconv"
	"time"
)

// ColumnType 列语义类型
type ColumnType string

const (
	ColumnTypeCategorical ColumnType = "categorical"
	ColumnTypeNumeric     ColumnType = "numeric"
	ColumnTypeDate        ColumnType = "date"
	ColumnTypeIdentifier  ColumnType = "identifier"
)

// IsValid 判断列类型是否受支持
func (t ColumnType) IsValid() bool {
	switch t {
	case ColumnTypeCategorical, ColumnTypeNumeric, ColumnTypeDate, ColumnTypeIdentifier:
		return true
	}
	return false
}

// ValueKind 单元格值类型
type ValueKind int

const (
	KindNull ValueKind = iota
	KindString
	KindNumber
	KindDate
)

// ISODateLayout ISO-8601 日历日期格式
const ISODateLayout = "2006-01-02"

// Value 单元格值
type Value struct {
	Kind ValueKind
	Str  string
	Num  float64
	Time time.Time
}

// NullValue 空值
func NullValue() Value { return Value{Kind: KindNull} }

// StringValue 字符串值
func StringValue(s string) Value { return Value{Kind: KindString, Str: s} }

// NumberValue 数值
func NumberValue(f float64) Value { return Value{Kind: KindNumber, Num: f} }

// DateValue 日期值，只保留日历日期部分
func DateValue(t time.Time) Value {
	y, m, d := t.Date()
	return Value{Kind: KindDate, Time: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// IsNull 是否为空值
func (v Value) IsNull() bool { return v.Kind == KindNull }

// Equal 按类型和内容比较，空值等于空值
func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case KindNull:
		return true
	case KindString:
		return v.Str == o.Str
	case KindNumber:
		return v.Num == o.Num
	case KindDate:
		return v.Time.Equal(o.Time)
	}
	return false
}

// String 导出时使用的文本形式
func (v Value) String() string {
	switch v.Kind {
	case KindString:
		return v.Str
	case KindNumber:
		return strconv.FormatFloat(v.Num, 'f', -1, 64)
	case KindDate:
		return v.Time.Format(ISODateLayout)
	}
	return ""
}

// Column 列定义
type Column struct {
	Name string     `json:"name"`
	Type ColumnType `json:"type"`
}

// Row 一行数据，与 Table.Columns 按位置对齐
type Row []Value

// Table 内存表
type Table struct {
	Columns []Column
	Rows    []Row
}

// NewTable 创建空表
func NewTable(columns []Column) *Table {
	return &Table{Columns: columns, Rows: make([]Row, 0)}
}

// ColumnIndex 返回列下标，不存在时返回 -1
func (t *Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// ColumnNames 返回全部列名
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// Get 按列名取值，列不存在时返回空值
func (t *Table) Get(row int, name string) Value {
	idx := t.ColumnIndex(name)
	if idx < 0 || row < 0 || row >= len(t.Rows) {
		return NullValue()
	}
	return t.Rows[row][idx]
}

// Len 行数
func (t *Table) Len() int { return len(t.Rows) }

// Filter 保留 keep 返回 true 的行
func (t *Table) Filter(keep func(i int, row Row) bool) int {
	kept := t.Rows[:0]
	removed := 0
	for i, row := range t.Rows {
		if keep(i, row) {
			kept = append(kept, row)
		} else {
			removed++
		}
	}
	// 释放尾部引用
	for i := len(kept); i < len(t.Rows); i++ {
		t.Rows[i] = nil
	}
	t.Rows = kept
	return removed
}

// Clone 深拷贝
func (t *Table) Clone() *Table {
	cols := make([]Column, len(t.Columns))
	copy(cols, t.Columns)
	rows := make([]Row, len(t.Rows))
	for i, r := range t.Rows {
		rows[i] = append(Row(nil), r...)
	}
	return &Table{Columns: cols, Rows: rows}
}

// Equal 判断两张表列定义与内容完全一致
func (t *Table) Equal(o *Table) bool {
	if len(t.Columns) != len(o.Columns) || len(t.Rows) != len(o.Rows) {
		return false
	}
	for i := range t.Columns {
		if t.Columns[i] != o.Columns[i] {
			return false
		}
	}
	for i := range t.Rows {
		for j := range t.Rows[i] {
			if !t.Rows[i][j].Equal(o.Rows[i][j]) {
				return false
			}
		}
	}
	return true
}

/**
 * @module data_converter
 * @description 数据转换工具模块，负责数值解析、编码转换、字符串规整、日期解析等功能
 * @architecture 工具函数模式，提供静态转换方法集合
 * @documentReference 参考 ai_docs/data_cleansing_pipeline.md 第4节
 * @stateFlow 无状态转换：输入 -> 转换逻辑 -> 输出
 * @rules
 *   - 转换操作需要处理异常情况
 *   - 数值转换需要保证精度，导出使用最短往返格式
 *   - 编码转换支持 UTF-8 与 GBK
 *   - 日期按给定格式顺序解析，首个成功者生效
 * @dependencies
 *   - github.com/spf13/cast: 类型转换
 *   - golang.org/x/text: 编码转换
 * @refs
 *   - service/cleansing/*: 清洗流水线
 */

package utils

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cast"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/transform"
)

// DefaultDateLayouts 默认日期输入格式，按顺序尝试
var DefaultDateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"2006.01.02",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan 2006",
	"02-Jan-2006",
	"01/02/2006",
	"20060102",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006/01/02 15:04:05",
}

// DataConverter 数据转换器
type DataConverter struct{}

// NewDataConverter 创建新的数据转换器实例
func NewDataConverter() *DataConverter {
	return &DataConverter{}
}

// 类型转换功能

// ToFloat 转换为有限浮点数，NaN 与 Inf 视为失败
func (dc *DataConverter) ToFloat(value interface{}) (float64, error) {
	if value == nil {
		return 0, fmt.Errorf("nil值无法转换为浮点数")
	}
	if s, ok := value.(string); ok {
		value = strings.TrimSpace(s)
		if value == "" {
			return 0, fmt.Errorf("空字符串无法转换为浮点数")
		}
	}

	f, err := cast.ToFloat64E(value)
	if err != nil {
		return 0, fmt.Errorf("无法将 %v 转换为浮点数: %w", value, err)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("非有限数值: %v", value)
	}
	return f, nil
}

// IsNumeric 判断字符串能否解析为数值
func (dc *DataConverter) IsNumeric(s string) bool {
	_, err := dc.ToFloat(s)
	return err == nil
}

// FormatNumber 格式化数字，precision < 0 时使用最短往返格式
func (dc *DataConverter) FormatNumber(value float64, precision int) string {
	return strconv.FormatFloat(value, 'f', precision, 64)
}

// 编码转换功能

// DecodeReader 将指定编码的输入流转换为 UTF-8
func (dc *DataConverter) DecodeReader(r io.Reader, encoding string) (io.Reader, error) {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "", "utf-8", "utf8":
		return r, nil
	case "gbk", "gb2312":
		return transform.NewReader(r, simplifiedchinese.GBK.NewDecoder()), nil
	case "gb18030":
		return transform.NewReader(r, simplifiedchinese.GB18030.NewDecoder()), nil
	default:
		return nil, fmt.Errorf("不支持的编码: %s", encoding)
	}
}

// NormalizeString 标准化字符串
func (dc *DataConverter) NormalizeString(str string) string {
	// 去除首尾空格并将多个连续空格替换为单个空格
	return strings.Join(strings.Fields(str), " ")
}

// 时间处理功能

// ParseDate 按格式顺序解析日期字符串，首个成功的格式生效
func (dc *DataConverter) ParseDate(dateStr string, layouts []string) (time.Time, string, error) {
	dateStr = strings.TrimSpace(dateStr)
	if dateStr == "" {
		return time.Time{}, "", fmt.Errorf("日期字符串为空")
	}
	if len(layouts) == 0 {
		layouts = DefaultDateLayouts
	}

	for _, layout := range layouts {
		if t, err := time.Parse(layout, dateStr); err == nil {
			return t, layout, nil
		}
	}

	return time.Time{}, "", fmt.Errorf("无法解析日期字符串: %s", dateStr)
}

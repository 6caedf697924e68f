/*
 * @module service/cleansing/errors
 * @description 清洗流水线错误类型定义，每类错误对应一种失败原因
 * @architecture 分层架构 - 数据清洗层
 * @documentReference ai_docs/data_cleansing_pipeline.md
 * @stateFlow 阶段失败 -> 返回类型化错误 -> 服务层记录错误类别
 * @rules 错误不重试，整次运行失败且不产生导出文件
 * @dependencies errors, fmt
 * @refs service/cleaning_service.go
 */

package cleansing

import (
	"errors"
	"fmt"
)

// 错误类别，写入运行记录
const (
	KindConfiguration    = "ConfigurationError"
	KindUnparseableDate  = "UnparseableDateError"
	KindDegenerateColumn = "DegenerateColumnError"
	KindMalformedRow     = "MalformedRowError"
	KindInternal         = "InternalError"
)

// ConfigurationError 配置错误，例如对非数值列使用均值填充
type ConfigurationError struct {
	Column string
	Reason string
}

func (e *ConfigurationError) Error() string {
	if e.Column == "" {
		return fmt.Sprintf("配置错误: %s", e.Reason)
	}
	return fmt.Sprintf("配置错误: 列 %s %s", e.Column, e.Reason)
}

// UnparseableDateError 日期无法按任何格式解析
type UnparseableDateError struct {
	Row    int
	Column string
	Value  string
}

func (e *UnparseableDateError) Error() string {
	return fmt.Sprintf("无法解析日期: 第 %d 行 列 %s 值 %q", e.Row, e.Column, e.Value)
}

// DegenerateColumnError 统计量退化，例如标准差为0
type DegenerateColumnError struct {
	Column string
	Reason string
}

func (e *DegenerateColumnError) Error() string {
	return fmt.Sprintf("列 %s 统计量退化: %s", e.Column, e.Reason)
}

// MalformedRowError 输入行格式错误
type MalformedRowError struct {
	Line int
	Err  error
}

func (e *MalformedRowError) Error() string {
	return fmt.Sprintf("第 %d 行格式错误: %v", e.Line, e.Err)
}

func (e *MalformedRowError) Unwrap() error { return e.Err }

// ErrorKind 返回错误类别，非清洗错误返回 InternalError
func ErrorKind(err error) string {
	if err == nil {
		return ""
	}

	var cfgErr *ConfigurationError
	var dateErr *UnparseableDateError
	var degErr *DegenerateColumnError
	var rowErr *MalformedRowError

	switch {
	case errors.As(err, &cfgErr):
		return KindConfiguration
	case errors.As(err, &dateErr):
		return KindUnparseableDate
	case errors.As(err, &degErr):
		return KindDegenerateColumn
	case errors.As(err, &rowErr):
		return KindMalformedRow
	default:
		return KindInternal
	}
}

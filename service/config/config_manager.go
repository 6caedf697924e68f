/*
 * @module service/config/config_manager
 * @description 清洗流水线配置管理，负责配置文件加载、默认值填充和配置校验
 * @architecture 分层架构 - 业务服务层
 * @documentReference ai_docs/data_cleansing_pipeline.md
 * @stateFlow 读取文件 -> 按扩展名解析(YAML/JSON) -> 填充默认值 -> 校验
 * @rules 未知字段值在运行前拒绝，避免流水线执行到一半才失败
 * @dependencies gopkg.in/yaml.v3, datahub-cleanser/service/cleansing
 * @refs service/models/cleansing_config.go
 */

package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"datahub-cleanser/service/cleansing"
	"datahub-cleanser/service/models"
	"datahub-cleanser/service/utils"

	"gopkg.in/yaml.v3"
)

// DefaultPipelineConfig 返回全部使用默认值的流水线配置
func DefaultPipelineConfig() *models.PipelineConfig {
	cfg := &models.PipelineConfig{}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults 为未设置的字段填充默认值
func ApplyDefaults(cfg *models.PipelineConfig) {
	if cfg.Destination == "" {
		cfg.Destination = models.DefaultDestination
	}
	if cfg.Delimiter == "" {
		cfg.Delimiter = ","
	}
	if cfg.Encoding == "" {
		cfg.Encoding = "utf-8"
	}
	if len(cfg.MissingTokens) == 0 {
		cfg.MissingTokens = append([]string(nil), cleansing.DefaultMissingTokens...)
	}
	if len(cfg.DateFormats) == 0 {
		cfg.DateFormats = append([]string(nil), utils.DefaultDateLayouts...)
	}
	if cfg.UnparseableDates == "" {
		cfg.UnparseableDates = models.UnparseableDateDrop
	}
	if cfg.TextCase == "" {
		cfg.TextCase = models.CaseTitle
	}
	if cfg.IQRMultiplier == 0 {
		cfg.IQRMultiplier = cleansing.DefaultIQRMultiplier
	}
	if cfg.DefaultOutlier == "" {
		cfg.DefaultOutlier = models.OutlierPolicyCap
	}
	if cfg.NormalizeMethod == "" {
		cfg.NormalizeMethod = models.NormalizeMinMax
	}
	if cfg.Columns == nil {
		cfg.Columns = make(map[string]models.ColumnPolicy)
	}
}

// LoadPipelineConfig 从文件加载流水线配置，路径为空时返回默认配置
func LoadPipelineConfig(path string) (*models.PipelineConfig, error) {
	if path == "" {
		return DefaultPipelineConfig(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	cfg, err := ParsePipelineConfig(data, filepath.Ext(path))
	if err != nil {
		return nil, fmt.Errorf("解析配置文件 %s 失败: %w", path, err)
	}
	return cfg, nil
}

// ParsePipelineConfig 按格式解析配置内容，ext 为 .yaml/.yml/.json
func ParsePipelineConfig(data []byte, ext string) (*models.PipelineConfig, error) {
	cfg := &models.PipelineConfig{}

	var err error
	switch strings.ToLower(ext) {
	case ".yaml", ".yml", "":
		err = yaml.Unmarshal(data, cfg)
	case ".json":
		err = json.Unmarshal(data, cfg)
	default:
		return nil, fmt.Errorf("不支持的配置文件格式: %s", ext)
	}
	if err != nil {
		return nil, err
	}

	ApplyDefaults(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func oneOf(value string, allowed ...string) bool {
	for _, a := range allowed {
		if value == a {
			return true
		}
	}
	return false
}

// Validate 校验配置，返回 ConfigurationError
func Validate(cfg *models.PipelineConfig) error {
	invalid := func(column, format string, args ...interface{}) error {
		return &cleansing.ConfigurationError{Column: column, Reason: fmt.Sprintf(format, args...)}
	}

	if cfg.Delimiter != "" && utf8.RuneCountInString(cfg.Delimiter) != 1 {
		return invalid("", "分隔符必须是单个字符: %q", cfg.Delimiter)
	}
	if cfg.Encoding != "" && !oneOf(strings.ToLower(cfg.Encoding), "utf-8", "utf8", "gbk", "gb2312", "gb18030") {
		return invalid("", "不支持的编码: %s", cfg.Encoding)
	}
	if cfg.UnparseableDates != "" && !oneOf(cfg.UnparseableDates,
		models.UnparseableDateStrict, models.UnparseableDateDrop, models.UnparseableDateNull) {
		return invalid("", "不支持的日期解析失败处理方式: %s", cfg.UnparseableDates)
	}
	if cfg.TextCase != "" && !oneOf(cfg.TextCase, models.CaseTitle, models.CaseLower, models.CaseUpper, models.CaseNone) {
		return invalid("", "不支持的大小写模式: %s", cfg.TextCase)
	}
	if cfg.FloatPrecision != nil && *cfg.FloatPrecision < 0 {
		return invalid("", "float_precision 不能为负数: %d", *cfg.FloatPrecision)
	}
	if cfg.IQRMultiplier < 0 {
		return invalid("", "iqr_multiplier 不能为负数: %v", cfg.IQRMultiplier)
	}
	if cfg.DefaultOutlier != "" && !oneOf(cfg.DefaultOutlier,
		models.OutlierPolicyDrop, models.OutlierPolicyCap, models.OutlierPolicyNone) {
		return invalid("", "不支持的异常值策略: %s", cfg.DefaultOutlier)
	}
	if cfg.NormalizeMethod != "" && !oneOf(cfg.NormalizeMethod, models.NormalizeMinMax, models.NormalizeZScore) {
		return invalid("", "不支持的归一化方式: %s", cfg.NormalizeMethod)
	}

	scripts := cleansing.NewScriptExecutor()
	for name, p := range cfg.Columns {
		if p.Type != "" && !p.Type.IsValid() {
			return invalid(name, "不支持的列类型: %s", p.Type)
		}
		if p.Missing != "" && !oneOf(p.Missing, models.MissingPolicyDrop, models.MissingPolicyMean,
			models.MissingPolicyMedian, models.MissingPolicyMode, models.MissingPolicyConstant) {
			return invalid(name, "不支持的缺失值策略: %s", p.Missing)
		}
		if oneOf(p.Missing, models.MissingPolicyMean, models.MissingPolicyMedian) &&
			p.Type != "" && p.Type != models.ColumnTypeNumeric {
			return invalid(name, "策略 %s 只能用于数值列，当前类型为 %s", p.Missing, p.Type)
		}
		if p.Missing == models.MissingPolicyConstant && p.FillValue == nil {
			return invalid(name, "constant 策略缺少 fill_value")
		}
		if p.Case != "" && !oneOf(p.Case, models.CaseTitle, models.CaseLower, models.CaseUpper, models.CaseNone) {
			return invalid(name, "不支持的大小写模式: %s", p.Case)
		}
		if p.Outlier != "" && !oneOf(p.Outlier, models.OutlierPolicyDrop, models.OutlierPolicyCap, models.OutlierPolicyNone) {
			return invalid(name, "不支持的异常值策略: %s", p.Outlier)
		}
		if p.Normalize != "" && !oneOf(p.Normalize, models.NormalizeMinMax, models.NormalizeZScore) {
			return invalid(name, "不支持的归一化方式: %s", p.Normalize)
		}
		if p.Script != "" {
			if err := scripts.Validate(p.Script); err != nil {
				return invalid(name, "脚本无效: %v", err)
			}
		}
	}
	return nil
}

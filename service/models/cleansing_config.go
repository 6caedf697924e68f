/*
 * @module service/models/cleansing_config
 * @description 清洗流水线配置模型，包含全局选项与按列策略
 * @architecture 数据模型层
 * @documentReference ai_docs/data_cleansing_pipeline.md
 * @stateFlow YAML/JSON 配置 -> 默认值填充 -> 校验 -> 流水线构建
 * @rules 按列策略优先于全局默认，未配置列按类型套用默认策略
 * @dependencies 无
 * @refs service/config, service/cleansing
 */

package models

// DefaultDestination 默认导出路径
const DefaultDestination = "data/clean/clean_data.csv"

// 缺失值策略
const (
	MissingPolicyDrop     = "drop"
	MissingPolicyMean     = "mean"
	MissingPolicyMedian   = "median"
	MissingPolicyMode     = "mode"
	MissingPolicyConstant = "constant"
)

// 异常值策略
const (
	OutlierPolicyDrop = "drop"
	OutlierPolicyCap  = "cap"
	OutlierPolicyNone = "none"
)

// 归一化方式
const (
	NormalizeMinMax = "minmax"
	NormalizeZScore = "zscore"
)

// 文本大小写模式
const (
	CaseTitle = "title"
	CaseLower = "lower"
	CaseUpper = "upper"
	CaseNone  = "none"
)

// 无法解析日期的处理方式
const (
	UnparseableDateStrict = "strict"
	UnparseableDateDrop   = "drop"
	UnparseableDateNull   = "null"
)

// ColumnPolicy 单列清洗策略
type ColumnPolicy struct {
	Type      ColumnType        `yaml:"type,omitempty" json:"type,omitempty"`
	Missing   string            `yaml:"missing,omitempty" json:"missing,omitempty"`       // drop, mean, median, mode, constant
	FillValue *string           `yaml:"fill_value,omitempty" json:"fill_value,omitempty"` // constant 策略的填充值
	Case      string            `yaml:"case,omitempty" json:"case,omitempty"`
	Synonyms  map[string]string `yaml:"synonyms,omitempty" json:"synonyms,omitempty"` // 同义词 -> 规范标签
	Script    string            `yaml:"script,omitempty" json:"script,omitempty"`
	Outlier   string            `yaml:"outlier,omitempty" json:"outlier,omitempty"`     // drop, cap, none
	Normalize string            `yaml:"normalize,omitempty" json:"normalize,omitempty"` // minmax, zscore
}

// PipelineConfig 清洗流水线配置
type PipelineConfig struct {
	Source            string                  `yaml:"source" json:"source"`
	Destination       string                  `yaml:"destination" json:"destination"`
	Delimiter         string                  `yaml:"delimiter" json:"delimiter"`
	Encoding          string                  `yaml:"encoding" json:"encoding"`
	MissingTokens     []string                `yaml:"missing_tokens" json:"missing_tokens"`
	DateFormats       []string                `yaml:"date_formats" json:"date_formats"`
	UnparseableDates  string                  `yaml:"unparseable_dates" json:"unparseable_dates"`
	DetectDateColumns *bool                   `yaml:"detect_date_columns" json:"detect_date_columns"`
	TextCase          string                  `yaml:"text_case" json:"text_case"`
	IQRMultiplier     float64                 `yaml:"iqr_multiplier" json:"iqr_multiplier"`
	DefaultOutlier    string                  `yaml:"default_outlier" json:"default_outlier"`
	Normalize         bool                    `yaml:"normalize" json:"normalize"`
	NormalizeMethod   string                  `yaml:"normalize_method" json:"normalize_method"`
	FloatPrecision    *int                    `yaml:"float_precision,omitempty" json:"float_precision,omitempty"` // 导出数值小数位，未设置时最短往返
	Columns           map[string]ColumnPolicy `yaml:"columns" json:"columns"`
}

// Policy 返回列策略，未配置时返回零值
func (c *PipelineConfig) Policy(column string) ColumnPolicy {
	if c == nil || c.Columns == nil {
		return ColumnPolicy{}
	}
	return c.Columns[column]
}

// DateDetectionEnabled 是否按列名自动识别日期列
func (c *PipelineConfig) DateDetectionEnabled() bool {
	return c.DetectDateColumns == nil || *c.DetectDateColumns
}

/*
 * @module service/cleansing/standardizer
 * @description 字段标准化阶段，对分类列去空白、统一大小写、同义词映射为规范标签
 * @architecture 分层架构 - 数据清洗层
 * @documentReference ai_docs/data_cleansing_pipeline.md
 * @stateFlow 去空白 -> 同义词匹配(大小写折叠) -> 大小写转换 -> 自定义脚本
 * @rules 结果确定且幂等，未匹配的值只做空白与大小写处理，不做模糊匹配
 * @dependencies golang.org/x/text/cases, golang.org/x/text/language
 * @refs script_executor.go
 */

package cleansing

import (
	"context"
	"fmt"

	"datahub-cleanser/service/models"
	"datahub-cleanser/service/utils"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

type standardizeRule struct {
	caser    cases.Caser
	hasCaser bool
	synonyms map[string]string // 折叠后的键 -> 规范标签
	script   string
}

// FieldStandardizer 字段标准化阶段
type FieldStandardizer struct {
	cfg       *models.PipelineConfig
	converter *utils.DataConverter
	folder    cases.Caser
	scripts   *ScriptExecutor
}

// NewFieldStandardizer 创建字段标准化阶段
func NewFieldStandardizer(cfg *models.PipelineConfig, scripts *ScriptExecutor) *FieldStandardizer {
	return &FieldStandardizer{
		cfg:       cfg,
		converter: utils.NewDataConverter(),
		folder:    cases.Fold(),
		scripts:   scripts,
	}
}

func (s *FieldStandardizer) Name() string { return "standardize_fields" }

func (s *FieldStandardizer) Apply(ctx context.Context, table *models.Table, stat *StageStat) (*models.Table, error) {
	for _, idx := range columnsOfType(table, models.ColumnTypeCategorical) {
		col := table.Columns[idx]
		rule, err := s.ruleFor(col.Name)
		if err != nil {
			return nil, err
		}

		for _, row := range table.Rows {
			v := row[idx]
			if v.Kind != models.KindString {
				continue
			}
			out, err := s.standardize(ctx, v.Str, rule)
			if err != nil {
				return nil, fmt.Errorf("列 %s 值 %q 标准化失败: %w", col.Name, v.Str, err)
			}
			if out != v.Str {
				row[idx] = models.StringValue(out)
				stat.CellsChanged++
			}
		}
	}
	return table, nil
}

// Standardize 对单个值执行标准化，供外部复用
func (s *FieldStandardizer) Standardize(ctx context.Context, column, value string) (string, error) {
	rule, err := s.ruleFor(column)
	if err != nil {
		return "", err
	}
	return s.standardize(ctx, value, rule)
}

func (s *FieldStandardizer) standardize(ctx context.Context, value string, rule standardizeRule) (string, error) {
	v := s.converter.NormalizeString(value)

	if canonical, ok := rule.synonyms[s.folder.String(v)]; ok {
		v = canonical
	} else if rule.hasCaser {
		v = rule.caser.String(v)
	}

	if rule.script != "" && s.scripts != nil {
		return s.scripts.Execute(ctx, rule.script, v)
	}
	return v, nil
}

func (s *FieldStandardizer) ruleFor(column string) (standardizeRule, error) {
	p := s.cfg.Policy(column)

	caseMode := p.Case
	if caseMode == "" {
		caseMode = s.cfg.TextCase
	}
	if caseMode == "" {
		caseMode = models.CaseTitle
	}

	rule := standardizeRule{script: p.Script}
	switch caseMode {
	case models.CaseTitle:
		rule.caser, rule.hasCaser = cases.Title(language.Und), true
	case models.CaseLower:
		rule.caser, rule.hasCaser = cases.Lower(language.Und), true
	case models.CaseUpper:
		rule.caser, rule.hasCaser = cases.Upper(language.Und), true
	case models.CaseNone:
	default:
		return rule, &ConfigurationError{Column: column, Reason: fmt.Sprintf("不支持的大小写模式: %s", caseMode)}
	}

	if len(p.Synonyms) > 0 {
		rule.synonyms = make(map[string]string, len(p.Synonyms)*2)
		// 规范标签映射到自身，保证重复执行结果不变
		for _, canonical := range p.Synonyms {
			rule.synonyms[s.folder.String(s.converter.NormalizeString(canonical))] = canonical
		}
		for alias, canonical := range p.Synonyms {
			rule.synonyms[s.folder.String(s.converter.NormalizeString(alias))] = canonical
		}
	}
	return rule, nil
}

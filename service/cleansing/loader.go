/*
 * @module service/cleansing/loader
 * @description 分隔文本加载器，读取表头与数据行并推断列类型
 * @architecture 分层架构 - 数据清洗层
 * @documentReference ai_docs/data_cleansing_pipeline.md
 * @stateFlow 打开文件 -> 编码转换 -> 逐行解析 -> 缺失标记识别 -> 列类型推断
 * @rules 文件句柄只在加载期间持有；列数不一致的行视为格式错误
 * @dependencies encoding/csv, datahub-cleanser/service/utils
 * @refs exporter.go
 */

package cleansing

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode"
	"unicode/utf8"

	"datahub-cleanser/service/models"
	"datahub-cleanser/service/utils"
)

// DefaultMissingTokens 默认视为缺失的单元格内容
var DefaultMissingTokens = []string{"", "NA", "N/A", "NaN", "nan", "null", "NULL", "None"}

// Loader 表加载器
type Loader struct {
	cfg       *models.PipelineConfig
	converter *utils.DataConverter
	missing   map[string]struct{}
}

// NewLoader 创建表加载器
func NewLoader(cfg *models.PipelineConfig) *Loader {
	if cfg == nil {
		cfg = &models.PipelineConfig{}
	}
	tokens := cfg.MissingTokens
	if len(tokens) == 0 {
		tokens = DefaultMissingTokens
	}
	missing := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		missing[strings.TrimSpace(t)] = struct{}{}
	}
	return &Loader{cfg: cfg, converter: utils.NewDataConverter(), missing: missing}
}

// Load 从文件加载表
func (l *Loader) Load(ctx context.Context, path string) (*models.Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("打开输入文件失败: %w", err)
	}
	defer file.Close()

	return l.Read(file)
}

// Read 从输入流读取表
func (l *Loader) Read(r io.Reader) (*models.Table, error) {
	decoded, err := l.converter.DecodeReader(r, l.cfg.Encoding)
	if err != nil {
		return nil, &ConfigurationError{Reason: err.Error()}
	}

	reader := csv.NewReader(decoded)
	if l.cfg.Delimiter != "" {
		comma, size := utf8.DecodeRuneInString(l.cfg.Delimiter)
		if size != len(l.cfg.Delimiter) {
			return nil, &ConfigurationError{Reason: fmt.Sprintf("分隔符必须是单个字符: %q", l.cfg.Delimiter)}
		}
		reader.Comma = comma
	}

	header, err := reader.Read()
	if err == io.EOF {
		return nil, &MalformedRowError{Line: 1, Err: errors.New("缺少表头")}
	}
	if err != nil {
		return nil, &MalformedRowError{Line: 1, Err: err}
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}
	if err := checkHeader(header); err != nil {
		return nil, err
	}

	var raw [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			line := len(raw) + 2
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				line = parseErr.StartLine
			}
			return nil, &MalformedRowError{Line: line, Err: err}
		}
		raw = append(raw, record)
	}

	columns := make([]models.Column, len(header))
	for i, name := range header {
		columns[i] = models.Column{Name: name, Type: l.inferType(name, raw, i)}
	}

	table := models.NewTable(columns)
	table.Rows = make([]models.Row, 0, len(raw))
	for _, record := range raw {
		row := make(models.Row, len(columns))
		for i, cell := range record {
			row[i] = l.parseCell(cell, columns[i].Type)
		}
		table.Rows = append(table.Rows, row)
	}
	return table, nil
}

func checkHeader(header []string) error {
	seen := make(map[string]bool, len(header))
	for _, name := range header {
		if name == "" {
			return &MalformedRowError{Line: 1, Err: errors.New("表头包含空列名")}
		}
		if seen[name] {
			return &MalformedRowError{Line: 1, Err: fmt.Errorf("表头列名重复: %s", name)}
		}
		seen[name] = true
	}
	return nil
}

func (l *Loader) isMissing(cell string) bool {
	_, ok := l.missing[strings.TrimSpace(cell)]
	return ok
}

// inferType 声明类型优先；全部可解析为数值视为数值列；
// 列名含 date 单词且至少半数非缺失值可解析为日期时视为日期列，其余为分类列
func (l *Loader) inferType(name string, raw [][]string, col int) models.ColumnType {
	if t := l.cfg.Policy(name).Type; t != "" {
		return t
	}

	observed, numeric, dates := 0, 0, 0
	dateName := l.cfg.DateDetectionEnabled() && isDateColumnName(name)
	for _, record := range raw {
		cell := record[col]
		if l.isMissing(cell) {
			continue
		}
		observed++
		if l.converter.IsNumeric(cell) {
			numeric++
			continue
		}
		if dateName {
			if _, _, err := l.converter.ParseDate(cell, l.cfg.DateFormats); err == nil {
				dates++
			}
		}
	}

	switch {
	case observed == 0:
		return models.ColumnTypeCategorical
	case numeric == observed:
		return models.ColumnTypeNumeric
	case dateName && dates*2 >= observed:
		return models.ColumnTypeDate
	default:
		return models.ColumnTypeCategorical
	}
}

// isDateColumnName 列名按下划线、连字符、空格及驼峰拆分后含 date 单词
func isDateColumnName(name string) bool {
	for _, word := range splitWords(name) {
		if word == "date" {
			return true
		}
	}
	return false
}

func splitWords(name string) []string {
	var words []string
	var current []rune
	flush := func() {
		if len(current) > 0 {
			words = append(words, strings.ToLower(string(current)))
			current = current[:0]
		}
	}
	runes := []rune(name)
	for i, r := range runes {
		switch {
		case !unicode.IsLetter(r) && !unicode.IsDigit(r):
			flush()
			continue
		case unicode.IsUpper(r) && i > 0 && unicode.IsLower(runes[i-1]):
			flush()
		}
		current = append(current, r)
	}
	flush()
	return words
}

func (l *Loader) parseCell(cell string, t models.ColumnType) models.Value {
	if l.isMissing(cell) {
		return models.NullValue()
	}
	if t == models.ColumnTypeNumeric {
		if f, err := l.converter.ToFloat(cell); err == nil {
			return models.NumberValue(f)
		}
		// 声明为数值但无法解析的值按缺失处理
		return models.NullValue()
	}
	return models.StringValue(cell)
}

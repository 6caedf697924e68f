/*
 * @module service/cleansing/missing_resolver_test
 * @description 缺失值处理阶段单元测试
 * @architecture 测试层 - 单元测试
 */

package cleansing

import (
	"context"
	"errors"
	"testing"

	"datahub-cleanser/service/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestDefaultMissingPolicy(t *testing.T) {
	assert.Equal(t, models.MissingPolicyMedian, DefaultMissingPolicy(models.ColumnTypeNumeric))
	assert.Equal(t, models.MissingPolicyMode, DefaultMissingPolicy(models.ColumnTypeCategorical))
	assert.Equal(t, models.MissingPolicyMode, DefaultMissingPolicy(models.ColumnTypeDate))
	assert.Equal(t, models.MissingPolicyDrop, DefaultMissingPolicy(models.ColumnTypeIdentifier))
}

func TestMissingValueResolver_Fill(t *testing.T) {
	s, n, null := models.StringValue, models.NumberValue, models.NullValue

	tests := []struct {
		name    string
		colType models.ColumnType
		policy  models.ColumnPolicy
		values  []models.Value
		want    models.Value
	}{
		{
			name:    "数值列默认中位数",
			colType: models.ColumnTypeNumeric,
			values:  []models.Value{n(1), null(), n(3), n(10)},
			want:    n(3),
		},
		{
			name:    "数值列偶数个值的中位数取中间两数均值",
			colType: models.ColumnTypeNumeric,
			values:  []models.Value{n(1), n(2), null(), n(3), n(4)},
			want:    n(2.5),
		},
		{
			name:    "数值列均值",
			colType: models.ColumnTypeNumeric,
			policy:  models.ColumnPolicy{Missing: models.MissingPolicyMean},
			values:  []models.Value{n(1), null(), n(2), n(6)},
			want:    n(3),
		},
		{
			name:    "数值列众数并列取最小值",
			colType: models.ColumnTypeNumeric,
			policy:  models.ColumnPolicy{Missing: models.MissingPolicyMode},
			values:  []models.Value{n(7), n(5), null(), n(7), n(5)},
			want:    n(5),
		},
		{
			name:    "分类列默认众数",
			colType: models.ColumnTypeCategorical,
			values:  []models.Value{s("a"), s("b"), s("b"), null()},
			want:    s("b"),
		},
		{
			name:    "分类列众数并列取字典序最小",
			colType: models.ColumnTypeCategorical,
			values:  []models.Value{s("b"), s("a"), null()},
			want:    s("a"),
		},
		{
			name:    "分类列全部缺失回退为 Unknown",
			colType: models.ColumnTypeCategorical,
			values:  []models.Value{null(), null()},
			want:    s(UnknownCategory),
		},
		{
			name:    "常量填充",
			colType: models.ColumnTypeCategorical,
			policy:  models.ColumnPolicy{Missing: models.MissingPolicyConstant, FillValue: strPtr("N/A")},
			values:  []models.Value{s("x"), null()},
			want:    s("N/A"),
		},
		{
			name:    "数值列常量填充",
			colType: models.ColumnTypeNumeric,
			policy:  models.ColumnPolicy{Missing: models.MissingPolicyConstant, FillValue: strPtr("0")},
			values:  []models.Value{n(9), null()},
			want:    n(0),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table := models.NewTable([]models.Column{{Name: "c", Type: tt.colType}})
			nulls := 0
			for _, v := range tt.values {
				table.Rows = append(table.Rows, models.Row{v})
				if v.IsNull() {
					nulls++
				}
			}
			cfg := &models.PipelineConfig{Columns: map[string]models.ColumnPolicy{"c": tt.policy}}

			stat := &StageStat{}
			out, err := NewMissingValueResolver(cfg).Apply(context.Background(), table, stat)
			require.NoError(t, err)

			require.Equal(t, len(tt.values), out.Len(), "填充不应删除行")
			for i, v := range tt.values {
				if v.IsNull() {
					assert.Equal(t, tt.want, out.Rows[i][0])
				} else {
					assert.Equal(t, v, out.Rows[i][0], "非缺失值不应改变")
				}
			}
			assert.Equal(t, nulls, stat.CellsChanged)
		})
	}
}

func TestMissingValueResolver_DropBeforeStatistics(t *testing.T) {
	n, null := models.NumberValue, models.NullValue
	columns := []models.Column{
		{Name: "id", Type: models.ColumnTypeNumeric},
		{Name: "x", Type: models.ColumnTypeNumeric},
	}
	table := newTable(columns,
		models.Row{null(), n(100)},
		models.Row{n(1), n(1)},
		models.Row{n(2), null()},
		models.Row{n(3), n(3)},
	)
	cfg := &models.PipelineConfig{Columns: map[string]models.ColumnPolicy{
		"id": {Missing: models.MissingPolicyDrop},
	}}

	out, err := NewMissingValueResolver(cfg).Apply(context.Background(), table, &StageStat{})
	require.NoError(t, err)

	require.Equal(t, 3, out.Len())
	assert.Equal(t, n(1), out.Get(0, "id"))
	assert.Equal(t, n(2), out.Get(1, "x"), "中位数只基于删除后保留的行计算")
}

func TestMissingValueResolver_IdentifierDropsRows(t *testing.T) {
	columns := []models.Column{
		{Name: "order_no", Type: models.ColumnTypeIdentifier},
		{Name: "city", Type: models.ColumnTypeCategorical},
	}
	table := newTable(columns,
		models.Row{models.StringValue("A-1"), models.StringValue("Boston")},
		models.Row{models.NullValue(), models.StringValue("Austin")},
	)

	out, err := NewMissingValueResolver(&models.PipelineConfig{}).Apply(context.Background(), table, &StageStat{})
	require.NoError(t, err)

	require.Equal(t, 1, out.Len())
	assert.Equal(t, models.StringValue("A-1"), out.Get(0, "order_no"))
}

func TestMissingValueResolver_NoNullsRemain(t *testing.T) {
	table := readTable(t, &models.PipelineConfig{},
		"name,score,joined_date\nalice,1,2021-01-05\n,NA,\nbob,,2021-01-07\n")

	out, err := NewMissingValueResolver(&models.PipelineConfig{}).Apply(context.Background(), table, &StageStat{})
	require.NoError(t, err)

	for col, count := range Validate(out) {
		assert.Zero(t, count, "列 %s 仍有缺失值", col)
	}
}

func TestMissingValueResolver_EmptyDateColumn(t *testing.T) {
	cfg := &models.PipelineConfig{
		Columns: map[string]models.ColumnPolicy{"shipped_date": {Type: models.ColumnTypeDate}},
	}
	text := "name,tag,shipped_date\nalice,,NA\nbob,,NA\n"

	table := readTable(t, cfg, text)
	out, err := NewMissingValueResolver(cfg).Apply(context.Background(), table, &StageStat{})
	require.NoError(t, err)

	require.Equal(t, 2, out.Len())
	assert.Equal(t, models.StringValue(UnknownCategory), out.Get(0, "tag"))
	assert.True(t, out.Get(0, "shipped_date").IsNull(), "日期列不填充 Unknown")

	// 日期阶段跳过缺失值，行不会被删除
	p, err := BuildPipeline(cfg)
	require.NoError(t, err)
	cleaned, result, err := p.Run(context.Background(), readTable(t, cfg, text))
	require.NoError(t, err)
	assert.Equal(t, 2, cleaned.Len())
	assert.Equal(t, 2, result.NullCounts["shipped_date"])
}

func TestMissingValueResolver_Errors(t *testing.T) {
	tests := []struct {
		name     string
		colType  models.ColumnType
		policy   models.ColumnPolicy
		values   []models.Value
		wantKind string
	}{
		{
			name:     "分类列使用均值",
			colType:  models.ColumnTypeCategorical,
			policy:   models.ColumnPolicy{Missing: models.MissingPolicyMean},
			values:   []models.Value{models.StringValue("a"), models.NullValue()},
			wantKind: KindConfiguration,
		},
		{
			name:     "日期列使用中位数",
			colType:  models.ColumnTypeDate,
			policy:   models.ColumnPolicy{Missing: models.MissingPolicyMedian},
			values:   []models.Value{models.StringValue("2021-01-05")},
			wantKind: KindConfiguration,
		},
		{
			name:     "常量策略缺少填充值",
			colType:  models.ColumnTypeCategorical,
			policy:   models.ColumnPolicy{Missing: models.MissingPolicyConstant},
			values:   []models.Value{models.NullValue()},
			wantKind: KindConfiguration,
		},
		{
			name:     "数值列常量不是数值",
			colType:  models.ColumnTypeNumeric,
			policy:   models.ColumnPolicy{Missing: models.MissingPolicyConstant, FillValue: strPtr("abc")},
			values:   []models.Value{models.NullValue()},
			wantKind: KindConfiguration,
		},
		{
			name:     "未知策略",
			colType:  models.ColumnTypeNumeric,
			policy:   models.ColumnPolicy{Missing: "interpolate"},
			values:   []models.Value{models.NumberValue(1)},
			wantKind: KindConfiguration,
		},
		{
			name:     "全部缺失的数值列求均值",
			colType:  models.ColumnTypeNumeric,
			policy:   models.ColumnPolicy{Missing: models.MissingPolicyMean},
			values:   []models.Value{models.NullValue(), models.NullValue()},
			wantKind: KindDegenerateColumn,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table := models.NewTable([]models.Column{{Name: "c", Type: tt.colType}})
			for _, v := range tt.values {
				table.Rows = append(table.Rows, models.Row{v})
			}
			cfg := &models.PipelineConfig{Columns: map[string]models.ColumnPolicy{"c": tt.policy}}

			_, err := NewMissingValueResolver(cfg).Apply(context.Background(), table, &StageStat{})
			require.Error(t, err)
			assert.Equal(t, tt.wantKind, ErrorKind(err))
		})
	}
}

func TestMissingValueResolver_ConfigurationErrorDetail(t *testing.T) {
	table := newTable([]models.Column{{Name: "city", Type: models.ColumnTypeCategorical}},
		models.Row{models.NullValue()})
	cfg := &models.PipelineConfig{Columns: map[string]models.ColumnPolicy{
		"city": {Missing: models.MissingPolicyMean},
	}}

	_, err := NewMissingValueResolver(cfg).Apply(context.Background(), table, &StageStat{})

	var cfgErr *ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "city", cfgErr.Column)
}

/*
 * @module service/cleansing/standardizer_test
 * @description 字段标准化与脚本执行器单元测试
 * @architecture 测试层 - 单元测试
 */

package cleansing

import (
	"context"
	"testing"
	"time"

	"datahub-cleanser/service/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFieldStandardizer_Standardize(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name   string
		policy models.ColumnPolicy
		global string
		input  string
		want   string
	}{
		{name: "默认首字母大写并压缩空白", input: "  new   york ", want: "New York"},
		{name: "全大写转首字母大写", input: "NEW YORK", want: "New York"},
		{name: "全局小写", global: models.CaseLower, input: " Boston ", want: "boston"},
		{name: "列级大写优先于全局", global: models.CaseLower, policy: models.ColumnPolicy{Case: models.CaseUpper}, input: "tx", want: "TX"},
		{name: "不改变大小写", policy: models.ColumnPolicy{Case: models.CaseNone}, input: " mIxEd  Case ", want: "mIxEd Case"},
		{
			name:   "同义词折叠匹配",
			policy: models.ColumnPolicy{Synonyms: map[string]string{"NYC": "New York", "ny": "New York"}},
			input:  " nyc ",
			want:   "New York",
		},
		{
			name:   "规范标签保持不变",
			policy: models.ColumnPolicy{Case: models.CaseLower, Synonyms: map[string]string{"NYC": "New York"}},
			input:  "new york",
			want:   "New York",
		},
		{
			name:   "未匹配同义词只做大小写处理",
			policy: models.ColumnPolicy{Synonyms: map[string]string{"NYC": "New York"}},
			input:  "newyork",
			want:   "Newyork",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &models.PipelineConfig{
				TextCase: tt.global,
				Columns:  map[string]models.ColumnPolicy{"city": tt.policy},
			}
			s := NewFieldStandardizer(cfg, NewScriptExecutor())

			got, err := s.Standardize(ctx, "city", tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)

			again, err := s.Standardize(ctx, "city", got)
			require.NoError(t, err)
			assert.Equal(t, got, again, "标准化应幂等")
		})
	}
}

func TestFieldStandardizer_Apply(t *testing.T) {
	columns := []models.Column{
		{Name: "city", Type: models.ColumnTypeCategorical},
		{Name: "score", Type: models.ColumnTypeNumeric},
		{Name: "code", Type: models.ColumnTypeIdentifier},
	}
	table := newTable(columns,
		models.Row{models.StringValue(" boston"), models.NumberValue(1), models.StringValue("ab-1")},
		models.Row{models.StringValue("Boston"), models.NumberValue(2), models.StringValue("cd-2")},
		models.Row{models.NullValue(), models.NumberValue(3), models.StringValue("ef-3")},
	)

	stat := &StageStat{}
	out, err := NewFieldStandardizer(&models.PipelineConfig{}, nil).Apply(context.Background(), table, stat)
	require.NoError(t, err)

	assert.Equal(t, models.StringValue("Boston"), out.Get(0, "city"))
	assert.Equal(t, models.StringValue("Boston"), out.Get(1, "city"))
	assert.True(t, out.Get(2, "city").IsNull(), "缺失值不参与标准化")
	assert.Equal(t, models.StringValue("ab-1"), out.Get(0, "code"), "标识列不做标准化")
	assert.Equal(t, 1, stat.CellsChanged)
}

func TestFieldStandardizer_InvalidCase(t *testing.T) {
	cfg := &models.PipelineConfig{TextCase: "camel"}
	table := newTable([]models.Column{{Name: "city", Type: models.ColumnTypeCategorical}},
		models.Row{models.StringValue("x")})

	_, err := NewFieldStandardizer(cfg, nil).Apply(context.Background(), table, &StageStat{})
	require.Error(t, err)
	assert.Equal(t, KindConfiguration, ErrorKind(err))
}

func TestFieldStandardizer_Script(t *testing.T) {
	cfg := &models.PipelineConfig{Columns: map[string]models.ColumnPolicy{
		"sku": {
			Case:   models.CaseUpper,
			Script: `return strings.ReplaceAll(value, "-", ""), nil`,
		},
	}}
	scripts := NewScriptExecutor()
	table := newTable([]models.Column{{Name: "sku", Type: models.ColumnTypeCategorical}},
		models.Row{models.StringValue(" ab-12 ")},
		models.Row{models.StringValue("cd-34")},
	)

	out, err := NewFieldStandardizer(cfg, scripts).Apply(context.Background(), table, &StageStat{})
	require.NoError(t, err)

	assert.Equal(t, models.StringValue("AB12"), out.Get(0, "sku"))
	assert.Equal(t, models.StringValue("CD34"), out.Get(1, "sku"))
	assert.Equal(t, 1, scripts.CacheSize(), "同一脚本只编译一次")
}

func TestScriptExecutor(t *testing.T) {
	ctx := context.Background()
	executor := NewScriptExecutor()

	t.Run("执行脚本", func(t *testing.T) {
		got, err := executor.Execute(ctx, `return strings.TrimPrefix(value, "#"), nil`, "#42")
		require.NoError(t, err)
		assert.Equal(t, "42", got)
	})

	t.Run("脚本返回错误", func(t *testing.T) {
		_, err := executor.Execute(ctx, `return "", fmt.Errorf("bad value %s", value)`, "x")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "bad value x")
	})

	t.Run("语法错误", func(t *testing.T) {
		assert.Error(t, executor.Validate(`return value +`))

		_, err := executor.Execute(ctx, `return value +`, "x")
		require.Error(t, err)
		assert.Equal(t, KindConfiguration, ErrorKind(err))
	})

	t.Run("死循环脚本超时中断", func(t *testing.T) {
		short := NewScriptExecutorWithTimeout(100 * time.Millisecond)

		start := time.Now()
		_, err := short.Execute(ctx, `for value != "" {
}
return value, nil`, "x")
		require.Error(t, err)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
		assert.Less(t, time.Since(start), 2*time.Second)

		// 中断后同一执行器仍可执行其他脚本
		got, err := short.Execute(ctx, `return strings.ToUpper(value), nil`, "ok")
		require.NoError(t, err)
		assert.Equal(t, "OK", got)
	})

	t.Run("上下文已取消", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		_, err := executor.Execute(cancelled, `return value, nil`, "x")
		assert.ErrorIs(t, err, context.Canceled)
	})
}

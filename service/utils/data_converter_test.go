/*
 * @module service/utils/data_converter_test
 * @description 数据转换工具函数单元测试
 * @architecture 测试层 - 纯函数测试，无外部依赖
 * @documentReference .specify/memory/test_plan.md
 * @stateFlow 输入参数 -> 函数调用 -> 输出验证
 * @rules 确保数据转换的正确性、类型安全和边界处理
 * @dependencies testing, testify
 * @refs data_converter.go
 */

package utils

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/simplifiedchinese"
)

func TestToFloat(t *testing.T) {
	dc := NewDataConverter()
	testCases := []struct {
		name     string
		input    interface{}
		expected float64
		wantErr  bool
	}{
		{name: "有效的浮点数", input: "123.45", expected: 123.45},
		{name: "整数字符串", input: "123", expected: 123},
		{name: "负浮点数", input: "-456.78", expected: -456.78},
		{name: "包含空格的数字", input: " 42 ", expected: 42},
		{name: "科学计数法", input: "1e3", expected: 1000},
		{name: "整型值", input: 7, expected: 7},
		{name: "无效字符串", input: "abc", wantErr: true},
		{name: "空字符串", input: "", wantErr: true},
		{name: "NaN", input: "NaN", wantErr: true},
		{name: "nil值", input: nil, wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			result, err := dc.ToFloat(tc.input)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tc.expected, result, 1e-9)
		})
	}
}

func TestFormatNumber(t *testing.T) {
	dc := NewDataConverter()
	assert.Equal(t, "29.5", dc.FormatNumber(29.5, -1))
	assert.Equal(t, "1000", dc.FormatNumber(1000, -1))
	assert.Equal(t, "3.14", dc.FormatNumber(3.14159, 2))
}

func TestNormalizeString(t *testing.T) {
	dc := NewDataConverter()
	assert.Equal(t, "new york", dc.NormalizeString("  new   york \t"))
	assert.Equal(t, "", dc.NormalizeString("   "))
}

func TestParseDate(t *testing.T) {
	dc := NewDataConverter()

	inputs := []string{"2021/01/05", "Jan 5, 2021", "2021-01-05", "January 5, 2021", "05-Jan-2021", "20210105"}
	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			parsed, layout, err := dc.ParseDate(in, nil)
			require.NoError(t, err)
			assert.NotEmpty(t, layout)
			assert.Equal(t, "2021-01-05", parsed.Format("2006-01-02"))
		})
	}

	t.Run("格式顺序决定结果", func(t *testing.T) {
		parsed, layout, err := dc.ParseDate("03/04/2021", []string{"02/01/2006", "01/02/2006"})
		require.NoError(t, err)
		assert.Equal(t, "02/01/2006", layout)
		assert.Equal(t, "2021-04-03", parsed.Format("2006-01-02"))
	})

	t.Run("无法解析", func(t *testing.T) {
		_, _, err := dc.ParseDate("not a date", nil)
		assert.Error(t, err)
	})

	t.Run("空字符串", func(t *testing.T) {
		_, _, err := dc.ParseDate("  ", nil)
		assert.Error(t, err)
	})
}

func TestDecodeReader(t *testing.T) {
	dc := NewDataConverter()

	gbk, err := simplifiedchinese.GBK.NewEncoder().String("城市,人口\n北京,2154\n")
	require.NoError(t, err)

	r, err := dc.DecodeReader(strings.NewReader(gbk), "GBK")
	require.NoError(t, err)
	decoded, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "城市,人口\n北京,2154\n", string(decoded))

	r, err = dc.DecodeReader(strings.NewReader("a,b"), "")
	require.NoError(t, err)
	plain, _ := io.ReadAll(r)
	assert.Equal(t, "a,b", string(plain))

	_, err = dc.DecodeReader(strings.NewReader(""), "latin-9")
	assert.Error(t, err)
}

package cleansing

import (
	"context"
	"errors"
	"testing"

	"datahub-cleanser/service/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dateTable(values ...models.Value) *models.Table {
	table := models.NewTable([]models.Column{
		{Name: "id", Type: models.ColumnTypeNumeric},
		{Name: "joined", Type: models.ColumnTypeDate},
	})
	for i, v := range values {
		table.Rows = append(table.Rows, models.Row{models.NumberValue(float64(i)), v})
	}
	return table
}

func TestDateNormalizer_MixedFormats(t *testing.T) {
	s := models.StringValue
	table := dateTable(s("2021/01/05"), s("Jan 5, 2021"), s("2021-01-05"), s(" 05-Jan-2021 "))

	stat := &StageStat{}
	out, err := NewDateNormalizer(&models.PipelineConfig{}).Apply(context.Background(), table, stat)
	require.NoError(t, err)

	require.Equal(t, 4, out.Len())
	for i := 0; i < out.Len(); i++ {
		v := out.Get(i, "joined")
		assert.Equal(t, models.KindDate, v.Kind)
		assert.Equal(t, "2021-01-05", v.String())
	}
	assert.Equal(t, 4, stat.CellsChanged)
}

func TestDateNormalizer_LayoutOrder(t *testing.T) {
	cfg := &models.PipelineConfig{DateFormats: []string{"02/01/2006", "01/02/2006"}}
	table := dateTable(models.StringValue("03/04/2021"), models.StringValue("12/31/2021"))

	out, err := NewDateNormalizer(cfg).Apply(context.Background(), table, &StageStat{})
	require.NoError(t, err)

	assert.Equal(t, "2021-04-03", out.Get(0, "joined").String(), "首个成功的格式生效")
	assert.Equal(t, "2021-12-31", out.Get(1, "joined").String())
}

func TestDateNormalizer_Unparseable(t *testing.T) {
	s := models.StringValue

	t.Run("默认删除整行", func(t *testing.T) {
		table := dateTable(s("2021-01-05"), s("not a date"), s("2021-01-07"))

		out, err := NewDateNormalizer(&models.PipelineConfig{}).Apply(context.Background(), table, &StageStat{})
		require.NoError(t, err)

		require.Equal(t, 2, out.Len())
		assert.Equal(t, models.NumberValue(0), out.Get(0, "id"))
		assert.Equal(t, models.NumberValue(2), out.Get(1, "id"))
	})

	t.Run("置为空值", func(t *testing.T) {
		cfg := &models.PipelineConfig{UnparseableDates: models.UnparseableDateNull}
		table := dateTable(s("2021-01-05"), s("13/45/2021"))

		out, err := NewDateNormalizer(cfg).Apply(context.Background(), table, &StageStat{})
		require.NoError(t, err)

		require.Equal(t, 2, out.Len())
		assert.True(t, out.Get(1, "joined").IsNull())
	})

	t.Run("严格模式报错", func(t *testing.T) {
		cfg := &models.PipelineConfig{UnparseableDates: models.UnparseableDateStrict}
		table := dateTable(s("2021-01-05"), s("yesterday"))

		_, err := NewDateNormalizer(cfg).Apply(context.Background(), table, &StageStat{})
		require.Error(t, err)

		var dateErr *UnparseableDateError
		require.True(t, errors.As(err, &dateErr))
		assert.Equal(t, 1, dateErr.Row)
		assert.Equal(t, "joined", dateErr.Column)
		assert.Equal(t, "yesterday", dateErr.Value)
	})

	t.Run("不支持的处理方式", func(t *testing.T) {
		cfg := &models.PipelineConfig{UnparseableDates: "guess"}
		_, err := NewDateNormalizer(cfg).Apply(context.Background(), dateTable(s("2021-01-05")), &StageStat{})
		assert.Equal(t, KindConfiguration, ErrorKind(err))
	})
}

func TestDateNormalizer_Idempotent(t *testing.T) {
	table := dateTable(models.StringValue("2021/01/05"), models.NullValue())
	d := NewDateNormalizer(&models.PipelineConfig{})

	once, err := d.Apply(context.Background(), table, &StageStat{})
	require.NoError(t, err)
	snapshot := once.Clone()

	stat := &StageStat{}
	twice, err := d.Apply(context.Background(), once, stat)
	require.NoError(t, err)

	assert.True(t, snapshot.Equal(twice))
	assert.Zero(t, stat.CellsChanged)
	assert.True(t, twice.Get(1, "joined").IsNull(), "缺失值保持不变")
}

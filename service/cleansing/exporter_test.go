package cleansing

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"datahub-cleanser/service/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exportFixture() *models.Table {
	return newTable([]models.Column{
		{Name: "name", Type: models.ColumnTypeCategorical},
		{Name: "score", Type: models.ColumnTypeNumeric},
		{Name: "joined", Type: models.ColumnTypeDate},
	},
		models.Row{models.StringValue("Alice"), models.NumberValue(3.5), models.DateValue(time.Date(2021, 1, 5, 0, 0, 0, 0, time.UTC))},
		models.Row{models.StringValue("Smith, Bob"), models.NumberValue(10), models.NullValue()},
		models.Row{models.StringValue("Carol"), models.NumberValue(0.30000000000000004), models.DateValue(time.Date(2021, 2, 1, 15, 4, 5, 0, time.UTC))},
	)
}

func TestExporter_Write(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewExporter(nil).Write(&buf, exportFixture()))

	want := "name,score,joined\n" +
		"Alice,3.5,2021-01-05\n" +
		"\"Smith, Bob\",10,\n" +
		"Carol,0.30000000000000004,2021-02-01\n"
	assert.Equal(t, want, buf.String())
}

func TestExporter_Delimiter(t *testing.T) {
	var buf bytes.Buffer
	cfg := &models.PipelineConfig{Delimiter: "\t"}
	table := newTable([]models.Column{{Name: "a", Type: models.ColumnTypeCategorical}, {Name: "b", Type: models.ColumnTypeNumeric}},
		models.Row{models.StringValue("x"), models.NumberValue(1)})

	require.NoError(t, NewExporter(cfg).Write(&buf, table))
	assert.Equal(t, "a\tb\nx\t1\n", buf.String())
}

func TestExporter_FloatPrecision(t *testing.T) {
	precision := 2
	var buf bytes.Buffer
	require.NoError(t, NewExporter(&models.PipelineConfig{FloatPrecision: &precision}).Write(&buf, exportFixture()))

	want := "name,score,joined\n" +
		"Alice,3.50,2021-01-05\n" +
		"\"Smith, Bob\",10.00,\n" +
		"Carol,0.30,2021-02-01\n"
	assert.Equal(t, want, buf.String())
}

func TestExporter_HeaderOnly(t *testing.T) {
	var buf bytes.Buffer
	table := models.NewTable([]models.Column{{Name: "a"}, {Name: "b"}})

	require.NoError(t, NewExporter(nil).Write(&buf, table))
	assert.Equal(t, "a,b\n", buf.String())
}

func TestExporter_Export(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "clean", "out.csv")

	require.NoError(t, NewExporter(nil).Export(context.Background(), exportFixture(), path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Alice,3.5,2021-01-05")

	// 再次导出覆盖原文件
	small := models.NewTable([]models.Column{{Name: "only"}})
	require.NoError(t, NewExporter(nil).Export(context.Background(), small, path))
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "only\n", string(data))
}

func TestExporter_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewExporter(nil).Write(&buf, exportFixture()))

	reloaded := readTable(t, &models.PipelineConfig{
		Columns: map[string]models.ColumnPolicy{"joined": {Type: models.ColumnTypeDate}},
	}, buf.String())

	assert.Equal(t, models.StringValue("Smith, Bob"), reloaded.Get(1, "name"))
	assert.Equal(t, models.NumberValue(0.30000000000000004), reloaded.Get(2, "score"), "最短表示可无损往返")
	assert.True(t, reloaded.Get(1, "joined").IsNull())
}

func TestExporter_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	path := filepath.Join(t.TempDir(), "out.csv")
	err := NewExporter(nil).Export(ctx, exportFixture(), path)
	assert.ErrorIs(t, err, context.Canceled)

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr), "取消后不应产生文件")
}

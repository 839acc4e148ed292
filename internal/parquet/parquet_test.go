package parquet

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func samplePoints() []ChartPoint {
	recorded := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	score := 12.0
	return []ChartPoint{
		{
			Instrument:     "phq9",
			Series:         "value",
			Field:          "value",
			RecordedAt:     recorded,
			DisplayedAt:    recorded.Add(-12 * time.Hour),
			Score:          &score,
			Severity:       "warning",
			Source:         OptionalString("epic"),
			Meaning:        OptionalString("Moderate"),
			Color:          "#ed6c02",
			Shape:          "circle",
			DuplicateIndex: 0,
			DuplicateCount: 2,
		},
		{
			Instrument:     "phq9",
			Series:         "value",
			Field:          "value",
			RecordedAt:     recorded,
			DisplayedAt:    recorded.Add(12 * time.Hour),
			Score:          nil, // Not scored
			Color:          "#757575",
			Shape:          "circle",
			DuplicateIndex: 1,
			DuplicateCount: 2,
		},
	}
}

func TestChartPointStructTags(t *testing.T) {
	// Verify struct tags are properly defined for parquet schema inference
	schema := parquet.SchemaOf(new(ChartPoint))
	require.NotNil(t, schema)

	expectedColumns := []string{
		"instrument",
		"series",
		"field",
		"recorded_at",
		"displayed_at",
		"score",
		"severity",
		"source",
		"meaning",
		"color",
		"shape",
		"duplicate_index",
		"duplicate_count",
	}

	for _, colName := range expectedColumns {
		col, ok := schema.Lookup(colName)
		require.True(t, ok, "Column %s should exist in schema", colName)
		require.NotNil(t, col, "Column %s should not be nil", colName)
	}
}

func TestWriteChartPointsParquet(t *testing.T) {
	outputPath := filepath.Join(t.TempDir(), "chart.parquet")

	err := WriteChartPointsParquet(samplePoints(), outputPath)
	require.NoError(t, err, "Writing Parquet file should not produce error")

	info, err := os.Stat(outputPath)
	require.NoError(t, err)
	assert.Positive(t, info.Size())

	rows, err := ReadChartPoints(outputPath)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "phq9", rows[0].Instrument)
	require.NotNil(t, rows[0].Score)
	assert.Equal(t, 12.0, *rows[0].Score)
	require.NotNil(t, rows[0].Source)
	assert.Equal(t, "epic", *rows[0].Source)
	assert.True(t, rows[0].DisplayedAt.Equal(samplePoints()[0].DisplayedAt))

	assert.Nil(t, rows[1].Score, "unscored points round-trip as null")
	assert.Nil(t, rows[1].Source)
	assert.Equal(t, int32(2), rows[1].DuplicateCount)
}

func TestWriteChartPointsEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteChartPoints(&buf, nil))
	assert.Positive(t, buf.Len(), "an empty file still carries the schema footer")
}

func TestWriteChartPointsParquetBadPath(t *testing.T) {
	err := WriteChartPointsParquet(samplePoints(), filepath.Join(t.TempDir(), "missing", "chart.parquet"))
	assert.Error(t, err)
}

func TestReadChartPointsMissing(t *testing.T) {
	_, err := ReadChartPoints(filepath.Join(t.TempDir(), "nope.parquet"))
	assert.Error(t, err)
}

func TestOptionalString(t *testing.T) {
	assert.Nil(t, OptionalString(""))
	require.NotNil(t, OptionalString("cnics"))
	assert.Equal(t, "cnics", *OptionalString("cnics"))
}

// Package parquet provides data structures and functions for exporting composed
// chart points to Parquet files using github.com/parquet-go/parquet-go.
package parquet

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/parquet-go/parquet-go"
)

// ChartPoint is one rendered point of a composed chart, flattened for analytics tools.
type ChartPoint struct {
	// Instrument is the registry id of the chart the point belongs to
	Instrument string `parquet:"instrument,snappy,dict"`

	// Series is the series key (field key, or field:source when split by source)
	Series string `parquet:"series,snappy,dict"`

	// Field is the data field the value was read from
	Field string `parquet:"field,snappy,dict"`

	// RecordedAt is the original observation time
	RecordedAt time.Time `parquet:"recorded_at,snappy"`

	// DisplayedAt is the time after collision spreading
	DisplayedAt time.Time `parquet:"displayed_at,snappy"`

	// Score is the observed value (nullable when not scored)
	Score *float64 `parquet:"score,optional,snappy"`

	// Severity is the band of the score; empty when no cutoffs apply
	Severity string `parquet:"severity,snappy,dict"`

	// Source is the originating clinical system (nullable)
	Source *string `parquet:"source,optional,snappy,dict"`

	// Meaning is the resolved meaning text (nullable)
	Meaning *string `parquet:"meaning,optional,snappy"`

	// Color and Shape are the resolved render style
	Color string `parquet:"color,snappy,dict"`
	Shape string `parquet:"shape,snappy,dict"`

	// DuplicateIndex and DuplicateCount describe the collision cluster
	DuplicateIndex int32 `parquet:"duplicate_index,snappy"`
	DuplicateCount int32 `parquet:"duplicate_count,snappy"`
}

// WriteChartPoints writes chart points to w as a single Parquet file.
func WriteChartPoints(w io.Writer, data []ChartPoint) error {
	// The schema is derived from the ChartPoint struct tags
	writer := parquet.NewGenericWriter[ChartPoint](w)
	if _, err := writer.Write(data); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize parquet file: %w", err)
	}
	return nil
}

// WriteChartPointsParquet writes chart points to a Parquet file at outputPath.
func WriteChartPointsParquet(data []ChartPoint, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()
	return WriteChartPoints(file, data)
}

// ReadChartPoints reads back all chart points from a Parquet file.
func ReadChartPoints(path string) ([]ChartPoint, error) {
	rows, err := parquet.ReadFile[ChartPoint](path)
	if err != nil {
		return nil, fmt.Errorf("failed to read parquet file: %w", err)
	}
	return rows, nil
}

// OptionalString returns nil for an empty string so it is stored as a Parquet null.
func OptionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

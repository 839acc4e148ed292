package outwriter

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"github.com/huangsam/scorechart/internal/contract"
	"github.com/huangsam/scorechart/internal/parquet"
	"github.com/huangsam/scorechart/schema"
)

// chartRow is one series point of a composed chart, flattened for tabular output.
type chartRow struct {
	Instrument       string
	SeriesKey        string
	SeriesLabel      string
	FieldKey         string
	Timestamp        int64
	DisplayTimestamp int64
	Value            *float64
	Severity         schema.Severity
	Source           string
	Meaning          string
	Color            string
	Shape            schema.Shape
	DuplicateIndex   int
	DuplicateCount   int
}

// chartCSVHeader is the column order of CSV output.
var chartCSVHeader = []string{
	"instrument",
	"series",
	"field",
	"date",
	"display_date",
	"value",
	"severity",
	"source",
	"meaning",
	"color",
	"shape",
	"duplicate_index",
	"duplicate_count",
}

// flattenCharts lists every series point of every chart in render order.
func flattenCharts(charts []schema.DashboardChart) []chartRow {
	var rows []chartRow
	for _, dc := range charts {
		for _, s := range dc.Chart.Series {
			for _, p := range s.Points {
				rows = append(rows, chartRow{
					Instrument:       dc.Instrument,
					SeriesKey:        s.Key,
					SeriesLabel:      s.Label,
					FieldKey:         s.FieldKey,
					Timestamp:        p.Timestamp,
					DisplayTimestamp: p.DisplayTimestamp,
					Value:            p.Value,
					Severity:         p.Severity,
					Source:           p.Source,
					Meaning:          p.Meaning,
					Color:            p.Style.Color,
					Shape:            p.Style.Shape,
					DuplicateIndex:   p.DuplicateIndex,
					DuplicateCount:   p.DuplicateCount,
				})
			}
		}
	}
	return rows
}

// writeCSVChartRows writes chart rows with a header. Unscored values are left blank.
func writeCSVChartRows(w io.Writer, rows []chartRow, fmtFloat func(float64) string) error {
	return writeCSVWithHeader(w, chartCSVHeader, func(cw *csv.Writer) error {
		for _, r := range rows {
			value := ""
			if r.Value != nil {
				value = fmtFloat(*r.Value)
			}
			record := []string{
				r.Instrument,
				r.SeriesKey,
				r.FieldKey,
				formatMillis(r.Timestamp),
				formatMillis(r.DisplayTimestamp),
				value,
				contract.GetPlainLabel(r.Severity, r.Value != nil),
				r.Source,
				r.Meaning,
				r.Color,
				string(r.Shape),
				strconv.Itoa(r.DuplicateIndex),
				strconv.Itoa(r.DuplicateCount),
			}
			if err := cw.Write(record); err != nil {
				return err
			}
		}
		return nil
	})
}

// writeParquetChartRows converts chart rows to Parquet records and writes them.
func writeParquetChartRows(w io.Writer, rows []chartRow) error {
	records := make([]parquet.ChartPoint, len(rows))
	for i, r := range rows {
		records[i] = parquet.ChartPoint{
			Instrument:     r.Instrument,
			Series:         r.SeriesKey,
			Field:          r.FieldKey,
			RecordedAt:     time.UnixMilli(r.Timestamp).UTC(),
			DisplayedAt:    time.UnixMilli(r.DisplayTimestamp).UTC(),
			Score:          r.Value,
			Severity:       string(r.Severity),
			Source:         parquet.OptionalString(r.Source),
			Meaning:        parquet.OptionalString(r.Meaning),
			Color:          r.Color,
			Shape:          string(r.Shape),
			DuplicateIndex: int32(r.DuplicateIndex),
			DuplicateCount: int32(r.DuplicateCount),
		}
	}
	return parquet.WriteChartPoints(w, records)
}

func formatMillis(ms int64) string {
	return time.UnixMilli(ms).UTC().Format(contract.DateTimeFormat)
}

package outwriter

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/huangsam/scorechart/core"
	"github.com/huangsam/scorechart/internal/contract"
	"github.com/huangsam/scorechart/schema"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// successMessages describe a file write per output mode.
var successMessages = map[schema.OutputMode]string{
	schema.JSONOut:    "Wrote JSON chart description",
	schema.CSVOut:     "Wrote CSV chart points",
	schema.ParquetOut: "Wrote Parquet chart points",
	schema.HTMLOut:    "Wrote HTML chart preview",
	schema.TextOut:    "Wrote chart table",
}

// PrintChart outputs one chart, dispatching based on the output format configured.
func PrintChart(chart schema.DashboardChart, cfg *contract.Config, duration time.Duration) error {
	return writeToOutput(cfg.OutputFile, func(w io.Writer) error {
		return WriteChart(w, chart, cfg, duration)
	}, successMessages[cfg.Output])
}

// PrintDashboard outputs several charts, dispatching based on the output format configured.
func PrintDashboard(charts []schema.DashboardChart, cfg *contract.Config, duration time.Duration) error {
	return writeToOutput(cfg.OutputFile, func(w io.Writer) error {
		return WriteCharts(w, charts, cfg, duration)
	}, successMessages[cfg.Output])
}

// WriteChart writes one chart to w. JSON output is the bare chart description.
func WriteChart(w io.Writer, chart schema.DashboardChart, cfg *contract.Config, duration time.Duration) error {
	if cfg.Output == schema.JSONOut {
		return writeJSON(w, chart.Chart)
	}
	return WriteCharts(w, []schema.DashboardChart{chart}, cfg, duration)
}

// WriteCharts writes charts to w in the configured output format.
func WriteCharts(w io.Writer, charts []schema.DashboardChart, cfg *contract.Config, duration time.Duration) error {
	fmtFloat := scoreFormatter(cfg.Precision)

	switch cfg.Output {
	case schema.JSONOut:
		if err := writeJSON(w, charts); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := writeCSVChartRows(w, flattenCharts(charts), fmtFloat); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	case schema.ParquetOut:
		if err := writeParquetChartRows(w, flattenCharts(charts)); err != nil {
			return fmt.Errorf("error writing Parquet output: %w", err)
		}
	case schema.HTMLOut:
		if err := writeHTMLCharts(w, charts); err != nil {
			return fmt.Errorf("error writing HTML output: %w", err)
		}
	default:
		// Default to human-readable tables
		if err := writeChartTables(w, charts, cfg, duration); err != nil {
			return fmt.Errorf("error writing chart table output: %w", err)
		}
	}
	return nil
}

// writeChartTables prints one table per chart followed by a summary line.
func writeChartTables(w io.Writer, charts []schema.DashboardChart, cfg *contract.Config, duration time.Duration) error {
	meaningWidth := GetMaxMeaningWidth(cfg)
	points := 0

	for _, dc := range charts {
		desc := dc.Chart
		title := desc.Title
		if title == "" {
			title = dc.Instrument
		}
		_, _ = fmt.Fprintf(w, "%s (%s)\n", title, dc.Instrument)

		if desc.Empty {
			_, _ = fmt.Fprintf(w, "  %s\n\n", desc.EmptyMessage)
			continue
		}
		if desc.Truncated && desc.TruncationTimestamp != nil {
			_, _ = fmt.Fprintf(w, "  Data before %s not shown\n", core.FormatDate(*desc.TruncationTimestamp, chartLocation(desc)))
		}

		table := tablewriter.NewWriter(w)
		table.Header([]string{"Date", "Series", "Value", "Severity", "Source", "Meaning"})
		table.Configure(func(tc *tablewriter.Config) {
			tc.Row.Alignment.Global = tw.AlignLeft
		})

		var data [][]string
		for _, row := range flattenCharts([]schema.DashboardChart{dc}) {
			severity := contract.GetPlainLabel(row.Severity, row.Value != nil)
			if cfg.UseColors {
				severity = contract.GetColorLabel(row.Severity, row.Value != nil)
			}
			data = append(data, []string{
				core.FormatDate(row.Timestamp, chartLocation(desc)),
				row.SeriesLabel,
				core.FormatValue(row.Value, desc.YAxis.Categories),
				severity,
				core.SourceLabel(row.Source),
				contract.TruncateText(row.Meaning, meaningWidth),
			})
		}
		points += len(data)

		if err := table.Bulk(data); err != nil {
			return err
		}
		if err := table.Render(); err != nil {
			return err
		}
		_, _ = fmt.Fprintln(w)
	}

	_, _ = fmt.Fprintf(w, "Composed %d charts with %d points in %v with %d workers. Store backend: %s\n",
		len(charts), points, duration, cfg.Workers, cfg.StoreBackend)
	return nil
}

// chartLocation resolves the tooltip time zone of a chart.
func chartLocation(desc schema.ChartDescription) *time.Location {
	return core.LoadLocation(context.Background(), desc.Tooltip.TimeZone)
}

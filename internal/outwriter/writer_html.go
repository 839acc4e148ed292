package outwriter

import (
	"fmt"
	"io"
	"math"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/huangsam/scorechart/core"
	"github.com/huangsam/scorechart/schema"
)

// emptyValue is how echarts marks a gap in a line.
const emptyValue = "-"

// nullSymbol marks an administration that was not scored.
const nullSymbol = "diamond"

// writeHTMLCharts renders every chart onto a single HTML page.
func writeHTMLCharts(w io.Writer, dashboard []schema.DashboardChart) error {
	page := components.NewPage()
	for _, dc := range dashboard {
		page.AddCharts(buildLineChart(dc))
	}
	return page.Render(w)
}

// buildLineChart translates a chart description into an echarts line chart with
// scatter overlays carrying the per-point style.
func buildLineChart(dc schema.DashboardChart) *charts.Line {
	desc := dc.Chart
	title := desc.Title
	if title == "" {
		title = dc.Instrument
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: title,
			Width:     "100%",
			Height:    "420px",
		}),
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: subtitleFor(desc)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "item"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Bottom: "0"}),
	)
	if desc.Empty {
		return line
	}

	line.SetGlobalOptions(
		charts.WithXAxisOpts(opts.XAxis{
			Type: "time",
			Min:  desc.XAxis.Domain.Min,
			Max:  desc.XAxis.Domain.Max,
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Name: desc.YAxis.Title,
			Type: "value",
			Min:  desc.YAxis.Min,
			Max:  desc.YAxis.Max,
		}),
	)

	marks := referenceMarks(desc)
	for i, s := range desc.Series {
		options := []charts.SeriesOpts{
			charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)}),
			charts.WithLineStyleOpts(opts.LineStyle{Color: s.Color, Width: float32(s.StrokeWidth)}),
			charts.WithItemStyleOpts(opts.ItemStyle{Color: s.Color}),
		}
		if i == 0 {
			options = append(options, marks...)
		}
		line.AddSeries(s.Label, lineData(s), options...)
		line.Overlap(pointOverlays(s)...)
	}
	return line
}

func subtitleFor(desc schema.ChartDescription) string {
	if desc.Empty {
		return desc.EmptyMessage
	}
	if len(desc.XAxis.Labels) == 0 {
		return ""
	}
	return fmt.Sprintf("%s to %s", desc.XAxis.Labels[0], desc.XAxis.Labels[len(desc.XAxis.Labels)-1])
}

// lineData lists the line vertices. Unscored points break the line unless the
// series connects across them.
func lineData(s schema.SeriesSpec) []opts.LineData {
	data := make([]opts.LineData, 0, len(s.Points))
	for _, p := range s.Points {
		if p.Value == nil {
			if !s.ConnectNulls {
				data = append(data, opts.LineData{Value: []any{p.DisplayTimestamp, emptyValue}})
			}
			continue
		}
		data = append(data, opts.LineData{Value: []any{p.DisplayTimestamp, *p.Value}})
	}
	return data
}

// overlayKey groups points that share a render style.
type overlayKey struct {
	color string
	shape schema.Shape
}

// pointOverlays draws the styled points of a series, one scatter per style, plus
// a marker series for unscored administrations.
func pointOverlays(s schema.SeriesSpec) []charts.Overlaper {
	var order []overlayKey
	groups := make(map[overlayKey][]opts.ScatterData)
	for _, p := range s.Points {
		if p.Value == nil {
			continue
		}
		key := overlayKey{color: p.Style.Color, shape: p.Style.Shape}
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], opts.ScatterData{
			Name:       p.Meaning,
			Value:      []any{p.DisplayTimestamp, *p.Value},
			Symbol:     string(p.Style.Shape),
			SymbolSize: symbolSize(p.Style.Radius),
		})
	}

	overlays := make([]charts.Overlaper, 0, len(order)+1)
	for _, key := range order {
		scatter := charts.NewScatter()
		scatter.AddSeries(s.Label, groups[key], charts.WithItemStyleOpts(opts.ItemStyle{Color: key.color}))
		overlays = append(overlays, scatter)
	}

	var nulls []opts.ScatterData
	for _, m := range s.NullSeries {
		if !m.IsNull || m.Value == nil {
			continue
		}
		nulls = append(nulls, opts.ScatterData{
			Name:       schema.NotScoredLabel,
			Value:      []any{m.Timestamp, *m.Value},
			Symbol:     nullSymbol,
			SymbolSize: symbolSize(core.DefaultDotRadius),
		})
	}
	if len(nulls) > 0 {
		scatter := charts.NewScatter()
		scatter.AddSeries(schema.NotScoredLabel, nulls, charts.WithItemStyleOpts(opts.ItemStyle{Color: schema.NullColor}))
		overlays = append(overlays, scatter)
	}
	return overlays
}

// referenceMarks turns reference lines into mark lines on the first series.
func referenceMarks(desc schema.ChartDescription) []charts.SeriesOpts {
	var horizontal []opts.MarkLineNameYAxisItem
	var vertical []opts.MarkLineNameXAxisItem
	for _, ref := range desc.ReferenceLines {
		switch {
		case ref.Y != nil:
			horizontal = append(horizontal, opts.MarkLineNameYAxisItem{Name: ref.Label, YAxis: *ref.Y})
		case ref.X != nil:
			vertical = append(vertical, opts.MarkLineNameXAxisItem{Name: ref.Label, XAxis: *ref.X})
		}
	}
	if len(horizontal) == 0 && len(vertical) == 0 {
		return nil
	}
	return []charts.SeriesOpts{
		charts.WithMarkLineNameYAxisItemOpts(horizontal...),
		charts.WithMarkLineNameXAxisItemOpts(vertical...),
		charts.WithMarkLineStyleOpts(opts.MarkLineStyle{
			Symbol: []string{"none", "none"},
			Label:  &opts.Label{Show: opts.Bool(true), Formatter: "{b}"},
		}),
	}
}

// symbolSize converts a dot radius to an echarts symbol diameter.
func symbolSize(radius float64) int {
	if radius <= 0 {
		radius = core.DefaultDotRadius
	}
	return int(math.Round(radius * 2))
}

package core

import (
	"context"
	"time"

	"github.com/huangsam/scorechart/schema"
	"github.com/rs/zerolog"
)

// Composer defaults.
const (
	DefaultWidthPx       = 800
	DefaultStrokeWidth   = 2.0
	DefaultStrokeOpacity = 1.0
	EmptyChartMessage    = "No data available"
	severityAreaOpacity  = 0.08
)

// Reference kinds.
const (
	RefCutoffHigh   = "cutoff-high"
	RefCutoffMedium = "cutoff-medium"
	RefTruncation   = "truncation"
	RefSeverityHigh = "severity-high"
	RefSeverityMed  = "severity-medium"
	RefBest         = "best"
	RefWorst        = "worst"
)

// ComposeChart runs the whole pipeline for one chart: domain and ticks, domain
// filtering, collision resolution, the value axis, per-point styling, null
// series, reference marks, legend and tooltip binding. It is a pure function of
// its inputs and clock, and degrades to an empty description instead of failing.
func ComposeChart(ctx context.Context, points []schema.DataPoint, fields []schema.SeriesField, cfg schema.ChartConfig, clock Clock) schema.ChartDescription {
	log := zerolog.Ctx(ctx)
	loc := LoadLocation(ctx, cfg.TimeZone)

	if len(points) == 0 || len(fields) == 0 {
		log.Debug().Int("points", len(points)).Int("fields", len(fields)).Msg("composing empty chart")
		return emptyDescription(cfg, schema.DomainResult{Empty: true}, loc)
	}

	dr := ComputeDomain(points, DomainOptions{
		LookbackYears: cfg.LookbackYears,
		Now:           clockOrSystem(clock).Now(),
		Override:      cfg.XDomain,
	})
	visible := FilterToDomain(points, dr)
	if len(visible) == 0 {
		log.Debug().Bool("truncated", dr.Truncated).Msg("no points inside the chart domain")
		return emptyDescription(cfg, dr, loc)
	}

	width := cfg.WidthPx
	if width <= 0 {
		width = DefaultWidthPx
	}
	keys := fieldKeys(fields)
	ticks := BuildTicks(dr.Domain, width, loc)
	jittered := ApplyJitter(visible, keys, schema.SpreadConfig{FixedDays: cfg.JitterSpreadDays, RangeMs: dr.Domain.Width()}, loc)
	sources := distinctSources(visible)
	sc := StyleContext{
		Cutoffs:       cfg.SeverityCutoffs,
		SourceColors:  cfg.SourceColors,
		SourceShapes:  cfg.SourceShapes,
		HasSourceData: len(sources) > 0,
	}

	desc := schema.ChartDescription{
		Title:               cfg.Title,
		Truncated:           dr.Truncated,
		TruncationTimestamp: dr.TruncationTimestamp,
		XAxis: schema.XAxisSpec{
			Domain: dr.Domain,
			Ticks:  ticks,
			Labels: TickLabels(ticks, loc),
			Layout: TickLabelLayout,
		},
		YAxis: ComputeYAxis(visible, keys, cfg),
	}
	desc.Series = buildSeries(visible, jittered, fields, cfg, sc, sources)
	desc.ReferenceLines, desc.ReferenceAreas = buildReferences(cfg, dr, desc.YAxis, loc)
	desc.ReferenceLabels = buildReferenceLabels(cfg, desc.YAxis)
	desc.Legend = buildLegend(desc.Series, cfg, sc, sources, HasNulls(visible, keys))
	desc.Tooltip = buildTooltip(desc.Series, cfg, loc, sc.HasSourceData)

	log.Debug().
		Int("points", len(points)).
		Int("visible", len(visible)).
		Int("series", len(desc.Series)).
		Int("ticks", len(ticks)).
		Bool("truncated", dr.Truncated).
		Msg("composed chart")
	return desc
}

func emptyDescription(cfg schema.ChartConfig, dr schema.DomainResult, loc *time.Location) schema.ChartDescription {
	return schema.ChartDescription{
		Title:               cfg.Title,
		Empty:               true,
		EmptyMessage:        EmptyChartMessage,
		Truncated:           dr.Truncated,
		TruncationTimestamp: dr.TruncationTimestamp,
		XAxis:               schema.XAxisSpec{Domain: dr.Domain, Layout: TickLabelLayout},
		YAxis:               schema.YAxisSpec{Categorical: cfg.IsCategoricalY, Title: cfg.YLabel},
		Series:              []schema.SeriesSpec{},
		ReferenceLines:      []schema.ReferenceLine{},
		ReferenceAreas:      []schema.ReferenceArea{},
		ReferenceLabels:     []schema.ReferenceLabel{},
		Legend:              schema.LegendSpec{Entries: []schema.LegendEntry{}},
		Tooltip:             schema.TooltipSpec{DateLayout: TooltipDateLayout, TimeZone: loc.String()},
	}
}

func fieldKeys(fields []schema.SeriesField) []string {
	keys := make([]string, len(fields))
	for i, f := range fields {
		keys[i] = f.Key
	}
	return keys
}

// distinctSources lists the non-empty sources in order of first appearance.
func distinctSources(points []schema.DataPoint) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, p := range points {
		if p.Source == "" {
			continue
		}
		if _, ok := seen[p.Source]; ok {
			continue
		}
		seen[p.Source] = struct{}{}
		out = append(out, p.Source)
	}
	return out
}

// buildSeries emits one series per field, or one per field and source when the
// chart is split by source.
func buildSeries(
	visible []schema.DataPoint,
	jittered []schema.JitteredPoint,
	fields []schema.SeriesField,
	cfg schema.ChartConfig,
	sc StyleContext,
	sources []string,
) []schema.SeriesSpec {
	split := []string{""}
	if cfg.SplitBySource && len(sources) > 0 {
		split = sources
	}

	var out []schema.SeriesSpec
	for _, f := range fields {
		for _, src := range split {
			s := newSeries(f, src, cfg)
			var subset []schema.DataPoint
			for _, j := range jittered {
				if j.FieldKey != f.Key || (src != "" && j.Source != src) {
					continue
				}
				style := ResolveStyle(j, f, sc)
				var sev schema.Severity
				if isScored(j.Value) {
					sev = ClassifySeverity(*j.Value, effectiveCutoffs(j.SeverityCutoffs, sc.Cutoffs))
				}
				s.Points = append(s.Points, schema.SeriesPoint{
					Timestamp:        j.Timestamp,
					DisplayTimestamp: j.DisplayTimestamp,
					Value:            mainValue(j.Value),
					Source:           j.Source,
					Meaning:          j.Meaning,
					Style:            style,
					Severity:         sev,
					DuplicateIndex:   j.DuplicateIndex,
					DuplicateCount:   j.DuplicateCount,
				})
				subset = append(subset, visible[j.Index])
			}
			if len(s.Points) == 0 {
				continue
			}
			for _, n := range DeriveNullSeries(subset, f.Key) {
				s.NullSeries = append(s.NullSeries, schema.NullMarker{
					Timestamp: n.Timestamp,
					Value:     n.Value(f.Key),
					IsNull:    n.IsNull,
					Source:    n.Source,
				})
			}
			out = append(out, s)
		}
	}
	return out
}

func newSeries(f schema.SeriesField, source string, cfg schema.ChartConfig) schema.SeriesSpec {
	s := schema.SeriesSpec{
		Key:           f.Key,
		FieldKey:      f.Key,
		Label:         LegendLabel(f, source),
		Color:         f.Color,
		StrokeWidth:   f.StrokeWidth,
		StrokeOpacity: f.StrokeOpacity,
		ConnectNulls:  cfg.ConnectNulls,
		Source:        source,
	}
	if source != "" {
		s.Key = f.Key + ":" + source
		if c, ok := cfg.SourceColors[source]; ok && c != "" {
			s.Color = c
		}
	}
	if s.Color == "" {
		s.Color = schema.DefaultColor
	}
	if s.StrokeWidth <= 0 {
		s.StrokeWidth = DefaultStrokeWidth
	}
	if s.StrokeOpacity <= 0 {
		s.StrokeOpacity = DefaultStrokeOpacity
	}
	return s
}

// mainValue hides non-finite values from the main series.
func mainValue(v *float64) *float64 {
	if !isScored(v) {
		return nil
	}
	return v
}

// buildReferences emits cutoff lines, severity bands and the truncation marker.
func buildReferences(cfg schema.ChartConfig, dr schema.DomainResult, y schema.YAxisSpec, loc *time.Location) ([]schema.ReferenceLine, []schema.ReferenceArea) {
	lines := []schema.ReferenceLine{}
	areas := []schema.ReferenceArea{}

	if c := cfg.SeverityCutoffs; !c.IsEmpty() {
		if c.High != nil {
			lines = append(lines, schema.ReferenceLine{Kind: RefCutoffHigh, Y: c.High, Label: "High", Color: schema.AlertColor, Dash: true})
		}
		if c.Medium != nil {
			lines = append(lines, schema.ReferenceLine{Kind: RefCutoffMedium, Y: c.Medium, Label: "Medium", Color: schema.WarningColor, Dash: true})
		}
		areas = severityAreas(c, y)
	}

	if dr.Truncated && dr.TruncationTimestamp != nil && !cfg.HideTruncationLine {
		lines = append(lines, schema.ReferenceLine{
			Kind:  RefTruncation,
			X:     dr.TruncationTimestamp,
			Label: "Data before " + FormatDate(*dr.TruncationTimestamp, loc) + " not shown",
			Color: schema.NullColor,
			Dash:  true,
		})
	}
	return lines, areas
}

// severityAreas shades the alert and warning bands, clipped to the axis.
func severityAreas(c *schema.SeverityCutoffs, y schema.YAxisSpec) []schema.ReferenceArea {
	areas := []schema.ReferenceArea{}
	add := func(kind, color string, y1, y2 float64) {
		y1, y2 = max(y1, y.Min), min(y2, y.Max)
		if y1 >= y2 {
			return
		}
		areas = append(areas, schema.ReferenceArea{Kind: kind, Y1: y1, Y2: y2, Color: color, Opacity: severityAreaOpacity})
	}

	if c.Direction() == schema.LowerIsWorse {
		if c.High != nil {
			add(RefSeverityHigh, schema.AlertColor, y.Min, *c.High)
		}
		if c.Medium != nil {
			lo := y.Min
			if c.High != nil {
				lo = *c.High
			}
			add(RefSeverityMed, schema.WarningColor, lo, *c.Medium)
		}
		return areas
	}

	if c.High != nil {
		add(RefSeverityHigh, schema.AlertColor, *c.High, y.Max)
	}
	if c.Medium != nil {
		hi := y.Max
		if c.High != nil {
			hi = *c.High
		}
		add(RefSeverityMed, schema.WarningColor, *c.Medium, hi)
	}
	return areas
}

// buildReferenceLabels anchors the best and worst meaning labels at the axis extremes.
func buildReferenceLabels(cfg schema.ChartConfig, y schema.YAxisSpec) []schema.ReferenceLabel {
	labels := []schema.ReferenceLabel{}
	bestY, worstY := y.Min, y.Max
	if cfg.SeverityCutoffs != nil && cfg.SeverityCutoffs.Direction() == schema.LowerIsWorse {
		bestY, worstY = y.Max, y.Min
	}
	if cfg.BestLabel != "" {
		labels = append(labels, schema.ReferenceLabel{Kind: RefBest, Y: bestY, Text: cfg.BestLabel})
	}
	if cfg.WorstLabel != "" {
		labels = append(labels, schema.ReferenceLabel{Kind: RefWorst, Y: worstY, Text: cfg.WorstLabel})
	}
	return labels
}

// buildLegend lists the series, one shape entry per source and a "Not Scored"
// entry when any visible value is missing.
func buildLegend(series []schema.SeriesSpec, cfg schema.ChartConfig, sc StyleContext, sources []string, hasNulls bool) schema.LegendSpec {
	entries := []schema.LegendEntry{}
	toggle := cfg.EnableLineSwitches && len(series) > 1
	for _, s := range series {
		entries = append(entries, schema.LegendEntry{Key: s.Key, Label: s.Label, Color: s.Color, Icon: schema.IconLine, Toggleable: toggle})
	}
	for _, src := range sources {
		icon := schema.IconCircle
		if ShapeFor(src, sc.HasSourceData, sc.SourceShapes) == schema.ShapeRect {
			icon = schema.IconRect
		}
		color := schema.NullColor
		if c, ok := sc.SourceColors[src]; ok && c != "" {
			color = c
		}
		entries = append(entries, schema.LegendEntry{Key: "source:" + src, Label: SourceLabel(src), Color: color, Icon: icon})
	}
	if hasNulls {
		entries = append(entries, schema.LegendEntry{Key: "not-scored", Label: schema.NotScoredLabel, Color: schema.NullColor, Icon: schema.IconCross})
	}
	return schema.LegendSpec{Entries: entries}
}

func buildTooltip(series []schema.SeriesSpec, cfg schema.ChartConfig, loc *time.Location, hasSource bool) schema.TooltipSpec {
	names := make([]string, len(series))
	for i, s := range series {
		names[i] = s.Label
	}
	spec := schema.TooltipSpec{
		DateLayout:  TooltipDateLayout,
		TimeZone:    loc.String(),
		ShowSource:  hasSource,
		SeriesNames: names,
	}
	if cfg.IsCategoricalY {
		spec.Categories = cfg.YCategoryLabels
	}
	return spec
}

package core

import (
	"math"

	"github.com/huangsam/scorechart/schema"
)

// Dot sizing.
const (
	DefaultDotRadius = 4.0
	minRadiusFactor  = 0.6
	radiusShrinkStep = 0.1
)

// DefaultSourceShapes maps the known clinical systems to their marker shapes.
var DefaultSourceShapes = map[string]schema.Shape{
	"epic":  schema.ShapeCircle,
	"cnics": schema.ShapeRect,
}

// StyleContext carries the chart-level inputs of the style resolver.
type StyleContext struct {
	Cutoffs       *schema.SeverityCutoffs // Chart-level cutoffs, used when a point has none
	SourceColors  map[string]string       // Explicit per-source color overrides
	SourceShapes  map[string]schema.Shape // Nil selects DefaultSourceShapes
	HasSourceData bool                    // Whether any visible point carries a source
}

// ResolveStyle computes the color, shape and radius of one point.
//
// Color resolution, first match wins:
//  1. an explicit per-source color, then the field's dot color
//  2. the severity band of the value against the point's cutoffs (or the chart's)
//  3. the field's line color
//
// Unscored values always take the null color. Shape depends only on the source
// and whether the chart has source data. Radius shrinks as a cluster grows.
func ResolveStyle(p schema.JitteredPoint, field schema.SeriesField, sc StyleContext) schema.ResolvedStyle {
	return schema.ResolvedStyle{
		Color:  resolveColor(p, field, sc),
		Shape:  ShapeFor(p.Source, sc.HasSourceData, sc.SourceShapes),
		Radius: ClusterRadius(field.DotRadius, p.DuplicateCount),
	}
}

func resolveColor(p schema.JitteredPoint, field schema.SeriesField, sc StyleContext) string {
	if !isScored(p.Value) {
		return schema.NullColor
	}
	if c, ok := sc.SourceColors[p.Source]; ok && c != "" {
		return c
	}
	if field.DotColor != "" {
		return field.DotColor
	}
	if sev := ClassifySeverity(*p.Value, effectiveCutoffs(p.SeverityCutoffs, sc.Cutoffs)); sev != schema.SeverityNone {
		return SeverityColor(sev)
	}
	if field.Color != "" {
		return field.Color
	}
	return schema.DefaultColor
}

// effectiveCutoffs prefers the point's own cutoffs over the chart's.
func effectiveCutoffs(own, chart *schema.SeverityCutoffs) *schema.SeverityCutoffs {
	if !own.IsEmpty() {
		return own
	}
	return chart
}

// ClassifySeverity places a value into a severity band. With "higher" a value is
// an alert when it is at or above High; with "lower" when it is at or below.
// Medium is checked the same way for the warning band.
func ClassifySeverity(v float64, c *schema.SeverityCutoffs) schema.Severity {
	if c.IsEmpty() || math.IsNaN(v) {
		return schema.SeverityNone
	}
	reached := func(cutoff *float64) bool {
		if cutoff == nil {
			return false
		}
		if c.Direction() == schema.LowerIsWorse {
			return v <= *cutoff
		}
		return v >= *cutoff
	}
	switch {
	case reached(c.High):
		return schema.SeverityAlert
	case reached(c.Medium):
		return schema.SeverityWarning
	default:
		return schema.SeverityNormal
	}
}

// SeverityColor maps a severity band to its render color.
func SeverityColor(s schema.Severity) string {
	switch s {
	case schema.SeverityAlert:
		return schema.AlertColor
	case schema.SeverityWarning:
		return schema.WarningColor
	case schema.SeverityNormal:
		return schema.SuccessColor
	default:
		return schema.DefaultColor
	}
}

// ShapeFor selects the marker shape of a source. Without source data every point
// is a circle; unknown sources are circles too.
func ShapeFor(source string, hasSourceData bool, shapes map[string]schema.Shape) schema.Shape {
	if !hasSourceData {
		return schema.ShapeCircle
	}
	if shapes == nil {
		shapes = DefaultSourceShapes
	}
	if s, ok := shapes[source]; ok && s != "" {
		return s
	}
	return schema.ShapeCircle
}

// ClusterRadius returns the dot radius for a member of a cluster of the given
// size. It never grows with the cluster size and bottoms out at 60% of base.
func ClusterRadius(base float64, count int) float64 {
	if base <= 0 {
		base = DefaultDotRadius
	}
	if count <= 1 {
		return base
	}
	return base * math.Max(minRadiusFactor, 1-radiusShrinkStep*float64(count-1))
}

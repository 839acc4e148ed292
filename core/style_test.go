package core

import (
	"testing"

	"github.com/huangsam/scorechart/schema"
	"github.com/stretchr/testify/assert"
)

func TestResolveStyleColor(t *testing.T) {
	higher := &schema.SeverityCutoffs{High: schema.Float(15), Medium: schema.Float(10), Comparison: schema.HigherIsWorse}
	lower := &schema.SeverityCutoffs{High: schema.Float(90), Comparison: schema.LowerIsWorse}
	field := schema.SeriesField{Key: "value", Color: "#123456"}

	tests := []struct {
		name     string
		point    schema.JitteredPoint
		field    schema.SeriesField
		ctx      StyleContext
		expected string
	}{
		{
			name:     "source color wins",
			point:    schema.JitteredPoint{Value: schema.Float(20), Source: "epic"},
			field:    field,
			ctx:      StyleContext{Cutoffs: higher, SourceColors: map[string]string{"epic": "#abcdef"}},
			expected: "#abcdef",
		},
		{
			name:     "dot color beats severity",
			point:    schema.JitteredPoint{Value: schema.Float(20)},
			field:    schema.SeriesField{Key: "value", DotColor: "#00ff00"},
			ctx:      StyleContext{Cutoffs: higher},
			expected: "#00ff00",
		},
		{
			name:     "higher alert at cutoff",
			point:    schema.JitteredPoint{Value: schema.Float(15)},
			field:    field,
			ctx:      StyleContext{Cutoffs: higher},
			expected: schema.AlertColor,
		},
		{
			name:     "higher warning",
			point:    schema.JitteredPoint{Value: schema.Float(12)},
			field:    field,
			ctx:      StyleContext{Cutoffs: higher},
			expected: schema.WarningColor,
		},
		{
			name:     "higher success",
			point:    schema.JitteredPoint{Value: schema.Float(3)},
			field:    field,
			ctx:      StyleContext{Cutoffs: higher},
			expected: schema.SuccessColor,
		},
		{
			name:     "lower alert at cutoff",
			point:    schema.JitteredPoint{Value: schema.Float(90)},
			field:    field,
			ctx:      StyleContext{Cutoffs: lower},
			expected: schema.AlertColor,
		},
		{
			name:     "lower success",
			point:    schema.JitteredPoint{Value: schema.Float(98)},
			field:    field,
			ctx:      StyleContext{Cutoffs: lower},
			expected: schema.SuccessColor,
		},
		{
			name:     "point cutoffs beat chart cutoffs",
			point:    schema.JitteredPoint{Value: schema.Float(5), SeverityCutoffs: &schema.SeverityCutoffs{High: schema.Float(4)}},
			field:    field,
			ctx:      StyleContext{Cutoffs: higher},
			expected: schema.AlertColor,
		},
		{
			name:     "no cutoffs uses line color",
			point:    schema.JitteredPoint{Value: schema.Float(5)},
			field:    field,
			expected: "#123456",
		},
		{
			name:     "no cutoffs and no color",
			point:    schema.JitteredPoint{Value: schema.Float(5)},
			field:    schema.SeriesField{Key: "value"},
			expected: schema.DefaultColor,
		},
		{
			name:     "unscored value",
			point:    schema.JitteredPoint{Source: "epic"},
			field:    field,
			ctx:      StyleContext{Cutoffs: higher, SourceColors: map[string]string{"epic": "#abcdef"}},
			expected: schema.NullColor,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ResolveStyle(tt.point, tt.field, tt.ctx).Color)
		})
	}
}

func TestSeverityMonotonicity(t *testing.T) {
	cutoffs := &schema.SeverityCutoffs{High: schema.Float(15), Medium: schema.Float(10), Comparison: schema.HigherIsWorse}
	field := schema.SeriesField{Key: "value"}

	seenAlert := false
	for v := 0.0; v <= 27; v += 0.5 {
		color := ResolveStyle(schema.JitteredPoint{Value: schema.Float(v)}, field, StyleContext{Cutoffs: cutoffs}).Color
		if v < 15 {
			assert.NotEqual(t, schema.AlertColor, color, "value %v", v)
		}
		if seenAlert {
			assert.Equal(t, schema.AlertColor, color, "value %v flipped back", v)
		}
		seenAlert = seenAlert || color == schema.AlertColor
	}
	assert.True(t, seenAlert)
}

func TestClassifySeverity(t *testing.T) {
	assert.Equal(t, schema.SeverityNone, ClassifySeverity(5, nil))
	assert.Equal(t, schema.SeverityNone, ClassifySeverity(5, &schema.SeverityCutoffs{}))
	assert.Equal(t, schema.SeverityNormal, ClassifySeverity(2, &schema.SeverityCutoffs{Medium: schema.Float(4)}))
	assert.Equal(t, schema.SeverityWarning, ClassifySeverity(4, &schema.SeverityCutoffs{Medium: schema.Float(4)}))
	assert.Equal(t, schema.SeverityWarning, ClassifySeverity(80, &schema.SeverityCutoffs{
		High: schema.Float(50), Medium: schema.Float(80), Comparison: schema.LowerIsWorse,
	}))
}

func TestShapeFor(t *testing.T) {
	tests := []struct {
		name     string
		source   string
		hasData  bool
		shapes   map[string]schema.Shape
		expected schema.Shape
	}{
		{name: "no source data", source: "cnics", hasData: false, expected: schema.ShapeCircle},
		{name: "epic", source: "epic", hasData: true, expected: schema.ShapeCircle},
		{name: "cnics", source: "cnics", hasData: true, expected: schema.ShapeRect},
		{name: "unknown source", source: "other", hasData: true, expected: schema.ShapeCircle},
		{name: "empty source", source: "", hasData: true, expected: schema.ShapeCircle},
		{name: "custom map", source: "lab", hasData: true, shapes: map[string]schema.Shape{"lab": schema.ShapeRect}, expected: schema.ShapeRect},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ShapeFor(tt.source, tt.hasData, tt.shapes))
		})
	}
}

func TestClusterRadius(t *testing.T) {
	assert.Equal(t, DefaultDotRadius, ClusterRadius(0, 1))
	assert.Equal(t, 6.0, ClusterRadius(6, 0))

	prev := ClusterRadius(5, 1)
	for n := 2; n <= 20; n++ {
		r := ClusterRadius(5, n)
		assert.LessOrEqual(t, r, prev, "radius grew at count %d", n)
		assert.GreaterOrEqual(t, r, 3.0-1e-9)
		prev = r
	}
	assert.InDelta(t, 4.5, ClusterRadius(5, 2), 1e-9)
}

func TestResolveStyleClusterKeepsColor(t *testing.T) {
	cutoffs := &schema.SeverityCutoffs{High: schema.Float(3)}
	field := schema.SeriesField{Key: "value"}
	single := ResolveStyle(schema.JitteredPoint{Value: schema.Float(4), DuplicateCount: 1}, field, StyleContext{Cutoffs: cutoffs})
	clustered := ResolveStyle(schema.JitteredPoint{Value: schema.Float(4), DuplicateCount: 3, DuplicateIndex: 2}, field, StyleContext{Cutoffs: cutoffs})

	assert.Equal(t, single.Color, clustered.Color)
	assert.Equal(t, single.Shape, clustered.Shape)
	assert.Less(t, clustered.Radius, single.Radius)
}

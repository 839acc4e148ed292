package core

import (
	"testing"

	"github.com/huangsam/scorechart/schema"
	"github.com/stretchr/testify/assert"
)

func TestComputeYAxisCategorical(t *testing.T) {
	cfg := schema.ChartConfig{
		IsCategoricalY:  true,
		YCategoryLabels: map[int]string{0: "Never", 1: "Monthly", 2: "Weekly"},
	}

	axis := ComputeYAxis(nil, []string{"value"}, cfg)

	assert.True(t, axis.Categorical)
	assert.Equal(t, -0.5, axis.Min)
	assert.Equal(t, 2.5, axis.Max)
	assert.Equal(t, []float64{0, 1, 2}, axis.Ticks)
	assert.Equal(t, []string{"Never", "Monthly", "Weekly"}, axis.Labels)
}

func TestComputeYAxisCategoricalFromData(t *testing.T) {
	points := []schema.DataPoint{
		{Timestamp: 1, Values: map[string]*float64{"a": schema.Float(1), "b": schema.Float(3)}},
		{Timestamp: 2, Values: map[string]*float64{"a": nil}},
	}

	axis := ComputeYAxis(points, []string{"a", "b"}, schema.ChartConfig{IsCategoricalY: true})

	assert.Equal(t, 0.5, axis.Min)
	assert.Equal(t, 3.5, axis.Max)
	assert.Equal(t, []float64{1, 2, 3}, axis.Ticks)
	assert.Equal(t, []string{"1", "2", "3"}, axis.Labels)
}

func TestComputeYAxisContinuous(t *testing.T) {
	points := []schema.DataPoint{pointAt("2024-01-01", schema.Float(13)), pointAt("2024-02-01", nil)}

	tests := []struct {
		name          string
		cfg           schema.ChartConfig
		expectedMin   float64
		expectedMax   float64
		expectedTicks []float64
		autoMax       bool
	}{
		{
			name:          "fixed bounds with generated step",
			cfg:           schema.ChartConfig{MinimumYValue: schema.Float(0), MaximumYValue: schema.Float(27)},
			expectedMin:   0,
			expectedMax:   27,
			expectedTicks: []float64{0, 10, 20},
		},
		{
			name:          "fixed bounds with configured step",
			cfg:           schema.ChartConfig{MaximumYValue: schema.Float(100), YTickStep: 20},
			expectedMin:   0,
			expectedMax:   100,
			expectedTicks: []float64{0, 20, 40, 60, 80, 100},
		},
		{
			name:          "auto max covers cutoffs",
			cfg:           schema.ChartConfig{SeverityCutoffs: &schema.SeverityCutoffs{High: schema.Float(15)}},
			expectedMin:   0,
			expectedMax:   15,
			expectedTicks: []float64{0, 5, 10, 15},
			autoMax:       true,
		},
		{
			name:          "auto max rounds up to the step",
			cfg:           schema.ChartConfig{},
			expectedMin:   0,
			expectedMax:   15,
			expectedTicks: []float64{0, 5, 10, 15},
			autoMax:       true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			axis := ComputeYAxis(points, []string{schema.DefaultValueKey}, tt.cfg)
			assert.False(t, axis.Categorical)
			assert.Equal(t, tt.autoMax, axis.AutoMax)
			assert.Equal(t, tt.expectedMin, axis.Min)
			assert.Equal(t, tt.expectedMax, axis.Max)
			assert.Equal(t, tt.expectedTicks, axis.Ticks)
			assert.Len(t, axis.Labels, len(axis.Ticks))
		})
	}
}

func TestNiceStep(t *testing.T) {
	tests := []struct {
		span     float64
		expected float64
	}{
		{span: 10, expected: 2},
		{span: 27, expected: 10},
		{span: 15, expected: 5},
		{span: 100, expected: 20},
		{span: 1, expected: 0.2},
		{span: 0, expected: 1},
		{span: -5, expected: 1},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.expected, NiceStep(tt.span, 5), 1e-9, "span %v", tt.span)
	}
}

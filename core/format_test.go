package core

import (
	"context"
	"encoding/json"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/huangsam/scorechart/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatDate(t *testing.T) {
	ts := time.Date(2024, time.March, 5, 15, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		input    any
		expected string
	}{
		{name: "epoch millis", input: ts.UnixMilli(), expected: "Mar 5, 2024"},
		{name: "float millis", input: float64(ts.UnixMilli()), expected: "Mar 5, 2024"},
		{name: "json number", input: json.Number("1709650800000"), expected: "Mar 5, 2024"},
		{name: "time value", input: ts, expected: "Mar 5, 2024"},
		{name: "date string", input: "2024-03-05", expected: "Mar 5, 2024"},
		{name: "rfc3339 string", input: "2024-03-05T10:00:00Z", expected: "Mar 5, 2024"},
		{name: "malformed string", input: "not-a-date", expected: schema.Placeholder},
		{name: "empty string", input: "", expected: schema.Placeholder},
		{name: "nil", input: nil, expected: schema.Placeholder},
		{name: "NaN", input: math.NaN(), expected: schema.Placeholder},
		{name: "unsupported type", input: []int{1}, expected: schema.Placeholder},
		{name: "zero time", input: time.Time{}, expected: schema.Placeholder},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, FormatDate(tt.input, time.UTC))
		})
	}
}

// TestFormatDateScenarioD never lets a malformed date escape as a panic.
func TestFormatDateScenarioD(t *testing.T) {
	assert.NotPanics(t, func() {
		assert.Equal(t, "—", FormatDate("2024-13-45", nil))
	})
}

func TestFormatDateWithFallback(t *testing.T) {
	ts := time.Date(2024, time.March, 5, 0, 0, 0, 0, time.UTC).UnixMilli()
	panicky := func(time.Time) string { panic("locale data missing") }

	assert.Equal(t, "2024-03-05", FormatDateWith(ts, time.UTC, panicky))
	assert.Equal(t, "Mar 5, 2024", FormatDateWith(ts, time.UTC, nil))
	assert.Equal(t, schema.Placeholder, FormatDateWith("bogus", time.UTC, panicky))
}

func TestFormatDateTimeZone(t *testing.T) {
	ts := time.Date(2024, time.March, 5, 2, 0, 0, 0, time.UTC).UnixMilli()
	assert.Equal(t, "Mar 4, 2024", FormatDate(ts, time.FixedZone("PST", -8*3600)))
}

func TestFormatValue(t *testing.T) {
	categories := map[int]string{3: "Weekly"}
	tests := []struct {
		name     string
		value    *float64
		expected string
	}{
		{name: "not scored", value: nil, expected: schema.NotScoredLabel},
		{name: "zero", value: schema.Float(0), expected: "0"},
		{name: "integer", value: schema.Float(12), expected: "12"},
		{name: "fraction", value: schema.Float(2.5), expected: "2.5"},
		{name: "category", value: schema.Float(3), expected: "Weekly"},
		{name: "NaN", value: schema.Float(math.NaN()), expected: schema.Placeholder},
		{name: "infinity", value: schema.Float(math.Inf(1)), expected: schema.Placeholder},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, FormatValue(tt.value, categories))
		})
	}
}

func TestSourceLabel(t *testing.T) {
	assert.Equal(t, "EPIC", SourceLabel("epic"))
	assert.Equal(t, "CNICS", SourceLabel("CNICS"))
	assert.Equal(t, "redcap", SourceLabel(" redcap "))
	assert.Equal(t, "", SourceLabel(""))
}

func TestLegendLabel(t *testing.T) {
	assert.Equal(t, "Alcohol", LegendLabel(schema.SeriesField{Key: "alcohol", Label: "Alcohol"}, ""))
	assert.Equal(t, "alcohol", LegendLabel(schema.SeriesField{Key: "alcohol"}, ""))
	assert.Equal(t, "Alcohol (CNICS)", LegendLabel(schema.SeriesField{Key: "alcohol", Label: "Alcohol"}, "cnics"))
}

func TestParseHoverPayload(t *testing.T) {
	tests := []struct {
		name   string
		raw    map[string]any
		ok     bool
		series int
		value  *float64
	}{
		{
			name:   "point payload",
			raw:    map[string]any{"x": 10.0, "y": 20.0, "seriesIndex": 1.0, "point": map[string]any{"timestamp": 1709596800000.0, "value": 7.0, "source": "epic"}},
			ok:     true,
			series: 1,
			value:  schema.Float(7),
		},
		{
			name:   "payload alias with unscored value",
			raw:    map[string]any{"payload": map[string]any{"timestamp": json.Number("1709596800000"), "value": nil}},
			ok:     true,
			series: -1,
		},
		{name: "nil payload", raw: nil},
		{name: "missing point", raw: map[string]any{"x": 1.0}},
		{name: "point is not an object", raw: map[string]any{"point": "oops"}},
		{name: "timestamp is not a number", raw: map[string]any{"point": map[string]any{"timestamp": "yesterday"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hp, ok := ParseHoverPayload(tt.raw)
			assert.Equal(t, tt.ok, ok)
			if !tt.ok {
				return
			}
			require.NotNil(t, hp.Point)
			assert.Equal(t, tt.series, hp.SeriesIndex)
			assert.Equal(t, tt.value, hp.Point.Value)
			assert.Equal(t, hp.Point.Timestamp, hp.Point.DisplayTimestamp)
		})
	}
}

func TestFormatTooltip(t *testing.T) {
	ctx := context.Background()
	spec := schema.TooltipSpec{
		TimeZone:    "UTC",
		ShowSource:  true,
		Categories:  map[int]string{4: "Daily"},
		SeriesNames: []string{"Alcohol", "Tobacco"},
	}

	t.Run("full point", func(t *testing.T) {
		hp := schema.HoverPayload{SeriesIndex: 1, Point: &schema.SeriesPoint{
			Timestamp: msOf("2024-03-05"),
			Value:     schema.Float(4),
			Source:    "cnics",
			Meaning:   "Used daily",
		}}
		assert.Equal(t, schema.TooltipContent{
			Date:    "Mar 5, 2024",
			Value:   "Daily",
			Meaning: "Used daily",
			Source:  "CNICS",
			Series:  "Tobacco",
		}, FormatTooltip(ctx, spec, hp))
	})

	t.Run("not scored and out of range series", func(t *testing.T) {
		hp := schema.HoverPayload{SeriesIndex: 9, Point: &schema.SeriesPoint{Timestamp: msOf("2024-03-05")}}
		content := FormatTooltip(ctx, schema.TooltipSpec{}, hp)
		assert.Equal(t, schema.NotScoredLabel, content.Value)
		assert.Empty(t, content.Source)
		assert.Empty(t, content.Series)
	})

	t.Run("missing point", func(t *testing.T) {
		content := FormatTooltip(ctx, spec, schema.HoverPayload{})
		assert.Equal(t, schema.Placeholder, content.Date)
		assert.Equal(t, schema.Placeholder, content.Value)
	})

	t.Run("raw garbage", func(t *testing.T) {
		content := FormatTooltipRaw(ctx, spec, map[string]any{"unexpected": true})
		assert.Equal(t, schema.Placeholder, content.Date)
	})

	t.Run("unknown time zone falls back to UTC", func(t *testing.T) {
		hp := schema.HoverPayload{Point: &schema.SeriesPoint{Timestamp: msOf("2024-03-05")}}
		content := FormatTooltip(ctx, schema.TooltipSpec{TimeZone: "Nowhere/Special"}, hp)
		assert.Equal(t, "Mar 5, 2024", content.Date)
	})
}

// FuzzFormatDate checks that arbitrary strings never panic and never return empty text.
func FuzzFormatDate(f *testing.F) {
	for _, seed := range []string{"2024-03-05", "not-a-date", "", "1709596800000", "2024-02-30T99:00:00Z", "-99999999999999999"} {
		f.Add(seed)
	}
	f.Fuzz(func(t *testing.T, s string) {
		out := FormatDate(s, time.UTC)
		if strings.TrimSpace(out) == "" {
			t.Fatalf("empty output for %q", s)
		}
	})
}

// FuzzParseHoverPayload feeds arbitrary JSON through the tooltip boundary.
func FuzzParseHoverPayload(f *testing.F) {
	f.Add(`{"point":{"timestamp":1709596800000,"value":3}}`)
	f.Add(`{"payload":{"timestamp":"x"}}`)
	f.Add(`[]`)
	f.Fuzz(func(t *testing.T, data string) {
		var raw map[string]any
		if err := json.Unmarshal([]byte(data), &raw); err != nil {
			return
		}
		content := FormatTooltipRaw(context.Background(), schema.TooltipSpec{}, raw)
		if content.Date == "" || content.Value == "" {
			t.Fatalf("empty tooltip for %s", data)
		}
	})
}

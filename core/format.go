package core

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/huangsam/scorechart/schema"
	"github.com/rs/zerolog"
)

// TooltipDateLayout is the date format shown in tooltips.
const TooltipDateLayout = "Jan 2, 2006"

// DateFormatter renders a time for display. Implementations may panic on
// values they cannot handle; callers recover and fall back.
type DateFormatter func(time.Time) string

// DefaultDateFormatter formats with TooltipDateLayout.
func DefaultDateFormatter(t time.Time) string {
	return t.Format(TooltipDateLayout)
}

// sourceLabels are the display names of the known clinical systems.
var sourceLabels = map[string]string{
	"epic":  "EPIC",
	"cnics": "CNICS",
}

// FormatDate formats an epoch-millisecond number, a date string or a time.Time
// with the default formatter. Anything unparseable yields the placeholder.
func FormatDate(v any, loc *time.Location) string {
	return FormatDateWith(v, loc, DefaultDateFormatter)
}

// FormatDateWith formats v with f. A panicking formatter falls back to a
// manually built YYYY-MM-DD string.
func FormatDateWith(v any, loc *time.Location, f DateFormatter) (out string) {
	t, ok := toTime(v)
	if !ok {
		return schema.Placeholder
	}
	if loc == nil {
		loc = time.UTC
	}
	t = t.In(loc)
	if f == nil {
		f = DefaultDateFormatter
	}
	defer func() {
		if r := recover(); r != nil {
			out = isoDate(t)
		}
	}()
	return f(t)
}

// isoDate builds the fallback date without going through time.Format.
func isoDate(t time.Time) string {
	return fmt.Sprintf("%04d-%02d-%02d", t.Year(), int(t.Month()), t.Day())
}

// toTime accepts the loosely typed date values a rendering surface hands back.
func toTime(v any) (time.Time, bool) {
	var t time.Time
	switch x := v.(type) {
	case time.Time:
		t = x
	case int64:
		t = time.UnixMilli(x)
	case int:
		t = time.UnixMilli(int64(x))
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return time.Time{}, false
		}
		t = time.UnixMilli(int64(x))
	case json.Number:
		n, err := x.Float64()
		if err != nil {
			return time.Time{}, false
		}
		return toTime(n)
	case string:
		parsed, ok := schema.ParseDate(x)
		if !ok {
			return time.Time{}, false
		}
		t = parsed
	default:
		return time.Time{}, false
	}
	if t.IsZero() || t.Year() < 1 || t.Year() > 9999 {
		return time.Time{}, false
	}
	return t, true
}

// FormatValue renders a score. Unscored values read "Not Scored"; values with a
// category label use that label.
func FormatValue(v *float64, categories map[int]string) string {
	if v == nil {
		return schema.NotScoredLabel
	}
	if math.IsNaN(*v) || math.IsInf(*v, 0) {
		return schema.Placeholder
	}
	if *v == math.Trunc(*v) {
		if label, ok := categories[int(*v)]; ok {
			return label
		}
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

// SourceLabel returns the display name of a clinical system.
func SourceLabel(source string) string {
	source = strings.TrimSpace(source)
	if label, ok := sourceLabels[strings.ToLower(source)]; ok {
		return label
	}
	return source
}

// LegendLabel names a series, qualified by its source when the chart is split by source.
func LegendLabel(field schema.SeriesField, source string) string {
	label := field.Label
	if label == "" {
		label = field.Key
	}
	if source == "" {
		return label
	}
	return fmt.Sprintf("%s (%s)", label, SourceLabel(source))
}

// ParseHoverPayload validates the loosely shaped hover payload of a rendering
// surface. It accepts the point under "point" or "payload".
func ParseHoverPayload(raw map[string]any) (schema.HoverPayload, bool) {
	if raw == nil {
		return schema.HoverPayload{}, false
	}
	hp := schema.HoverPayload{
		X: numberOr(raw["x"], 0),
		Y: numberOr(raw["y"], 0),
	}
	idx := numberOr(raw["seriesIndex"], -1)
	if idx != math.Trunc(idx) {
		idx = -1
	}
	hp.SeriesIndex = int(idx)

	pointRaw, ok := raw["point"].(map[string]any)
	if !ok {
		pointRaw, ok = raw["payload"].(map[string]any)
	}
	if !ok {
		return hp, false
	}
	ts, ok := toNumber(pointRaw["timestamp"])
	if !ok {
		return hp, false
	}
	p := &schema.SeriesPoint{
		Timestamp:        int64(ts),
		DisplayTimestamp: int64(numberOr(pointRaw["displayTimestamp"], ts)),
	}
	if v, ok := toNumber(pointRaw["value"]); ok {
		p.Value = &v
	}
	p.Source, _ = pointRaw["source"].(string)
	p.Meaning, _ = pointRaw["meaning"].(string)
	hp.Point = p
	return hp, true
}

func toNumber(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, !math.IsNaN(x) && !math.IsInf(x, 0)
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case json.Number:
		n, err := x.Float64()
		return n, err == nil
	default:
		return 0, false
	}
}

func numberOr(v any, fallback float64) float64 {
	if n, ok := toNumber(v); ok {
		return n
	}
	return fallback
}

// FormatTooltip renders the display strings of a hovered point. It never fails:
// a payload without a point yields placeholders for every field.
func FormatTooltip(ctx context.Context, spec schema.TooltipSpec, hp schema.HoverPayload) schema.TooltipContent {
	if hp.Point == nil {
		zerolog.Ctx(ctx).Debug().Int("seriesIndex", hp.SeriesIndex).Msg("tooltip payload has no point")
		return placeholderTooltip()
	}

	loc := LoadLocation(ctx, spec.TimeZone)
	p := hp.Point
	content := schema.TooltipContent{
		Date:    FormatDate(p.Timestamp, loc),
		Value:   FormatValue(p.Value, spec.Categories),
		Meaning: p.Meaning,
	}
	if spec.ShowSource {
		content.Source = SourceLabel(p.Source)
	}
	if hp.SeriesIndex >= 0 && hp.SeriesIndex < len(spec.SeriesNames) {
		content.Series = spec.SeriesNames[hp.SeriesIndex]
	}
	return content
}

// FormatTooltipRaw validates a raw payload and formats it.
func FormatTooltipRaw(ctx context.Context, spec schema.TooltipSpec, raw map[string]any) schema.TooltipContent {
	hp, ok := ParseHoverPayload(raw)
	if !ok {
		zerolog.Ctx(ctx).Warn().Interface("payload", raw).Msg("unrecognized tooltip payload")
		return placeholderTooltip()
	}
	return FormatTooltip(ctx, spec, hp)
}

func placeholderTooltip() schema.TooltipContent {
	return schema.TooltipContent{
		Date:    schema.Placeholder,
		Value:   schema.Placeholder,
		Meaning: schema.Placeholder,
		Source:  schema.Placeholder,
		Series:  schema.Placeholder,
	}
}

// LoadLocation resolves a time zone name, falling back to UTC with a warning.
func LoadLocation(ctx context.Context, name string) *time.Location {
	if name == "" || name == "UTC" {
		return time.UTC
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("timezone", name).Msg("falling back to UTC")
		return time.UTC
	}
	return loc
}

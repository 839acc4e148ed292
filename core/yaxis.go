package core

import (
	"math"
	"slices"
	"strconv"

	"github.com/huangsam/scorechart/schema"
)

const (
	targetYTicks = 5
	maxYTicks    = 200
)

// ComputeYAxis builds the value axis for the visible points.
// Categorical axes span [min-0.5, max+0.5] so integer categories sit centered
// between grid lines. Continuous axes span [minimum or 0, maximum or auto],
// where auto covers both the data and any configured cutoffs.
func ComputeYAxis(points []schema.DataPoint, fieldKeys []string, cfg schema.ChartConfig) schema.YAxisSpec {
	if cfg.IsCategoricalY {
		return categoricalAxis(points, fieldKeys, cfg)
	}
	return continuousAxis(points, fieldKeys, cfg)
}

func categoricalAxis(points []schema.DataPoint, fieldKeys []string, cfg schema.ChartConfig) schema.YAxisSpec {
	lo, hi, ok := categoryRange(cfg.YCategoryLabels)
	if !ok {
		lo, hi, ok = valueRange(points, fieldKeys)
		if !ok {
			lo, hi = 0, 0
		}
		lo, hi = math.Floor(lo), math.Ceil(hi)
	}
	if cfg.MinimumYValue != nil {
		lo = math.Floor(*cfg.MinimumYValue)
	}
	if cfg.MaximumYValue != nil {
		hi = math.Ceil(*cfg.MaximumYValue)
	}
	if hi < lo {
		lo, hi = hi, lo
	}

	axis := schema.YAxisSpec{
		Min:         lo - 0.5,
		Max:         hi + 0.5,
		Categorical: true,
		Categories:  cfg.YCategoryLabels,
		Title:       cfg.YLabel,
	}
	for v := lo; v <= hi && len(axis.Ticks) < maxYTicks; v++ {
		axis.Ticks = append(axis.Ticks, v)
		axis.Labels = append(axis.Labels, FormatValue(schema.Float(v), cfg.YCategoryLabels))
	}
	return axis
}

func continuousAxis(points []schema.DataPoint, fieldKeys []string, cfg schema.ChartConfig) schema.YAxisSpec {
	lo := 0.0
	if cfg.MinimumYValue != nil {
		lo = *cfg.MinimumYValue
	}

	axis := schema.YAxisSpec{Min: lo, Title: cfg.YLabel}
	if cfg.MaximumYValue != nil {
		axis.Max = *cfg.MaximumYValue
	} else {
		axis.AutoMax = true
		hi := lo + 1
		if _, dataMax, ok := valueRange(points, fieldKeys); ok {
			hi = math.Max(hi, dataMax)
		}
		for _, c := range cutoffValues(points, cfg.SeverityCutoffs) {
			hi = math.Max(hi, c)
		}
		axis.Max = hi
	}
	if axis.Max <= axis.Min {
		axis.Max = axis.Min + 1
	}

	step := cfg.YTickStep
	if step <= 0 {
		step = NiceStep(axis.Max-axis.Min, targetYTicks)
	}
	if axis.AutoMax {
		axis.Max = axis.Min + math.Ceil((axis.Max-axis.Min)/step)*step
	}
	for i := 0; i < maxYTicks; i++ {
		v := axis.Min + float64(i)*step
		if v > axis.Max+step*1e-9 {
			break
		}
		axis.Ticks = append(axis.Ticks, v)
		axis.Labels = append(axis.Labels, strconv.FormatFloat(roundTo(v, step), 'f', -1, 64))
	}
	return axis
}

// NiceStep returns a 1, 2 or 5 times power-of-ten step that splits span into
// roughly target intervals.
func NiceStep(span float64, target int) float64 {
	if span <= 0 || target <= 0 || math.IsNaN(span) || math.IsInf(span, 0) {
		return 1
	}
	raw := span / float64(target)
	mag := math.Pow(10, math.Floor(math.Log10(raw)))
	const eps = 1e-9
	switch norm := raw / mag; {
	case norm <= 1+eps:
		return mag
	case norm <= 2+eps:
		return 2 * mag
	case norm <= 5+eps:
		return 5 * mag
	default:
		return 10 * mag
	}
}

// roundTo removes float noise from accumulated ticks.
func roundTo(v, step float64) float64 {
	decimals := max(0, -int(math.Floor(math.Log10(step))))
	p := math.Pow(10, float64(decimals))
	return math.Round(v*p) / p
}

// valueRange returns the extent of the scored values across the given fields.
func valueRange(points []schema.DataPoint, fieldKeys []string) (lo, hi float64, ok bool) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, p := range points {
		for _, k := range fieldKeys {
			v := p.Value(k)
			if !isScored(v) {
				continue
			}
			lo, hi, ok = math.Min(lo, *v), math.Max(hi, *v), true
		}
	}
	return lo, hi, ok
}

// categoryRange returns the smallest and largest category index.
func categoryRange(labels map[int]string) (lo, hi float64, ok bool) {
	if len(labels) == 0 {
		return 0, 0, false
	}
	keys := make([]int, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return float64(keys[0]), float64(keys[len(keys)-1]), true
}

// cutoffValues collects the chart and per-point thresholds that an auto axis must show.
func cutoffValues(points []schema.DataPoint, chart *schema.SeverityCutoffs) []float64 {
	var out []float64
	add := func(c *schema.SeverityCutoffs) {
		if c.IsEmpty() {
			return
		}
		if c.High != nil {
			out = append(out, *c.High)
		}
		if c.Medium != nil {
			out = append(out, *c.Medium)
		}
	}
	add(chart)
	for _, p := range points {
		add(p.SeverityCutoffs)
	}
	return out
}

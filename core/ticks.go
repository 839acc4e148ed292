package core

import (
	"math"
	"slices"
	"time"

	"github.com/huangsam/scorechart/schema"
)

const (
	// TickLabelLayout is the fixed label format of the time axis.
	TickLabelLayout = "Jan 2006"

	// tickLabelWidthPx is the measured width of one TickLabelLayout label plus its gap.
	tickLabelWidthPx = 64
)

// monthStep returns the distance between candidate ticks for a chart width.
func monthStep(widthPx int) int {
	switch {
	case widthPx <= 450:
		return 12
	case widthPx <= 580:
		return 9
	default:
		return 6
	}
}

// maxCandidates bounds the month-aligned candidates generated for a chart width.
// No more than widthPx/tickLabelWidthPx+1 labels survive thinning anyway.
func maxCandidates(widthPx int) int {
	return 4 * (widthPx/tickLabelWidthPx + 1)
}

// BuildTicks returns the ordered time-axis ticks for a domain rendered at widthPx.
// Candidates are month-aligned every 6, 9 or 12 months, with the step widened on
// very wide domains so at most maxCandidates are generated. They are clamped to the
// domain, deduplicated, thinned until no two labels overlap, and finally
// deduplicated by calendar day. The result depends only on its inputs.
func BuildTicks(domain schema.TimeDomain, widthPx int, loc *time.Location) []int64 {
	if domain.Max <= domain.Min || widthPx <= 0 {
		return nil
	}
	if loc == nil {
		loc = time.UTC
	}

	start := time.UnixMilli(domain.Min).In(loc)
	end := time.UnixMilli(domain.Max).In(loc)
	first := time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, loc)

	step := monthStep(widthPx)
	limit := maxCandidates(widthPx)
	months := (end.Year()-first.Year())*12 + int(end.Month()) - int(first.Month())
	if months/step > limit {
		step *= months/(step*limit) + 1
	}

	candidates := make([]int64, 0, limit+1)
	for i := 0; i <= limit; i++ {
		cur := first.AddDate(0, i*step, 0)
		if cur.After(end) {
			break
		}
		candidates = append(candidates, clampInt(cur.UnixMilli(), domain.Min, domain.Max))
	}
	slices.Sort(candidates)
	candidates = slices.Compact(candidates)

	return dedupeByDay(thinTicks(candidates, domain, widthPx), loc)
}

// thinTicks greedily keeps ticks whose labels do not overlap the previous kept label.
func thinTicks(ticks []int64, domain schema.TimeDomain, widthPx int) []int64 {
	if len(ticks) == 0 {
		return nil
	}
	scale := float64(widthPx) / (float64(domain.Max) - float64(domain.Min))
	kept := make([]int64, 0, len(ticks))
	lastX := math.Inf(-1)
	for _, t := range ticks {
		x := (float64(t) - float64(domain.Min)) * scale
		if x-lastX < tickLabelWidthPx {
			continue
		}
		kept = append(kept, t)
		lastX = x
	}
	return kept
}

// dedupeByDay keeps the first tick of every calendar day.
func dedupeByDay(ticks []int64, loc *time.Location) []int64 {
	seen := make(map[string]struct{}, len(ticks))
	out := make([]int64, 0, len(ticks))
	for _, t := range ticks {
		key := dayKey(t, loc)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, t)
	}
	return out
}

// TickLabels formats ticks with TickLabelLayout.
func TickLabels(ticks []int64, loc *time.Location) []string {
	if loc == nil {
		loc = time.UTC
	}
	labels := make([]string, len(ticks))
	for i, t := range ticks {
		labels[i] = time.UnixMilli(t).In(loc).Format(TickLabelLayout)
	}
	return labels
}

// dayKey normalizes a timestamp to its calendar day in loc.
func dayKey(ts int64, loc *time.Location) string {
	return time.UnixMilli(ts).In(loc).Format(time.DateOnly)
}

func clampInt(v, lo, hi int64) int64 {
	return max(lo, min(hi, v))
}

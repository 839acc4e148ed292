package core

import (
	"math"
	"time"

	"github.com/huangsam/scorechart/schema"
)

// Spread bounds used when no fixed jitter spread is configured.
const (
	minSpread       = 7 * day
	maxSpread       = 21 * day
	spreadRangeFrac = 0.01
)

// collisionKey identifies points that would render on top of each other.
type collisionKey struct {
	day   string
	value float64
}

// SpreadWidth returns the total horizontal window, in milliseconds, that a
// cluster of coincident points is fanned out over.
func SpreadWidth(sc schema.SpreadConfig) float64 {
	if sc.FixedDays > 0 {
		return sc.FixedDays * float64(day.Milliseconds())
	}
	dynamic := float64(sc.RangeMs) * spreadRangeFrac
	return math.Max(float64(minSpread.Milliseconds()), math.Min(float64(maxSpread.Milliseconds()), dynamic))
}

// ApplyJitter expands every point into one JitteredPoint per field key, in input
// order then field order, and separates points that share a calendar day and a
// value. Members of a cluster of size n are offset by (i-(n-1)/2)*(spread/n),
// where i is their position in that order, so every cluster stays centered on
// its original timestamp. Unscored values never jitter.
func ApplyJitter(points []schema.DataPoint, fieldKeys []string, sc schema.SpreadConfig, loc *time.Location) []schema.JitteredPoint {
	if len(points) == 0 || len(fieldKeys) == 0 {
		return nil
	}
	if loc == nil {
		loc = time.UTC
	}

	out := make([]schema.JitteredPoint, 0, len(points)*len(fieldKeys))
	groups := make(map[collisionKey][]int)
	for i, p := range points {
		for _, key := range fieldKeys {
			v := p.Value(key)
			out = append(out, schema.JitteredPoint{
				Index:            i,
				FieldKey:         key,
				Timestamp:        p.Timestamp,
				DisplayTimestamp: p.Timestamp,
				Value:            v,
				Source:           p.Source,
				Meaning:          p.Meaning,
				SeverityCutoffs:  p.SeverityCutoffs,
				DuplicateCount:   1,
			})
			if !isScored(v) {
				continue
			}
			k := collisionKey{day: dayKey(p.Timestamp, loc), value: *v}
			groups[k] = append(groups[k], len(out)-1)
		}
	}

	spread := SpreadWidth(sc)
	for _, members := range groups {
		n := len(members)
		if n < 2 {
			continue
		}
		step := spread / float64(n)
		center := float64(n-1) / 2
		for i, idx := range members {
			offset := math.Round((float64(i) - center) * step)
			out[idx].DisplayTimestamp = out[idx].Timestamp + int64(offset)
			out[idx].DuplicateIndex = i
			out[idx].DuplicateCount = n
		}
	}
	return out
}

// isScored reports whether v is a usable numeric score.
func isScored(v *float64) bool {
	return schema.IsScored(v)
}

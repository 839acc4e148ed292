package core

import "github.com/huangsam/scorechart/schema"

// DeriveNullSeries builds the auxiliary series that marks unscored points.
// Every input point yields exactly one output: a missing value is pinned to 0
// and flagged IsNull, while a present value becomes nil so it is invisible on
// the auxiliary series. Inputs are not modified.
func DeriveNullSeries(points []schema.DataPoint, valueKey string) []schema.NullMarkerPoint {
	out := make([]schema.NullMarkerPoint, 0, len(points))
	for _, p := range points {
		if !isScored(p.Value(valueKey)) {
			out = append(out, schema.NullMarkerPoint{DataPoint: p.WithValue(valueKey, schema.Float(0)), IsNull: true})
			continue
		}
		out = append(out, schema.NullMarkerPoint{DataPoint: p.WithValue(valueKey, nil)})
	}
	return out
}

// HasNulls reports whether any point lacks a value for one of the keys.
func HasNulls(points []schema.DataPoint, keys []string) bool {
	for _, p := range points {
		for _, k := range keys {
			if !isScored(p.Value(k)) {
				return true
			}
		}
	}
	return false
}

package core

import (
	"math"
	"time"

	"github.com/huangsam/scorechart/schema"
)

// Time-domain defaults.
const (
	DefaultLookbackYears = 5
	day                  = 24 * time.Hour
	domainPadding        = 30 * day
)

// DomainOptions holds the inputs of ComputeDomain besides the points.
type DomainOptions struct {
	LookbackYears int                // Zero selects DefaultLookbackYears
	Now           time.Time          // Injected "now"; zero falls back to the newest point
	Override      *schema.TimeDomain // Caller-supplied domain, ignored when data is truncated
}

// ComputeDomain computes the visible time window of a chart.
// Points older than now-lookback are truncated; when that happens the domain is
// pinned to [cutoff-30d, now+30d] and any caller override is ignored.
// Otherwise the override is honored, or the data extent is padded by 30 days.
// Points outside schema.ValidTimestamp are ignored, and an override is clamped to it.
func ComputeDomain(points []schema.DataPoint, opts DomainOptions) schema.DomainResult {
	latest, ok := latestTimestamp(points)
	if !ok {
		return schema.DomainResult{Empty: true}
	}

	years := opts.LookbackYears
	if years <= 0 {
		years = DefaultLookbackYears
	}
	now := opts.Now
	if now.IsZero() {
		now = time.UnixMilli(latest).UTC()
	}
	cutoff := now.AddDate(-years, 0, 0).UnixMilli()

	var (
		truncated bool
		minTs     int64 = math.MaxInt64
		maxTs     int64 = math.MinInt64
	)
	for _, p := range points {
		if !schema.ValidTimestamp(p.Timestamp) {
			continue
		}
		if p.Timestamp < cutoff {
			truncated = true
			continue
		}
		minTs = min(minTs, p.Timestamp)
		maxTs = max(maxTs, p.Timestamp)
	}

	pad := domainPadding.Milliseconds()
	if truncated {
		return schema.DomainResult{
			Domain:              schema.TimeDomain{Min: cutoff - pad, Max: now.UnixMilli() + pad},
			Truncated:           true,
			TruncationTimestamp: &cutoff,
		}
	}
	if opts.Override != nil {
		return schema.DomainResult{Domain: schema.TimeDomain{
			Min: clampInt(opts.Override.Min, schema.MinTimestamp, schema.MaxTimestamp),
			Max: clampInt(opts.Override.Max, schema.MinTimestamp, schema.MaxTimestamp),
		}}
	}
	return schema.DomainResult{Domain: schema.TimeDomain{Min: minTs - pad, Max: maxTs + pad}}
}

// FilterToDomain keeps the points that are visible under the computed domain,
// preserving their original order.
func FilterToDomain(points []schema.DataPoint, dr schema.DomainResult) []schema.DataPoint {
	if dr.Empty {
		return nil
	}
	kept := make([]schema.DataPoint, 0, len(points))
	for _, p := range points {
		if dr.TruncationTimestamp != nil && p.Timestamp < *dr.TruncationTimestamp {
			continue
		}
		if !dr.Domain.Contains(p.Timestamp) {
			continue
		}
		kept = append(kept, p)
	}
	return kept
}

// latestTimestamp returns the newest valid timestamp, or false when there is none.
func latestTimestamp(points []schema.DataPoint) (int64, bool) {
	var latest int64 = math.MinInt64
	found := false
	for _, p := range points {
		if schema.ValidTimestamp(p.Timestamp) {
			latest = max(latest, p.Timestamp)
			found = true
		}
	}
	return latest, found
}

package core

import (
	"math"
	"testing"
	"time"

	"github.com/huangsam/scorechart/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMonthStep(t *testing.T) {
	tests := []struct {
		width    int
		expected int
	}{
		{width: 320, expected: 12},
		{width: 450, expected: 12},
		{width: 451, expected: 9},
		{width: 580, expected: 9},
		{width: 581, expected: 6},
		{width: 1200, expected: 6},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, monthStep(tt.width), "width %d", tt.width)
	}
}

func TestBuildTicks(t *testing.T) {
	domain := schema.TimeDomain{Min: msOf("2019-05-02"), Max: msOf("2024-07-01")}

	t.Run("wide chart keeps every six-month tick", func(t *testing.T) {
		ticks := BuildTicks(domain, 800, time.UTC)
		require.Len(t, ticks, 11)
		assert.Equal(t, domain.Min, ticks[0], "first candidate is clamped to the domain")
		assert.Equal(t, msOf("2019-11-01"), ticks[1])
		assert.Equal(t, msOf("2024-05-01"), ticks[10])
	})

	t.Run("narrow chart thins overlapping labels", func(t *testing.T) {
		ticks := BuildTicks(domain, 300, time.UTC)
		assert.Equal(t, []int64{domain.Min, msOf("2021-05-01"), msOf("2023-05-01")}, ticks)
	})

	t.Run("empty domain", func(t *testing.T) {
		assert.Nil(t, BuildTicks(schema.TimeDomain{}, 800, time.UTC))
		assert.Nil(t, BuildTicks(domain, 0, time.UTC))
	})

	t.Run("nil location is UTC", func(t *testing.T) {
		assert.Equal(t, BuildTicks(domain, 500, time.UTC), BuildTicks(domain, 500, nil))
	})
}

func TestBuildTicksProperties(t *testing.T) {
	domains := []schema.TimeDomain{
		{Min: msOf("2019-05-02"), Max: msOf("2024-07-01")},
		{Min: msOf("2023-12-02"), Max: msOf("2024-02-01")},
		{Min: msOf("2000-01-31"), Max: msOf("2024-12-31")},
		{Min: msOf("2024-01-01"), Max: msOf("2024-01-01") + 1},
	}
	widths := []int{200, 450, 500, 580, 640, 1024, 2400}

	for _, d := range domains {
		for _, w := range widths {
			first := BuildTicks(d, w, time.UTC)
			second := BuildTicks(d, w, time.UTC)
			assert.Equal(t, first, second, "ticks must be deterministic")

			days := make(map[string]struct{}, len(first))
			scale := float64(w) / float64(d.Width())
			for i, tick := range first {
				assert.True(t, d.Contains(tick), "tick %d outside domain", tick)
				key := time.UnixMilli(tick).UTC().Format(time.DateOnly)
				_, dup := days[key]
				assert.False(t, dup, "duplicate tick day %s", key)
				days[key] = struct{}{}
				if i > 0 {
					assert.Less(t, first[i-1], tick, "ticks must ascend")
					gap := float64(tick-first[i-1]) * scale
					assert.GreaterOrEqual(t, gap, float64(tickLabelWidthPx), "labels overlap")
				}
			}
		}
	}
}

func TestTickLabels(t *testing.T) {
	ticks := []int64{msOf("2019-05-02"), msOf("2019-11-01")}
	assert.Equal(t, []string{"May 2019", "Nov 2019"}, TickLabels(ticks, time.UTC))
	assert.Empty(t, TickLabels(nil, nil))
}

func TestBuildTicksWideDomain(t *testing.T) {
	tests := []struct {
		name   string
		domain schema.TimeDomain
	}{
		{name: "far future", domain: schema.TimeDomain{Min: msOf("2024-01-01"), Max: 1e18}},
		{name: "max int64", domain: schema.TimeDomain{Min: msOf("2024-01-01"), Max: math.MaxInt64}},
		{name: "full calendar", domain: schema.TimeDomain{Min: schema.MinTimestamp, Max: schema.MaxTimestamp}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ticks := BuildTicks(tt.domain, 640, time.UTC)
			require.NotEmpty(t, ticks)
			assert.LessOrEqual(t, len(ticks), 640/tickLabelWidthPx+1)
			for i, tick := range ticks {
				assert.True(t, tt.domain.Contains(tick), "tick %d outside domain", tick)
				if i > 0 {
					assert.Less(t, ticks[i-1], tick, "ticks must ascend")
				}
			}
			assert.Equal(t, ticks, BuildTicks(tt.domain, 640, time.UTC))
		})
	}
}

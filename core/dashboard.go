package core

import (
	"context"
	"maps"
	"runtime"
	"slices"

	"github.com/huangsam/scorechart/schema"
	"golang.org/x/sync/errgroup"
)

// DashboardOptions controls ComposeDashboard.
type DashboardOptions struct {
	WidthPx int   // Overrides each instrument's width when positive
	Workers int   // Maximum concurrent compositions; zero selects GOMAXPROCS
	Clock   Clock // Shared "now" so every chart is cut at the same instant

	// Configure adjusts each instrument's config before composition. Optional.
	Configure func(schema.ChartConfig) schema.ChartConfig
}

// ComposeDashboard composes one chart per instrument concurrently. Results are
// ordered by instrument id. An unregistered instrument fails the whole call.
func ComposeDashboard(ctx context.Context, reg *Registry, pointsByInstrument map[string][]schema.DataPoint, opts DashboardOptions) ([]schema.DashboardChart, error) {
	ids := slices.Sorted(maps.Keys(pointsByInstrument))
	defs := make([]schema.InstrumentDef, len(ids))
	for i, id := range ids {
		def, err := reg.Lookup(id)
		if err != nil {
			return nil, err
		}
		defs[i] = def
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	clock := clockOrSystem(opts.Clock)
	// Pin "now" once so charts composed at different moments still agree.
	clock = FixedClock(clock.Now())

	results := make([]schema.DashboardChart, len(defs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, def := range defs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			cfg := def.Config
			if opts.Configure != nil {
				cfg = opts.Configure(cfg)
			}
			if opts.WidthPx > 0 {
				cfg.WidthPx = opts.WidthPx
			}
			results[i] = schema.DashboardChart{
				Instrument: def.ID,
				Chart:      ComposeChart(gctx, pointsByInstrument[def.ID], def.Fields, cfg, clock),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

package contract

import (
	"context"
	"fmt"

	"github.com/huangsam/scorechart/core"
	"github.com/huangsam/scorechart/schema"
)

// ComposeInstrument composes one instrument's chart with the configured overrides and clock.
func (c *Config) ComposeInstrument(ctx context.Context, reg *core.Registry, instrument string, points []schema.DataPoint) (schema.DashboardChart, error) {
	def, err := reg.Lookup(instrument)
	if err != nil {
		return schema.DashboardChart{}, err
	}
	desc := core.ComposeChart(ctx, points, def.Fields, c.ApplyChartOverrides(def.Config), c.Clock())
	return schema.DashboardChart{Instrument: def.ID, Chart: desc}, nil
}

// ComposePatientDashboard loads every instrument recorded for a patient and composes a dashboard.
func (c *Config) ComposePatientDashboard(ctx context.Context, reg *core.Registry, st ObservationStore, patientID string) ([]schema.DashboardChart, error) {
	instruments, err := st.Instruments(ctx, patientID)
	if err != nil {
		return nil, err
	}

	pointsByInstrument := make(map[string][]schema.DataPoint, len(instruments))
	for _, id := range instruments {
		if _, err := reg.Lookup(id); err != nil {
			// Rows recorded under an instrument that is no longer registered are skipped.
			continue
		}
		points, err := st.Points(ctx, patientID, id)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s observations: %w", id, err)
		}
		pointsByInstrument[id] = points
	}

	return core.ComposeDashboard(ctx, reg, pointsByInstrument, c.DashboardOptions())
}

// DashboardOptions returns the dashboard settings implied by the configuration.
func (c *Config) DashboardOptions() core.DashboardOptions {
	return core.DashboardOptions{
		Workers:   c.Workers,
		Clock:     c.Clock(),
		Configure: c.ApplyChartOverrides,
	}
}

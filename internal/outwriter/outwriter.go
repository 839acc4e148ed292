// Package outwriter has output and writer logic.
package outwriter

import (
	"time"

	"github.com/huangsam/scorechart/internal/contract"
	"github.com/huangsam/scorechart/schema"
)

// OutWriter provides a unified interface for all output operations.
// It encapsulates the various output formats and provides a clean API for the commands.
type OutWriter struct{}

// NewOutWriter creates a new instance of the output writer.
func NewOutWriter() *OutWriter {
	return &OutWriter{}
}

// WriteChart prints one composed chart using the configured output format.
func (ow *OutWriter) WriteChart(chart schema.DashboardChart, cfg *contract.Config, duration time.Duration) error {
	return PrintChart(chart, cfg, duration)
}

// WriteDashboard prints a set of composed charts using the configured output format.
func (ow *OutWriter) WriteDashboard(charts []schema.DashboardChart, cfg *contract.Config, duration time.Duration) error {
	return PrintDashboard(charts, cfg, duration)
}

// WriteInstruments prints the instrument registry using the configured output format.
func (ow *OutWriter) WriteInstruments(defs []schema.InstrumentDef, cfg *contract.Config) error {
	return PrintInstruments(defs, cfg)
}

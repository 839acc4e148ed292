package cmd

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/huangsam/scorechart/core"
	"github.com/huangsam/scorechart/internal/contract"
	"github.com/huangsam/scorechart/internal/outwriter"
	"github.com/huangsam/scorechart/internal/reader"
	"github.com/huangsam/scorechart/schema"
	"github.com/spf13/cobra"
)

// dashboardCmd composes one chart per instrument.
var dashboardCmd = &cobra.Command{
	Use:   "dashboard [points-files...]",
	Short: "Compose one chart per instrument for a patient.",
	Long: `Compose a dashboard with one chart per instrument.

With --patient, every instrument recorded for that patient in the
observation store is charted. Otherwise each points file is charted
under the instrument named by its base name (phq9.json -> phq9).

All charts are cut against the same "now" and composed concurrently
with --workers.

Examples:
  # Dashboard of a stored patient
  scorechart dashboard --patient 1234

  # Dashboard from files, written as a single HTML page
  scorechart dashboard phq9.json gad7.csv --output html --output-file dashboard.html`,
	PreRunE: sharedSetup,
	Run: func(_ *cobra.Command, args []string) {
		if err := runDashboard(args); err != nil {
			contract.LogFatal("Cannot compose dashboard", err)
		}
	},
}

func runDashboard(args []string) error {
	start := time.Now()

	var (
		charts []schema.DashboardChart
		err    error
	)
	switch {
	case cfg.Patient != "":
		st, openErr := openStore()
		if openErr != nil {
			return openErr
		}
		defer func() { _ = st.Close() }()
		charts, err = cfg.ComposePatientDashboard(rootCtx, registry, st, cfg.Patient)
	case len(args) > 0:
		var pointsByInstrument map[string][]schema.DataPoint
		pointsByInstrument, err = readInstrumentFiles(args)
		if err != nil {
			return err
		}
		charts, err = core.ComposeDashboard(rootCtx, registry, pointsByInstrument, cfg.DashboardOptions())
	default:
		return errors.New("points files or --patient are required")
	}
	if err != nil {
		return err
	}
	return outwriter.PrintDashboard(charts, cfg, time.Since(start))
}

// readInstrumentFiles reads each file under the instrument named by its base name.
func readInstrumentFiles(paths []string) (map[string][]schema.DataPoint, error) {
	out := make(map[string][]schema.DataPoint, len(paths))
	for _, path := range paths {
		id := strings.ToLower(strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)))
		if _, err := registry.Lookup(id); err != nil {
			return nil, fmt.Errorf("cannot chart %s: %w", path, err)
		}

		format := cfg.InputFormat
		if format == "" {
			format = reader.FormatFromPath(path)
		}
		points, dropped, err := reader.ReadFile(path, format)
		if err != nil {
			return nil, err
		}
		if dropped > 0 {
			logger.Warn().Int("dropped", dropped).Str("file", path).Msg("dropped points without a usable timestamp")
		}
		out[id] = append(out[id], points...)
	}
	return out, nil
}

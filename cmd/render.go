package cmd

import (
	"errors"
	"os"
	"time"

	"github.com/huangsam/scorechart/internal/contract"
	"github.com/huangsam/scorechart/internal/outwriter"
	"github.com/huangsam/scorechart/internal/reader"
	"github.com/huangsam/scorechart/schema"
	"github.com/spf13/cobra"
)

// renderCmd composes the chart of one instrument.
var renderCmd = &cobra.Command{
	Use:   "render [points-file]",
	Short: "Compose the chart of one instrument.",
	Long: `Compose the chart description of one questionnaire instrument.

Points come from a JSON or CSV file, from stdin when the file is "-",
or from the observation store when --patient is set. Each point needs a
timestamp (epoch ms) or date; every other column is a field score.

The chart shows:
- A time axis cut to the lookback window, with a truncation marker
- Severity bands and cutoff lines for the instrument
- Same-day points spread apart so they stay visible
- Markers for administrations that were not scored

Examples:
  # Render a PHQ-9 history as a table
  scorechart render --instrument phq9 phq9.json

  # Export the chart description for a front-end
  scorechart render -i gad7 scores.csv --output json --output-file gad7.json

  # Preview a stored patient's chart in the browser
  scorechart render -i phq9 --patient 1234 --output html --output-file phq9.html`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: sharedSetup,
	Run: func(_ *cobra.Command, args []string) {
		if err := runRender(args); err != nil {
			contract.LogFatal("Cannot render chart", err)
		}
	},
}

func runRender(args []string) error {
	if cfg.Instrument == "" {
		return errors.New("--instrument is required")
	}
	start := time.Now()

	points, err := loadRenderPoints(args)
	if err != nil {
		return err
	}

	chart, err := cfg.ComposeInstrument(rootCtx, registry, cfg.Instrument, points)
	if err != nil {
		return err
	}
	return outwriter.PrintChart(chart, cfg, time.Since(start))
}

// loadRenderPoints reads the points file, stdin, or the stored observations of --patient.
func loadRenderPoints(args []string) ([]schema.DataPoint, error) {
	if len(args) == 0 {
		if cfg.Patient == "" {
			return nil, errors.New("a points file or --patient is required")
		}
		st, err := openStore()
		if err != nil {
			return nil, err
		}
		defer func() { _ = st.Close() }()
		return st.Points(rootCtx, cfg.Patient, cfg.Instrument)
	}

	var (
		points  []schema.DataPoint
		dropped int
		err     error
	)
	if args[0] == "-" {
		format := cfg.InputFormat
		if format == "" {
			format = schema.JSONInput
		}
		points, dropped, err = reader.ReadPoints(os.Stdin, format)
	} else {
		format := cfg.InputFormat
		if format == "" {
			format = reader.FormatFromPath(args[0])
		}
		points, dropped, err = reader.ReadFile(args[0], format)
	}
	if err != nil {
		return nil, err
	}
	if dropped > 0 {
		logger.Warn().Int("dropped", dropped).Str("instrument", cfg.Instrument).Msg("dropped points without a usable timestamp")
	}
	return points, nil
}

package cmd

import (
	"github.com/huangsam/scorechart/internal/contract"
	"github.com/huangsam/scorechart/internal/outwriter"
	"github.com/spf13/cobra"
)

// instrumentsCmd lists the instrument registry.
var instrumentsCmd = &cobra.Command{
	Use:   "instruments",
	Short: "List the registered questionnaire instruments.",
	Long: `List every instrument known to scorechart with its fields,
severity direction and cutoffs.

Built-in instruments can be extended or overridden with --instruments-file.

Examples:
  # Show the built-in instruments
  scorechart instruments

  # Include site-specific instruments
  scorechart instruments --instruments-file site.yaml --output json`,
	PreRunE: sharedSetup,
	Run: func(_ *cobra.Command, _ []string) {
		if err := outwriter.PrintInstruments(registry.Instruments(), cfg); err != nil {
			contract.LogFatal("Cannot list instruments", err)
		}
	},
}

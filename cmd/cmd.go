// Package cmd defines the command-line interface for scorechart.
package cmd

import (
	"github.com/huangsam/scorechart/internal/contract"
	"github.com/huangsam/scorechart/internal/logging"
	"github.com/huangsam/scorechart/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	// Call initConfig on Cobra's initialization
	cobra.OnInitialize(initConfig)

	// Add primary subcommands to the root command
	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(dashboardCmd)
	rootCmd.AddCommand(instrumentsCmd)
	rootCmd.AddCommand(storeCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(versionCmd)

	// Add the store subcommands to the parent store command
	storeCmd.AddCommand(storeImportCmd)
	storeCmd.AddCommand(storeStatusCmd)
	storeCmd.AddCommand(storeClearCmd)
	storeCmd.AddCommand(storeMigrateCmd)

	// Bind all persistent flags of rootCmd to Viper
	rootCmd.PersistentFlags().String("output", string(schema.TextOut), "Output format: text or csv or json or parquet or html")
	rootCmd.PersistentFlags().String("output-file", "", "Optional path to write output to")
	rootCmd.PersistentFlags().Int("width", 0, "Chart width in pixels (0 = per-instrument default)")
	rootCmd.PersistentFlags().Int("term-width", 0, "Terminal width override (0 = auto-detect)")
	rootCmd.PersistentFlags().String("now", "", "Cut charts against this instant instead of the current time (RFC3339 or YYYY-MM-DD)")
	rootCmd.PersistentFlags().String("timezone", "", "IANA time zone for calendar days and labels (default per instrument, UTC)")
	rootCmd.PersistentFlags().Int("lookback-years", 0, "Years of history to show before truncating (0 = per-instrument default)")
	rootCmd.PersistentFlags().Float64("jitter-days", 0, "Spread of same-day points in days (0 = dynamic)")
	rootCmd.PersistentFlags().StringP("instrument", "i", "", "Instrument id, e.g. phq9 or gad7")
	rootCmd.PersistentFlags().String("instruments-file", "", "YAML file with extra or overriding instrument definitions")
	rootCmd.PersistentFlags().StringP("patient", "p", "", "Patient identifier in the observation store")
	rootCmd.PersistentFlags().String("input-format", "", "Points file encoding: json or csv (default from file extension)")
	rootCmd.PersistentFlags().Int("workers", contract.DefaultWorkers, "Number of concurrent chart compositions")
	rootCmd.PersistentFlags().Int("precision", contract.DefaultPrecision, "Decimal precision for numeric columns")
	rootCmd.PersistentFlags().String("log-level", logging.DefaultLevel, "Log level: trace or debug or info or warn or error")
	rootCmd.PersistentFlags().String("color", "yes", "Enable colored severity labels in output (yes/no/true/false/1/0)")
	rootCmd.PersistentFlags().String("store-backend", string(schema.SQLiteBackend), "Observation store backend: sqlite or mysql or postgresql or none")
	rootCmd.PersistentFlags().String("store-db-connect", "", "Database connection string for mysql/postgresql (e.g., user:pass@tcp(host:port)/dbname)")
	rootCmd.PersistentFlags().String("profile", "", "Enable profiling and write profiles to files with this prefix")
	rootCmd.PersistentFlags().String("config", "", "Path to config file")
	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		contract.LogFatal("Error binding root flags", err)
	}

	// Bind all flags of serveCmd to Viper
	serveCmd.Flags().String("listen", contract.DefaultListenAddr, "Address for the HTTP server to listen on")
	if err := viper.BindPFlags(serveCmd.Flags()); err != nil {
		contract.LogFatal("Error binding serve flags", err)
	}

	// Bind all flags of storeMigrateCmd to Viper
	storeMigrateCmd.Flags().Int("target-version", -1, "Target migration version (-1 means latest, 0 means rollback to initial state)")
	if err := viper.BindPFlags(storeMigrateCmd.Flags()); err != nil {
		contract.LogFatal("Error binding store migrate flags", err)
	}
}

package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/huangsam/scorechart/internal/contract"
	"github.com/huangsam/scorechart/internal/reader"
	"github.com/huangsam/scorechart/internal/store"
	"github.com/huangsam/scorechart/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// storeCmd focused on observation store management.
//
// Note: status, clear and migrate use minimal initialization (storeSetup) instead of
// the full sharedSetup used by chart commands.
var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "Manage the observation store",
	Long: `Manage the store that keeps scored observations per patient and instrument.

Supported backends: SQLite (default), MySQL, PostgreSQL, or None (disabled)

Subcommands:
  import  - Record a points file for a patient
  status  - Show store statistics and connection info
  clear   - Remove all stored observations
  migrate - Move the store schema to a version

Examples:
  # Import a patient's PHQ-9 history
  scorechart store import phq9.csv --patient 1234 --instrument phq9

  # Check store status
  scorechart store status`,
}

// storeImportCmd records a points file.
var storeImportCmd = &cobra.Command{
	Use:   "import <points-file>",
	Short: "Record a points file for a patient and instrument",
	Long: `Read a JSON or CSV points file and record every field score for the
given patient and instrument. Re-importing the same observations replaces them.

Examples:
  # Import a CSV export
  scorechart store import auditc.csv -p 1234 -i auditc

  # Import into PostgreSQL (set connection string via env variable)
  SCORECHART_STORE_BACKEND=postgresql SCORECHART_STORE_DB_CONNECT="..." scorechart store import gad7.json -p 1234 -i gad7`,
	Args:    cobra.ExactArgs(1),
	PreRunE: sharedSetup,
	Run: func(cmd *cobra.Command, args []string) {
		if err := runStoreImport(cmd, args[0]); err != nil {
			contract.LogFatal("Failed to import observations", err)
		}
	},
}

func runStoreImport(cmd *cobra.Command, path string) error {
	if cfg.Patient == "" || cfg.Instrument == "" {
		return errors.New("--patient and --instrument are required")
	}
	if _, err := registry.Lookup(cfg.Instrument); err != nil {
		return err
	}

	format := cfg.InputFormat
	if format == "" {
		format = reader.FormatFromPath(path)
	}
	points, dropped, err := reader.ReadFile(path, format)
	if err != nil {
		return err
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	written, err := st.Record(rootCtx, cfg.Patient, cfg.Instrument, points)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Recorded %d field scores from %d observations for patient %s (%s). Dropped %d rows without a date.\n",
		written, len(points), cfg.Patient, cfg.Instrument, dropped)
	return nil
}

// storeStatusCmd shows store status.
var storeStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display store statistics and connection details",
	Long: `Show detailed information about the observation store.

Displays:
- Backend type and connection status
- Total number of rows and patients
- Oldest and latest observation timestamps
- Table size and schema version

Examples:
  # Check store status
  scorechart store status`,
	PreRunE: storeSetup,
	Run: func(_ *cobra.Command, _ []string) {
		st, err := openStore()
		if err != nil {
			contract.LogFatal("Failed to open store", err)
		}
		defer func() { _ = st.Close() }()

		status, err := st.GetStatus()
		if err != nil {
			contract.LogFatal("Failed to get store status", err)
		}
		store.PrintStatus(os.Stdout, status)
	},
}

// storeClearCmd clears the store.
var storeClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all stored observations",
	Long: `Delete all observations from the configured backend.

For SQLite: Deletes the database file
For MySQL/PostgreSQL: Drops the observations table

Examples:
  # Clear SQLite store (default)
  scorechart store clear

  # Clear MySQL store (set connection string via env variable)
  SCORECHART_STORE_BACKEND=mysql SCORECHART_STORE_DB_CONNECT="..." scorechart store clear`,
	PreRunE: storeSetup,
	Run: func(_ *cobra.Command, _ []string) {
		dbFilePath := contract.GetDBFilePath()
		if cfg.StoreBackend == schema.SQLiteBackend && cfg.StoreDBConnect != "" {
			dbFilePath = cfg.StoreDBConnect
		}
		if err := store.Clear(cfg.StoreBackend, dbFilePath, cfg.StoreDBConnect); err != nil {
			contract.LogFatal("Failed to clear store", err)
		}
		fmt.Println("Store cleared successfully.")
	},
}

// storeMigrateCmd runs schema migrations.
var storeMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Migrate the observation store schema",
	Long: `Manage database schema versions for the observation store.

By default, migrates to the latest version. Use --target-version for specific versions.

Examples:
  # Migrate to latest version (default)
  scorechart store migrate

  # Rollback to the initial state
  scorechart store migrate --target-version 0`,
	PreRunE: storeSetup,
	Run: func(_ *cobra.Command, _ []string) {
		targetVersion := viper.GetInt("target-version")
		if err := store.Migrate(cfg.StoreBackend, cfg.StoreDBConnect, targetVersion, os.Stdout); err != nil {
			contract.LogFatal("Failed to run migrations", err)
		}
	},
}

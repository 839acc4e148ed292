package contract

import (
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/huangsam/scorechart/core"
	"github.com/huangsam/scorechart/internal/logging"
	"github.com/huangsam/scorechart/schema"
	"github.com/rs/zerolog"
)

// Default values for configuration.
const (
	DefaultWidth      = core.DefaultWidthPx
	MinWidth          = 200
	MaxWidth          = 4096
	DefaultPrecision  = 1
	DefaultListenAddr = "127.0.0.1:8080"
	MaxLookbackYears  = 100
	MaxJitterDays     = 365
)

// DefaultWorkers is the default number of concurrent chart compositions.
var DefaultWorkers = runtime.GOMAXPROCS(0)

// DateTimeFormat is the default date time representation.
var DateTimeFormat = time.RFC3339

// Config holds the runtime configuration.
// This struct is the "final, validated" config.
type Config struct {
	Output          schema.OutputMode
	OutputFile      string
	Width           int // Chart width in pixels
	TermWidth       int // Terminal width override (0 = auto-detect)
	Now             time.Time
	LookbackYears   int     // 0 = per-instrument default
	JitterDays      float64 // 0 = dynamic spread
	TimeZone        string  // Empty = per-instrument default
	Instrument      string
	InstrumentsFile string
	Patient         string
	InputFormat     schema.InputFormat // Empty = inferred from the file extension
	Workers         int
	Precision       int
	Listen          string
	LogLevel        zerolog.Level

	StoreBackend   schema.DatabaseBackend
	StoreDBConnect string // Please use env var as this is plaintext

	UseColors bool // Enable colored severity labels in table output
}

// ConfigRawInput holds the raw inputs from all sources (flags, env, config file).
// Viper unmarshals into this struct.
type ConfigRawInput struct {
	// --- Fields from rootCmd.PersistentFlags() ---
	Output         string `mapstructure:"output"`
	OutputFile     string `mapstructure:"output-file"`
	Width          int    `mapstructure:"width"`
	TermWidth      int    `mapstructure:"term-width"`
	Now            string `mapstructure:"now"`
	TimeZone       string `mapstructure:"timezone"`
	Workers        int    `mapstructure:"workers"`
	Precision      int    `mapstructure:"precision"`
	LogLevel       string `mapstructure:"log-level"`
	Color          string `mapstructure:"color"`
	StoreBackend   string `mapstructure:"store-backend"`
	StoreDBConnect string `mapstructure:"store-db-connect"`

	// --- Fields from chart command flags ---
	LookbackYears   int     `mapstructure:"lookback-years"`
	JitterDays      float64 `mapstructure:"jitter-days"`
	Instrument      string  `mapstructure:"instrument"`
	InstrumentsFile string  `mapstructure:"instruments-file"`
	Patient         string  `mapstructure:"patient"`
	InputFormat     string  `mapstructure:"input-format"`

	// --- Fields from serveCmd.Flags() ---
	Listen string `mapstructure:"listen"`
}

// Clock returns the clock charts are cut against: the --now override, or the system clock.
func (c *Config) Clock() core.Clock {
	if c.Now.IsZero() {
		return core.SystemClock{}
	}
	return core.FixedClock(c.Now)
}

// ApplyChartOverrides layers the command-line chart settings over an instrument's config.
func (c *Config) ApplyChartOverrides(cfg schema.ChartConfig) schema.ChartConfig {
	if c.Width > 0 {
		cfg.WidthPx = c.Width
	}
	if c.LookbackYears > 0 {
		cfg.LookbackYears = c.LookbackYears
	}
	if c.JitterDays > 0 {
		cfg.JitterSpreadDays = c.JitterDays
	}
	if c.TimeZone != "" {
		cfg.TimeZone = c.TimeZone
	}
	return cfg
}

// Registry builds the instrument registry, layering the instruments file over the built-ins.
func (c *Config) Registry() (*core.Registry, error) {
	defs := core.BuiltinInstruments()
	if c.InstrumentsFile != "" {
		extra, err := core.LoadInstrumentFile(c.InstrumentsFile)
		if err != nil {
			return nil, err
		}
		defs = append(defs, extra...)
	}
	return core.NewRegistry(core.DefaultBaseConfig(), defs...)
}

// ProcessAndValidate performs all parsing and validation on the raw inputs
// and updates the final Config struct.
func ProcessAndValidate(cfg *Config, input *ConfigRawInput) error {
	if err := validateSimpleInputs(cfg, input); err != nil {
		return err
	}
	if err := processChartInputs(cfg, input); err != nil {
		return err
	}
	return validateStoreConfig(cfg, input)
}

// ValidateDatabaseConnectionString validates the format of database connection strings
// for MySQL and PostgreSQL backends.
func ValidateDatabaseConnectionString(backend schema.DatabaseBackend, connStr string) error {
	switch backend {
	case schema.SQLiteBackend, schema.NoneBackend:
		return nil
	case schema.MySQLBackend:
		if connStr == "" {
			return fmt.Errorf("store-db-connect is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "@tcp(") {
			return fmt.Errorf("MySQL connection string must contain '@tcp(' followed by host:port")
		}
		if !strings.Contains(connStr, "/") {
			return fmt.Errorf("MySQL connection string must contain '/' followed by database name")
		}
	case schema.PostgreSQLBackend:
		if connStr == "" {
			return fmt.Errorf("store-db-connect is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "host=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'host=' parameter")
		}
		if !strings.Contains(connStr, "dbname=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'dbname=' parameter")
		}
	}
	return nil
}

// validateSimpleInputs processes and validates the output and runtime fields.
func validateSimpleInputs(cfg *Config, input *ConfigRawInput) error {
	// --- 0. Transfer simple non-validated fields from input -> cfg ---
	cfg.OutputFile = input.OutputFile
	cfg.TermWidth = input.TermWidth
	cfg.Listen = input.Listen
	if cfg.Listen == "" {
		cfg.Listen = DefaultListenAddr
	}

	colors, err := ParseBoolString(input.Color)
	if err != nil {
		return fmt.Errorf("invalid --color value: %w", err)
	}
	cfg.UseColors = colors

	lvl, err := logging.ParseLevel(input.LogLevel)
	if err != nil {
		return err
	}
	cfg.LogLevel = lvl

	// --- 1. Workers Validation ---
	if input.Workers <= 0 {
		return fmt.Errorf("workers must be greater than 0 (received %d)", input.Workers)
	}
	cfg.Workers = input.Workers

	// --- 2. Precision and Output Validation ---
	if input.Precision < 0 || input.Precision > 4 {
		return fmt.Errorf("precision must be between 0 and 4 (received %d)", input.Precision)
	}
	cfg.Precision = input.Precision

	cfg.Output = schema.OutputMode(strings.ToLower(input.Output))
	if _, ok := schema.ValidOutputModes[cfg.Output]; !ok {
		return fmt.Errorf("invalid output format '%s'. must be text, csv, json, parquet, html", input.Output)
	}
	if cfg.Output == schema.ParquetOut && cfg.OutputFile == "" {
		return fmt.Errorf("parquet output requires --output-file")
	}
	return nil
}

// processChartInputs validates the settings that flow into chart composition.
func processChartInputs(cfg *Config, input *ConfigRawInput) error {
	cfg.Instrument = strings.TrimSpace(strings.ToLower(input.Instrument))
	cfg.InstrumentsFile = strings.TrimSpace(input.InstrumentsFile)
	cfg.Patient = strings.TrimSpace(input.Patient)

	if input.Width != 0 && (input.Width < MinWidth || input.Width > MaxWidth) {
		return fmt.Errorf("width must be between %d and %d pixels (received %d)", MinWidth, MaxWidth, input.Width)
	}
	cfg.Width = input.Width

	if input.LookbackYears < 0 || input.LookbackYears > MaxLookbackYears {
		return fmt.Errorf("lookback-years must be between 0 and %d (received %d)", MaxLookbackYears, input.LookbackYears)
	}
	cfg.LookbackYears = input.LookbackYears

	if input.JitterDays < 0 || input.JitterDays > MaxJitterDays {
		return fmt.Errorf("jitter-days must be between 0 and %d (received %v)", MaxJitterDays, input.JitterDays)
	}
	cfg.JitterDays = input.JitterDays

	if tz := strings.TrimSpace(input.TimeZone); tz != "" {
		if _, err := time.LoadLocation(tz); err != nil {
			return fmt.Errorf("invalid timezone %q: %w", tz, err)
		}
		cfg.TimeZone = tz
	}

	if input.Now != "" {
		t, ok := schema.ParseDate(input.Now)
		if !ok {
			return fmt.Errorf("invalid --now value %q. Expected RFC3339 or YYYY-MM-DD", input.Now)
		}
		cfg.Now = t
	}

	if input.InputFormat != "" {
		cfg.InputFormat = schema.InputFormat(strings.ToLower(input.InputFormat))
		if _, ok := schema.ValidInputFormats[cfg.InputFormat]; !ok {
			return fmt.Errorf("invalid input format '%s'. must be json, csv", input.InputFormat)
		}
	}
	return nil
}

// validateStoreConfig validates the observation store configuration.
func validateStoreConfig(cfg *Config, input *ConfigRawInput) error {
	cfg.StoreBackend = schema.DatabaseBackend(strings.ToLower(input.StoreBackend))
	if cfg.StoreBackend == "" {
		cfg.StoreBackend = schema.SQLiteBackend
	}
	if _, ok := schema.ValidDatabaseBackends[cfg.StoreBackend]; !ok {
		return fmt.Errorf("invalid store backend '%s'. must be sqlite, mysql, postgresql, none", input.StoreBackend)
	}
	cfg.StoreDBConnect = input.StoreDBConnect
	return ValidateDatabaseConnectionString(cfg.StoreBackend, cfg.StoreDBConnect)
}

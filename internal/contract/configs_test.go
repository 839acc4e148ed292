package contract

import (
	"testing"
	"time"

	"github.com/huangsam/scorechart/core"
	"github.com/huangsam/scorechart/schema"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// validInput returns the raw input produced by the default flag values.
func validInput() *ConfigRawInput {
	return &ConfigRawInput{
		Output:       "text",
		Workers:      4,
		Precision:    DefaultPrecision,
		Color:        "yes",
		StoreBackend: "sqlite",
	}
}

func TestProcessAndValidate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*ConfigRawInput)
		expectError bool
		check       func(*testing.T, *Config)
	}{
		{
			name: "valid minimal config",
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, schema.TextOut, cfg.Output)
				assert.Equal(t, schema.SQLiteBackend, cfg.StoreBackend)
				assert.Equal(t, DefaultListenAddr, cfg.Listen)
				assert.Equal(t, zerolog.WarnLevel, cfg.LogLevel)
				assert.True(t, cfg.UseColors)
				assert.True(t, cfg.Now.IsZero())
			},
		},
		{
			name: "chart overrides",
			mutate: func(in *ConfigRawInput) {
				in.Width = 480
				in.LookbackYears = 3
				in.JitterDays = 10
				in.TimeZone = "UTC"
				in.Now = "2024-06-01"
				in.Instrument = " PHQ9 "
				in.InputFormat = "CSV"
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 480, cfg.Width)
				assert.Equal(t, 3, cfg.LookbackYears)
				assert.Equal(t, 10.0, cfg.JitterDays)
				assert.Equal(t, "UTC", cfg.TimeZone)
				assert.Equal(t, time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC), cfg.Now)
				assert.Equal(t, "phq9", cfg.Instrument)
				assert.Equal(t, schema.CSVInput, cfg.InputFormat)
			},
		},
		{
			name:   "empty backend defaults to sqlite",
			mutate: func(in *ConfigRawInput) { in.StoreBackend = "" },
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, schema.SQLiteBackend, cfg.StoreBackend)
			},
		},
		{name: "invalid output", mutate: func(in *ConfigRawInput) { in.Output = "pdf" }, expectError: true},
		{name: "parquet needs a file", mutate: func(in *ConfigRawInput) { in.Output = "parquet" }, expectError: true},
		{name: "zero workers", mutate: func(in *ConfigRawInput) { in.Workers = 0 }, expectError: true},
		{name: "bad precision", mutate: func(in *ConfigRawInput) { in.Precision = 9 }, expectError: true},
		{name: "bad color", mutate: func(in *ConfigRawInput) { in.Color = "sometimes" }, expectError: true},
		{name: "bad log level", mutate: func(in *ConfigRawInput) { in.LogLevel = "shout" }, expectError: true},
		{name: "width too small", mutate: func(in *ConfigRawInput) { in.Width = 50 }, expectError: true},
		{name: "negative lookback", mutate: func(in *ConfigRawInput) { in.LookbackYears = -1 }, expectError: true},
		{name: "jitter too wide", mutate: func(in *ConfigRawInput) { in.JitterDays = 400 }, expectError: true},
		{name: "unknown timezone", mutate: func(in *ConfigRawInput) { in.TimeZone = "Mars/Olympus" }, expectError: true},
		{name: "bad now", mutate: func(in *ConfigRawInput) { in.Now = "yesterday" }, expectError: true},
		{name: "bad input format", mutate: func(in *ConfigRawInput) { in.InputFormat = "xml" }, expectError: true},
		{name: "bad backend", mutate: func(in *ConfigRawInput) { in.StoreBackend = "oracle" }, expectError: true},
		{name: "mysql without dsn", mutate: func(in *ConfigRawInput) { in.StoreBackend = "mysql" }, expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := validInput()
			if tt.mutate != nil {
				tt.mutate(input)
			}
			cfg := &Config{}
			err := ProcessAndValidate(cfg, input)
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			if tt.check != nil {
				tt.check(t, cfg)
			}
		})
	}
}

func TestValidateDatabaseConnectionString(t *testing.T) {
	tests := []struct {
		name        string
		backend     schema.DatabaseBackend
		conn        string
		expectError bool
	}{
		{name: "sqlite needs nothing", backend: schema.SQLiteBackend},
		{name: "none needs nothing", backend: schema.NoneBackend},
		{name: "valid mysql", backend: schema.MySQLBackend, conn: "user:pass@tcp(localhost:3306)/scorechart"},
		{name: "mysql missing tcp", backend: schema.MySQLBackend, conn: "user:pass@localhost/scorechart", expectError: true},
		{name: "mysql missing db", backend: schema.MySQLBackend, conn: "user:pass@tcp(localhost:3306)", expectError: true},
		{name: "valid postgres", backend: schema.PostgreSQLBackend, conn: "host=localhost port=5432 dbname=scorechart"},
		{name: "postgres missing host", backend: schema.PostgreSQLBackend, conn: "dbname=scorechart", expectError: true},
		{name: "postgres missing dbname", backend: schema.PostgreSQLBackend, conn: "host=localhost", expectError: true},
		{name: "postgres empty", backend: schema.PostgreSQLBackend, expectError: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDatabaseConnectionString(tt.backend, tt.conn)
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfigClock(t *testing.T) {
	assert.IsType(t, core.SystemClock{}, (&Config{}).Clock())

	now := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, now, (&Config{Now: now}).Clock().Now())
}

func TestApplyChartOverrides(t *testing.T) {
	base := schema.ChartConfig{WidthPx: 800, LookbackYears: 5, TimeZone: "UTC"}

	assert.Equal(t, base, (&Config{}).ApplyChartOverrides(base), "zero values keep the instrument config")

	got := (&Config{Width: 400, LookbackYears: 2, JitterDays: 9, TimeZone: "Europe/Paris"}).ApplyChartOverrides(base)
	assert.Equal(t, 400, got.WidthPx)
	assert.Equal(t, 2, got.LookbackYears)
	assert.Equal(t, 9.0, got.JitterSpreadDays)
	assert.Equal(t, "Europe/Paris", got.TimeZone)
}

func TestConfigRegistry(t *testing.T) {
	reg, err := (&Config{}).Registry()
	require.NoError(t, err)
	assert.Contains(t, reg.IDs(), "phq9")

	_, err = (&Config{InstrumentsFile: "/does/not/exist.yaml"}).Registry()
	assert.Error(t, err)
}

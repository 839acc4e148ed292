package schema

// Custom string types for type safety.
type (
	// Comparison is the direction in which a score becomes clinically concerning.
	Comparison string

	// Shape is the marker drawn for a data point.
	Shape string

	// LegendIcon is the glyph drawn next to a legend entry.
	LegendIcon string

	// Severity is the clinical band a score falls into.
	Severity string

	// OutputMode represents the format of the output.
	OutputMode string

	// DatabaseBackend represents the database backend for the observation store.
	DatabaseBackend string

	// InputFormat represents the encoding of a points file.
	InputFormat string
)

// Severity comparison directions.
const (
	HigherIsWorse Comparison = "higher" // default
	LowerIsWorse  Comparison = "lower"
)

// All point shapes supported.
const (
	ShapeCircle Shape = "circle" // default
	ShapeRect   Shape = "rect"
)

// Severity bands, from most to least concerning.
const (
	SeverityAlert   Severity = "alert"
	SeverityWarning Severity = "warning"
	SeverityNormal  Severity = "normal"
	SeverityNone    Severity = "" // no cutoffs configured, or not scored
)

// All legend icons supported.
const (
	IconLine   LegendIcon = "line"
	IconCircle LegendIcon = "circle"
	IconRect   LegendIcon = "rect"
	IconCross  LegendIcon = "cross"
)

// All output modes supported.
const (
	CSVOut     OutputMode = "csv"
	TextOut    OutputMode = "text" // default
	JSONOut    OutputMode = "json"
	ParquetOut OutputMode = "parquet"
	HTMLOut    OutputMode = "html"
)

// All store backends supported.
const (
	SQLiteBackend     DatabaseBackend = "sqlite" // default
	MySQLBackend      DatabaseBackend = "mysql"
	PostgreSQLBackend DatabaseBackend = "postgresql"
	NoneBackend       DatabaseBackend = "none"
)

// All input formats supported.
const (
	JSONInput InputFormat = "json" // default
	CSVInput  InputFormat = "csv"
)

// Render colors shared by the style resolver and the writers.
const (
	AlertColor   = "#d32f2f"
	WarningColor = "#ed6c02"
	SuccessColor = "#2e7d32"
	NullColor    = "#757575"
	DefaultColor = "#1976d2"
)

// NotScoredLabel is the legend and tooltip text for a missing score.
const NotScoredLabel = "Not Scored"

// Placeholder is returned by formatters that cannot produce a value.
const Placeholder = "—"

// ValidOutputModes lists all valid output modes.
var ValidOutputModes = map[OutputMode]struct{}{
	CSVOut:     {},
	TextOut:    {},
	JSONOut:    {},
	ParquetOut: {},
	HTMLOut:    {},
}

// ValidDatabaseBackends lists all valid store backends.
var ValidDatabaseBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	NoneBackend:       {},
}

// ValidInputFormats lists all valid points file encodings.
var ValidInputFormats = map[InputFormat]struct{}{
	JSONInput: {},
	CSVInput:  {},
}

// ValidComparisons lists the two severity directions.
var ValidComparisons = map[Comparison]struct{}{
	HigherIsWorse: {},
	LowerIsWorse:  {},
}

package contract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/huangsam/scorechart/schema"
	"github.com/rs/zerolog/log"
)

// Severity label constants.
const (
	AlertValue     = "Alert"      // Alert value
	WarningValue   = "Warning"    // Warning value
	NormalValue    = "Normal"     // Normal value
	NotScoredValue = "Not Scored" // Not scored value
	UnratedValue   = "-"          // No cutoffs configured
)

// Color variables for console output.
var (
	AlertColor     = color.New(color.FgRed, color.Bold) // AlertColor represents a clinically concerning score.
	WarningColor   = color.New(color.FgYellow)          // WarningColor represents a score past the medium cutoff.
	NormalColor    = color.New(color.FgGreen)           // NormalColor represents a score below every cutoff.
	NotScoredColor = color.New(color.FgHiBlack)         // NotScoredColor represents an unscored administration.
)

// GetPlainLabel returns a plain text label for a severity band. This is the core
// logic used for CSV, JSON, and table printing.
func GetPlainLabel(sev schema.Severity, scored bool) string {
	if !scored {
		return NotScoredValue
	}
	switch sev {
	case schema.SeverityAlert:
		return AlertValue
	case schema.SeverityWarning:
		return WarningValue
	case schema.SeverityNormal:
		return NormalValue
	default:
		return UnratedValue
	}
}

// GetColorLabel returns a colored text label for console output (table).
// It uses GetPlainLabel to determine the string, and then applies the appropriate color.
func GetColorLabel(sev schema.Severity, scored bool) string {
	text := GetPlainLabel(sev, scored)

	switch text {
	case AlertValue:
		return AlertColor.Sprint(text)
	case WarningValue:
		return WarningColor.Sprint(text)
	case NormalValue:
		return NormalColor.Sprint(text)
	case NotScoredValue:
		return NotScoredColor.Sprint(text)
	default:
		return text
	}
}

// SelectOutputFile returns the appropriate file handle for output, based on the provided
// file path. An empty path selects os.Stdout.
func SelectOutputFile(filePath string) (*os.File, error) {
	if filePath == "" {
		return os.Stdout, nil
	}
	return os.Create(filePath)
}

// LogFatal logs an error and exits the program.
func LogFatal(msg string, err error) {
	log.Fatal().Err(err).Msg(msg)
}

// LogWarn logs a warning message.
func LogWarn(msg string, err error) {
	log.Warn().Err(err).Msg(msg)
}

// GetDBFilePath returns the path to the SQLite DB file for observation storage.
func GetDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".scorechart.db"
	}
	return filepath.Join(homeDir, ".scorechart.db")
}

// TruncateText truncates text to a maximum width with an ellipsis suffix.
// Requires maxWidth > 3 to leave space for both the "..." suffix and at least one character.
func TruncateText(text string, maxWidth int) string {
	runes := []rune(text)
	if len(runes) > maxWidth && maxWidth > 3 {
		return string(runes[:maxWidth-3]) + "..."
	}
	return text
}

// ParseBoolString parses a string value into a boolean.
// Accepts "yes", "no", "true", "false", "1", "0" (case-insensitive).
// Returns an error for invalid values.
func ParseBoolString(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "yes", "true", "1":
		return true, nil
	case "no", "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean string: %s (expected yes/no/true/false/1/0)", s)
	}
}

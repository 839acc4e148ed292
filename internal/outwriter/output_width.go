package outwriter

import (
	"os"

	"github.com/huangsam/scorechart/internal/contract"
	"golang.org/x/term"
)

// Table layout limits for the meaning column.
const (
	fallbackTermWidth = 80
	fixedColumnsWidth = 70 // Date + Series + Value + Severity + Source with borders/padding
	minMeaningWidth   = 12
	maxMeaningWidth   = 60
)

// GetMaxMeaningWidth calculates the maximum width of the meaning column in table
// output based on the terminal width.
func GetMaxMeaningWidth(cfg *contract.Config) int {
	termWidth := cfg.TermWidth
	if termWidth <= 0 {
		detectedWidth, _, err := term.GetSize(int(os.Stdout.Fd()))
		if err != nil || detectedWidth <= 0 {
			// Conservative default for narrow terminals and CI
			termWidth = fallbackTermWidth
		} else {
			termWidth = detectedWidth
		}
	}

	available := termWidth - fixedColumnsWidth
	if available < minMeaningWidth {
		return minMeaningWidth
	}
	if available > maxMeaningWidth {
		return maxMeaningWidth
	}
	return available
}

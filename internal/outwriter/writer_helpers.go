package outwriter

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/huangsam/scorechart/internal/contract"
	"github.com/rs/zerolog/log"
)

// writeToOutput runs write against stdout, or against outputFile when one is set.
// File output is reported on the global logger once the file is closed cleanly.
func writeToOutput(outputFile string, write func(io.Writer) error, successMsg string) (err error) {
	file, err := contract.SelectOutputFile(outputFile)
	if err != nil {
		return fmt.Errorf("failed to open output: %w", err)
	}
	if file == os.Stdout {
		return write(file)
	}

	defer func() {
		if cerr := file.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("failed to close %s: %w", outputFile, cerr)
		}
		if err == nil {
			log.Info().Str("path", outputFile).Msg(successMsg)
		}
	}()
	return write(file)
}

// writeJSON writes data as two-space indented JSON followed by a newline.
func writeJSON(w io.Writer, data any) error {
	out, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	_, err = w.Write(append(out, '\n'))
	return err
}

// writeCSVWithHeader writes header, then lets writeRows fill in the records.
// Buffered write errors surface once the writer is flushed.
func writeCSVWithHeader(w io.Writer, header []string, writeRows func(*csv.Writer) error) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	if err := writeRows(cw); err != nil {
		return err
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV: %w", err)
	}
	return nil
}

// scoreFormatter formats scores with a fixed number of decimals.
// A negative precision prints the shortest exact representation.
func scoreFormatter(precision int) func(float64) string {
	return func(v float64) string {
		return strconv.FormatFloat(v, 'f', precision, 64)
	}
}

// Package reader decodes points files into data points for the chart pipeline.
package reader

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/huangsam/scorechart/schema"
)

// Reserved CSV columns. Every other column is a field value.
const (
	colTimestamp  = "timestamp"
	colDate       = "date"
	colSource     = "source"
	colMeaning    = "meaning"
	colHigh       = "severity_high"
	colMedium     = "severity_medium"
	colComparison = "comparison"
)

// FormatFromPath infers the input format from a file extension, defaulting to JSON.
func FormatFromPath(path string) schema.InputFormat {
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		return schema.CSVInput
	}
	return schema.JSONInput
}

// ReadFile opens path and decodes it. An empty format is inferred from the extension.
func ReadFile(path string, format schema.InputFormat) ([]schema.DataPoint, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("open points file: %w", err)
	}
	defer func() { _ = f.Close() }()
	if format == "" {
		format = FormatFromPath(path)
	}
	return ReadPoints(f, format)
}

// ReadPoints decodes points from r. Records without a usable timestamp are
// dropped and counted rather than failing the whole read.
func ReadPoints(r io.Reader, format schema.InputFormat) ([]schema.DataPoint, int, error) {
	switch format {
	case schema.JSONInput, "":
		return readJSON(r)
	case schema.CSVInput:
		return readCSV(r)
	default:
		return nil, 0, fmt.Errorf("unsupported input format %q", format)
	}
}

// readJSON accepts a bare array of records or an object with a "points" array.
func readJSON(r io.Reader) ([]schema.DataPoint, int, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, 0, fmt.Errorf("read points: %w", err)
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, 0, nil
	}

	var records []json.RawMessage
	if data[0] == '{' {
		var wrapper struct {
			Points []json.RawMessage `json:"points"`
		}
		if err := json.Unmarshal(data, &wrapper); err != nil {
			return nil, 0, fmt.Errorf("decode points: %w", err)
		}
		records = wrapper.Points
	} else if err := json.Unmarshal(data, &records); err != nil {
		return nil, 0, fmt.Errorf("decode points: %w", err)
	}

	points := make([]schema.DataPoint, 0, len(records))
	dropped := 0
	for _, rec := range records {
		var p schema.DataPoint
		if err := json.Unmarshal(rec, &p); err != nil {
			dropped++
			continue
		}
		points = append(points, p)
	}
	return points, dropped, nil
}

func readCSV(r io.Reader) ([]schema.DataPoint, int, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, 0, nil
	}
	if err != nil {
		return nil, 0, fmt.Errorf("read csv header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	var points []schema.DataPoint
	dropped := 0
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, 0, fmt.Errorf("read csv row: %w", err)
		}
		p, ok := csvRowToPoint(header, row)
		if !ok {
			dropped++
			continue
		}
		points = append(points, p)
	}
	return points, dropped, nil
}

func csvRowToPoint(header, row []string) (schema.DataPoint, bool) {
	p := schema.DataPoint{Values: make(map[string]*float64)}
	var cutoffs schema.SeverityCutoffs
	hasTime := false

	for i, name := range header {
		cell := ""
		if i < len(row) {
			cell = strings.TrimSpace(row[i])
		}
		switch strings.ToLower(name) {
		case colTimestamp, colDate:
			if hasTime {
				continue
			}
			if t, ok := schema.ParseDate(cell); ok {
				p.Timestamp = t.UnixMilli()
				hasTime = true
			}
		case colSource:
			p.Source = cell
		case colMeaning:
			p.Meaning = cell
		case colHigh:
			cutoffs.High = schema.ParseScore(cell)
		case colMedium:
			cutoffs.Medium = schema.ParseScore(cell)
		case colComparison:
			cutoffs.Comparison = schema.Comparison(strings.ToLower(cell))
		default:
			p.Values[name] = schema.ParseScore(cell)
		}
	}
	if !cutoffs.IsEmpty() {
		p.SeverityCutoffs = &cutoffs
	}
	return p, hasTime
}

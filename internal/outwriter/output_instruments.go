package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/huangsam/scorechart/internal/contract"
	"github.com/huangsam/scorechart/schema"
	"github.com/olekukonko/tablewriter"
)

// instrumentSummary is the listing shape of one registry entry.
type instrumentSummary struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Fields      []string `json:"fields"`
	Categorical bool     `json:"categorical"`
	Comparison  string   `json:"comparison,omitempty"`
	High        *float64 `json:"high,omitempty"`
	Medium      *float64 `json:"medium,omitempty"`
}

// PrintInstruments outputs the instrument registry, dispatching based on the output format configured.
func PrintInstruments(defs []schema.InstrumentDef, cfg *contract.Config) error {
	return writeToOutput(cfg.OutputFile, func(w io.Writer) error {
		return WriteInstruments(w, defs, cfg)
	}, "Wrote instrument list")
}

// WriteInstruments writes the instrument registry to w. Parquet and HTML fall back to the table.
func WriteInstruments(w io.Writer, defs []schema.InstrumentDef, cfg *contract.Config) error {
	summaries := summarizeInstruments(defs)
	fmtFloat := scoreFormatter(cfg.Precision)

	switch cfg.Output {
	case schema.JSONOut:
		return writeJSON(w, summaries)
	case schema.CSVOut:
		return writeCSVWithHeader(w, []string{"id", "name", "fields", "categorical", "comparison", "high", "medium"}, func(cw *csv.Writer) error {
			for _, s := range summaries {
				record := []string{s.ID, s.Name, strings.Join(s.Fields, "|"), fmt.Sprint(s.Categorical), s.Comparison, optionalFloat(s.High, fmtFloat), optionalFloat(s.Medium, fmtFloat)}
				if err := cw.Write(record); err != nil {
					return err
				}
			}
			return nil
		})
	default:
		table := tablewriter.NewWriter(w)
		table.Header([]string{"ID", "Name", "Fields", "Direction", "High", "Medium"})
		var data [][]string
		for _, s := range summaries {
			data = append(data, []string{s.ID, s.Name, strings.Join(s.Fields, ", "), s.Comparison, optionalFloat(s.High, fmtFloat), optionalFloat(s.Medium, fmtFloat)})
		}
		if err := table.Bulk(data); err != nil {
			return err
		}
		return table.Render()
	}
}

func summarizeInstruments(defs []schema.InstrumentDef) []instrumentSummary {
	out := make([]instrumentSummary, 0, len(defs))
	for _, def := range defs {
		s := instrumentSummary{
			ID:          def.ID,
			Name:        def.Name,
			Categorical: def.Config.IsCategoricalY,
		}
		for _, f := range def.Fields {
			s.Fields = append(s.Fields, f.Key)
		}
		if c := def.Config.SeverityCutoffs; !c.IsEmpty() {
			s.Comparison = string(c.Direction())
			s.High = c.High
			s.Medium = c.Medium
		}
		out = append(out, s)
	}
	return out
}

func optionalFloat(v *float64, fmtFloat func(float64) string) string {
	if v == nil {
		return contract.UnratedValue
	}
	return fmtFloat(*v)
}

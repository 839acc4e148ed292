package core

import (
	"errors"
	"fmt"
	"maps"
	"os"
	"slices"

	"dario.cat/mergo"
	"github.com/huangsam/scorechart/schema"
	"gopkg.in/yaml.v3"
)

// ErrUnknownInstrument is returned when an instrument id is not registered.
var ErrUnknownInstrument = errors.New("unknown instrument")

// Registry maps instrument ids to fully resolved chart definitions.
// It is built once and is read-only afterwards, so it is safe for concurrent use.
type Registry struct {
	defs map[string]schema.InstrumentDef
}

// DefaultBaseConfig returns the defaults every instrument inherits.
func DefaultBaseConfig() schema.ChartConfig {
	return schema.ChartConfig{
		LookbackYears: DefaultLookbackYears,
		WidthPx:       DefaultWidthPx,
		TimeZone:      "UTC",
		SourceShapes:  maps.Clone(DefaultSourceShapes),
	}
}

// NewRegistry resolves every definition against base. Fields an instrument sets
// win; zero-valued fields are filled from base. A later definition replaces an
// earlier one with the same id.
func NewRegistry(base schema.ChartConfig, defs ...schema.InstrumentDef) (*Registry, error) {
	r := &Registry{defs: make(map[string]schema.InstrumentDef, len(defs))}
	for _, def := range defs {
		if err := validateInstrument(def); err != nil {
			return nil, err
		}
		cfg := cloneConfig(def.Config)
		if err := mergo.Merge(&cfg, cloneConfig(base)); err != nil {
			return nil, fmt.Errorf("merge base config into %s: %w", def.ID, err)
		}
		if cfg.Title == "" {
			cfg.Title = def.Name
		}
		def.Config = cfg
		def.Fields = slices.Clone(def.Fields)
		r.defs[def.ID] = def
	}
	return r, nil
}

// Lookup returns the resolved definition of an instrument.
func (r *Registry) Lookup(id string) (schema.InstrumentDef, error) {
	def, ok := r.defs[id]
	if !ok {
		return schema.InstrumentDef{}, fmt.Errorf("%w: %s", ErrUnknownInstrument, id)
	}
	def.Config = cloneConfig(def.Config)
	def.Fields = slices.Clone(def.Fields)
	return def, nil
}

// IDs returns the registered instrument ids in sorted order.
func (r *Registry) IDs() []string {
	return slices.Sorted(maps.Keys(r.defs))
}

// Instruments returns every resolved definition, ordered by id.
func (r *Registry) Instruments() []schema.InstrumentDef {
	out := make([]schema.InstrumentDef, 0, len(r.defs))
	for _, id := range r.IDs() {
		out = append(out, r.defs[id])
	}
	return out
}

func validateInstrument(def schema.InstrumentDef) error {
	if def.ID == "" {
		return errors.New("instrument id is required")
	}
	if len(def.Fields) == 0 {
		return fmt.Errorf("instrument %s has no fields", def.ID)
	}
	seen := make(map[string]struct{}, len(def.Fields))
	for _, f := range def.Fields {
		if f.Key == "" {
			return fmt.Errorf("instrument %s has a field without a key", def.ID)
		}
		if _, dup := seen[f.Key]; dup {
			return fmt.Errorf("instrument %s has duplicate field key %q", def.ID, f.Key)
		}
		seen[f.Key] = struct{}{}
	}
	if c := def.Config.SeverityCutoffs; c != nil && c.Comparison != "" {
		if _, ok := schema.ValidComparisons[c.Comparison]; !ok {
			return fmt.Errorf("instrument %s has invalid comparison %q", def.ID, c.Comparison)
		}
	}
	return nil
}

// cloneConfig copies the reference-typed fields so registry entries share no state.
func cloneConfig(c schema.ChartConfig) schema.ChartConfig {
	c.YCategoryLabels = maps.Clone(c.YCategoryLabels)
	c.SourceColors = maps.Clone(c.SourceColors)
	c.SourceShapes = maps.Clone(c.SourceShapes)
	if c.SeverityCutoffs != nil {
		sc := *c.SeverityCutoffs
		c.SeverityCutoffs = &sc
	}
	if c.XDomain != nil {
		d := *c.XDomain
		c.XDomain = &d
	}
	return c
}

// instrumentFile is the YAML layout of an instrument override file.
type instrumentFile struct {
	Instruments []schema.InstrumentDef `yaml:"instruments"`
}

// LoadInstrumentFile reads instrument definitions from a YAML file.
func LoadInstrumentFile(path string) ([]schema.InstrumentDef, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read instrument file: %w", err)
	}
	var f instrumentFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse instrument file %s: %w", path, err)
	}
	for _, def := range f.Instruments {
		if err := validateInstrument(def); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}
	return f.Instruments, nil
}

// substanceFrequency labels the categorical substance-use answers.
var substanceFrequency = map[int]string{
	0: "Never",
	1: "Once or twice",
	2: "Monthly",
	3: "Weekly",
	4: "Daily",
}

// BuiltinInstruments returns the instruments shipped with the binary.
func BuiltinInstruments() []schema.InstrumentDef {
	return []schema.InstrumentDef{
		{
			ID:     "phq9",
			Name:   "PHQ-9 Depression",
			Fields: []schema.SeriesField{{Key: schema.DefaultValueKey, Label: "PHQ-9 score", Color: "#3f51b5"}},
			Config: schema.ChartConfig{
				YLabel:          "Score",
				MinimumYValue:   schema.Float(0),
				MaximumYValue:   schema.Float(27),
				SeverityCutoffs: &schema.SeverityCutoffs{High: schema.Float(15), Medium: schema.Float(10), Comparison: schema.HigherIsWorse},
				BestLabel:       "Minimal",
				WorstLabel:      "Severe",
			},
		},
		{
			ID:     "gad7",
			Name:   "GAD-7 Anxiety",
			Fields: []schema.SeriesField{{Key: schema.DefaultValueKey, Label: "GAD-7 score", Color: "#00838f"}},
			Config: schema.ChartConfig{
				YLabel:          "Score",
				MinimumYValue:   schema.Float(0),
				MaximumYValue:   schema.Float(21),
				SeverityCutoffs: &schema.SeverityCutoffs{High: schema.Float(15), Medium: schema.Float(10), Comparison: schema.HigherIsWorse},
				BestLabel:       "Minimal",
				WorstLabel:      "Severe",
			},
		},
		{
			ID:     "auditc",
			Name:   "AUDIT-C Alcohol Use",
			Fields: []schema.SeriesField{{Key: schema.DefaultValueKey, Label: "AUDIT-C score", Color: "#6d4c41"}},
			Config: schema.ChartConfig{
				YLabel:          "Score",
				MinimumYValue:   schema.Float(0),
				MaximumYValue:   schema.Float(12),
				SeverityCutoffs: &schema.SeverityCutoffs{High: schema.Float(4), Comparison: schema.HigherIsWorse},
			},
		},
		{
			ID:   "substance",
			Name: "Substance Use Frequency",
			Fields: []schema.SeriesField{
				{Key: "alcohol", Label: "Alcohol", Color: "#8d6e63"},
				{Key: "tobacco", Label: "Tobacco", Color: "#546e7a"},
				{Key: "cannabis", Label: "Cannabis", Color: "#43a047"},
				{Key: "stimulants", Label: "Stimulants", Color: "#8e24aa"},
			},
			Config: schema.ChartConfig{
				YLabel:             "Frequency",
				IsCategoricalY:     true,
				YCategoryLabels:    substanceFrequency,
				MinimumYValue:      schema.Float(0),
				MaximumYValue:      schema.Float(4),
				EnableLineSwitches: true,
			},
		},
		{
			ID:     "adherence",
			Name:   "ART Adherence",
			Fields: []schema.SeriesField{{Key: schema.DefaultValueKey, Label: "Adherence %", Color: "#1e88e5"}},
			Config: schema.ChartConfig{
				YLabel:          "Percent of doses taken",
				MinimumYValue:   schema.Float(0),
				MaximumYValue:   schema.Float(100),
				YTickStep:       20,
				SeverityCutoffs: &schema.SeverityCutoffs{High: schema.Float(90), Comparison: schema.LowerIsWorse},
				BestLabel:       "Full adherence",
				WorstLabel:      "No doses",
			},
		},
	}
}

// DefaultRegistry resolves the built-in instruments against DefaultBaseConfig.
func DefaultRegistry() *Registry {
	r, err := NewRegistry(DefaultBaseConfig(), BuiltinInstruments()...)
	if err != nil {
		panic(err) // built-in definitions are static
	}
	return r
}

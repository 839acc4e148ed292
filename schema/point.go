package schema

import (
	"encoding/json"
	"errors"
	"maps"
	"math"
	"strconv"
	"strings"
	"time"
)

// DefaultValueKey is the field key used by single-line instruments.
const DefaultValueKey = "value"

// ErrMissingTimestamp is returned when a record carries no usable timestamp or date.
var ErrMissingTimestamp = errors.New("data point has no usable timestamp")

// Timestamps outside years 1 through 9999 (UTC) are malformed.
var (
	MinTimestamp = time.Date(1, time.January, 1, 0, 0, 0, 0, time.UTC).UnixMilli()
	MaxTimestamp = time.Date(9999, time.December, 31, 23, 59, 59, 999_000_000, time.UTC).UnixMilli()
)

// ValidTimestamp reports whether ms lies between MinTimestamp and MaxTimestamp.
func ValidTimestamp(ms int64) bool {
	return ms >= MinTimestamp && ms <= MaxTimestamp
}

// dateLayouts are the accepted layouts for the "date" key of a record.
var dateLayouts = []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"}

// reservedKeys are record keys that never hold a field value.
var reservedKeys = map[string]struct{}{
	"timestamp":       {},
	"date":            {},
	"source":          {},
	"meaning":         {},
	"severityCutoffs": {},
}

// SeverityCutoffs holds the thresholds that classify a score.
type SeverityCutoffs struct {
	High       *float64   `json:"high,omitempty" yaml:"high,omitempty"`
	Medium     *float64   `json:"medium,omitempty" yaml:"medium,omitempty"`
	Comparison Comparison `json:"comparison" yaml:"comparison"`
}

// Direction returns the configured comparison, falling back to HigherIsWorse.
func (s SeverityCutoffs) Direction() Comparison {
	if s.Comparison == LowerIsWorse {
		return LowerIsWorse
	}
	return HigherIsWorse
}

// IsEmpty reports whether neither threshold is set.
func (s *SeverityCutoffs) IsEmpty() bool {
	return s == nil || (s.High == nil && s.Medium == nil)
}

// DataPoint is one observation of an instrument at a point in time.
// A nil entry in Values means the instrument was administered but not scored,
// which is different from a score of zero.
type DataPoint struct {
	Timestamp       int64               // Epoch milliseconds
	Values          map[string]*float64 // Field key -> score, nil when not scored
	Source          string              // Originating clinical system, empty when unknown
	Meaning         string              // Already-resolved meaning text
	SeverityCutoffs *SeverityCutoffs    // Per-point cutoffs, nil when absent
}

// Value returns the score for key, or nil if the point has no score for it.
func (p DataPoint) Value(key string) *float64 {
	if p.Values == nil {
		return nil
	}
	return p.Values[key]
}

// Time returns the point's timestamp as a UTC time.
func (p DataPoint) Time() time.Time {
	return time.UnixMilli(p.Timestamp).UTC()
}

// WithValue returns a copy of the point with Values[key] replaced.
func (p DataPoint) WithValue(key string, v *float64) DataPoint {
	values := make(map[string]*float64, len(p.Values)+1)
	maps.Copy(values, p.Values)
	values[key] = v
	p.Values = values
	return p
}

// IsScored reports whether v is a usable numeric score. NaN and infinities are not scored.
func IsScored(v *float64) bool {
	return v != nil && !math.IsNaN(*v) && !math.IsInf(*v, 0)
}

// Float returns a pointer to v. It keeps literal points short in callers and tests.
func Float(v float64) *float64 {
	return &v
}

// MarshalJSON flattens field values next to the reserved keys.
func (p DataPoint) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.flatten())
}

func (p DataPoint) flatten() map[string]any {
	out := make(map[string]any, len(p.Values)+4)
	for k, v := range p.Values {
		out[k] = v
	}
	out["timestamp"] = p.Timestamp
	if p.Source != "" {
		out["source"] = p.Source
	}
	if p.Meaning != "" {
		out["meaning"] = p.Meaning
	}
	if p.SeverityCutoffs != nil {
		out["severityCutoffs"] = p.SeverityCutoffs
	}
	return out
}

// UnmarshalJSON decodes a loosely-shaped record. Unknown keys become field values;
// anything that is not a number (or a numeric string) is treated as not scored.
func (p *DataPoint) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	ts, ok := decodeTimestamp(raw)
	if !ok {
		return ErrMissingTimestamp
	}
	*p = DataPoint{Timestamp: ts, Values: make(map[string]*float64)}

	if v, ok := raw["source"]; ok {
		_ = json.Unmarshal(v, &p.Source)
	}
	if v, ok := raw["meaning"]; ok {
		_ = json.Unmarshal(v, &p.Meaning)
	}
	if v, ok := raw["severityCutoffs"]; ok {
		var sc SeverityCutoffs
		if err := json.Unmarshal(v, &sc); err == nil {
			p.SeverityCutoffs = &sc
		}
	}

	for k, v := range raw {
		if _, reserved := reservedKeys[k]; reserved {
			continue
		}
		p.Values[k] = decodeScore(v)
	}
	return nil
}

// decodeTimestamp prefers an epoch-millisecond "timestamp" and falls back to "date".
func decodeTimestamp(raw map[string]json.RawMessage) (int64, bool) {
	if v, ok := raw["timestamp"]; ok {
		var n float64
		if err := json.Unmarshal(v, &n); err == nil {
			if math.IsNaN(n) || n < float64(MinTimestamp) || n > float64(MaxTimestamp) {
				return 0, false
			}
			return int64(n), true
		}
		var s string
		if err := json.Unmarshal(v, &s); err == nil {
			if t, ok := ParseDate(s); ok {
				return t.UnixMilli(), true
			}
		}
	}
	if v, ok := raw["date"]; ok {
		var s string
		if err := json.Unmarshal(v, &s); err == nil {
			if t, ok := ParseDate(s); ok {
				return t.UnixMilli(), true
			}
		}
	}
	return 0, false
}

// decodeScore converts a raw JSON value into a score, returning nil for non-numbers.
func decodeScore(v json.RawMessage) *float64 {
	var n float64
	if err := json.Unmarshal(v, &n); err == nil {
		return &n
	}
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		return ParseScore(s)
	}
	return nil
}

// ParseScore parses a textual score, returning nil when it is blank or not numeric.
func ParseScore(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &n
}

// ParseDate parses a date in any accepted layout, or an epoch-millisecond string.
// Dates outside ValidTimestamp are rejected.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), ValidTimestamp(t.UnixMilli())
		}
	}
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil && ValidTimestamp(ms) {
		return time.UnixMilli(ms).UTC(), true
	}
	return time.Time{}, false
}

// NullMarkerPoint is a point of the auxiliary series that marks missing scores.
type NullMarkerPoint struct {
	DataPoint
	IsNull bool
}

// MarshalJSON adds the isNull flag to the flattened point.
func (n NullMarkerPoint) MarshalJSON() ([]byte, error) {
	out := n.flatten()
	out["isNull"] = n.IsNull
	return json.Marshal(out)
}

// JitteredPoint is one field value of a DataPoint after collision resolution.
type JitteredPoint struct {
	Index            int              `json:"index"`     // Position of the source record in the input
	FieldKey         string           `json:"fieldKey"`  // Series field the value belongs to
	Timestamp        int64            `json:"timestamp"` // Original timestamp (epoch ms)
	DisplayTimestamp int64            `json:"displayTimestamp"`
	Value            *float64         `json:"value"`
	Source           string           `json:"source,omitempty"`
	Meaning          string           `json:"meaning,omitempty"`
	SeverityCutoffs  *SeverityCutoffs `json:"severityCutoffs,omitempty"`
	DuplicateIndex   int              `json:"duplicateIndex"`
	DuplicateCount   int              `json:"duplicateCount"`
}

// Offset returns the displacement applied by the collision resolver, in milliseconds.
func (j JitteredPoint) Offset() int64 {
	return j.DisplayTimestamp - j.Timestamp
}

// SpreadConfig controls how wide a cluster of coincident points is fanned out.
type SpreadConfig struct {
	FixedDays float64 // Caller-fixed spread in days; zero selects the dynamic spread
	RangeMs   int64   // Total visible time range used by the dynamic spread
}

// ResolvedStyle is the render style of one point.
type ResolvedStyle struct {
	Color  string  `json:"color"`
	Shape  Shape   `json:"shape"`
	Radius float64 `json:"radius"`
}

package schema

// SeriesField describes one logical line within a chart.
type SeriesField struct {
	Key           string  `json:"key" yaml:"key"`                                         // Unique per chart, matches a DataPoint value key
	Label         string  `json:"label" yaml:"label"`                                     // Legend and tooltip label
	Color         string  `json:"color" yaml:"color"`                                     // Line color (hex)
	DotColor      string  `json:"dotColor,omitempty" yaml:"dotColor,omitempty"`           // Explicit dot color override
	StrokeWidth   float64 `json:"strokeWidth,omitempty" yaml:"strokeWidth,omitempty"`     // Zero selects the default
	StrokeOpacity float64 `json:"strokeOpacity,omitempty" yaml:"strokeOpacity,omitempty"` // Zero selects the default
	DotRadius     float64 `json:"dotRadius,omitempty" yaml:"dotRadius,omitempty"`         // Zero selects the default
}

// TimeDomain is an inclusive [Min, Max] range of epoch milliseconds.
type TimeDomain struct {
	Min int64 `json:"min"`
	Max int64 `json:"max"`
}

// Width returns Max-Min in milliseconds.
func (d TimeDomain) Width() int64 {
	return d.Max - d.Min
}

// Contains reports whether ts falls within the domain.
func (d TimeDomain) Contains(ts int64) bool {
	return ts >= d.Min && ts <= d.Max
}

// IsZero reports whether the domain is unset.
func (d TimeDomain) IsZero() bool {
	return d.Min == 0 && d.Max == 0
}

// ChartConfig is the declarative configuration of one chart. It is built once per
// chart from the instrument registry and never mutated afterwards.
type ChartConfig struct {
	Title              string            `json:"title,omitempty" yaml:"title,omitempty"`
	YLabel             string            `json:"yLabel,omitempty" yaml:"yLabel,omitempty"`
	MinimumYValue      *float64          `json:"minimumYValue,omitempty" yaml:"minimumYValue,omitempty"`
	MaximumYValue      *float64          `json:"maximumYValue,omitempty" yaml:"maximumYValue,omitempty"` // nil means auto
	YTickStep          float64           `json:"yTickStep,omitempty" yaml:"yTickStep,omitempty"`         // Zero selects a generated step
	IsCategoricalY     bool              `json:"isCategoricalY,omitempty" yaml:"isCategoricalY,omitempty"`
	YCategoryLabels    map[int]string    `json:"yCategoryLabels,omitempty" yaml:"yCategoryLabels,omitempty"`
	LookbackYears      int               `json:"lookbackYears,omitempty" yaml:"lookbackYears,omitempty"`
	JitterSpreadDays   float64           `json:"jitterSpreadDays,omitempty" yaml:"jitterSpreadDays,omitempty"`
	XDomain            *TimeDomain       `json:"xDomain,omitempty" yaml:"xDomain,omitempty"`
	WidthPx            int               `json:"widthPx,omitempty" yaml:"widthPx,omitempty"`
	TimeZone           string            `json:"timeZone,omitempty" yaml:"timeZone,omitempty"`
	SeverityCutoffs    *SeverityCutoffs  `json:"severityCutoffs,omitempty" yaml:"severityCutoffs,omitempty"`
	SourceColors       map[string]string `json:"sourceColors,omitempty" yaml:"sourceColors,omitempty"`
	SourceShapes       map[string]Shape  `json:"sourceShapes,omitempty" yaml:"sourceShapes,omitempty"`
	BestLabel          string            `json:"bestLabel,omitempty" yaml:"bestLabel,omitempty"`
	WorstLabel         string            `json:"worstLabel,omitempty" yaml:"worstLabel,omitempty"`
	EnableLineSwitches bool              `json:"enableLineSwitches,omitempty" yaml:"enableLineSwitches,omitempty"`
	SplitBySource      bool              `json:"splitBySource,omitempty" yaml:"splitBySource,omitempty"`
	ConnectNulls       bool              `json:"connectNulls,omitempty" yaml:"connectNulls,omitempty"`
	HideTruncationLine bool              `json:"hideTruncationLine,omitempty" yaml:"hideTruncationLine,omitempty"`
}

// InstrumentDef is a named chart definition in the instrument registry.
type InstrumentDef struct {
	ID     string        `json:"id" yaml:"id"`
	Name   string        `json:"name" yaml:"name"`
	Fields []SeriesField `json:"fields" yaml:"fields"`
	Config ChartConfig   `json:"config" yaml:"config"`
}

// DomainResult is the output of the time-domain calculation.
type DomainResult struct {
	Domain              TimeDomain `json:"domain"`
	Truncated           bool       `json:"truncated"`
	TruncationTimestamp *int64     `json:"truncationTimestamp"`
	Empty               bool       `json:"empty"`
}

// XAxisSpec describes the time axis.
type XAxisSpec struct {
	Domain TimeDomain `json:"domain"`
	Ticks  []int64    `json:"ticks"`
	Labels []string   `json:"labels"`
	Layout string     `json:"layout"` // Go time layout used for tick labels
}

// YAxisSpec describes the value axis.
type YAxisSpec struct {
	Min         float64        `json:"min"`
	Max         float64        `json:"max"`
	AutoMax     bool           `json:"autoMax"`
	Ticks       []float64      `json:"ticks"`
	Labels      []string       `json:"labels"`
	Categorical bool           `json:"categorical"`
	Categories  map[int]string `json:"categories,omitempty"`
	Title       string         `json:"title,omitempty"`
}

// SeriesPoint is one rendered point of a series.
type SeriesPoint struct {
	Timestamp        int64         `json:"timestamp"`
	DisplayTimestamp int64         `json:"displayTimestamp"`
	Value            *float64      `json:"value"`
	Source           string        `json:"source,omitempty"`
	Meaning          string        `json:"meaning,omitempty"`
	Style            ResolvedStyle `json:"style"`
	Severity         Severity      `json:"severity,omitempty"`
	DuplicateIndex   int           `json:"duplicateIndex"`
	DuplicateCount   int           `json:"duplicateCount"`
}

// NullMarker is one point of a series' auxiliary not-scored series.
type NullMarker struct {
	Timestamp int64    `json:"timestamp"`
	Value     *float64 `json:"value"`
	IsNull    bool     `json:"isNull"`
	Source    string   `json:"source,omitempty"`
}

// SeriesSpec is one line of the chart with its styled points.
type SeriesSpec struct {
	Key           string        `json:"key"`
	FieldKey      string        `json:"fieldKey"`
	Label         string        `json:"label"`
	Color         string        `json:"color"`
	StrokeWidth   float64       `json:"strokeWidth"`
	StrokeOpacity float64       `json:"strokeOpacity"`
	ConnectNulls  bool          `json:"connectNulls"`
	Source        string        `json:"source,omitempty"`
	Points        []SeriesPoint `json:"points"`
	NullSeries    []NullMarker  `json:"nullSeries"`
}

// ReferenceLine is a horizontal (Y set) or vertical (X set) guide line.
type ReferenceLine struct {
	Kind  string   `json:"kind"` // cutoff-high, cutoff-medium, truncation
	X     *int64   `json:"x,omitempty"`
	Y     *float64 `json:"y,omitempty"`
	Label string   `json:"label"`
	Color string   `json:"color"`
	Dash  bool     `json:"dash"`
}

// ReferenceArea is a shaded horizontal band between Y1 and Y2.
type ReferenceArea struct {
	Kind    string  `json:"kind"` // severity-high, severity-medium
	Y1      float64 `json:"y1"`
	Y2      float64 `json:"y2"`
	Color   string  `json:"color"`
	Opacity float64 `json:"opacity"`
}

// ReferenceLabel is text anchored at an axis extreme.
type ReferenceLabel struct {
	Kind string  `json:"kind"` // best, worst
	Y    float64 `json:"y"`
	Text string  `json:"text"`
}

// LegendEntry is one item of the legend.
type LegendEntry struct {
	Key        string     `json:"key"`
	Label      string     `json:"label"`
	Color      string     `json:"color"`
	Icon       LegendIcon `json:"icon"`
	Toggleable bool       `json:"toggleable"`
}

// LegendSpec is the legend descriptor.
type LegendSpec struct {
	Entries []LegendEntry `json:"entries"`
}

// TooltipSpec binds the tooltip formatter for hover interactions.
type TooltipSpec struct {
	DateLayout  string         `json:"dateLayout"`
	TimeZone    string         `json:"timeZone"`
	ShowSource  bool           `json:"showSource"`
	Categories  map[int]string `json:"categories,omitempty"`
	SeriesNames []string       `json:"seriesNames"`
}

// ChartDescription is the renderable, declarative output of the composer.
type ChartDescription struct {
	Title               string           `json:"title,omitempty"`
	Empty               bool             `json:"empty"`
	EmptyMessage        string           `json:"emptyMessage,omitempty"`
	Truncated           bool             `json:"truncated"`
	TruncationTimestamp *int64           `json:"truncationTimestamp"`
	XAxis               XAxisSpec        `json:"xAxis"`
	YAxis               YAxisSpec        `json:"yAxis"`
	Series              []SeriesSpec     `json:"series"`
	ReferenceLines      []ReferenceLine  `json:"referenceLines"`
	ReferenceAreas      []ReferenceArea  `json:"referenceAreas"`
	ReferenceLabels     []ReferenceLabel `json:"referenceLabels"`
	Legend              LegendSpec       `json:"legend"`
	Tooltip             TooltipSpec      `json:"tooltip"`
}

// HoverPayload is the narrow, validated shape a rendering surface hands back on hover.
type HoverPayload struct {
	X           float64      `json:"x"`
	Y           float64      `json:"y"`
	SeriesIndex int          `json:"seriesIndex"`
	Point       *SeriesPoint `json:"point"`
}

// TooltipContent holds the display strings of a tooltip.
type TooltipContent struct {
	Date    string `json:"date"`
	Value   string `json:"value"`
	Meaning string `json:"meaning"`
	Source  string `json:"source"`
	Series  string `json:"series"`
}

// DashboardChart pairs an instrument with its composed chart.
type DashboardChart struct {
	Instrument string           `json:"instrument"`
	Chart      ChartDescription `json:"chart"`
}

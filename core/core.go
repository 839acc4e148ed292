// Package core has the chart composition pipeline: time domains, ticks,
// collision jitter, severity styling, y-axis selection, tooltip formatting
// and the instrument registry.
package core

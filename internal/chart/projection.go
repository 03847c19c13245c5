package chart

import (
	"fmt"
	"strings"

	"github.com/guptarohit/asciigraph"

	"github.com/luki/greensat/internal/history"
	"github.com/luki/greensat/internal/telemetry"
)

// Mode selects which metrics are projected onto the chart.
type Mode string

const (
	Thermal Mode = "thermal"
	Air     Mode = "air"
	Light   Mode = "light"
)

// Modes lists every metric mode in tab order.
var Modes = []Mode{Thermal, Air, Light}

// ParseMode converts a mode name to a Mode.
func ParseMode(s string) (Mode, error) {
	m := Mode(strings.ToLower(strings.TrimSpace(s)))
	switch m {
	case Thermal, Air, Light:
		return m, nil
	}
	return "", fmt.Errorf("unknown metric mode %q (valid: thermal, air, light)", s)
}

func (m Mode) String() string { return string(m) }

// Axis is the y axis a projected series is drawn against.
type Axis int

const (
	Primary Axis = iota
	Secondary
)

// NamedSeries is one renderable dataset. Values is aligned with the
// series labels; NaN entries are gaps for the renderer.
type NamedSeries struct {
	Name   string
	Metric telemetry.Metric
	Values []float64
	Axis   Axis
	Filled bool
	Dashed bool
	Color  asciigraph.AnsiColor
}

type dataset struct {
	metric telemetry.Metric
	axis   Axis
	filled bool
	dashed bool
	color  asciigraph.AnsiColor
}

var modeDatasets = map[Mode][]dataset{
	Thermal: {
		{metric: telemetry.Temperature, filled: true, color: asciigraph.Red},
		{metric: telemetry.Humidity, filled: true, color: asciigraph.Blue},
	},
	Air: {
		{metric: telemetry.Gas, filled: true, color: asciigraph.Green},
		{metric: telemetry.Pressure, axis: Secondary, dashed: true, color: asciigraph.Gray},
	},
	Light: {
		{metric: telemetry.Lux, filled: true, color: asciigraph.Gold},
	},
}

// Project maps a series and a metric mode to the fixed set of datasets for
// that mode. Values are passed through untouched.
func Project(s *history.Series, mode Mode) []NamedSeries {
	sets, ok := modeDatasets[mode]
	if !ok {
		return nil
	}
	out := make([]NamedSeries, 0, len(sets))
	for _, d := range sets {
		out = append(out, NamedSeries{
			Name:   d.metric.Name(),
			Metric: d.metric,
			Values: s.Values(d.metric),
			Axis:   d.axis,
			Filled: d.filled,
			Dashed: d.dashed,
			Color:  d.color,
		})
	}
	return out
}

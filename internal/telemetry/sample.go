// Package telemetry talks to the GreenSat telemetry service and defines the
// Sample every other package works with. The service exposes three read-only
// JSON endpoints: /api/limits, /api/history and /api/data.
package telemetry

import (
	"math"
	"time"
)

// Sample is one environmental reading. Missing metrics are NaN so they pass
// through projection and rendering as gaps. Samples are never mutated after
// decoding.
type Sample struct {
	Time        time.Time
	Temperature float64 // °C
	Humidity    float64 // %
	GasPercent  float64 // % of sensor range
	Pressure    float64 // hPa
	Lux         float64 // Lx
	AirPercent  float64 // NaN unless the service reports air_pct
}

// Metric identifies one of the five charted quantities.
type Metric int

const (
	Temperature Metric = iota
	Humidity
	Gas
	Pressure
	Lux
)

// Metrics lists every metric in display order.
var Metrics = []Metric{Temperature, Humidity, Gas, Pressure, Lux}

var metricInfo = [...]struct {
	name string
	unit string
}{
	Temperature: {"TEMP", "°C"},
	Humidity:    {"HUM", "%"},
	Gas:         {"GAS", "%"},
	Pressure:    {"PRES", "hPa"},
	Lux:         {"LUX", "Lx"},
}

// Name returns the short upper-case display name (TEMP, HUM, ...).
func (m Metric) Name() string { return metricInfo[m].name }

// Unit returns the display unit.
func (m Metric) Unit() string { return metricInfo[m].unit }

func (m Metric) String() string { return m.Name() }

// Value returns the sample's value for metric m.
func (s Sample) Value(m Metric) float64 {
	switch m {
	case Temperature:
		return s.Temperature
	case Humidity:
		return s.Humidity
	case Gas:
		return s.GasPercent
	case Pressure:
		return s.Pressure
	case Lux:
		return s.Lux
	}
	return math.NaN()
}

// AirQuality returns the service's air_pct when it is present and non-zero,
// otherwise an estimate derived from the gas percentage.
func (s Sample) AirQuality() float64 {
	if !math.IsNaN(s.AirPercent) && s.AirPercent != 0 {
		return s.AirPercent
	}
	if math.IsNaN(s.GasPercent) {
		return math.NaN()
	}
	return math.Round(s.GasPercent * 1.5)
}

// Critical reports whether the gas percentage exceeds threshold.
func (s Sample) Critical(threshold float64) bool {
	return !math.IsNaN(s.GasPercent) && s.GasPercent > threshold
}

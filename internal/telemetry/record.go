package telemetry

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/luki/greensat/internal/timerange"
)

// Record is the wire shape of a sample as served by /api/data and
// /api/history. Numeric fields are pointers because the service emits null
// for readings a probe failed to take.
type Record struct {
	DateTime string   `json:"date_time"`
	Temp     *float64 `json:"temp"`
	Hum      *float64 `json:"hum"`
	GazPct   *float64 `json:"gaz_pct"`
	Press    *float64 `json:"press"`
	Lux      *float64 `json:"lux"`
	AirPct   *float64 `json:"air_pct,omitempty"`
}

// Sample converts the record, reading date_time as wall-clock time in loc.
func (r Record) Sample(loc *time.Location) (Sample, error) {
	t, err := ParseTimestamp(r.DateTime, loc)
	if err != nil {
		return Sample{}, err
	}
	return Sample{
		Time:        t,
		Temperature: value(r.Temp),
		Humidity:    value(r.Hum),
		GasPercent:  value(r.GazPct),
		Pressure:    value(r.Press),
		Lux:         value(r.Lux),
		AirPercent:  value(r.AirPct),
	}, nil
}

// limitsRecord is the wire shape of /api/limits.
type limitsRecord struct {
	FirstDate *string `json:"first_date"`
	LastDate  *string `json:"last_date"`
}

// Limits describes the span of stored telemetry. A zero First means the
// service holds no data yet.
type Limits struct {
	First time.Time
	Last  time.Time
}

// ParseTimestamp accepts the service's "YYYY-MM-DD HH:MM:SS" layout, its
// T-separated variant, or RFC 3339. Zone-less layouts are read in loc.
func ParseTimestamp(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.ParseInLocation(timerange.QueryLayout, s, loc); err == nil {
		return t, nil
	}
	if t, err := time.ParseInLocation("2006-01-02T15:04:05", s, loc); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.In(loc), nil
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", s)
}

func value(p *float64) float64 {
	if p == nil {
		return math.NaN()
	}
	return *p
}

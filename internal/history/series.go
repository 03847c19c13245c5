package history

import (
	"fmt"
	"math"

	"github.com/luki/greensat/internal/telemetry"
)

// DefaultMaxPoints bounds a Series during live appends.
const DefaultMaxPoints = 200

// Series is the ordered sample sequence backing the active chart view, with
// one display label per sample. len(Labels) == len(Samples) always holds.
type Series struct {
	samples []telemetry.Sample
	labels  []string
	max     int
}

// NewSeries returns an empty series bounded to max entries on live append.
func NewSeries(max int) *Series {
	if max < 1 {
		max = DefaultMaxPoints
	}
	return &Series{max: max}
}

// Replace swaps the whole content for samples/labels. The slices are copied
// so the caller cannot alias the stored state. A full load is not trimmed;
// the bound only applies to live appends.
func (s *Series) Replace(samples []telemetry.Sample, labels []string) error {
	if len(samples) != len(labels) {
		return fmt.Errorf("series: %d samples but %d labels", len(samples), len(labels))
	}
	ns := make([]telemetry.Sample, len(samples))
	copy(ns, samples)
	nl := make([]string, len(labels))
	copy(nl, labels)
	s.samples, s.labels = ns, nl
	return nil
}

// Append adds sample under label unless label equals the last stored label,
// in which case the sample is dropped. After an append the oldest entries
// are evicted until the length is back within the bound. It reports whether
// the sample was stored.
func (s *Series) Append(sample telemetry.Sample, label string) bool {
	if n := len(s.labels); n > 0 && s.labels[n-1] == label {
		return false
	}
	s.samples = append(s.samples, sample)
	s.labels = append(s.labels, label)

	if over := len(s.samples) - s.max; over > 0 {
		s.samples = append(s.samples[:0:0], s.samples[over:]...)
		s.labels = append(s.labels[:0:0], s.labels[over:]...)
	}
	return true
}

// Len returns the number of stored samples.
func (s *Series) Len() int { return len(s.samples) }

// LastLabel returns the newest label, or "" when empty.
func (s *Series) LastLabel() string {
	if len(s.labels) == 0 {
		return ""
	}
	return s.labels[len(s.labels)-1]
}

// Labels returns a copy of the labels in chronological order.
func (s *Series) Labels() []string {
	out := make([]string, len(s.labels))
	copy(out, s.labels)
	return out
}

// Samples returns a copy of the samples in chronological order.
func (s *Series) Samples() []telemetry.Sample {
	out := make([]telemetry.Sample, len(s.samples))
	copy(out, s.samples)
	return out
}

// Values returns metric m for every sample, aligned with Labels. Missing
// readings stay NaN.
func (s *Series) Values(m telemetry.Metric) []float64 {
	out := make([]float64, len(s.samples))
	for i, smp := range s.samples {
		out[i] = smp.Value(m)
	}
	return out
}

// Stats summarises one metric of a series, ignoring gaps.
type Stats struct {
	Min, Max, Avg float64
	Count         int
}

// Stats computes min/max/avg of metric m over the series. All fields are
// NaN when the series has no real reading for m.
func (s *Series) Stats(m telemetry.Metric) Stats {
	st := Stats{Min: math.Inf(1), Max: math.Inf(-1)}
	sum := 0.0
	for _, smp := range s.samples {
		v := smp.Value(m)
		if math.IsNaN(v) {
			continue
		}
		st.Min = math.Min(st.Min, v)
		st.Max = math.Max(st.Max, v)
		sum += v
		st.Count++
	}
	if st.Count == 0 {
		return Stats{Min: math.NaN(), Max: math.NaN(), Avg: math.NaN()}
	}
	st.Avg = sum / float64(st.Count)
	return st
}

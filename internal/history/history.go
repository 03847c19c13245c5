// Package history provides the bounded telemetry series backing the chart
// and ring-buffer trackers with min/peak/avg statistics for live sparklines.
package history

import (
	"math"
	"time"

	"github.com/luki/greensat/internal/telemetry"
)

// Point is a single data point in a live metric history.
type Point struct {
	Value float64
	Time  time.Time
}

// Buffer stores a ring buffer of readings for one metric. NaN readings are
// kept as gaps but do not affect the statistics.
type Buffer struct {
	Points []Point
	Max    int // capacity
	Min    float64
	Peak   float64
}

// NewBuffer creates a new history ring buffer with the given capacity.
func NewBuffer(capacity int) *Buffer {
	return &Buffer{
		Points: make([]Point, 0, capacity),
		Max:    capacity,
		Min:    math.MaxFloat64,
		Peak:   -math.MaxFloat64,
	}
}

// Push adds a new reading to the history.
func (b *Buffer) Push(v float64, t time.Time) {
	p := Point{Value: v, Time: t}
	if len(b.Points) >= b.Max {
		copy(b.Points, b.Points[1:])
		b.Points[len(b.Points)-1] = p
	} else {
		b.Points = append(b.Points, p)
	}

	if math.IsNaN(v) {
		return
	}
	if v < b.Min {
		b.Min = v
	}
	if v > b.Peak {
		b.Peak = v
	}
}

// Empty reports whether no real (non-NaN) reading has been pushed.
func (b *Buffer) Empty() bool {
	return b.Peak < b.Min
}

// Last returns the most recent reading, or NaN if empty.
func (b *Buffer) Last() float64 {
	if len(b.Points) == 0 {
		return math.NaN()
	}
	return b.Points[len(b.Points)-1].Value
}

// Avg returns the average over all stored non-NaN readings.
func (b *Buffer) Avg() float64 {
	sum, n := 0.0, 0
	for _, p := range b.Points {
		if math.IsNaN(p.Value) {
			continue
		}
		sum += p.Value
		n++
	}
	if n == 0 {
		return math.NaN()
	}
	return sum / float64(n)
}

// LastNPoints returns the last n Points (with timestamps).
func (b *Buffer) LastNPoints(n int) []Point {
	if n <= 0 || len(b.Points) == 0 {
		return nil
	}
	start := len(b.Points) - n
	if start < 0 {
		start = 0
	}
	out := make([]Point, len(b.Points[start:]))
	copy(out, b.Points[start:])
	return out
}

// Store manages live histories for every metric.
type Store struct {
	Data     map[telemetry.Metric]*Buffer
	Capacity int
}

// NewStore creates a new store with the given per-metric capacity.
func NewStore(capacity int) *Store {
	return &Store{
		Data:     make(map[telemetry.Metric]*Buffer),
		Capacity: capacity,
	}
}

// Record pushes every metric of s into its buffer.
func (st *Store) Record(s telemetry.Sample) {
	for _, m := range telemetry.Metrics {
		b, ok := st.Data[m]
		if !ok {
			b = NewBuffer(st.Capacity)
			st.Data[m] = b
		}
		b.Push(s.Value(m), s.Time)
	}
}

// Get returns the buffer for metric m, or nil.
func (st *Store) Get(m telemetry.Metric) *Buffer {
	return st.Data[m]
}

// Package chart projects a telemetry series onto the datasets of a metric
// mode and renders them for the terminal: the multi-series range plot with
// its x-axis labels, live sparklines with minute ticks, and fill gauges.
package chart

import (
	"fmt"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/guptarohit/asciigraph"

	"github.com/luki/greensat/internal/history"
)

var sparkBlocks = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// maxAxisTicks caps the number of x-axis labels under the range plot.
const maxAxisTicks = 8

// Palette holds the theme-dependent neutral colors used by the renderers.
type Palette struct {
	Empty lipgloss.Color // unfilled gauge / sparkline padding
	Tick  lipgloss.Color // minute ticks and axis labels
	Text  lipgloss.Color
}

var (
	DarkPalette  = Palette{Empty: "236", Tick: "239", Text: "250"}
	LightPalette = Palette{Empty: "252", Tick: "245", Text: "235"}
)

// LevelColor returns the color for a value given warn and critical levels.
func LevelColor(v, warn, crit float64) lipgloss.Color {
	switch {
	case math.IsNaN(v):
		return lipgloss.Color("240")
	case v > crit:
		return lipgloss.Color("196") // red
	case v > warn:
		return lipgloss.Color("220") // yellow
	default:
		return lipgloss.Color("78") // soft green
	}
}

// Plot renders the projected datasets as one line chart with the series
// labels spread along the x axis. Secondary-axis datasets are rescaled into
// the primary range and their own range is given in the legend. width is
// the plot area in columns (0 keeps one column per sample).
func Plot(sets []NamedSeries, labels []string, width, height int, p Palette) string {
	primLo, primHi := bounds(sets, Primary)

	var (
		data    [][]float64
		colors  []asciigraph.AnsiColor
		legends []string
	)
	for _, s := range sets {
		vals := s.Values
		legend := s.Name
		if s.Axis == Secondary {
			lo, hi := bounds([]NamedSeries{s}, Secondary)
			if math.IsNaN(lo) {
				continue
			}
			if !math.IsNaN(primLo) {
				vals = rescale(vals, lo, hi, primLo, primHi)
			}
			legend = fmt.Sprintf("%s %.1f-%.1f %s (right)", s.Name, lo, hi, s.Metric.Unit())
		}
		if realCount(vals) == 0 {
			continue
		}
		data = append(data, vals)
		colors = append(colors, s.Color)
		legends = append(legends, legend)
	}

	empty := lipgloss.NewStyle().Foreground(p.Tick)
	if len(data) == 0 || len(labels) < 2 {
		return empty.Render("No data for this range.")
	}

	if height < 3 {
		height = 3
	}
	opts := []asciigraph.Option{
		asciigraph.Height(height),
		asciigraph.Precision(1),
		asciigraph.SeriesColors(colors...),
		asciigraph.SeriesLegends(legends...),
	}
	if width > 0 {
		opts = append(opts, asciigraph.Width(width))
	}
	graph := asciigraph.PlotMany(data, opts...)

	offset := axisOffset(graph)
	plotWidth := width
	if plotWidth <= 0 {
		plotWidth = len(labels)
	}
	axis := RenderAxisLabels(labels, plotWidth, p)

	// Legends sit below the plot; slot the axis labels in right under the
	// bottom row so they line up with the data.
	lines := strings.Split(graph, "\n")
	cut := height + 1
	if cut > len(lines) {
		cut = len(lines)
	}
	out := append([]string{}, lines[:cut]...)
	out = append(out, strings.Repeat(" ", offset)+axis)
	out = append(out, lines[cut:]...)
	return strings.Join(out, "\n")
}

// RenderAxisLabels spreads up to maxAxisTicks labels evenly over width
// columns, skipping any that would overlap the previous one.
func RenderAxisLabels(labels []string, width int, p Palette) string {
	if len(labels) == 0 || width <= 0 {
		return ""
	}

	line := make([]rune, width)
	for i := range line {
		line[i] = ' '
	}

	ticks := maxAxisTicks
	if ticks > len(labels) {
		ticks = len(labels)
	}

	lastEnd := -1
	for k := 0; k < ticks; k++ {
		idx := 0
		if ticks > 1 {
			idx = k * (len(labels) - 1) / (ticks - 1)
		}
		label := labels[idx]
		n := utf8.RuneCountInString(label)

		pos := 0
		if len(labels) > 1 {
			pos = idx * (width - 1) / (len(labels) - 1)
		}
		start := pos - n/2
		if start < 0 {
			start = 0
		}
		if start+n > width {
			start = width - n
		}
		if start < 0 || (lastEnd >= 0 && start <= lastEnd+1) {
			continue
		}
		for j, ch := range []rune(label) {
			line[start+j] = ch
		}
		lastEnd = start + n - 1
	}

	return lipgloss.NewStyle().Foreground(p.Tick).Render(string(line))
}

// RenderSparkline renders a sparkline of live points with minute tick
// marks. NaN points render as gaps.
func RenderSparkline(points []history.Point, width int, rangeMin, rangeMax float64, color lipgloss.Color, p Palette) string {
	if width <= 0 {
		return ""
	}

	dim := lipgloss.NewStyle().Foreground(p.Empty)
	if len(points) == 0 {
		return dim.Render(strings.Repeat("╌", width))
	}

	if len(points) > width {
		points = points[len(points)-width:]
	}

	padLen := width - len(points)
	span := rangeMax - rangeMin
	if span <= 0 {
		span = 1
	}

	var sb strings.Builder
	sb.WriteString(dim.Render(strings.Repeat("╌", padLen)))

	tickStyle := lipgloss.NewStyle().Foreground(p.Tick)
	style := lipgloss.NewStyle().Foreground(color)

	for i, pt := range points {
		if isMinuteTick(points, i) {
			sb.WriteString(tickStyle.Render("│"))
			continue
		}
		if math.IsNaN(pt.Value) {
			sb.WriteString(dim.Render(" "))
			continue
		}

		norm := (pt.Value - rangeMin) / span
		norm = math.Max(0, math.Min(1, norm))
		idx := int(norm * 7)
		if idx > 7 {
			idx = 7
		}
		sb.WriteString(style.Render(string(sparkBlocks[idx])))
	}

	return sb.String()
}

// RenderGauge renders a horizontal fill bar for value on a 0..max scale.
func RenderGauge(value, max float64, width int, color lipgloss.Color, p Palette) string {
	if width <= 0 {
		return ""
	}
	filled := 0
	if !math.IsNaN(value) && max > 0 {
		pct := math.Min(value/max, 1)
		if pct > 0 {
			filled = int(math.Round(pct * float64(width)))
		}
	}
	return lipgloss.NewStyle().Foreground(color).Render(strings.Repeat("█", filled)) +
		lipgloss.NewStyle().Foreground(p.Empty).Render(strings.Repeat("·", width-filled))
}

// FormatValue formats a reading with its unit, or "--" when missing.
func FormatValue(v float64, unit string) string {
	if math.IsNaN(v) {
		return "--"
	}
	if unit == "" {
		return fmt.Sprintf("%.1f", v)
	}
	return fmt.Sprintf("%.1f%s", v, unit)
}

func isMinuteTick(points []history.Point, i int) bool {
	pt := points[i]
	if pt.Time.IsZero() || i == 0 {
		return false
	}
	prev := points[i-1]
	if prev.Time.IsZero() {
		return false
	}
	return !pt.Time.Truncate(time.Minute).Equal(prev.Time.Truncate(time.Minute))
}

// bounds returns the min/max over every non-NaN value of the sets drawn on
// axis, or NaN, NaN when there is none.
func bounds(sets []NamedSeries, axis Axis) (float64, float64) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, s := range sets {
		if s.Axis != axis {
			continue
		}
		for _, v := range s.Values {
			if math.IsNaN(v) {
				continue
			}
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
	}
	if lo > hi {
		return math.NaN(), math.NaN()
	}
	return lo, hi
}

func rescale(vals []float64, lo, hi, toLo, toHi float64) []float64 {
	out := make([]float64, len(vals))
	for i, v := range vals {
		switch {
		case math.IsNaN(v):
			out[i] = v
		case hi == lo:
			out[i] = (toLo + toHi) / 2
		default:
			out[i] = toLo + (v-lo)/(hi-lo)*(toHi-toLo)
		}
	}
	return out
}

func realCount(vals []float64) int {
	n := 0
	for _, v := range vals {
		if !math.IsNaN(v) {
			n++
		}
	}
	return n
}

// axisOffset finds the column of the y-axis line in a rendered plot.
func axisOffset(graph string) int {
	first, _, _ := strings.Cut(graph, "\n")
	plain := []rune(ansi.Strip(first))
	for i, r := range plain {
		if r == '┤' || r == '┼' {
			return i + 1
		}
	}
	return 0
}

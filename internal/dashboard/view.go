package dashboard

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"go.uber.org/zap/zapcore"

	"github.com/luki/greensat/internal/chart"
	"github.com/luki/greensat/internal/history"
	"github.com/luki/greensat/internal/logging"
	"github.com/luki/greensat/internal/telemetry"
	"github.com/luki/greensat/internal/timerange"
)

const (
	logLines   = 6
	minWidth   = 60
	plotMargin = 12 // y-axis labels
)

// card describes one live reading tile.
type card struct {
	title  string
	metric telemetry.Metric
	gauge  float64 // full-scale value; 0 hides the gauge
	color  lipgloss.Color
	warn   float64
	crit   float64
}

var cards = []card{
	{title: "TEMPERATURE", metric: telemetry.Temperature, gauge: 50, color: "203", warn: 30, crit: 40},
	{title: "HUMIDITY", metric: telemetry.Humidity, gauge: 100, color: "69"},
	{title: "GAS", metric: telemetry.Gas, gauge: 100, color: "48"},
	{title: "LUMINOSITY", metric: telemetry.Lux, gauge: 1000, color: "220"},
	{title: "PRESSURE", metric: telemetry.Pressure, color: "250"},
}

// ── View ─────────────────────────────────────────────────────────────

func (m Model) View() string {
	if m.width == 0 {
		return "  Initializing..."
	}

	contentWidth := m.width - 2
	if contentWidth < minWidth {
		contentWidth = minWidth
	}

	var sections []string
	sections = append(sections, m.renderTitleBar(contentWidth))
	sections = append(sections, m.renderCards(contentWidth)...)
	sections = append(sections, m.renderChartPanel(contentWidth))
	sections = append(sections, m.renderLogPanel(contentWidth))
	sections = append(sections, m.renderFooter(contentWidth))

	content := lipgloss.JoinVertical(lipgloss.Left, sections...)

	lines := strings.Split(content, "\n")
	visibleLines := m.height
	if visibleLines < 5 {
		visibleLines = 5
	}
	maxScroll := len(lines) - visibleLines
	if maxScroll < 0 {
		maxScroll = 0
	}
	if m.scroll > maxScroll {
		m.scroll = maxScroll
	}

	start := m.scroll
	end := start + visibleLines
	if end > len(lines) {
		end = len(lines)
	}

	return strings.Join(lines[start:end], "\n")
}

func (m Model) renderTitleBar(width int) string {
	t := m.theme
	logo := lipgloss.NewStyle().
		Bold(true).
		Foreground(t.titleFg).
		Render("GREENSAT") +
		lipgloss.NewStyle().
			Foreground(t.dim).
			Render(" orbital telemetry")

	var statusParts []string

	clock := lipgloss.NewStyle().
		Foreground(t.value).
		Render(m.clock.Format("15:04:05")) +
		lipgloss.NewStyle().
			Foreground(t.dim).
			Render(" "+m.clock.Format("2006-01-02"))
	statusParts = append(statusParts, clock)

	online, known := m.sess.Online()
	switch {
	case !known:
		statusParts = append(statusParts, lipgloss.NewStyle().Foreground(t.dim).Render("LINKING"))
	case online:
		statusParts = append(statusParts, lipgloss.NewStyle().Foreground(t.ok).Bold(true).Render("CONNECTED"))
	default:
		statusParts = append(statusParts, lipgloss.NewStyle().Foreground(t.crit).Bold(true).Render("OFFLINE"))
	}

	if m.sess.Critical() {
		statusParts = append(statusParts, lipgloss.NewStyle().
			Background(t.crit).
			Foreground(lipgloss.Color("231")).
			Bold(true).
			Padding(0, 1).
			Render("CRITICAL"))
	} else {
		statusParts = append(statusParts, lipgloss.NewStyle().
			Foreground(t.ok).
			Render("NOMINAL"))
	}

	if m.audio {
		statusParts = append(statusParts, lipgloss.NewStyle().Foreground(t.dim).Render("♪"))
	}

	sep := lipgloss.NewStyle().Foreground(t.dim).Render(" │ ")
	right := strings.Join(statusParts, sep)

	gap := width - lipgloss.Width(logo) - lipgloss.Width(right) - 4
	if gap < 1 {
		gap = 1
	}
	filler := strings.Repeat(" ", gap)

	latest, ok := m.sess.Latest()
	return lipgloss.NewStyle().
		Background(t.titleBackground(latest.Temperature, ok)).
		Width(width).
		Padding(0, 1).
		Render(logo + filler + right)
}

func (m Model) renderCards(totalWidth int) []string {
	cols := 3
	if totalWidth < 90 {
		cols = 2
	}
	cardWidth := totalWidth / cols
	inner := cardWidth - 4
	if inner < 12 {
		inner = 12
	}

	latest, ok := m.sess.Latest()

	var tiles []string
	for _, c := range cards {
		v := math.NaN()
		if ok {
			v = latest.Value(c.metric)
		}
		tiles = append(tiles, m.renderCard(c, v, inner))
	}
	aqi := math.NaN()
	if ok {
		aqi = latest.AirQuality()
	}
	tiles = append(tiles, m.renderAQICard(aqi, latest, ok, inner))

	var rows []string
	for i := 0; i < len(tiles); i += cols {
		end := i + cols
		if end > len(tiles) {
			end = len(tiles)
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, tiles[i:end]...))
	}
	return rows
}

func (m Model) cardStyle(inner int, highlight bool) lipgloss.Style {
	border := m.theme.border
	if highlight {
		border = m.theme.crit
	}
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Padding(0, 1).
		Width(inner + 2)
}

func (m Model) renderCard(c card, v float64, inner int) string {
	t := m.theme
	title := lipgloss.NewStyle().Bold(true).Foreground(t.label).Render(c.title)

	valColor := t.value
	critical := false
	switch c.metric {
	case telemetry.Gas:
		crit := m.sess.GasCritical()
		valColor = chart.LevelColor(v, crit*0.75, crit)
		critical = m.sess.Critical()
	case telemetry.Temperature:
		valColor = chart.LevelColor(v, c.warn, c.crit)
	}
	value := lipgloss.NewStyle().Bold(true).Foreground(valColor).
		Render(chart.FormatValue(v, " "+c.metric.Unit()))

	buf := m.sess.Live().Get(c.metric)
	rows := []string{title, value}
	if c.gauge > 0 {
		rows = append(rows, chart.RenderGauge(v, c.gauge, inner, c.color, t.palette))
	} else {
		avg := math.NaN()
		if buf != nil {
			avg = buf.Avg()
		}
		rows = append(rows, lipgloss.NewStyle().Foreground(t.dim).Render("avg "+chart.FormatValue(avg, " "+c.metric.Unit())))
	}
	rows = append(rows, m.renderSpark(buf, inner, c.color))

	return m.cardStyle(inner, critical).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (m Model) renderAQICard(aqi float64, latest telemetry.Sample, ok bool, inner int) string {
	t := m.theme
	title := lipgloss.NewStyle().Bold(true).Foreground(t.label).Render("AIR QUALITY")
	value := lipgloss.NewStyle().Bold(true).Foreground(t.value).Render(chart.FormatValue(aqi, ""))

	source := "waiting for link"
	if ok {
		source = "estimated from gas"
		if !math.IsNaN(latest.AirPercent) && latest.AirPercent != 0 {
			source = "sensor index"
		}
	}
	note := lipgloss.NewStyle().Foreground(t.dim).Render(source)

	status := lipgloss.NewStyle().Foreground(t.ok).Render("NOMINAL")
	if m.sess.Critical() {
		status = lipgloss.NewStyle().Foreground(t.crit).Bold(true).Render("CRITICAL")
	}
	return m.cardStyle(inner, false).Render(lipgloss.JoinVertical(lipgloss.Left, title, value, note, status))
}

func (m Model) renderSpark(b *history.Buffer, width int, color lipgloss.Color) string {
	if b == nil || b.Empty() {
		return chart.RenderSparkline(nil, width, 0, 1, color, m.theme.palette)
	}
	lo, hi := b.Min, b.Peak
	if pad := (hi - lo) * 0.1; pad > 0 {
		lo, hi = lo-pad, hi+pad
	} else {
		lo, hi = lo-1, hi+1
	}
	return chart.RenderSparkline(b.LastNPoints(width), width, lo, hi, color, m.theme.palette)
}

func (m Model) renderChartPanel(totalWidth int) string {
	t := m.theme
	nav := m.sess.Nav()
	st := nav.State()
	rng := nav.Range()

	activeS := lipgloss.NewStyle().Bold(true).Foreground(t.active).Underline(true)
	idleS := lipgloss.NewStyle().Foreground(t.dim)

	var gTabs []string
	for _, g := range timerange.Granularities {
		name := strings.ToUpper(g.String())
		if g == st.Granularity {
			gTabs = append(gTabs, activeS.Render(name))
		} else {
			gTabs = append(gTabs, idleS.Render(name))
		}
	}
	var mTabs []string
	for _, md := range chart.Modes {
		name := strings.ToUpper(md.String())
		if md == st.Mode {
			mTabs = append(mTabs, activeS.Render(name))
		} else {
			mTabs = append(mTabs, idleS.Render(name))
		}
	}

	arrowS := lipgloss.NewStyle().Foreground(t.label).Bold(true)
	prev, next := " ", " "
	if nav.CanPrev() {
		prev = arrowS.Render("‹")
	}
	if nav.CanNext() {
		next = arrowS.Render("›")
	}
	labelS := lipgloss.NewStyle().Foreground(t.value).Bold(true)
	if nav.Live() {
		labelS = labelS.Foreground(t.ok)
	}
	rangeText := prev + " " + labelS.Render(rng.Label) + " " + next
	if m.sess.Loading() {
		rangeText += idleS.Render("  loading…")
	}

	left := strings.Join(gTabs, "  ")
	right := strings.Join(mTabs, "  ")
	inner := totalWidth - 4
	gap := inner - lipgloss.Width(left) - lipgloss.Width(rangeText) - lipgloss.Width(right)
	lgap, rgap := gap/2, gap-gap/2
	if lgap < 2 {
		lgap = 2
	}
	if rgap < 2 {
		rgap = 2
	}
	header := left + strings.Repeat(" ", lgap) + rangeText + strings.Repeat(" ", rgap) + right

	plotWidth := inner - plotMargin
	if plotWidth < 20 {
		plotWidth = 20
	}
	plotHeight := 8
	if m.height > 48 {
		plotHeight = 14
	} else if m.height > 40 {
		plotHeight = 11
	}

	series := m.sess.Series()
	sets := m.sess.Projection()
	plot := chart.Plot(sets, series.Labels(), plotWidth, plotHeight, t.palette)

	rows := []string{header, "", plot}
	if series.Len() > 0 {
		rows = append(rows, "", m.renderStats(series, sets))
	}

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.border).
		Padding(0, 1).
		Width(totalWidth - 2).
		Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (m Model) renderStats(series *history.Series, sets []chart.NamedSeries) string {
	dimS := lipgloss.NewStyle().Foreground(m.theme.dim)
	valS := lipgloss.NewStyle().Foreground(m.theme.value)

	parts := []string{dimS.Render(fmt.Sprintf("%d samples", series.Len()))}
	for _, s := range sets {
		st := series.Stats(s.Metric)
		parts = append(parts,
			lipgloss.NewStyle().Foreground(m.theme.label).Render(s.Name)+
				dimS.Render(" lo ")+valS.Render(chart.FormatValue(st.Min, ""))+
				dimS.Render(" avg ")+valS.Render(chart.FormatValue(st.Avg, ""))+
				dimS.Render(" pk ")+valS.Render(chart.FormatValue(st.Max, ""))+
				dimS.Render(" "+s.Metric.Unit()))
	}
	return strings.Join(parts, dimS.Render("  │  "))
}

func (m Model) renderLogPanel(totalWidth int) string {
	t := m.theme
	title := lipgloss.NewStyle().Bold(true).Foreground(t.label).Render("SYSTEM LOG")
	inner := totalWidth - 6

	rows := []string{title}
	var entries []logging.Entry
	if m.ring != nil {
		entries = m.ring.Entries()
	}
	if len(entries) > logLines {
		entries = entries[:logLines]
	}
	for _, e := range entries {
		msgColor := t.value
		switch {
		case e.Level >= zapcore.ErrorLevel:
			msgColor = t.crit
		case e.Level == zapcore.WarnLevel:
			msgColor = lipgloss.Color("220")
		}
		line := lipgloss.NewStyle().Foreground(t.dim).Render(e.Time.Format("15:04:05")+" ") +
			lipgloss.NewStyle().Foreground(msgColor).Render(e.Message)
		rows = append(rows, ansi.Truncate(line, inner, "…"))
	}
	for len(rows) < logLines+1 {
		rows = append(rows, "")
	}

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.border).
		Padding(0, 1).
		Width(totalWidth - 2).
		Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (m Model) renderFooter(width int) string {
	tickS := lipgloss.NewStyle().Foreground(m.theme.palette.Tick).Render("│")
	legend := tickS + lipgloss.NewStyle().Foreground(m.theme.dim).Render(" 1min")

	h := m.help
	h.Width = width - lipgloss.Width(legend) - 6
	helpView := h.View(keys)

	gap := width - lipgloss.Width(helpView) - lipgloss.Width(legend) - 4
	if gap < 1 {
		gap = 1
	}
	return lipgloss.NewStyle().
		Background(m.theme.footerBg).
		Width(width).
		Padding(0, 1).
		Render(helpView + strings.Repeat(" ", gap) + legend)
}

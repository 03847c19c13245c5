// Package replay implements the journal browser TUI: pick a journaled day,
// scrub through its samples and see every metric around the cursor.
package replay

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/luki/greensat/internal/chart"
	"github.com/luki/greensat/internal/history"
	"github.com/luki/greensat/internal/journal"
	"github.com/luki/greensat/internal/telemetry"
)

// Run launches the browser over the journal in dir.
func Run(dir string) error {
	days, err := journal.ListDays(dir)
	if err != nil {
		return fmt.Errorf("list journal: %w", err)
	}
	if len(days) == 0 {
		return fmt.Errorf("no journal data found in %s", dir)
	}

	p := tea.NewProgram(
		initModel(dir, days),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)
	_, err = p.Run()
	return err
}

// ── Color palette ────────────────────────────────────────────────────

var (
	colorTitleBg  = lipgloss.Color("17")
	colorTitleFg  = lipgloss.Color("51")
	colorBorder   = lipgloss.Color("62")
	colorLabel    = lipgloss.Color("147")
	colorDim      = lipgloss.Color("240")
	colorFooterBg = lipgloss.Color("235")
	colorCursor   = lipgloss.Color("214")
)

var metricColors = map[telemetry.Metric]lipgloss.Color{
	telemetry.Temperature: "203",
	telemetry.Humidity:    "69",
	telemetry.Gas:         "48",
	telemetry.Pressure:    "250",
	telemetry.Lux:         "220",
}

// ── Model ────────────────────────────────────────────────────────────

type model struct {
	dir     string
	days    []string // newest first
	dayIdx  int
	series  *history.Series
	samples []telemetry.Sample
	cursor  int
	scroll  int
	width   int
	height  int
	err     error
}

func initModel(dir string, days []string) model {
	m := model{dir: dir, days: days}
	m.loadDay()
	return m
}

func (m *model) loadDay() {
	samples, err := journal.LoadDay(m.dir, m.days[m.dayIdx])
	m.scroll = 0
	if err != nil {
		m.err = err
		m.samples, m.series = nil, history.NewSeries(1)
		return
	}
	m.err = nil

	labels := make([]string, len(samples))
	for i, s := range samples {
		labels[i] = s.Time.Format("15:04:05")
	}
	m.series = history.NewSeries(len(samples))
	if err := m.series.Replace(samples, labels); err != nil {
		m.err = err
	}
	m.samples = m.series.Samples()
	m.cursor = len(m.samples) - 1
	if m.cursor < 0 {
		m.cursor = 0
	}
}

// ── Init / Update ────────────────────────────────────────────────────

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit

		case "left", "h":
			if m.cursor > 0 {
				m.cursor--
			}
		case "right", "l":
			if m.cursor < len(m.samples)-1 {
				m.cursor++
			}
		case "shift+left", "H":
			m.cursor = m.indexNear(-10 * time.Minute)
		case "shift+right", "L":
			m.cursor = m.indexNear(10 * time.Minute)
		case "home":
			m.cursor = 0
		case "end":
			if len(m.samples) > 0 {
				m.cursor = len(m.samples) - 1
			}

		case "[":
			if m.dayIdx < len(m.days)-1 {
				m.dayIdx++
				m.loadDay()
			}
		case "]":
			if m.dayIdx > 0 {
				m.dayIdx--
				m.loadDay()
			}

		case "up", "k":
			if m.scroll > 0 {
				m.scroll--
			}
		case "down", "j":
			m.scroll++
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	}

	return m, nil
}

// indexNear returns the index of the first sample at least d away from the
// cursor sample, clamped to the day.
func (m model) indexNear(d time.Duration) int {
	if len(m.samples) == 0 {
		return 0
	}
	target := m.samples[m.cursor].Time.Add(d)
	if d < 0 {
		for i := m.cursor; i >= 0; i-- {
			if !m.samples[i].Time.After(target) {
				return i
			}
		}
		return 0
	}
	for i := m.cursor; i < len(m.samples); i++ {
		if !m.samples[i].Time.Before(target) {
			return i
		}
	}
	return len(m.samples) - 1
}

// ── View ─────────────────────────────────────────────────────────────

func (m model) View() string {
	if m.width == 0 {
		return "  Loading..."
	}

	contentWidth := m.width - 2
	if contentWidth < 40 {
		contentWidth = 40
	}

	var sections []string
	sections = append(sections, m.renderTitle(contentWidth))

	if m.err != nil {
		sections = append(sections, lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true).
			Padding(0, 1).
			Render(fmt.Sprintf("ERROR: %v", m.err)))
	}

	if len(m.samples) == 0 {
		sections = append(sections, lipgloss.NewStyle().
			Foreground(colorDim).
			Padding(2, 0).
			Align(lipgloss.Center).
			Width(contentWidth).
			Render("No samples journaled on this day."))
	} else {
		sections = append(sections, m.renderCursorInfo(contentWidth))
		sections = append(sections, m.renderPanel(contentWidth))
	}

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

func (m model) renderTitle(width int) string {
	logo := lipgloss.NewStyle().
		Bold(true).
		Foreground(colorTitleFg).
		Render("GREENSAT JOURNAL")

	dayText := lipgloss.NewStyle().
		Foreground(colorCursor).
		Bold(true).
		Render(m.days[m.dayIdx])

	nav := lipgloss.NewStyle().
		Foreground(colorDim).
		Render(fmt.Sprintf("  [ %d/%d ]", m.dayIdx+1, len(m.days)))

	info := ""
	if n := len(m.samples); n > 0 {
		info = lipgloss.NewStyle().
			Foreground(colorDim).
			Render(fmt.Sprintf("  %s - %s  (%d samples)",
				m.samples[0].Time.Format("15:04:05"), m.samples[n-1].Time.Format("15:04:05"), n))
	}

	right := dayText + nav + info
	gap := width - lipgloss.Width(logo) - lipgloss.Width(right) - 4
	if gap < 1 {
		gap = 1
	}

	return lipgloss.NewStyle().
		Background(colorTitleBg).
		Width(width).
		Padding(0, 1).
		Render(logo + strings.Repeat(" ", gap) + right)
}

func (m model) renderCursorInfo(width int) string {
	s := m.samples[m.cursor]
	ts := lipgloss.NewStyle().
		Foreground(colorCursor).
		Bold(true).
		Render(s.Time.Format("15:04:05"))
	pos := lipgloss.NewStyle().
		Foreground(colorDim).
		Render(fmt.Sprintf("  %d/%d", m.cursor+1, len(m.samples)))

	barWidth := width - 30
	if barWidth < 10 {
		barWidth = 10
	}
	return lipgloss.NewStyle().
		Padding(0, 1).
		Render("  " + ts + pos + "  " + m.renderScrubber(barWidth))
}

// renderScrubber draws the cursor position over the day with hour ticks.
func (m model) renderScrubber(width int) string {
	n := len(m.samples)
	if n == 0 || width <= 0 {
		return ""
	}

	pos := 0
	if n > 1 {
		pos = m.cursor * (width - 1) / (n - 1)
	}
	if pos >= width {
		pos = width - 1
	}

	var sb strings.Builder
	dimS := lipgloss.NewStyle().Foreground(lipgloss.Color("237"))
	curS := lipgloss.NewStyle().Foreground(colorCursor).Bold(true)
	tickS := lipgloss.NewStyle().Foreground(lipgloss.Color("239"))

	for i := 0; i < width; i++ {
		if i == pos {
			sb.WriteString(curS.Render("◆"))
			continue
		}
		idx := 0
		if n > 1 && width > 1 {
			idx = i * (n - 1) / (width - 1)
		}
		if idx > 0 && m.samples[idx].Time.Hour() != m.samples[idx-1].Time.Hour() {
			sb.WriteString(tickS.Render("│"))
			continue
		}
		sb.WriteString(dimS.Render("─"))
	}
	return sb.String()
}

func (m model) renderPanel(totalWidth int) string {
	innerWidth := totalWidth - 4
	sparkWidth := innerWidth - 50
	if sparkWidth < 15 {
		sparkWidth = 15
	}
	if sparkWidth > 140 {
		sparkWidth = 140
	}

	labelW, valW := 8, 12
	cur := m.samples[m.cursor]

	dimS := lipgloss.NewStyle().Foreground(colorDim)
	valS := lipgloss.NewStyle().Foreground(lipgloss.Color("250"))
	frameL := lipgloss.NewStyle().Foreground(colorBorder).Render("▕")
	frameR := lipgloss.NewStyle().Foreground(colorBorder).Render("▏")

	var rows []string
	for _, metric := range telemetry.Metrics {
		st := m.series.Stats(metric)
		if st.Count == 0 {
			continue
		}
		lo, hi := st.Min, st.Max
		if hi == lo {
			lo, hi = lo-1, hi+1
		}

		label := lipgloss.NewStyle().Foreground(colorLabel).Bold(true).Width(labelW).Render(metric.Name())
		val := lipgloss.NewStyle().Width(valW).Align(lipgloss.Right).
			Render(chart.FormatValue(cur.Value(metric), " "+metric.Unit()))
		spark := chart.RenderSparkline(sparkWindow(m.samples, m.cursor, sparkWidth, metric),
			sparkWidth, lo, hi, metricColors[metric], chart.DarkPalette)

		stats := dimS.Render(" avg") + valS.Render(fmt.Sprintf("%7.1f", st.Avg)) +
			dimS.Render(" lo") + valS.Render(fmt.Sprintf("%7.1f", st.Min)) +
			dimS.Render(" pk") + valS.Render(fmt.Sprintf("%7.1f", st.Max))

		rows = append(rows, label+" "+val+" "+frameL+spark+frameR+stats)
	}

	aqi := cur.AirQuality()
	rows = append(rows, lipgloss.NewStyle().Foreground(colorLabel).Bold(true).Width(labelW).Render("AQI")+" "+
		lipgloss.NewStyle().Width(valW).Align(lipgloss.Right).Render(chart.FormatValue(aqi, "")))

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorBorder).
		Padding(0, 1).
		Width(totalWidth).
		Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (m model) renderFooter(width int) string {
	dimS := lipgloss.NewStyle().Foreground(colorDim)
	keyS := lipgloss.NewStyle().Foreground(lipgloss.Color("252"))

	keys := dimS.Render("q") + keyS.Render(":quit") +
		dimS.Render("  h/l") + keyS.Render(":scrub") +
		dimS.Render("  H/L") + keyS.Render(":skip 10m") +
		dimS.Render("  home/end") + keyS.Render(":jump") +
		dimS.Render("  [/]") + keyS.Render(":day") +
		dimS.Render("  j/k") + keyS.Render(":scroll")

	return lipgloss.NewStyle().
		Background(colorFooterBg).
		Width(width).
		Padding(0, 1).
		Render(keys)
}

// sparkWindow returns metric values for up to width samples ending at the
// cursor.
func sparkWindow(samples []telemetry.Sample, cursor, width int, metric telemetry.Metric) []history.Point {
	if len(samples) == 0 {
		return nil
	}
	start := cursor - width + 1
	if start < 0 {
		start = 0
	}
	out := make([]history.Point, 0, cursor-start+1)
	for _, s := range samples[start : cursor+1] {
		out = append(out, history.Point{Value: s.Value(metric), Time: s.Time})
	}
	return out
}

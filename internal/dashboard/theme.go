package dashboard

import (
	"math"

	"github.com/charmbracelet/lipgloss"

	"github.com/luki/greensat/internal/chart"
	"github.com/luki/greensat/internal/config"
)

// theme is the set of colors one UI theme uses.
type theme struct {
	name     string
	palette  chart.Palette
	titleBg  lipgloss.Color
	titleFg  lipgloss.Color
	border   lipgloss.Color
	label    lipgloss.Color
	value    lipgloss.Color
	dim      lipgloss.Color
	footerBg lipgloss.Color
	active   lipgloss.Color
	ok       lipgloss.Color
	crit     lipgloss.Color
}

const (
	warmTitleBg lipgloss.Color = "130"
	coldTitleBg lipgloss.Color = "25"
)

var (
	darkTheme = theme{
		name:     config.ThemeDark,
		palette:  chart.DarkPalette,
		titleBg:  "17",
		titleFg:  "51",
		border:   "62",
		label:    "147",
		value:    "252",
		dim:      "240",
		footerBg: "235",
		active:   "48",
		ok:       "78",
		crit:     "196",
	}
	lightTheme = theme{
		name:     config.ThemeLight,
		palette:  chart.LightPalette,
		titleBg:  "153",
		titleFg:  "18",
		border:   "67",
		label:    "25",
		value:    "235",
		dim:      "244",
		footerBg: "254",
		active:   "28",
		ok:       "28",
		crit:     "160",
	}
)

// titleBackground returns the title bar color. The dark theme tints it by
// the latest temperature: warm above 25 °C, cold below 10 °C.
func (t theme) titleBackground(temp float64, ok bool) lipgloss.Color {
	if t.name != config.ThemeDark || !ok || math.IsNaN(temp) {
		return t.titleBg
	}
	switch {
	case temp > 25:
		return warmTitleBg
	case temp < 10:
		return coldTitleBg
	}
	return t.titleBg
}

func themeByName(name string) theme {
	if name == config.ThemeLight {
		return lightTheme
	}
	return darkTheme
}

func (t theme) toggled() theme {
	if t.name == config.ThemeLight {
		return darkTheme
	}
	return lightTheme
}

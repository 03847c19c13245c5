package dashboard

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Day     key.Binding
	Week    key.Binding
	Month   key.Binding
	Year    key.Binding
	Thermal key.Binding
	Air     key.Binding
	Light   key.Binding
	Prev    key.Binding
	Next    key.Binding
	Reload  key.Binding
	Theme   key.Binding
	Audio   key.Binding
	Up      key.Binding
	Down    key.Binding
	Help    key.Binding
	Quit    key.Binding
}

var keys = keyMap{
	Day:     key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "day")),
	Week:    key.NewBinding(key.WithKeys("w"), key.WithHelp("w", "week")),
	Month:   key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "month")),
	Year:    key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "year")),
	Thermal: key.NewBinding(key.WithKeys("1"), key.WithHelp("1", "thermal")),
	Air:     key.NewBinding(key.WithKeys("2"), key.WithHelp("2", "air")),
	Light:   key.NewBinding(key.WithKeys("3"), key.WithHelp("3", "light")),
	Prev:    key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "previous")),
	Next:    key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "next")),
	Reload:  key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
	Theme:   key.NewBinding(key.WithKeys("T"), key.WithHelp("T", "theme")),
	Audio:   key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "audio")),
	Up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("k/↑", "scroll up")),
	Down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("j/↓", "scroll down")),
	Help:    key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
	Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Prev, k.Next, k.Day, k.Week, k.Month, k.Year, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Day, k.Week, k.Month, k.Year},
		{k.Thermal, k.Air, k.Light},
		{k.Prev, k.Next, k.Reload},
		{k.Theme, k.Audio, k.Up, k.Down},
		{k.Help, k.Quit},
	}
}

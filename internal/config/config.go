// Package config loads GreenSat settings from defaults, an optional
// greensat.yaml, GREENSAT_* environment variables and command-line flags,
// in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/luki/greensat/internal/chart"
	"github.com/luki/greensat/internal/history"
	"github.com/luki/greensat/internal/logging"
)

// Config keys.
const (
	KeyBaseURL     = "api.base_url"
	KeyTimeout     = "api.timeout"
	KeyInterval    = "poll.interval"
	KeyMaxPoints   = "history.max_points"
	KeyGasCritical = "alerts.gas_critical_pct"
	KeyLogLevel    = "log.level"
	KeyLogFile     = "log.file"
	KeyJournal     = "journal.enabled"
	KeyJournalDir  = "journal.dir"
	KeyTheme       = "ui.theme"
	KeyAudio       = "ui.audio"
	KeyMode        = "ui.mode"
)

// Themes.
const (
	ThemeDark  = "dark"
	ThemeLight = "light"
)

type API struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type Poll struct {
	Interval time.Duration `mapstructure:"interval"`
}

type History struct {
	MaxPoints int `mapstructure:"max_points"`
}

type Alerts struct {
	GasCriticalPct float64 `mapstructure:"gas_critical_pct"`
}

type Log struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

type Journal struct {
	Enabled bool   `mapstructure:"enabled"`
	Dir     string `mapstructure:"dir"`
}

type UI struct {
	Theme string     `mapstructure:"theme"`
	Audio bool       `mapstructure:"audio"`
	Mode  chart.Mode `mapstructure:"mode"`
}

// Config is the resolved configuration.
type Config struct {
	API     API     `mapstructure:"api"`
	Poll    Poll    `mapstructure:"poll"`
	History History `mapstructure:"history"`
	Alerts  Alerts  `mapstructure:"alerts"`
	Log     Log     `mapstructure:"log"`
	Journal Journal `mapstructure:"journal"`
	UI      UI      `mapstructure:"ui"`
}

// New returns a viper instance with defaults, config search paths and
// environment binding set up. Flags are bound by the caller.
func New() *viper.Viper {
	v := viper.New()

	v.SetDefault(KeyBaseURL, "http://127.0.0.1:5000")
	v.SetDefault(KeyTimeout, 8*time.Second)
	v.SetDefault(KeyInterval, 10*time.Second)
	v.SetDefault(KeyMaxPoints, history.DefaultMaxPoints)
	v.SetDefault(KeyGasCritical, 20.0)
	v.SetDefault(KeyLogLevel, logging.InfoLevel)
	v.SetDefault(KeyLogFile, "~/.greensat/greensat.log")
	v.SetDefault(KeyJournal, false)
	v.SetDefault(KeyJournalDir, "~/.greensat/data")
	v.SetDefault(KeyTheme, ThemeDark)
	v.SetDefault(KeyAudio, false)
	v.SetDefault(KeyMode, string(chart.Thermal))

	v.SetConfigName("greensat")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.greensat")
	v.AddConfigPath("/etc/greensat")

	v.SetEnvPrefix("GREENSAT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the config file (file, or the search paths when empty) into v
// and returns the validated result. A missing file in the search paths is
// not an error.
func Load(v *viper.Viper, file string) (Config, error) {
	if file != "" {
		v.SetConfigFile(file)
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}

	var err error
	if c.Log.File, err = expandHome(c.Log.File); err != nil {
		return Config{}, err
	}
	if c.Journal.Dir, err = expandHome(c.Journal.Dir); err != nil {
		return Config{}, err
	}
	c.UI.Theme = strings.ToLower(strings.TrimSpace(c.UI.Theme))
	if c.UI.Mode, err = chart.ParseMode(string(c.UI.Mode)); err != nil {
		return Config{}, fmt.Errorf("%s: %w", KeyMode, err)
	}

	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate checks value ranges.
func (c Config) Validate() error {
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%s: %q is not an http(s) url", KeyBaseURL, c.API.BaseURL)
	}
	if c.API.Timeout <= 0 {
		return fmt.Errorf("%s must be positive, got %s", KeyTimeout, c.API.Timeout)
	}
	if c.Poll.Interval <= 0 {
		return fmt.Errorf("%s must be positive, got %s", KeyInterval, c.Poll.Interval)
	}
	if c.History.MaxPoints < 1 {
		return fmt.Errorf("%s must be at least 1, got %d", KeyMaxPoints, c.History.MaxPoints)
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("%s: %w", KeyLogLevel, err)
	}
	if c.UI.Theme != ThemeDark && c.UI.Theme != ThemeLight {
		return fmt.Errorf("%s: unknown theme %q (valid: dark, light)", KeyTheme, c.UI.Theme)
	}
	return nil
}

func expandHome(p string) (string, error) {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("expand %q: %w", p, err)
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~")), nil
}

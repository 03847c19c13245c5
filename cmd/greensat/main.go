package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/luki/greensat/internal/config"
)

type app struct {
	v          *viper.Viper
	configFile string
}

func main() {
	a := &app{v: config.New()}

	root := &cobra.Command{
		Use:   "greensat",
		Short: "Terminal dashboard for GreenSat environmental telemetry",
		Long: `greensat polls a GreenSat telemetry service and shows the latest
readings alongside a navigable day/week/month/year chart of the stored
history.

Keys: d/w/m/y switch the window, 1/2/3 switch thermal/air/light metrics,
←/→ step through time, T toggles the theme, a toggles the alert bell.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runDashboard(cmd.Context())
		},
		SilenceUsage: true,
	}

	a.bindFlags(root.PersistentFlags())

	root.AddCommand(a.watchCmd(), a.snapshotCmd(), a.replayCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := fang.Execute(ctx, root); err != nil {
		os.Exit(1)
	}
}

// load resolves the configuration once flags are parsed.
func (a *app) load() (config.Config, error) {
	return config.Load(a.v, a.configFile)
}

// bindFlags registers the persistent flags and binds them over the config
// keys they override.
func (a *app) bindFlags(flags *pflag.FlagSet) {
	flags.StringVar(&a.configFile, "config", "", "config file (default: greensat.yaml in ., ~/.greensat, /etc/greensat)")
	flags.String("api", "", "telemetry service base URL")
	flags.Duration("interval", 0, "delay between live polls")
	flags.String("log-level", "", "log level: debug, info, warn, error")

	_ = a.v.BindPFlag(config.KeyBaseURL, flags.Lookup("api"))
	_ = a.v.BindPFlag(config.KeyInterval, flags.Lookup("interval"))
	_ = a.v.BindPFlag(config.KeyLogLevel, flags.Lookup("log-level"))
}

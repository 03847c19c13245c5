package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/luki/greensat/internal/logging"
	"github.com/luki/greensat/internal/session"
	"github.com/luki/greensat/internal/telemetry"
)

func (a *app) watchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Poll the latest reading and log it, without the dashboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runWatch(cmd.Context())
		},
		SilenceUsage: true,
	}
}

func (a *app) runWatch(ctx context.Context) error {
	cfg, err := a.load()
	if err != nil {
		return err
	}
	log, err := logging.New(logging.Options{Level: cfg.Log.Level})
	if err != nil {
		return err
	}
	defer log.Close()

	client, err := newClient(cfg)
	if err != nil {
		return err
	}
	rec, closeRec, err := openJournal(cfg, log)
	if err != nil {
		return err
	}
	defer closeRec()

	sess := session.New(session.Options{
		MaxPoints:   cfg.History.MaxPoints,
		GasCritical: cfg.Alerts.GasCriticalPct,
		Log:         log,
		Recorder:    rec,
		Hooks: session.Hooks{
			ConnectivityChanged: func(online bool) {
				if online {
					log.Info("satellite link established")
				} else {
					log.Warn("satellite link lost")
				}
			},
		},
	})

	log.Infow("watching", "api", client.BaseURL(), "interval", cfg.Poll.Interval)
	session.Poller{Fetcher: client, Interval: cfg.Poll.Interval}.Run(ctx, func(s telemetry.Sample, err error) {
		res := sess.OnPoll(s, err)
		if !res.OK {
			return
		}
		log.Infow("sample",
			"time", s.Time.Format("15:04:05"),
			"temp", s.Temperature,
			"hum", s.Humidity,
			"gaz_pct", s.GasPercent,
			"press", s.Pressure,
			"lux", s.Lux,
			"aqi", s.AirQuality(),
			"critical", res.Critical,
		)
	})
	log.Info("watch stopped")
	return nil
}

package main

import (
	"context"
	"fmt"

	"github.com/luki/greensat/internal/config"
	"github.com/luki/greensat/internal/dashboard"
	"github.com/luki/greensat/internal/journal"
	"github.com/luki/greensat/internal/logging"
	"github.com/luki/greensat/internal/session"
	"github.com/luki/greensat/internal/telemetry"
)

// runDashboard starts the TUI. Logs go to the log file while the terminal is
// taken; Info+ entries also feed the on-screen system log.
func (a *app) runDashboard(ctx context.Context) error {
	cfg, err := a.load()
	if err != nil {
		return err
	}

	ring := logging.NewRing(logging.DefaultRingSize)
	log, err := logging.New(logging.Options{Level: cfg.Log.Level, File: cfg.Log.File, Ring: ring})
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
		Mode:        cfg.UI.Mode,
		Log:         log,
		Recorder:    rec,
	})

	log.Debugw("dashboard starting", "api", client.BaseURL(), "interval", cfg.Poll.Interval)
	return dashboard.Run(ctx, dashboard.Options{
		Fetcher:      client,
		Session:      sess,
		Ring:         ring,
		Log:          log,
		PollInterval: cfg.Poll.Interval,
		Theme:        cfg.UI.Theme,
		Audio:        cfg.UI.Audio,
	})
}

func newClient(cfg config.Config) (*telemetry.Client, error) {
	c, err := telemetry.NewClient(cfg.API.BaseURL, telemetry.WithTimeout(cfg.API.Timeout))
	if err != nil {
		return nil, fmt.Errorf("telemetry client: %w", err)
	}
	return c, nil
}

// openJournal returns the journal recorder when enabled, or a nil recorder.
func openJournal(cfg config.Config, log *logging.Logger) (session.Recorder, func(), error) {
	if !cfg.Journal.Enabled {
		return nil, func() {}, nil
	}
	j, err := journal.New(cfg.Journal.Dir)
	if err != nil {
		return nil, nil, err
	}
	log.Infow("journal enabled", "dir", j.Dir())
	return j, func() {
		if err := j.Close(); err != nil {
			log.Warnw("close journal", "err", err)
		}
	}, nil
}

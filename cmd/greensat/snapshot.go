package main

import (
	"context"
	"encoding/json"
	"io"
	"math"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/luki/greensat/internal/history"
	"github.com/luki/greensat/internal/telemetry"
	"github.com/luki/greensat/internal/timerange"
)

type snapshotReading struct {
	Time        string   `json:"time"`
	Temperature *float64 `json:"temp"`
	Humidity    *float64 `json:"hum"`
	GasPercent  *float64 `json:"gaz_pct"`
	Pressure    *float64 `json:"press"`
	Lux         *float64 `json:"lux"`
	AirQuality  *float64 `json:"aqi"`
	Critical    bool     `json:"critical"`
}

type snapshotStats struct {
	Min   *float64 `json:"min"`
	Max   *float64 `json:"max"`
	Avg   *float64 `json:"avg"`
	Count int      `json:"count"`
}

type snapshot struct {
	API       string                   `json:"api"`
	FirstDate string                   `json:"first_date,omitempty"`
	LastDate  string                   `json:"last_date,omitempty"`
	Latest    snapshotReading          `json:"latest"`
	Range     string                   `json:"range"`
	Samples   int                      `json:"samples"`
	Stats     map[string]snapshotStats `json:"stats"`
}

func (a *app) snapshotCmd() *cobra.Command {
	var window string
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Print the data bounds, latest reading and the current window's summary as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := timerange.Parse(window)
			if err != nil {
				return err
			}
			return a.runSnapshot(cmd.Context(), cmd.OutOrStdout(), g)
		},
		SilenceUsage: true,
	}
	cmd.Flags().StringVar(&window, "range", string(timerange.Day), "window to summarise: day, week, month, year")
	return cmd
}

func (a *app) runSnapshot(ctx context.Context, w io.Writer, g timerange.Granularity) error {
	cfg, err := a.load()
	if err != nil {
		return err
	}
	client, err := newClient(cfg)
	if err != nil {
		return err
	}

	now := time.Now().In(client.Location())
	window := timerange.Compute(g, now, now)

	var (
		lim     telemetry.Limits
		latest  telemetry.Sample
		samples []telemetry.Sample
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		lim, err = client.Limits(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		latest, err = client.Latest(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		samples, err = client.History(gctx, window, g)
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}

	series := history.NewSeries(len(samples))
	labels := make([]string, len(samples))
	for i, s := range samples {
		labels[i] = timerange.SampleLabel(g, s.Time)
	}
	if err := series.Replace(samples, labels); err != nil {
		return err
	}

	out := snapshot{
		API:     client.BaseURL(),
		Latest:  toReading(latest, cfg.Alerts.GasCriticalPct),
		Range:   window.Label,
		Samples: series.Len(),
		Stats:   make(map[string]snapshotStats),
	}
	if !lim.First.IsZero() {
		out.FirstDate = lim.First.Format(timerange.QueryLayout)
	}
	if !lim.Last.IsZero() {
		out.LastDate = lim.Last.Format(timerange.QueryLayout)
	}
	for _, m := range telemetry.Metrics {
		st := series.Stats(m)
		out.Stats[m.Name()] = snapshotStats{Min: num(st.Min), Max: num(st.Max), Avg: num(st.Avg), Count: st.Count}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func toReading(s telemetry.Sample, gasCritical float64) snapshotReading {
	return snapshotReading{
		Time:        s.Time.Format(timerange.QueryLayout),
		Temperature: num(s.Temperature),
		Humidity:    num(s.Humidity),
		GasPercent:  num(s.GasPercent),
		Pressure:    num(s.Pressure),
		Lux:         num(s.Lux),
		AirQuality:  num(s.AirQuality()),
		Critical:    s.Critical(gasCritical),
	}
}

// num maps NaN to a JSON null.
func num(v float64) *float64 {
	if math.IsNaN(v) {
		return nil
	}
	return &v
}

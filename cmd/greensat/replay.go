package main

import (
	"github.com/spf13/cobra"

	"github.com/luki/greensat/internal/replay"
)

func (a *app) replayCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "replay",
		Short: "Browse the local journal of polled samples",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.load()
			if err != nil {
				return err
			}
			return replay.Run(cfg.Journal.Dir)
		},
		SilenceUsage: true,
	}
}

package session

import (
	"context"
	"time"

	"github.com/luki/greensat/internal/telemetry"
)

// DefaultPollInterval is the pause between the end of one poll and the
// start of the next.
const DefaultPollInterval = 10 * time.Second

// Poller fetches the latest sample repeatedly. The interval is measured
// from the completion of a poll (including its handler), so a slow or
// failing service stretches the cycle instead of overlapping requests.
type Poller struct {
	Fetcher  Fetcher
	Interval time.Duration
}

// Run polls until ctx is cancelled, passing every outcome to handle.
// Failures never stop the loop.
func (p Poller) Run(ctx context.Context, handle func(telemetry.Sample, error)) {
	interval := p.Interval
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	for {
		s, err := p.Fetcher.Latest(ctx)
		if ctx.Err() != nil {
			return
		}
		handle(s, err)

		wait := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			wait.Stop()
			return
		case <-wait.C:
		}
	}
}

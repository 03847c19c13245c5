package session

import (
	"context"

	"github.com/luki/greensat/internal/telemetry"
	"github.com/luki/greensat/internal/timerange"
)

// Fetcher is the read side of the telemetry service. *telemetry.Client
// implements it.
type Fetcher interface {
	Limits(ctx context.Context) (telemetry.Limits, error)
	History(ctx context.Context, r timerange.Range, mode timerange.Granularity) ([]telemetry.Sample, error)
	Latest(ctx context.Context) (telemetry.Sample, error)
}

// LoadRequest describes one range load. Token identifies it; only the
// result of the most recently issued request is applied.
type LoadRequest struct {
	Token       uint64
	Range       timerange.Range
	Granularity timerange.Granularity
}

// LoadResult is the outcome of a LoadRequest.
type LoadResult struct {
	LoadRequest
	Samples []telemetry.Sample
	Labels  []string
	Err     error
}

// Load runs req against f and labels every sample for the request's
// granularity. It touches no session state, so it can run off the
// session's goroutine.
func Load(ctx context.Context, f Fetcher, req LoadRequest) LoadResult {
	res := LoadResult{LoadRequest: req}
	samples, err := f.History(ctx, req.Range, req.Granularity)
	if err != nil {
		res.Err = err
		return res
	}
	res.Samples = samples
	res.Labels = make([]string, len(samples))
	for i, s := range samples {
		res.Labels[i] = timerange.SampleLabel(req.Granularity, s.Time)
	}
	return res
}

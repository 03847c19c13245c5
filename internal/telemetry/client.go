package telemetry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/luki/greensat/internal/timerange"
)

const (
	limitsPath  = "/api/limits"
	historyPath = "/api/history"
	latestPath  = "/api/data"

	defaultTimeout = 8 * time.Second
	maxErrorBody   = 256
)

// Client reads the telemetry service. It is safe for concurrent use.
type Client struct {
	base *url.URL
	http *http.Client
	loc  *time.Location
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout sets the per-request timeout of the default http.Client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// WithLocation sets the location zone-less service timestamps are read in.
// Defaults to time.Local.
func WithLocation(loc *time.Location) Option {
	return func(c *Client) { c.loc = loc }
}

// NewClient returns a client for the service rooted at baseURL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("base url %q: scheme must be http or https", baseURL)
	}
	c := &Client{
		base: u,
		http: &http.Client{Timeout: defaultTimeout},
		loc:  time.Local,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Location returns the location timestamps are decoded in.
func (c *Client) Location() *time.Location { return c.loc }

// BaseURL returns the service root.
func (c *Client) BaseURL() string { return c.base.String() }

// Limits fetches the first (and last) instant for which telemetry exists.
func (c *Client) Limits(ctx context.Context) (Limits, error) {
	var rec limitsRecord
	reqID, err := c.getJSON(ctx, limitsPath, nil, &rec)
	if err != nil {
		return Limits{}, err
	}

	var lim Limits
	if rec.FirstDate != nil && *rec.FirstDate != "" {
		if lim.First, err = ParseTimestamp(*rec.FirstDate, c.loc); err != nil {
			return Limits{}, &NetworkError{Path: limitsPath, RequestID: reqID, Malformed: true, Err: err}
		}
	}
	if rec.LastDate != nil && *rec.LastDate != "" {
		if lim.Last, err = ParseTimestamp(*rec.LastDate, c.loc); err != nil {
			return Limits{}, &NetworkError{Path: limitsPath, RequestID: reqID, Malformed: true, Err: err}
		}
	}
	return lim, nil
}

// History fetches the samples stored in r. The service downsamples month
// and year windows, so mode is forwarded as-is.
func (c *Client) History(ctx context.Context, r timerange.Range, mode timerange.Granularity) ([]Sample, error) {
	q := url.Values{}
	q.Set("start", r.QueryStart())
	q.Set("end", r.QueryEnd())
	q.Set("mode", mode.String())

	var recs []Record
	reqID, err := c.getJSON(ctx, historyPath, q, &recs)
	if err != nil {
		return nil, err
	}

	samples := make([]Sample, 0, len(recs))
	for i, rec := range recs {
		s, err := rec.Sample(c.loc)
		if err != nil {
			return nil, &NetworkError{
				Path:      historyPath,
				RequestID: reqID,
				Malformed: true,
				Err:       fmt.Errorf("record %d: %w", i, err),
			}
		}
		samples = append(samples, s)
	}
	return samples, nil
}

// Latest fetches the most recent sample.
func (c *Client) Latest(ctx context.Context) (Sample, error) {
	var rec Record
	reqID, err := c.getJSON(ctx, latestPath, nil, &rec)
	if err != nil {
		return Sample{}, err
	}
	s, err := rec.Sample(c.loc)
	if err != nil {
		return Sample{}, &NetworkError{Path: latestPath, RequestID: reqID, Malformed: true, Err: err}
	}
	return s, nil
}

// getJSON issues a GET and decodes the JSON body into out. It returns the
// request ID sent in X-Request-ID so callers can correlate failures.
func (c *Client) getJSON(ctx context.Context, path string, q url.Values, out any) (string, error) {
	u := *c.base
	u.Path = strings.TrimRight(u.Path, "/") + path
	if q != nil {
		u.RawQuery = q.Encode()
	}

	reqID := uuid.NewString()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return reqID, &NetworkError{Path: path, RequestID: reqID, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", reqID)

	resp, err := c.http.Do(req)
	if err != nil {
		return reqID, &NetworkError{Path: path, RequestID: reqID, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return reqID, &ResponseError{
			Path:       path,
			RequestID:  reqID,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(body)),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return reqID, &NetworkError{Path: path, RequestID: reqID, Err: err}
		}
		return reqID, &NetworkError{Path: path, RequestID: reqID, Malformed: true, Err: err}
	}
	return reqID, nil
}

// RequestID extracts the X-Request-ID of a failed call, if err carries one.
func RequestID(err error) string {
	var ne *NetworkError
	if errors.As(err, &ne) {
		return ne.RequestID
	}
	var re *ResponseError
	if errors.As(err, &re) {
		return re.RequestID
	}
	return ""
}

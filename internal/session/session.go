// Package session is the dashboard core: it owns the navigation state, the
// chart series, the latest live reading and the alert and connectivity
// flags, and applies navigation, load and poll events to them. A Session is
// not safe for concurrent use; drive it from one goroutine and run the
// blocking fetches (Load, Poller) elsewhere.
package session

import (
	"time"

	"github.com/luki/greensat/internal/chart"
	"github.com/luki/greensat/internal/history"
	"github.com/luki/greensat/internal/logging"
	"github.com/luki/greensat/internal/navigation"
	"github.com/luki/greensat/internal/telemetry"
	"github.com/luki/greensat/internal/timerange"
)

// DefaultGasCritical is the gas percentage above which the alert state is
// critical.
const DefaultGasCritical = 20.0

// liveBufferSize bounds the per-metric sparkline buffers.
const liveBufferSize = 300

// Hooks notify UI collaborators of state transitions. Nil hooks are
// skipped.
type Hooks struct {
	AlertChanged        func(critical bool)
	ConnectivityChanged func(online bool)
	ThemeChanged        func(light bool)
}

// Recorder persists live samples, e.g. a journal.
type Recorder interface {
	Write(telemetry.Sample) error
}

// Options configures a Session.
type Options struct {
	MaxPoints   int
	GasCritical float64
	Mode        chart.Mode // initial metric mode, thermal when empty
	Now         func() time.Time
	Log         *logging.Logger
	Hooks       Hooks
	Recorder    Recorder
}

// Session holds all mutable dashboard state.
type Session struct {
	nav    *navigation.Controller
	series *history.Series
	live   *history.Store

	latest    telemetry.Sample
	hasLatest bool

	token   uint64 // last issued load token
	loading bool

	critical    bool
	online      bool
	onlineKnown bool

	gasCritical float64
	log         *logging.Logger
	hooks       Hooks
	rec         Recorder
}

// New returns a session on today's day window.
func New(opts Options) *Session {
	if opts.GasCritical <= 0 {
		opts.GasCritical = DefaultGasCritical
	}
	if opts.Log == nil {
		opts.Log = logging.Nop()
	}
	nav := navigation.New(opts.Now)
	if opts.Mode != "" {
		nav.SwitchMode(opts.Mode)
	}
	return &Session{
		nav:         nav,
		series:      history.NewSeries(opts.MaxPoints),
		live:        history.NewStore(liveBufferSize),
		gasCritical: opts.GasCritical,
		log:         opts.Log,
		hooks:       opts.Hooks,
		rec:         opts.Recorder,
	}
}

// Nav exposes the navigation state for read-only queries.
func (s *Session) Nav() *navigation.Controller { return s.nav }

// Series returns the chart series.
func (s *Session) Series() *history.Series { return s.series }

// Live returns the per-metric buffers of polled readings.
func (s *Session) Live() *history.Store { return s.live }

// Latest returns the most recent polled sample, if any.
func (s *Session) Latest() (telemetry.Sample, bool) { return s.latest, s.hasLatest }

// Loading reports whether the latest issued load is still outstanding.
func (s *Session) Loading() bool { return s.loading }

// Critical reports the alert state.
func (s *Session) Critical() bool { return s.critical }

// Online reports the connectivity state and whether any poll has
// completed yet.
func (s *Session) Online() (online, known bool) { return s.online, s.onlineKnown }

// GasCritical returns the alert threshold.
func (s *Session) GasCritical() float64 { return s.gasCritical }

// Projection returns the chart datasets for the current metric mode.
func (s *Session) Projection() []chart.NamedSeries {
	return chart.Project(s.series, s.nav.State().Mode)
}

// Start logs the boot banner.
func (s *Session) Start() {
	s.log.Info("Initializing GreenSat System...")
}

// OnThemeChange logs a theme switch and notifies the theme hook.
func (s *Session) OnThemeChange(light bool) {
	if light {
		s.log.Info("Theme changed to Light Mode.")
	} else {
		s.log.Info("Theme changed to Dark Mode.")
	}
	if s.hooks.ThemeChanged != nil {
		s.hooks.ThemeChanged(light)
	}
}

// OnLimits records the availability bound from /api/limits and opens the
// day view. It returns the first load to run.
func (s *Session) OnLimits(lim telemetry.Limits, err error) LoadRequest {
	switch {
	case err != nil:
		s.log.Warnw("availability bound unavailable", "err", err, "request_id", telemetry.RequestID(err))
	case lim.First.IsZero():
		s.log.Warn("telemetry service reports no stored data")
	default:
		s.nav.SetBound(lim.First)
	}
	req := s.OnGranularity(timerange.Day)
	s.log.Info("Database synced.")
	s.log.Info("System Online. Waiting for satellite link...")
	return req
}

// OnGranularity switches the window size, resetting the reference to now.
func (s *Session) OnGranularity(g timerange.Granularity) LoadRequest {
	s.nav.SwitchGranularity(g)
	return s.issue()
}

// OnNavigate steps one window back (dir < 0) or forward (dir > 0). It
// reports false, issuing nothing, when the step is not allowed.
func (s *Session) OnNavigate(dir int) (LoadRequest, bool) {
	if _, ok := s.nav.Step(dir); !ok {
		return LoadRequest{}, false
	}
	return s.issue(), true
}

// OnReload reissues the load for the current window.
func (s *Session) OnReload() LoadRequest {
	return s.issue()
}

// OnModeSwitch changes the metric mode. The series is kept; callers only
// re-project.
func (s *Session) OnModeSwitch(m chart.Mode) {
	s.nav.SwitchMode(m)
}

func (s *Session) issue() LoadRequest {
	s.token++
	s.loading = true
	st := s.nav.State()
	return LoadRequest{
		Token:       s.token,
		Range:       s.nav.Range(),
		Granularity: st.Granularity,
	}
}

// ApplyLoad installs a load result. Results of superseded requests are
// discarded; failed loads leave the series untouched. It reports whether
// the series was replaced.
func (s *Session) ApplyLoad(res LoadResult) bool {
	if res.Token != s.token {
		s.log.Debugw("discarding superseded load", "token", res.Token, "latest", s.token)
		return false
	}
	s.loading = false

	if res.Err != nil {
		s.log.Errorw("Error loading chart data.",
			"granularity", res.Granularity,
			"range", res.Range.Label,
			"err", res.Err,
			"request_id", telemetry.RequestID(res.Err),
		)
		return false
	}
	if err := s.series.Replace(res.Samples, res.Labels); err != nil {
		s.log.Errorw("Error loading chart data.", "err", err)
		return false
	}
	s.log.Infow("Chart Data Loaded: "+res.Granularity.String(), "samples", len(res.Samples))
	return true
}

// PollResult summarises what a poll changed.
type PollResult struct {
	Sample              telemetry.Sample
	OK                  bool
	Appended            bool // the chart series grew
	Critical            bool
	AlertChanged        bool
	ConnectivityChanged bool
}

// OnPoll applies one live poll outcome. A failure only marks the link
// offline. A success updates the latest reading, the live buffers, the
// alert state and, while the live day window is shown and loaded, the chart
// series.
func (s *Session) OnPoll(sample telemetry.Sample, err error) PollResult {
	var res PollResult
	if err != nil {
		s.log.Debugw("live poll failed", "err", err, "request_id", telemetry.RequestID(err))
		res.ConnectivityChanged = s.setOnline(false)
		res.Critical = s.critical
		return res
	}

	res.OK = true
	res.Sample = sample
	res.ConnectivityChanged = s.setOnline(true)

	s.latest, s.hasLatest = sample, true
	s.live.Record(sample)

	if s.rec != nil {
		if err := s.rec.Write(sample); err != nil {
			s.log.Warnw("journal write failed", "err", err)
		}
	}

	res.Critical = sample.Critical(s.gasCritical)
	res.AlertChanged = s.setCritical(res.Critical, sample)

	// Only merge into a loaded live window.
	if s.nav.Live() && !s.loading {
		res.Appended = s.MergeLiveSample(sample)
	}
	return res
}

// MergeLiveSample appends sample to the series under its day label unless
// that label is already the newest one. Callers must only merge while the
// live day window is shown.
func (s *Session) MergeLiveSample(sample telemetry.Sample) bool {
	return s.series.Append(sample, timerange.SampleLabel(timerange.Day, sample.Time))
}

func (s *Session) setOnline(online bool) bool {
	if s.onlineKnown && s.online == online {
		return false
	}
	s.online, s.onlineKnown = online, true
	if online {
		s.log.Debug("satellite link up")
	} else {
		s.log.Debug("satellite link down")
	}
	if s.hooks.ConnectivityChanged != nil {
		s.hooks.ConnectivityChanged(online)
	}
	return true
}

func (s *Session) setCritical(critical bool, sample telemetry.Sample) bool {
	if s.critical == critical {
		return false
	}
	s.critical = critical
	if critical {
		s.log.Warnf("CRITICAL: gas at %.1f%% (threshold %.0f%%)", sample.GasPercent, s.gasCritical)
	} else {
		s.log.Info("Gas levels back to nominal.")
	}
	if s.hooks.AlertChanged != nil {
		s.hooks.AlertChanged(critical)
	}
	return true
}

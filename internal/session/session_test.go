package session

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/luki/greensat/internal/chart"
	"github.com/luki/greensat/internal/logging"
	"github.com/luki/greensat/internal/telemetry"
	"github.com/luki/greensat/internal/timerange"
)

var loc = time.FixedZone("CET", 3600)

var fixedNow = time.Date(2026, 10, 14, 15, 20, 0, 0, loc)

func clock() time.Time { return fixedNow }

func at(h, m, s int) time.Time {
	return time.Date(2026, 10, 14, h, m, s, 0, loc)
}

func reading(t time.Time, gas float64) telemetry.Sample {
	return telemetry.Sample{
		Time:        t,
		Temperature: 22,
		Humidity:    48,
		GasPercent:  gas,
		Pressure:    1012,
		Lux:         300,
		AirPercent:  math.NaN(),
	}
}

type fakeFetcher struct {
	mu      sync.Mutex
	history []telemetry.Sample
	latest  []telemetry.Sample
	errs    []error
	delay   time.Duration // how long each Latest call takes
	calls   int
	starts  []time.Time
	ends    []time.Time
}

func (f *fakeFetcher) Limits(context.Context) (telemetry.Limits, error) {
	return telemetry.Limits{First: fixedNow.AddDate(0, 0, -7)}, nil
}

func (f *fakeFetcher) History(_ context.Context, r timerange.Range, _ timerange.Granularity) ([]telemetry.Sample, error) {
	var out []telemetry.Sample
	for _, s := range f.history {
		if r.Contains(s.Time) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeFetcher) Latest(context.Context) (telemetry.Sample, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.starts = append(f.starts, time.Now())
	time.Sleep(f.delay)
	defer func() { f.ends = append(f.ends, time.Now()) }()

	i := f.calls
	f.calls++
	if i < len(f.errs) && f.errs[i] != nil {
		return telemetry.Sample{}, f.errs[i]
	}
	if i < len(f.latest) {
		return f.latest[i], nil
	}
	return reading(fixedNow, 5), nil
}

func newSession(t *testing.T, opts Options) (*Session, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zapcore.InfoLevel)
	opts.Now = clock
	opts.Log = logging.FromCore(core)
	return New(opts), logs
}

func okResult(req LoadRequest, samples ...telemetry.Sample) LoadResult {
	labels := make([]string, len(samples))
	for i, s := range samples {
		labels[i] = timerange.SampleLabel(req.Granularity, s.Time)
	}
	return LoadResult{LoadRequest: req, Samples: samples, Labels: labels}
}

func TestStartupSequence(t *testing.T) {
	s, logs := newSession(t, Options{})
	s.Start()
	req := s.OnLimits(telemetry.Limits{First: fixedNow.AddDate(0, 0, -7)}, nil)

	if req.Granularity != timerange.Day || req.Range.Label != timerange.LiveLabel {
		t.Errorf("first load: %+v", req)
	}
	if !s.Nav().CanPrev() || s.Nav().CanNext() {
		t.Error("today with a week of data: want prev enabled, next disabled")
	}

	want := []string{
		"Initializing GreenSat System...",
		"Database synced.",
		"System Online. Waiting for satellite link...",
	}
	got := logs.All()
	if len(got) != len(want) {
		t.Fatalf("log lines: got %d, want %d: %v", len(got), len(want), got)
	}
	for i, w := range want {
		if got[i].Message != w {
			t.Errorf("log %d: got %q, want %q", i, got[i].Message, w)
		}
	}
}

func TestStaleLoadDiscarded(t *testing.T) {
	s, _ := newSession(t, Options{})

	slow := s.OnGranularity(timerange.Week)
	fast := s.OnGranularity(timerange.Day)
	if fast.Token <= slow.Token {
		t.Fatalf("tokens must increase: %d then %d", slow.Token, fast.Token)
	}

	if !s.ApplyLoad(okResult(fast, reading(at(9, 0, 0), 5), reading(at(9, 10, 0), 6))) {
		t.Fatal("latest load should apply")
	}
	if s.Loading() {
		t.Error("loading should clear once the latest load lands")
	}

	if s.ApplyLoad(okResult(slow, reading(at(8, 0, 0), 7))) {
		t.Error("superseded load must be discarded")
	}
	if s.Series().Len() != 2 || s.Series().LastLabel() != "09:10" {
		t.Errorf("series overwritten by stale load: %v", s.Series().Labels())
	}
}

func TestStaleLoadBeforeNewer(t *testing.T) {
	s, _ := newSession(t, Options{})
	old := s.OnReload()
	_ = s.OnReload()

	if s.ApplyLoad(okResult(old, reading(at(8, 0, 0), 7))) {
		t.Error("an older load must not apply while a newer one is outstanding")
	}
	if !s.Loading() {
		t.Error("still waiting on the newer load")
	}
}

func TestFailedLoadKeepsSeries(t *testing.T) {
	s, logs := newSession(t, Options{})
	req := s.OnReload()
	s.ApplyLoad(okResult(req, reading(at(9, 0, 0), 5)))

	req = s.OnReload()
	if s.ApplyLoad(LoadResult{LoadRequest: req, Err: errors.New("boom")}) {
		t.Error("failed load reported as applied")
	}
	if s.Series().Len() != 1 {
		t.Errorf("series changed on failure: %v", s.Series().Labels())
	}
	if logs.FilterMessage("Error loading chart data.").Len() != 1 {
		t.Errorf("missing error log: %v", logs.All())
	}
	if logs.FilterMessage("Chart Data Loaded: day").Len() != 1 {
		t.Errorf("missing success log: %v", logs.All())
	}
}

func TestDuplicateMinuteDropped(t *testing.T) {
	s, _ := newSession(t, Options{})
	req := s.OnReload()
	s.ApplyLoad(okResult(req, reading(at(14, 31, 0), 5), reading(at(14, 32, 0), 5)))

	res := s.OnPoll(reading(at(14, 32, 40), 6), nil)
	if res.Appended {
		t.Error("sample labelled 14:32 should be dropped")
	}
	if s.Series().Len() != 2 {
		t.Errorf("length changed: %d", s.Series().Len())
	}

	res = s.OnPoll(reading(at(14, 33, 1), 6), nil)
	if !res.Appended || s.Series().LastLabel() != "14:33" {
		t.Errorf("next minute should append: %+v, last %q", res, s.Series().LastLabel())
	}
}

func TestMergeIdempotentPerLabel(t *testing.T) {
	s, _ := newSession(t, Options{})
	s.MergeLiveSample(reading(at(10, 5, 0), 1))
	s.MergeLiveSample(reading(at(10, 5, 30), 2))

	if s.Series().Len() != 1 {
		t.Errorf("two samples with one label stored %d entries", s.Series().Len())
	}
}

func TestPollBoundedByMaxPoints(t *testing.T) {
	s, _ := newSession(t, Options{MaxPoints: 5})
	for i := 0; i < 20; i++ {
		s.OnPoll(reading(at(12, i, 0), 3), nil)
		if s.Series().Len() > 5 {
			t.Fatalf("series grew to %d", s.Series().Len())
		}
	}
	if s.Series().Len() != 5 || s.Series().LastLabel() != "12:19" {
		t.Errorf("got %d entries ending %q", s.Series().Len(), s.Series().LastLabel())
	}
}

func TestPollNotMergedOutsideLiveView(t *testing.T) {
	s, _ := newSession(t, Options{})
	s.OnGranularity(timerange.Week)

	res := s.OnPoll(reading(at(15, 19, 0), 5), nil)
	if res.Appended || s.Series().Len() != 0 {
		t.Error("week view must not receive live samples")
	}
	if got, ok := s.Latest(); !ok || !got.Time.Equal(at(15, 19, 0)) {
		t.Error("latest reading should still update")
	}
	if s.Live().Get(telemetry.Gas).Empty() {
		t.Error("live buffers should still update")
	}

	s.OnGranularity(timerange.Day)
	s.OnNavigate(-1)
	if res := s.OnPoll(reading(at(15, 20, 0), 5), nil); res.Appended {
		t.Error("yesterday's day view must not receive live samples")
	}
}

func TestPollFailureMarksOffline(t *testing.T) {
	var events []bool
	s, logs := newSession(t, Options{Hooks: Hooks{
		ConnectivityChanged: func(online bool) { events = append(events, online) },
	}})
	s.MergeLiveSample(reading(at(9, 0, 0), 1))

	s.OnPoll(reading(at(9, 1, 0), 1), nil)
	res := s.OnPoll(telemetry.Sample{}, errors.New("connection refused"))
	if res.OK || !res.ConnectivityChanged {
		t.Errorf("failure result: %+v", res)
	}
	s.OnPoll(telemetry.Sample{}, errors.New("connection refused"))

	if online, known := s.Online(); online || !known {
		t.Errorf("online=%v known=%v", online, known)
	}
	if len(events) != 2 || events[0] != true || events[1] != false {
		t.Errorf("connectivity events: %v", events)
	}
	if s.Series().Len() != 2 {
		t.Errorf("failed poll changed series: %d", s.Series().Len())
	}
	if logs.Len() != 0 {
		t.Errorf("poll failures must not reach the system log: %v", logs.All())
	}
}

func TestAlertTransitions(t *testing.T) {
	var alerts []bool
	s, logs := newSession(t, Options{Hooks: Hooks{
		AlertChanged: func(c bool) { alerts = append(alerts, c) },
	}})

	gas := []float64{5, 25, 30, 20, 10}
	for i, g := range gas {
		s.OnPoll(reading(at(11, i, 0), g), nil)
	}

	want := []bool{true, false}
	if len(alerts) != len(want) || alerts[0] != want[0] || alerts[1] != want[1] {
		t.Errorf("alert transitions: got %v, want %v", alerts, want)
	}
	if s.Critical() {
		t.Error("gas 10 is nominal")
	}
	if logs.FilterLevelExact(zapcore.WarnLevel).Len() != 1 {
		t.Errorf("want one critical log line: %v", logs.All())
	}
}

func TestPollWaitsForPendingLoad(t *testing.T) {
	s, _ := newSession(t, Options{})
	week := s.OnGranularity(timerange.Week)
	s.ApplyLoad(okResult(week, reading(at(9, 0, 0), 1), reading(at(10, 0, 0), 2)))

	day := s.OnGranularity(timerange.Day)
	if res := s.OnPoll(reading(at(15, 19, 0), 3), nil); res.Appended {
		t.Error("live sample merged into the week series while the day load is pending")
	}
	for _, l := range s.Series().Labels() {
		if l == "15:19" {
			t.Errorf("labels mix windows: %v", s.Series().Labels())
		}
	}

	s.ApplyLoad(okResult(day, reading(at(15, 10, 0), 3)))
	if res := s.OnPoll(reading(at(15, 20, 0), 3), nil); !res.Appended {
		t.Errorf("merge should resume once the day is loaded: %v", s.Series().Labels())
	}
}

func TestThemeChangeHook(t *testing.T) {
	var themes []bool
	s, logs := newSession(t, Options{Hooks: Hooks{
		ThemeChanged: func(light bool) { themes = append(themes, light) },
	}})
	s.OnThemeChange(true)
	s.OnThemeChange(false)

	if len(themes) != 2 || !themes[0] || themes[1] {
		t.Errorf("theme events: %v", themes)
	}
	msgs := logs.All()
	if len(msgs) != 2 || msgs[0].Message != "Theme changed to Light Mode." || msgs[1].Message != "Theme changed to Dark Mode." {
		t.Errorf("log: %v", msgs)
	}
}

func TestInitialMode(t *testing.T) {
	s, _ := newSession(t, Options{Mode: chart.Light})
	if got := s.Nav().State().Mode; got != chart.Light {
		t.Errorf("mode: got %s", got)
	}
	if sets := s.Projection(); len(sets) != 1 || sets[0].Name != "LUX" {
		t.Errorf("projection: %+v", sets)
	}
}

func TestModeSwitchKeepsSeries(t *testing.T) {
	s, _ := newSession(t, Options{})
	req := s.OnReload()
	s.ApplyLoad(okResult(req, reading(at(9, 0, 0), 5), reading(at(9, 5, 0), 30), reading(at(9, 10, 0), 10)))
	tok := req.Token

	s.OnModeSwitch(chart.Air)
	sets := s.Projection()
	if len(sets) != 2 || sets[0].Name != "GAS" || sets[0].Values[1] != 30 {
		t.Errorf("air projection: %+v", sets)
	}
	if s.OnReload().Token != tok+1 {
		t.Error("mode switch must not issue a load")
	}
}

type memRecorder struct{ samples []telemetry.Sample }

func (m *memRecorder) Write(s telemetry.Sample) error {
	m.samples = append(m.samples, s)
	return nil
}

func TestRecorderGetsEverySample(t *testing.T) {
	rec := &memRecorder{}
	s, _ := newSession(t, Options{Recorder: rec})
	s.OnPoll(reading(at(9, 0, 0), 1), nil)
	s.OnPoll(reading(at(9, 0, 10), 1), nil)
	s.OnPoll(telemetry.Sample{}, errors.New("down"))

	if len(rec.samples) != 2 {
		t.Errorf("recorded %d samples, want 2", len(rec.samples))
	}
}

func TestLoadLabelsByGranularity(t *testing.T) {
	f := &fakeFetcher{history: []telemetry.Sample{
		reading(time.Date(2026, 10, 12, 8, 0, 0, 0, loc), 1),
		reading(time.Date(2026, 10, 13, 16, 0, 0, 0, loc), 2),
		reading(time.Date(2026, 9, 30, 16, 0, 0, 0, loc), 3),
	}}
	req := LoadRequest{
		Token:       1,
		Granularity: timerange.Week,
		Range:       timerange.Compute(timerange.Week, fixedNow, fixedNow),
	}

	res := Load(context.Background(), f, req)
	if res.Err != nil {
		t.Fatal(res.Err)
	}
	want := []string{"12/10 8h", "13/10 16h"}
	if len(res.Labels) != len(want) {
		t.Fatalf("labels: got %v, want %v", res.Labels, want)
	}
	for i := range want {
		if res.Labels[i] != want[i] {
			t.Errorf("label %d: got %q, want %q", i, res.Labels[i], want[i])
		}
	}
}

func TestPollerContinuesAfterFailure(t *testing.T) {
	f := &fakeFetcher{
		errs:   []error{nil, errors.New("timeout"), nil},
		latest: []telemetry.Sample{reading(at(9, 0, 0), 1), {}, reading(at(9, 0, 20), 2)},
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var outcomes []error
	done := make(chan struct{})
	go func() {
		Poller{Fetcher: f, Interval: time.Millisecond}.Run(ctx, func(_ telemetry.Sample, err error) {
			outcomes = append(outcomes, err)
			if len(outcomes) == 4 {
				cancel()
			}
		})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("poller did not stop after cancel")
	}

	if len(outcomes) != 4 {
		t.Fatalf("handled %d polls, want 4", len(outcomes))
	}
	if outcomes[0] != nil || outcomes[1] == nil || outcomes[2] != nil {
		t.Errorf("outcomes: %v", outcomes)
	}
}

func TestPollerWaitsAfterCompletion(t *testing.T) {
	const interval = 40 * time.Millisecond
	f := &fakeFetcher{delay: 30 * time.Millisecond}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	polls := 0
	Poller{Fetcher: f, Interval: interval}.Run(ctx, func(telemetry.Sample, error) {
		polls++
		if polls == 3 {
			cancel()
		}
	})

	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.starts) != 3 || len(f.ends) != 3 {
		t.Fatalf("calls: %d started, %d finished", len(f.starts), len(f.ends))
	}
	for i := 1; i < len(f.starts); i++ {
		gap := f.starts[i].Sub(f.ends[i-1])
		if gap < interval {
			t.Errorf("poll %d started %v after the previous one finished, want >= %v", i, gap, interval)
		}
		t.Logf("poll %d: gap %v", i, gap)
	}
}

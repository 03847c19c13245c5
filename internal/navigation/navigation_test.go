package navigation

import (
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/luki/greensat/internal/chart"
	"github.com/luki/greensat/internal/timerange"
)

var loc = time.FixedZone("CET", 3600)

// Wednesday afternoon.
var fixedNow = time.Date(2026, 10, 14, 15, 20, 0, 0, loc)

func clock() time.Time { return fixedNow }

func TestNewDefaults(t *testing.T) {
	c := New(clock)
	st := c.State()
	if st.Granularity != timerange.Day || st.Mode != chart.Thermal || !st.Reference.Equal(fixedNow) {
		t.Errorf("initial state: %+v", st)
	}
	if c.Range().Label != timerange.LiveLabel {
		t.Errorf("label: got %q", c.Range().Label)
	}
	if !c.Live() {
		t.Error("today's day view should be live")
	}
}

func TestTodayWithBoundAWeekAgo(t *testing.T) {
	c := New(clock)
	c.SetBound(fixedNow.AddDate(0, 0, -7))

	if !c.CanPrev() {
		t.Error("previous should be enabled")
	}
	if c.CanNext() {
		t.Error("next should be disabled on today's window")
	}
}

func TestCanPrevUnknownBound(t *testing.T) {
	c := New(clock)
	if !c.CanPrev() {
		t.Error("previous should be enabled until the bound is known")
	}
}

func TestSetBoundOnce(t *testing.T) {
	c := New(clock)
	first := fixedNow.AddDate(0, -1, 0)
	if c.SetBound(time.Time{}) {
		t.Error("zero bound should be ignored")
	}
	if !c.SetBound(first) {
		t.Fatal("first SetBound should succeed")
	}
	if c.SetBound(fixedNow) {
		t.Error("second SetBound should be refused")
	}
	if b, ok := c.Bound(); !ok || !b.Equal(first) {
		t.Errorf("Bound: got %v, %v", b, ok)
	}
}

func TestSwitchGranularityResetsReference(t *testing.T) {
	c := New(clock)
	c.Step(-1)
	c.Step(-1)
	c.SwitchMode(chart.Air)

	r := c.SwitchGranularity(timerange.Week)

	st := c.State()
	if !st.Reference.Equal(fixedNow) {
		t.Errorf("reference: got %v, want now", st.Reference)
	}
	if st.Mode != chart.Air {
		t.Errorf("mode should be kept, got %s", st.Mode)
	}
	wantStart := time.Date(2026, 10, 12, 0, 0, 0, 0, loc)
	if !r.Start.Equal(wantStart) || r.Start.Weekday() != time.Monday {
		t.Errorf("week start: got %v, want %v", r.Start, wantStart)
	}
}

func TestStepBackAndForward(t *testing.T) {
	c := New(clock)

	if _, ok := c.Step(1); ok {
		t.Fatal("forward from today should be refused")
	}

	r, ok := c.Step(-1)
	if !ok {
		t.Fatal("back should succeed without a bound")
	}
	if r.Label != "13/10/2026" {
		t.Errorf("label: got %q", r.Label)
	}
	if !c.CanNext() {
		t.Error("next should be enabled on yesterday")
	}
	if c.Live() {
		t.Error("yesterday is not live")
	}

	r, ok = c.Step(1)
	if !ok || r.Label != timerange.LiveLabel {
		t.Errorf("forward: ok=%v label=%q", ok, r.Label)
	}
}

func TestStepBackStopsAtBound(t *testing.T) {
	c := New(clock)
	c.SetBound(time.Date(2026, 10, 12, 9, 0, 0, 0, loc))

	steps := 0
	for i := 0; i < 10; i++ {
		if _, ok := c.Step(-1); ok {
			steps++
		}
	}
	// 13/10 and 12/10 hold data; 11/10 ends before the bound.
	if steps != 2 {
		t.Errorf("steps: got %d, want 2", steps)
	}
	if c.CanPrev() {
		t.Error("previous should be disabled on the bound's day")
	}
	if got := c.Range().Label; got != "12/10/2026" {
		t.Errorf("label: got %q", got)
	}
}

func TestStepMonth(t *testing.T) {
	c := New(clock)
	c.SwitchGranularity(timerange.Month)

	r, ok := c.Step(-1)
	if !ok {
		t.Fatal("month back should succeed")
	}
	if r.Label != "SEPTEMBER 2026" {
		t.Errorf("label: got %q", r.Label)
	}
	if r.End.Day() != 30 {
		t.Errorf("september end: got %v", r.End)
	}
}

func TestStepZeroDirection(t *testing.T) {
	c := New(clock)
	if _, ok := c.Step(0); ok {
		t.Error("zero direction should be refused")
	}
}

func TestLiveOnlyForDay(t *testing.T) {
	c := New(clock)
	c.SwitchGranularity(timerange.Week)
	if c.Live() {
		t.Error("week view is never live")
	}
}

func TestLiveThroughRepeatedHour(t *testing.T) {
	santiago, err := time.LoadLocation("America/Santiago")
	if err != nil {
		t.Fatal(err)
	}
	// 23:30 on the second pass through the hour DST hands back.
	now := time.Date(2026, 4, 5, 0, 0, 0, 0, santiago).Add(-30 * time.Minute)
	c := New(func() time.Time { return now })

	if !c.Live() {
		t.Errorf("still today at %v, want live", now)
	}
	if c.CanNext() {
		t.Error("next should stay disabled until midnight")
	}
}

// Package navigation owns the chart view state: granularity, reference
// instant and metric mode, plus the earliest instant the service holds data
// for. It decides which windows can be stepped to.
package navigation

import (
	"time"

	"github.com/luki/greensat/internal/chart"
	"github.com/luki/greensat/internal/timerange"
)

// ViewState is the user-selected view.
type ViewState struct {
	Granularity timerange.Granularity
	Reference   time.Time
	Mode        chart.Mode
}

// Controller holds the ViewState and the availability bound. Only its
// methods mutate the state.
type Controller struct {
	state ViewState
	bound time.Time // zero until the service reports it
	now   func() time.Time
}

// New returns a controller on today's day window in thermal mode. now is the
// clock used for "now" (time.Now when nil).
func New(now func() time.Time) *Controller {
	if now == nil {
		now = time.Now
	}
	return &Controller{
		state: ViewState{
			Granularity: timerange.Day,
			Reference:   now(),
			Mode:        chart.Thermal,
		},
		now: now,
	}
}

// State returns a copy of the current view.
func (c *Controller) State() ViewState { return c.state }

// Range returns the window for the current view.
func (c *Controller) Range() timerange.Range {
	return timerange.Compute(c.state.Granularity, c.state.Reference, c.now())
}

// SetBound records the earliest instant with telemetry. The bound is fixed
// for the session: it reports false and keeps the first value if called
// again, and ignores a zero time.
func (c *Controller) SetBound(t time.Time) bool {
	if t.IsZero() || !c.bound.IsZero() {
		return false
	}
	c.bound = t
	return true
}

// Bound returns the availability bound and whether it is known.
func (c *Controller) Bound() (time.Time, bool) {
	return c.bound, !c.bound.IsZero()
}

// SwitchGranularity changes the window size and resets the reference to
// now. The metric mode is kept. It returns the new window.
func (c *Controller) SwitchGranularity(g timerange.Granularity) timerange.Range {
	c.state.Granularity = g
	c.state.Reference = c.now()
	return c.Range()
}

// SwitchMode changes the projected metrics. The window is unaffected.
func (c *Controller) SwitchMode(m chart.Mode) {
	c.state.Mode = m
}

// Step moves the reference one granularity unit back (dir < 0) or forward
// (dir > 0). Forward is refused while CanNext is false; back is refused
// when the resulting window would end before the availability bound. It
// returns the (possibly unchanged) window and whether a step happened.
func (c *Controller) Step(dir int) (timerange.Range, bool) {
	switch {
	case dir > 0:
		if !c.CanNext() {
			return c.Range(), false
		}
		dir = 1
	case dir < 0:
		dir = -1
	default:
		return c.Range(), false
	}

	ref := timerange.Shift(c.state.Granularity, c.state.Reference, dir)
	next := timerange.Compute(c.state.Granularity, ref, c.now())
	if dir < 0 && !c.bound.IsZero() && next.End.Before(c.bound) {
		return c.Range(), false
	}

	c.state.Reference = ref
	return next, true
}

// CanNext reports whether a later window exists, i.e. the current window
// ends before now.
func (c *Controller) CanNext() bool {
	return c.Range().End.Before(c.now())
}

// CanPrev reports whether an earlier window may hold data: the current
// window starts after the availability bound. It is true while the bound is
// unknown.
func (c *Controller) CanPrev() bool {
	if c.bound.IsZero() {
		return true
	}
	return c.Range().Start.After(c.bound)
}

// Live reports whether the view is today's day window, the only view live
// samples are merged into.
func (c *Controller) Live() bool {
	return c.state.Granularity == timerange.Day && !c.Range().End.Before(c.now())
}

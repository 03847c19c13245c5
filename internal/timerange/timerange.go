// Package timerange maps a chart granularity and a reference instant to the
// calendar window the chart shows, and owns the label formats used for that
// window and for the samples inside it.
package timerange

import (
	"fmt"
	"strings"
	"time"
)

// Granularity is the size of the charted window.
type Granularity string

const (
	Day   Granularity = "day"
	Week  Granularity = "week"
	Month Granularity = "month"
	Year  Granularity = "year"
)

// Granularities lists every granularity from finest to coarsest.
var Granularities = []Granularity{Day, Week, Month, Year}

// QueryLayout is the local wall-clock layout used on the wire, both for
// range query parameters and for sample timestamps.
const QueryLayout = "2006-01-02 15:04:05"

// LiveLabel is shown instead of a date when the day window is today.
const LiveLabel = "LIVE TODAY"

// Parse converts a granularity name ("day", "week", ...) to a Granularity.
func Parse(s string) (Granularity, error) {
	g := Granularity(strings.ToLower(strings.TrimSpace(s)))
	switch g {
	case Day, Week, Month, Year:
		return g, nil
	}
	return "", fmt.Errorf("unknown granularity %q (valid: day, week, month, year)", s)
}

func (g Granularity) String() string { return string(g) }

// Range is a derived calendar window. End carries the last nanosecond of its
// final day so that every instant of that day falls inside the range.
type Range struct {
	Start time.Time
	End   time.Time
	Label string
}

// Contains reports whether t lies inside the range, bounds included.
func (r Range) Contains(t time.Time) bool {
	return !t.Before(r.Start) && !t.After(r.End)
}

// QueryStart returns Start formatted for the history endpoint.
func (r Range) QueryStart() string { return r.Start.Format(QueryLayout) }

// QueryEnd returns End formatted for the history endpoint (second precision).
func (r Range) QueryEnd() string { return r.End.Format(QueryLayout) }

// Compute returns the window of granularity g that contains ref. All
// boundaries are computed in ref's location; now is only used to decide
// whether a day window is labelled as live.
func Compute(g Granularity, ref, now time.Time) Range {
	loc := ref.Location()
	y, m, d := ref.Date()

	switch g {
	case Week:
		wd := int(ref.Weekday())
		if wd == 0 {
			wd = 7 // Sunday closes the Monday-anchored week
		}
		start := time.Date(y, m, d-(wd-1), 0, 0, 0, 0, loc)
		sy, sm, sd := start.Date()
		end := endOfDay(sy, sm, sd+6, loc)
		return Range{
			Start: start,
			End:   end,
			Label: fmt.Sprintf("%d/%d - %d/%d", start.Day(), int(start.Month()), end.Day(), int(end.Month())),
		}

	case Month:
		start := time.Date(y, m, 1, 0, 0, 0, 0, loc)
		// Day 0 of the following month is the last day of this one.
		end := endOfDay(y, m+1, 0, loc)
		return Range{
			Start: start,
			End:   end,
			Label: strings.ToUpper(start.Format("January 2006")),
		}

	case Year:
		start := time.Date(y, time.January, 1, 0, 0, 0, 0, loc)
		end := endOfDay(y+1, time.January, 0, loc)
		return Range{
			Start: start,
			End:   end,
			Label: fmt.Sprintf("%d", y),
		}

	default:
		start := time.Date(y, m, d, 0, 0, 0, 0, loc)
		label := fmt.Sprintf("%d/%d/%d", d, int(m), y)
		if sameDate(start, now.In(loc)) {
			label = LiveLabel
		}
		return Range{
			Start: start,
			End:   endOfDay(y, m, d, loc),
			Label: label,
		}
	}
}

// Shift moves ref by one unit of g in direction dir (-1 or +1). Month and
// year steps keep the day of month but clamp it to the target month's
// length, so Jan 31 steps to Feb 28/29 instead of overflowing into March.
func Shift(g Granularity, ref time.Time, dir int) time.Time {
	switch g {
	case Week:
		return ref.AddDate(0, 0, 7*dir)
	case Month:
		return addMonthsClamped(ref, dir)
	case Year:
		return addMonthsClamped(ref, 12*dir)
	default:
		return ref.AddDate(0, 0, dir)
	}
}

// SampleLabel formats a sample timestamp for the x axis of granularity g.
//
//	day   HH:MM
//	week  D/M Hh
//	month D/M
//	year  M/YYYY
func SampleLabel(g Granularity, t time.Time) string {
	switch g {
	case Week:
		return fmt.Sprintf("%d/%d %dh", t.Day(), int(t.Month()), t.Hour())
	case Month:
		return fmt.Sprintf("%d/%d", t.Day(), int(t.Month()))
	case Year:
		return fmt.Sprintf("%d/%d", int(t.Month()), t.Year())
	default:
		return t.Format("15:04")
	}
}

// endOfDay is the last nanosecond before the next day's midnight. Building
// 23:59:59 directly would pick the first of two repeated hours on days where
// DST falls back at midnight.
func endOfDay(y int, m time.Month, d int, loc *time.Location) time.Time {
	return time.Date(y, m, d+1, 0, 0, 0, 0, loc).Add(-time.Nanosecond)
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func addMonthsClamped(t time.Time, months int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(months), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	last := time.Date(first.Year(), first.Month()+1, 0, 0, 0, 0, 0, t.Location()).Day()
	if d > last {
		d = last
	}
	return first.AddDate(0, 0, d-1)
}

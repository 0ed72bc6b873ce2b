// Package dates holds the calendar-date helpers shared by the decoder, the
// status classifier and the projector. Everything here works in local wall
// clock time of the evaluating process; no timezone conversion happens.
package dates

import (
	"cmp"
	"strings"
	"time"

	appLog "chorecal/internal/log"
)

const (
	DayLayout  = "2006-01-02"
	TimeLayout = "15:04"
)

// layouts accepted by Parse, most specific first.
var layouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	DayLayout,
}

// Parse reads a date or date-time string. Values carrying a UTC offset keep
// it; values without one are read in time.Local.
func Parse(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range layouts {
		if t, err := time.ParseInLocation(layout, raw, time.Local); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ParseDay reads the calendar date written in raw and returns it as local
// midnight. For "2026-10-17T00:00:00Z" this is Oct 17 local, not whatever
// day that instant falls on locally: a due date names a day, not an instant.
func ParseDay(raw string) (time.Time, bool) {
	t, ok := Parse(raw)
	if !ok {
		return time.Time{}, false
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.Local), true
}

// Format reformats raw with layout. On a parse failure it logs and returns
// raw unchanged so one bad record never aborts a batch.
func Format(raw, layout string) string {
	t, ok := Parse(raw)
	if !ok {
		if strings.TrimSpace(raw) != "" {
			appLog.Warn("dates: unparseable date, keeping raw value", "raw", raw)
		}
		return raw
	}
	return t.Format(layout)
}

// StartOfDay truncates t to midnight in t's own location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// Noon is 12:00 on t's calendar day.
func Noon(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 12, 0, 0, 0, t.Location())
}

// CompareDay orders a and b by calendar day only.
func CompareDay(a, b time.Time) int {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	switch {
	case ay != by:
		return cmp.Compare(ay, by)
	case am != bm:
		return cmp.Compare(am, bm)
	default:
		return cmp.Compare(ad, bd)
	}
}

// DaysIn returns the number of days in the given month.
func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// WithClock applies an "HH:MM" (or "HH:MM:SS") time of day to day. ok is
// false when clock does not parse, in which case day is returned as is.
func WithClock(day time.Time, clock string) (time.Time, bool) {
	clock = strings.TrimSpace(clock)
	if clock == "" {
		return day, false
	}
	var (
		t   time.Time
		err error
	)
	if strings.Count(clock, ":") == 2 {
		t, err = time.Parse("15:04:05", clock)
	} else {
		t, err = time.Parse(TimeLayout, clock)
	}
	if err != nil {
		appLog.Warn("dates: unparseable time of day", "raw", clock)
		return day, false
	}
	y, m, d := day.Date()
	return time.Date(y, m, d, t.Hour(), t.Minute(), t.Second(), 0, day.Location()), true
}

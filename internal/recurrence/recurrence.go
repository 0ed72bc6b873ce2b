// Package recurrence computes when a RecurringItem is next due.
//
// Every frequency lands at 12:00 local wall clock on its day. Weekly and
// quarterly schedules are evaluated with rrule-go from the same RRULE text
// the ICS export publishes, so the calendar feed and the "due" logic cannot
// drift apart.
package recurrence

import (
	"fmt"
	"time"

	"github.com/teambition/rrule-go"

	"chorecal/internal/dates"
	appLog "chorecal/internal/log"
	"chorecal/internal/model"
)

const (
	defaultMaxOccurrences = 5000
)

// RRule returns the RFC 5545 RRULE value for the item's frequency, or "" when
// the frequency is unknown or a yearly item has no usable day.
func RRule(it model.RecurringItem) string {
	switch it.Frequency {
	case model.FrequencyDaily:
		return "FREQ=DAILY"
	case model.FrequencyWeekly:
		return "FREQ=WEEKLY;BYDAY=SA"
	case model.FrequencyMonthly:
		return "FREQ=MONTHLY;BYMONTHDAY=1"
	case model.FrequencyQuarterly:
		return "FREQ=YEARLY;BYMONTH=3,6,9,12;BYMONTHDAY=-1"
	case model.FrequencyYearly:
		month, day, ok := yearlyDay(it, time.Local)
		if !ok {
			return ""
		}
		return fmt.Sprintf("FREQ=YEARLY;BYMONTH=%d;BYMONTHDAY=%d", int(month), day)
	default:
		return ""
	}
}

// Next returns the item's next scheduled occurrence relative to now. ok is
// false for an unknown frequency, which callers treat as "never due".
//
//   - Daily:     today 12:00
//   - Weekly:    the upcoming Saturday, today if it is Saturday, 12:00
//   - Monthly:   the 1st of the current month 12:00
//   - Quarterly: the last day of the nearest quarter-end month on or after today, 12:00
//   - Yearly:    specificYearlyDate (else the anchor's month/day) in the current year, 12:00
func Next(it model.RecurringItem, now time.Time) (time.Time, bool) {
	switch it.Frequency {
	case model.FrequencyDaily:
		return dates.Noon(now), true
	case model.FrequencyWeekly, model.FrequencyQuarterly:
		return nextByRule(it, now)
	case model.FrequencyMonthly:
		y, m, _ := now.Date()
		return time.Date(y, m, 1, 12, 0, 0, 0, now.Location()), true
	case model.FrequencyYearly:
		return nextYearly(it, now)
	default:
		return time.Time{}, false
	}
}

// IsDue reports whether the next occurrence is at or before now.
func IsDue(it model.RecurringItem, now time.Time) bool {
	next, ok := Next(it, now)
	return ok && !next.After(now)
}

// Due filters items down to the ones that are due at now, keeping order.
func Due(items []model.RecurringItem, now time.Time) []model.RecurringItem {
	out := make([]model.RecurringItem, 0)
	for _, it := range items {
		if IsDue(it, now) {
			out = append(out, it)
		}
	}
	return out
}

func nextByRule(it model.RecurringItem, now time.Time) (time.Time, bool) {
	r, err := rrule.StrToRRule(RRule(it))
	if err != nil {
		appLog.Error("recurrence: failed to build rule", err, "item_id", it.ID, "frequency", it.Frequency)
		return time.Time{}, false
	}
	r.DTStart(dates.Noon(now))

	next := r.After(dates.StartOfDay(now), true)
	if next.IsZero() {
		return time.Time{}, false
	}
	return next, true
}

func nextYearly(it model.RecurringItem, now time.Time) (time.Time, bool) {
	month, day, ok := yearlyDay(it, now.Location())
	if !ok {
		return time.Time{}, false
	}
	year := now.Year()
	if last := dates.DaysIn(year, month); day > last {
		day = last
	}
	return time.Date(year, month, day, 12, 0, 0, 0, now.Location()), true
}

// yearlyDay picks the month/day a yearly item falls on: a valid
// specificYearlyDate wins over the anchor.
func yearlyDay(it model.RecurringItem, loc *time.Location) (time.Month, int, bool) {
	if sd := it.SpecificYearlyDate; sd != nil && sd.Valid() {
		return time.Month(sd.Month + 1), sd.Day, true
	}
	anchor := it.Anchor()
	if anchor.IsZero() {
		return 0, 0, false
	}
	anchor = anchor.In(loc)
	return anchor.Month(), anchor.Day(), true
}

// ExpandConfig bounds an Occurrences call.
type ExpandConfig struct {
	// From / To define the inclusive window.
	From time.Time
	To   time.Time

	// MaxOccurrences caps the result. If zero, defaultMaxOccurrences is used.
	MaxOccurrences int
}

// Occurrences expands the item's schedule inside the window, for drawing a
// projected calendar when the backend generated no instances. The series
// starts at the anchor day (or From when there is no anchor), at noon.
// truncated is true when the cap was hit.
func Occurrences(it model.RecurringItem, cfg ExpandConfig) (out []time.Time, truncated bool) {
	out = make([]time.Time, 0)
	if cfg.To.Before(cfg.From) {
		return out, false
	}
	if cfg.MaxOccurrences <= 0 {
		cfg.MaxOccurrences = defaultMaxOccurrences
	}

	text := RRule(it)
	if text == "" {
		return out, false
	}
	r, err := rrule.StrToRRule(text)
	if err != nil {
		appLog.Error("recurrence: failed to build rule", err, "item_id", it.ID, "rrule", text)
		return out, false
	}

	start := cfg.From
	if anchor := it.Anchor(); !anchor.IsZero() && anchor.Before(cfg.From) {
		start = anchor.In(cfg.From.Location())
	}
	r.DTStart(dates.Noon(start))

	times := r.Between(cfg.From, cfg.To, true)
	if len(times) > cfg.MaxOccurrences {
		times = times[:cfg.MaxOccurrences]
		truncated = true
		appLog.Warn("recurrence: truncated occurrences", "item_id", it.ID, "cap", cfg.MaxOccurrences)
	}
	return append(out, times...), truncated
}

// FirstOnOrAfter returns the first occurrence of rule at or after from,
// keeping from's clock time. A series published with this as its DTSTART
// has no occurrence the rule itself would not produce.
func FirstOnOrAfter(rule string, from time.Time) (time.Time, bool) {
	r, err := rrule.StrToRRule(rule)
	if err != nil {
		appLog.Error("recurrence: failed to build rule", err, "rrule", rule)
		return time.Time{}, false
	}
	r.DTStart(from)

	first := r.After(from, true)
	if first.IsZero() {
		return time.Time{}, false
	}
	return first, true
}
